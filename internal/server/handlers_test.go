package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avjsondiff/internal/cache"
	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/jobqueue"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

type testAPI struct {
	router *gin.Engine
	queue  *jobqueue.Queue
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	gin.SetMode(gin.TestMode)

	eng := engine.New()

	qcfg := jobqueue.DefaultConfig()
	qcfg.SlotPollInterval = 5 * time.Millisecond
	queue := jobqueue.New(eng, qcfg)
	t.Cleanup(queue.Close)

	store, err := cache.New(&config.CacheConfig{
		Enabled:    true,
		Type:       config.CacheTypeMemory,
		TTL:        config.Duration(time.Minute),
		MaxEntries: 100,
	}, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	results := cache.NewResultStore(store, observability.NopLogger(), time.Minute)

	handler := NewHandler(eng, queue, results, nil, observability.NopLogger())

	router := gin.New()
	handler.Register(router)

	return &testAPI{router: router, queue: queue}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func diffRequest(idA, idB string, payloadA, payloadB interface{}) map[string]interface{} {
	return map[string]interface{}{
		"versionA": map[string]interface{}{"id": idA, "label": "a", "payload": payloadA},
		"versionB": map[string]interface{}{"id": idB, "label": "b", "payload": payloadB},
	}
}

func TestComputeDiff_OK(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/diff", diffRequest("", "",
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["cached"])

	result := body["result"].(map[string]interface{})
	root := result["root"].(map[string]interface{})
	assert.Equal(t, "modified", root["kind"])
}

func TestComputeDiff_CachedOnRepeat(t *testing.T) {
	api := newTestAPI(t)

	req := diffRequest("va", "vb",
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	)

	first := api.do(t, http.MethodPost, "/v1/diff", req)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, false, decodeBody(t, first)["cached"])

	second := api.do(t, http.MethodPost, "/v1/diff", req)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, true, decodeBody(t, second)["cached"])
}

func TestComputeDiff_GeneratedIDsNeverCached(t *testing.T) {
	api := newTestAPI(t)

	req := diffRequest("", "",
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	)

	api.do(t, http.MethodPost, "/v1/diff", req)
	second := api.do(t, http.MethodPost, "/v1/diff", req)
	assert.Equal(t, false, decodeBody(t, second)["cached"])
}

func TestComputeDiff_InvalidBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/diff", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeDiff_KeyedWithoutKeyPath(t *testing.T) {
	api := newTestAPI(t)

	req := diffRequest("", "", []interface{}{1}, []interface{}{2})
	req["options"] = map[string]interface{}{"arrayStrategy": "keyed"}

	w := api.do(t, http.MethodPost, "/v1/diff", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeDiff_RuleIssues(t *testing.T) {
	api := newTestAPI(t)

	req := diffRequest("", "",
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	)
	req["options"] = map[string]interface{}{
		"ignoreRules": []interface{}{
			map[string]interface{}{"id": "bad", "type": "regex", "pattern": "[unclosed", "enabled": true},
		},
	}

	w := api.do(t, http.MethodPost, "/v1/diff", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	require.Contains(t, body, "issues")
	issues := body["issues"].([]interface{})
	require.Len(t, issues, 1)
	assert.Equal(t, "bad", issues[0].(map[string]interface{})["ruleId"])
}

func TestAnalyzeArray(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/diff/analyze", map[string]interface{}{
		"array": []interface{}{
			map[string]interface{}{"id": "a"},
			map[string]interface{}{"id": "b"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	suggestion := decodeBody(t, w)["suggestion"].(map[string]interface{})
	assert.Equal(t, "keyed", suggestion["strategy"])
	assert.Equal(t, "id", suggestion["keyField"])
}

func TestJobLifecycle(t *testing.T) {
	api := newTestAPI(t)

	submit := api.do(t, http.MethodPost, "/v1/jobs", diffRequest("", "",
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	))
	require.Equal(t, http.StatusAccepted, submit.Code)

	id := decodeBody(t, submit)["id"].(string)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		w := api.do(t, http.MethodGet, "/v1/jobs/"+id, nil)
		if w.Code != http.StatusOK {
			return false
		}
		return decodeBody(t, w)["status"] == "completed"
	}, 3*time.Second, 10*time.Millisecond)

	status := api.do(t, http.MethodGet, "/v1/jobs/"+id, nil)
	body := decodeBody(t, status)
	assert.EqualValues(t, 100, body["progress"])
	assert.Contains(t, body, "result")
}

func TestJobStatus_NotFound(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelJob(t *testing.T) {
	api := newTestAPI(t)

	t.Run("unknown job", func(t *testing.T) {
		w := api.do(t, http.MethodDelete, "/v1/jobs/no-such-job", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("terminal job is a conflict", func(t *testing.T) {
		submit := api.do(t, http.MethodPost, "/v1/jobs", diffRequest("", "",
			map[string]interface{}{"x": 1},
			map[string]interface{}{"x": 1},
		))
		require.Equal(t, http.StatusAccepted, submit.Code)
		id := decodeBody(t, submit)["id"].(string)

		require.Eventually(t, func() bool {
			w := api.do(t, http.MethodGet, "/v1/jobs/"+id, nil)
			return decodeBody(t, w)["status"] == "completed"
		}, 3*time.Second, 10*time.Millisecond)

		w := api.do(t, http.MethodDelete, "/v1/jobs/"+id, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestQueueStats(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/queue/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, jobqueue.DefaultMaxConcurrentJobs, body["maxConcurrentJobs"])
	assert.EqualValues(t, jobqueue.DefaultMaxQueueSize, body["maxQueueSize"])
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
