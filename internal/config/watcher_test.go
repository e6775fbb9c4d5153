package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path string, port int) {
	t.Helper()

	content := fmt.Sprintf("server:\n  port: %d\n", port)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, 8080)

	var mu sync.Mutex
	var seen []*ServiceConfig

	w, err := NewWatcher(path, func(cfg *ServiceConfig) {
		mu.Lock()
		seen = append(seen, cfg)
		mu.Unlock()
	}, WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	initial := w.GetLastConfig()
	require.NotNil(t, initial)
	assert.Equal(t, 8080, initial.Server.Port)

	writeConfigFile(t, path, 9090)

	require.Eventually(t, func() bool {
		return w.GetLastConfig().Server.Port == 9090
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 9090, seen[len(seen)-1].Server.Port)
}

func TestWatcher_InvalidEditKeepsLastConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, 8080)

	errCh := make(chan error, 4)

	w, err := NewWatcher(path, nil,
		WithDebounceDelay(20*time.Millisecond),
		WithErrorCallback(func(e error) { errCh <- e }),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Port 0 fails validation; the last good config must survive.
	writeConfigFile(t, path, 0)

	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload error")
	}

	assert.Equal(t, 8080, w.GetLastConfig().Server.Port)
}

func TestWatcher_StartFailsOnInvalidInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, 0)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ForceReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, 8080)

	called := false
	w, err := NewWatcher(path, func(*ServiceConfig) { called = true })
	require.NoError(t, err)

	writeConfigFile(t, path, 9191)
	require.NoError(t, w.ForceReload())

	assert.True(t, called)
	assert.Equal(t, 9191, w.GetLastConfig().Server.Port)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, 8080)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
