package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", `d: 30s`, 30 * time.Second, false},
		{"minutes", `d: 5m`, 5 * time.Minute, false},
		{"compound", `d: 1h30m`, 90 * time.Minute, false},
		{"empty string", `d: ""`, 0, false},
		{"invalid", `d: banana`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.D.Duration())
		})
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{D: Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "d: 1m30s\n", string(out))
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		D Duration `json:"d"`
	}

	data, err := json.Marshal(wrapper{D: Duration(45 * time.Second)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"45s"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 45*time.Second, out.D.Duration())
}

func TestDuration_UnmarshalJSONNull(t *testing.T) {
	var out struct {
		D Duration `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &out))
	assert.Equal(t, time.Duration(0), out.D.Duration())
}

func TestDuration_UnmarshalJSONInvalid(t *testing.T) {
	var out struct {
		D Duration `json:"d"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"d":"banana"}`), &out))
}
