package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		arr  []interface{}
		want Suggestion
	}{
		{
			name: "all primitives",
			arr:  []interface{}{"a", 1.0, true, nil},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceHigh},
		},
		{
			name: "empty array",
			arr:  []interface{}{},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceHigh},
		},
		{
			name: "objects with unique ids",
			arr: []interface{}{
				map[string]interface{}{"id": "a"},
				map[string]interface{}{"id": "b"},
			},
			want: Suggestion{Strategy: StrategyKeyed, KeyField: "id", Confidence: ConfidenceMedium},
		},
		{
			name: "objects fall back to name field",
			arr: []interface{}{
				map[string]interface{}{"name": "x"},
				map[string]interface{}{"name": "y"},
			},
			want: Suggestion{Strategy: StrategyKeyed, KeyField: "name", Confidence: ConfidenceMedium},
		},
		{
			name: "id preferred over name",
			arr: []interface{}{
				map[string]interface{}{"id": "a", "name": "x"},
				map[string]interface{}{"id": "b", "name": "y"},
			},
			want: Suggestion{Strategy: StrategyKeyed, KeyField: "id", Confidence: ConfidenceMedium},
		},
		{
			name: "duplicate ids disqualify the field",
			arr: []interface{}{
				map[string]interface{}{"id": "a"},
				map[string]interface{}{"id": "a"},
			},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow},
		},
		{
			name: "missing id on one element",
			arr: []interface{}{
				map[string]interface{}{"id": "a"},
				map[string]interface{}{"other": "b"},
			},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow},
		},
		{
			name: "composite id disqualifies",
			arr: []interface{}{
				map[string]interface{}{"id": map[string]interface{}{"v": 1.0}},
				map[string]interface{}{"id": "b"},
			},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow},
		},
		{
			name: "mixed primitives and objects",
			arr: []interface{}{
				"scalar",
				map[string]interface{}{"id": "a"},
			},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow},
		},
		{
			name: "nested arrays",
			arr: []interface{}{
				[]interface{}{1.0},
				[]interface{}{2.0},
			},
			want: Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.arr))
		})
	}
}
