package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/rules"
)

func TestPreprocessor_DropsIgnoredKeys(t *testing.T) {
	p := New([]rules.IgnoreRule{
		{ID: "r1", Type: rules.IgnoreTypeKeyPath, Pattern: "metadata.updatedAt", Enabled: true},
	}, nil, observability.NopLogger())

	doc := map[string]interface{}{
		"metadata": map[string]interface{}{
			"updatedAt": "2026-01-01",
			"createdAt": "2025-01-01",
		},
		"name": "svc",
	}

	got := p.Apply(doc)

	want := map[string]interface{}{
		"metadata": map[string]interface{}{
			"createdAt": "2025-01-01",
		},
		"name": "svc",
	}
	assert.Equal(t, want, got)
}

func TestPreprocessor_DropsNestedSubtree(t *testing.T) {
	p := New([]rules.IgnoreRule{
		{ID: "r1", Type: rules.IgnoreTypeKeyPath, Pattern: "spec", Enabled: true},
	}, nil, observability.NopLogger())

	doc := map[string]interface{}{
		"spec": map[string]interface{}{"replicas": 3.0},
		"name": "svc",
	}

	got := p.Apply(doc)
	assert.Equal(t, map[string]interface{}{"name": "svc"}, got)
}

func TestPreprocessor_IgnoreInsideArrayElements(t *testing.T) {
	p := New([]rules.IgnoreRule{
		{ID: "r1", Type: rules.IgnoreTypeGlob, Pattern: "items[*].debug", Enabled: true},
	}, nil, observability.NopLogger())

	doc := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": "a", "debug": true},
			map[string]interface{}{"id": "b", "debug": false},
		},
	}

	got := p.Apply(doc)

	want := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": "a"},
			map[string]interface{}{"id": "b"},
		},
	}
	assert.Equal(t, want, got)
}

func TestPreprocessor_AppliesTransformsAtEveryLevel(t *testing.T) {
	p := New(nil, []rules.TransformRule{
		{ID: "t1", Type: rules.TransformTypeRound, Decimals: 1, Enabled: true},
		{ID: "t2", Type: rules.TransformTypeLowercase, Enabled: true},
	}, observability.NopLogger())

	doc := map[string]interface{}{
		"price": 3.149,
		"nested": map[string]interface{}{
			"label": "Nested LABEL",
		},
		"tags": []interface{}{"Tag", 1.26},
	}

	got := p.Apply(doc)

	want := map[string]interface{}{
		"price": 3.1,
		"nested": map[string]interface{}{
			"label": "nested label",
		},
		"tags": []interface{}{"tag", 1.3},
	}
	assert.Equal(t, want, got)
}

func TestPreprocessor_SortArrayObservesTransformedElements(t *testing.T) {
	// Children are rebuilt before the container transform runs, so the
	// sort sees lowercased values.
	p := New(nil, []rules.TransformRule{
		{ID: "t1", Type: rules.TransformTypeLowercase, Enabled: true},
		{ID: "t2", Type: rules.TransformTypeSortArray, TargetPath: "tags", Enabled: true},
	}, observability.NopLogger())

	doc := map[string]interface{}{
		"tags": []interface{}{"Zebra", "apple"},
	}

	got := p.Apply(doc)
	assert.Equal(t, map[string]interface{}{
		"tags": []interface{}{"apple", "zebra"},
	}, got)
}

func TestPreprocessor_DoesNotMutateInput(t *testing.T) {
	p := New(
		[]rules.IgnoreRule{
			{ID: "r1", Type: rules.IgnoreTypeKeyPath, Pattern: "drop", Enabled: true},
		},
		[]rules.TransformRule{
			{ID: "t1", Type: rules.TransformTypeUppercase, Enabled: true},
		},
		observability.NopLogger(),
	)

	doc := map[string]interface{}{
		"drop": "x",
		"keep": "value",
		"arr":  []interface{}{"a"},
	}

	p.Apply(doc)

	assert.Equal(t, map[string]interface{}{
		"drop": "x",
		"keep": "value",
		"arr":  []interface{}{"a"},
	}, doc)
}

func TestPreprocessor_ScalarDocument(t *testing.T) {
	p := New(nil, []rules.TransformRule{
		{ID: "t1", Type: rules.TransformTypeUppercase, Enabled: true},
	}, observability.NopLogger())

	assert.Equal(t, "HELLO", p.Apply("hello"))
}

func TestPreprocessor_NilDocument(t *testing.T) {
	p := New(nil, nil, observability.NopLogger())
	assert.Nil(t, p.Apply(nil))
}

func TestPreprocessor_NoRulesIsIdentity(t *testing.T) {
	p := New(nil, nil, observability.NopLogger())

	doc := map[string]interface{}{
		"a": []interface{}{1.0, nil, "x"},
		"b": map[string]interface{}{"c": false},
	}

	assert.Equal(t, doc, p.Apply(doc))
}
