package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avjsondiff/internal/delta"
	"github.com/vyrodovalexey/avjsondiff/internal/rules"
	"github.com/vyrodovalexey/avjsondiff/internal/tree"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

func version(id string, payload interface{}) Version {
	return Version{ID: id, Label: id, Payload: payload}
}

func TestComputeDiff_IdenticalDocuments(t *testing.T) {
	eng := New()

	doc := map[string]interface{}{
		"name": "svc",
		"spec": map[string]interface{}{"replicas": 3.0},
	}

	result, err := eng.ComputeDiff(context.Background(), version("a", doc), version("b", doc), Options{})
	require.NoError(t, err)

	assert.Equal(t, "a", result.VersionA)
	assert.Equal(t, "b", result.VersionB)
	assert.Equal(t, tree.KindUnchanged, result.Root.Kind)
	assert.Empty(t, result.Root.Children)
	assert.Equal(t, 1, result.Stats.Nodes)
}

func TestComputeDiff_Deterministic(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{"x": 1.0, "y": []interface{}{1.0, 2.0}})
	b := version("b", map[string]interface{}{"x": 2.0, "y": []interface{}{1.0, 3.0}, "z": true})

	first, err := eng.ComputeDiff(context.Background(), a, b, Options{})
	require.NoError(t, err)
	second, err := eng.ComputeDiff(context.Background(), a, b, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Root, second.Root)
	assert.Equal(t, first.Stats.Nodes, second.Stats.Nodes)
	assert.Equal(t, first.OptionsKey, second.OptionsKey)
}

func TestComputeDiff_NullDistinctFromAbsent(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{"owner": nil})
	b := version("b", map[string]interface{}{})

	result, err := eng.ComputeDiff(context.Background(), a, b, Options{})
	require.NoError(t, err)

	require.Len(t, result.Root.Children, 1)
	owner := result.Root.Children[0]
	assert.Equal(t, "owner", owner.Path)
	assert.Equal(t, tree.KindRemoved, owner.Kind)
	assert.Nil(t, owner.Before)
}

func TestComputeDiff_IgnoreRulesExcludePaths(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{
		"metadata": map[string]interface{}{"updatedAt": "t1"},
		"name":     "svc",
	})
	b := version("b", map[string]interface{}{
		"metadata": map[string]interface{}{"updatedAt": "t2"},
		"name":     "svc",
	})

	opts := Options{
		IgnoreRules: []rules.IgnoreRule{
			{ID: "ts", Type: rules.IgnoreTypeKeyPath, Pattern: "metadata.updatedAt", Enabled: true},
		},
	}

	result, err := eng.ComputeDiff(context.Background(), a, b, opts)
	require.NoError(t, err)
	assert.Equal(t, tree.KindUnchanged, result.Root.Kind)
}

func TestComputeDiff_TransformEquivalence(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{"price": 3.14159})
	b := version("b", map[string]interface{}{"price": 3.14})

	opts := Options{
		TransformRules: []rules.TransformRule{
			{ID: "round", Type: rules.TransformTypeRound, Decimals: 2, Enabled: true},
		},
	}

	result, err := eng.ComputeDiff(context.Background(), a, b, opts)
	require.NoError(t, err)
	assert.Equal(t, tree.KindUnchanged, result.Root.Kind)
}

func TestComputeDiff_KeyedArray(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"id": "u1", "role": "viewer"},
			map[string]interface{}{"id": "u2", "role": "admin"},
		},
	})
	b := version("b", map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"id": "u2", "role": "admin"},
			map[string]interface{}{"id": "u1", "role": "editor"},
		},
	})

	opts := Options{ArrayStrategy: delta.StrategyKeyed, ArrayKeyPath: "id"}

	result, err := eng.ComputeDiff(context.Background(), a, b, opts)
	require.NoError(t, err)

	require.Len(t, result.Root.Children, 1)
	users := result.Root.Children[0]
	assert.Equal(t, delta.StrategyKeyed, users.Metadata.ArrayStrategy)
	// Only u1 changed; u2 moved without modification.
	assert.Equal(t, 1, users.Metadata.CountChanged)
}

func TestComputeDiff_KeyedWithoutKeyPath(t *testing.T) {
	eng := New()

	a := version("a", map[string]interface{}{"x": 1.0})
	b := version("b", map[string]interface{}{"x": 2.0})

	_, err := eng.ComputeDiff(context.Background(), a, b, Options{ArrayStrategy: delta.StrategyKeyed})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestComputeDiff_Cancellation(t *testing.T) {
	eng := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ComputeDiff(ctx, version("a", 1.0), version("b", 2.0), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrCancelled)
}

func TestComputeDiffWithProgress_Milestones(t *testing.T) {
	eng := New()

	var seen []int
	_, err := eng.ComputeDiffWithProgress(
		context.Background(),
		version("a", map[string]interface{}{"x": 1.0}),
		version("b", map[string]interface{}{"x": 2.0}),
		Options{},
		func(percent int) { seen = append(seen, percent) },
	)
	require.NoError(t, err)

	assert.Equal(t, []int{ProgressStart, ProgressPreprocessed, ProgressDelta, ProgressDone}, seen)
}

func TestValidateOptions(t *testing.T) {
	eng := New()

	t.Run("valid options", func(t *testing.T) {
		issues, err := eng.ValidateOptions(Options{ArrayStrategy: delta.StrategyIndex})
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("rule issues are recoverable", func(t *testing.T) {
		issues, err := eng.ValidateOptions(Options{
			IgnoreRules: []rules.IgnoreRule{
				{ID: "bad", Type: rules.IgnoreTypeRegex, Pattern: "[unclosed", Enabled: true},
			},
		})
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "bad", issues[0].RuleID)
	})

	t.Run("keyed without key path is fatal", func(t *testing.T) {
		_, err := eng.ValidateOptions(Options{ArrayStrategy: delta.StrategyKeyed})
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("unknown strategy is fatal", func(t *testing.T) {
		_, err := eng.ValidateOptions(Options{ArrayStrategy: "fuzzy"})
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})
}

func TestNewVersion(t *testing.T) {
	v := NewVersion("baseline", "upload", map[string]interface{}{"a": 1.0})

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "baseline", v.Label)
	assert.Equal(t, "upload", v.Source)
	assert.False(t, v.Timestamp.IsZero())

	other := NewVersion("baseline", "upload", nil)
	assert.NotEqual(t, v.ID, other.ID)
}
