package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllValid(t *testing.T) {
	issues := Validate(
		[]IgnoreRule{
			{ID: "i1", Type: IgnoreTypeKeyPath, Pattern: "a.b", Enabled: true},
			{ID: "i2", Type: IgnoreTypeGlob, Pattern: "meta.*", Enabled: true},
			{ID: "i3", Type: IgnoreTypeRegex, Pattern: `^items\[\d+\]$`, Enabled: true},
		},
		[]TransformRule{
			{ID: "t1", Type: TransformTypeRound, Decimals: 2, Enabled: true},
			{ID: "t2", Type: TransformTypeLowercase, Enabled: true},
			{ID: "t3", Type: TransformTypeSortArray, Comparator: "a - b", Enabled: true},
			{ID: "t4", Type: TransformTypeCustom, Expression: "value", Enabled: true},
		},
	)

	assert.Empty(t, issues)
}

func TestValidate_InvalidRegex(t *testing.T) {
	issues := Validate([]IgnoreRule{
		{ID: "bad", Type: IgnoreTypeRegex, Pattern: "[unclosed", Enabled: true},
	}, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, "bad", issues[0].RuleID)
	assert.Equal(t, "pattern", issues[0].Field)
}

func TestValidate_UnknownIgnoreType(t *testing.T) {
	issues := Validate([]IgnoreRule{
		{ID: "bad", Type: "fuzzy", Pattern: "a", Enabled: true},
	}, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, "type", issues[0].Field)
}

func TestValidate_DecimalsOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		decimals int
		wantErr  bool
	}{
		{"below minimum", -1, true},
		{"minimum", 0, false},
		{"maximum", 20, false},
		{"above maximum", 21, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(nil, []TransformRule{
				{ID: "t1", Type: TransformTypeRound, Decimals: tt.decimals, Enabled: true},
			})
			if tt.wantErr {
				require.Len(t, issues, 1)
				assert.Equal(t, "decimals", issues[0].Field)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestValidate_InvalidComparator(t *testing.T) {
	issues := Validate(nil, []TransformRule{
		{ID: "t1", Type: TransformTypeSortArray, Comparator: "a -* b", Enabled: true},
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "comparator", issues[0].Field)
}

func TestValidate_EmptyCustomExpression(t *testing.T) {
	issues := Validate(nil, []TransformRule{
		{ID: "t1", Type: TransformTypeCustom, Expression: "", Enabled: true},
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "expression", issues[0].Field)
}

func TestValidate_InvalidCustomExpression(t *testing.T) {
	issues := Validate(nil, []TransformRule{
		{ID: "t1", Type: TransformTypeCustom, Expression: "value +*", Enabled: true},
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "expression", issues[0].Field)
}

func TestValidate_DisabledRulesSkipped(t *testing.T) {
	issues := Validate(
		[]IgnoreRule{
			{ID: "bad1", Type: IgnoreTypeRegex, Pattern: "[unclosed", Enabled: false},
		},
		[]TransformRule{
			{ID: "bad2", Type: TransformTypeRound, Decimals: 99, Enabled: false},
		},
	)

	assert.Empty(t, issues)
}

func TestValidate_MultipleIssues(t *testing.T) {
	issues := Validate(
		[]IgnoreRule{
			{ID: "bad1", Type: IgnoreTypeRegex, Pattern: "[unclosed", Enabled: true},
		},
		[]TransformRule{
			{ID: "bad2", Type: TransformTypeCustom, Expression: "", Enabled: true},
		},
	)

	require.Len(t, issues, 2)
	assert.Equal(t, "bad1", issues[0].RuleID)
	assert.Equal(t, "bad2", issues[1].RuleID)
}
