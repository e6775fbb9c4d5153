// Package rules provides field-exclusion and value-normalization rules
// applied to documents before diff computation.
package rules

import "errors"

// Common rule errors.
var (
	// ErrUnknownRuleType indicates an unrecognized rule type.
	ErrUnknownRuleType = errors.New("unknown rule type")

	// ErrInvalidPattern indicates a pattern that fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrDecimalsOutOfRange indicates round decimals outside 0-20.
	ErrDecimalsOutOfRange = errors.New("round decimals out of range")

	// ErrInvalidExpression indicates a custom transform expression that
	// does not compile.
	ErrInvalidExpression = errors.New("invalid transform expression")
)

// IgnoreType identifies how an ignore rule matches field paths.
type IgnoreType string

// Supported ignore rule types.
const (
	IgnoreTypeKeyPath IgnoreType = "keyPath"
	IgnoreTypeGlob    IgnoreType = "glob"
	IgnoreTypeRegex   IgnoreType = "regex"
)

// IgnoreRule excludes fields from comparison. A keyPath rule matches by
// exact equality, a glob rule compiles * and ? into an anchored pattern,
// and a regex rule compiles the pattern as-is. A pattern that fails to
// compile never matches.
type IgnoreRule struct {
	ID      string     `json:"id" yaml:"id"`
	Type    IgnoreType `json:"type" yaml:"type"`
	Pattern string     `json:"pattern" yaml:"pattern"`
	Enabled bool       `json:"enabled" yaml:"enabled"`
}

// TransformType identifies a value normalization operation.
type TransformType string

// Supported transform rule types.
const (
	TransformTypeRound     TransformType = "round"
	TransformTypeLowercase TransformType = "lowercase"
	TransformTypeUppercase TransformType = "uppercase"
	TransformTypeSortArray TransformType = "sortArray"
	TransformTypeCustom    TransformType = "custom"
)

// Round decimal bounds.
const (
	MinRoundDecimals = 0
	MaxRoundDecimals = 20
)

// TransformRule normalizes values before comparison. TargetPath selects
// the paths the rule applies to, either exactly or as a glob; an empty
// target matches every path. Type-specific options are flattened onto
// the rule.
type TransformRule struct {
	ID         string        `json:"id" yaml:"id"`
	Type       TransformType `json:"type" yaml:"type"`
	TargetPath string        `json:"targetPath,omitempty" yaml:"targetPath,omitempty"`
	Enabled    bool          `json:"enabled" yaml:"enabled"`

	// Decimals is the number of decimal places for round rules.
	Decimals int `json:"decimals,omitempty" yaml:"decimals,omitempty"`

	// Descending reverses the default lexicographic order for sortArray
	// rules. Ignored when Comparator is set.
	Descending bool `json:"descending,omitempty" yaml:"descending,omitempty"`

	// Comparator is a CEL expression over variables a and b returning a
	// negative, zero, or positive integer, used by sortArray rules.
	Comparator string `json:"comparator,omitempty" yaml:"comparator,omitempty"`

	// Expression is a pure CEL expression over the variable value,
	// used by custom rules.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Issue describes a rule that failed validation. Invalid rules are
// excluded from matching (fail open) and reported for correction, never
// raised mid-diff.
type Issue struct {
	RuleID  string `json:"ruleId"`
	Field   string `json:"field"`
	Message string `json:"message"`
}
