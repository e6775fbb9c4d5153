package rules

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/google/cel-go/cel"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Applicator applies every enabled transform rule whose target matches a
// path, in declaration order. Non-applicable rule/value-type combinations
// are no-ops, and a rule that fails to compile is skipped at
// construction.
type Applicator struct {
	logger     observability.Logger
	transforms []compiledTransform
}

// compiledTransform pairs a rule with its pre-compiled programs.
type compiledTransform struct {
	rule       TransformRule
	custom     cel.Program
	comparator cel.Program
}

// NewApplicator creates an Applicator from the enabled transform rules.
// Invalid rules are dropped silently; use Validate to surface them to
// the caller.
func NewApplicator(transformRules []TransformRule, logger observability.Logger) *Applicator {
	if logger == nil {
		logger = observability.NopLogger()
	}

	a := &Applicator{logger: logger}

	for _, rule := range transformRules {
		if !rule.Enabled {
			continue
		}

		ct := compiledTransform{rule: rule}

		switch rule.Type {
		case TransformTypeRound:
			if rule.Decimals < MinRoundDecimals || rule.Decimals > MaxRoundDecimals {
				logger.Debug("skipping round rule with out-of-range decimals",
					observability.String("ruleId", rule.ID),
					observability.Int("decimals", rule.Decimals))
				continue
			}
		case TransformTypeLowercase, TransformTypeUppercase:
			// No options to validate.
		case TransformTypeSortArray:
			if rule.Comparator != "" {
				prg, err := CompileComparatorExpression(rule.Comparator)
				if err != nil {
					logger.Debug("skipping sortArray rule with invalid comparator",
						observability.String("ruleId", rule.ID),
						observability.Error(err))
					continue
				}
				ct.comparator = prg
			}
		case TransformTypeCustom:
			prg, err := CompileCustomExpression(rule.Expression)
			if err != nil {
				logger.Debug("skipping custom rule with invalid expression",
					observability.String("ruleId", rule.ID),
					observability.Error(err))
				continue
			}
			ct.custom = prg
		default:
			logger.Debug("skipping transform rule with unknown type",
				observability.String("ruleId", rule.ID),
				observability.String("type", string(rule.Type)))
			continue
		}

		a.transforms = append(a.transforms, ct)
	}

	return a
}

// Empty reports whether the applicator holds no usable transforms.
func (a *Applicator) Empty() bool {
	return len(a.transforms) == 0
}

// Apply runs every matching transform against the value, in declaration
// order, and returns the transformed value.
func (a *Applicator) Apply(path string, value interface{}) interface{} {
	for _, ct := range a.transforms {
		if !MatchesTarget(ct.rule.TargetPath, path) {
			continue
		}
		value = a.applyOne(ct, value)
	}
	return value
}

// applyOne applies a single transform. Type mismatches are no-ops.
func (a *Applicator) applyOne(ct compiledTransform, value interface{}) interface{} {
	switch ct.rule.Type {
	case TransformTypeRound:
		return roundValue(value, ct.rule.Decimals)
	case TransformTypeLowercase:
		if s, ok := value.(string); ok {
			return cases.Lower(language.Und).String(s)
		}
	case TransformTypeUppercase:
		if s, ok := value.(string); ok {
			return cases.Upper(language.Und).String(s)
		}
	case TransformTypeSortArray:
		if arr, ok := value.([]interface{}); ok {
			return a.sortArray(ct, arr)
		}
	case TransformTypeCustom:
		out, err := evalCustom(ct.custom, value)
		if err != nil {
			a.logger.Debug("custom transform evaluation failed",
				observability.String("ruleId", ct.rule.ID),
				observability.Error(err))
			return value
		}
		return out
	}
	return value
}

// roundValue rounds numeric values to the given number of decimals.
func roundValue(value interface{}, decimals int) interface{} {
	f, ok := value.(float64)
	if !ok {
		return value
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(f*factor) / factor
}

// sortArray returns a sorted copy of the array. A comparator takes
// precedence over the descending flag; without one, elements sort
// lexicographically ascending, reversed when descending is set.
func (a *Applicator) sortArray(ct compiledTransform, arr []interface{}) []interface{} {
	out := make([]interface{}, len(arr))
	copy(out, arr)

	if ct.comparator != nil {
		sort.SliceStable(out, func(i, j int) bool {
			cmp, err := evalComparator(ct.comparator, out[i], out[j])
			if err != nil {
				a.logger.Debug("comparator evaluation failed",
					observability.String("ruleId", ct.rule.ID),
					observability.Error(err))
				return false
			}
			return cmp < 0
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := sortKey(out[i]), sortKey(out[j])
		if ct.rule.Descending {
			return kj < ki
		}
		return ki < kj
	})
	return out
}

// sortKey derives the lexicographic sort key for an array element.
func sortKey(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}

	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}
