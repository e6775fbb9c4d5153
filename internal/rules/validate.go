package rules

import (
	"fmt"
	"regexp"
)

// Validate runs the dedicated validation pass over rule lists. It
// returns one Issue per invalid rule; invalid rules are excluded from
// matching at construction time (fail open), so validation never aborts
// a diff. Disabled rules are not validated.
func Validate(ignoreRules []IgnoreRule, transformRules []TransformRule) []Issue {
	var issues []Issue

	for _, rule := range ignoreRules {
		if !rule.Enabled {
			continue
		}
		if issue := validateIgnoreRule(rule); issue != nil {
			issues = append(issues, *issue)
		}
	}

	for _, rule := range transformRules {
		if !rule.Enabled {
			continue
		}
		if issue := validateTransformRule(rule); issue != nil {
			issues = append(issues, *issue)
		}
	}

	return issues
}

// validateIgnoreRule checks a single ignore rule.
func validateIgnoreRule(rule IgnoreRule) *Issue {
	switch rule.Type {
	case IgnoreTypeKeyPath:
		return nil
	case IgnoreTypeGlob:
		if _, err := CompileGlob(rule.Pattern); err != nil {
			return &Issue{
				RuleID:  rule.ID,
				Field:   "pattern",
				Message: fmt.Sprintf("glob does not compile: %v", err),
			}
		}
	case IgnoreTypeRegex:
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return &Issue{
				RuleID:  rule.ID,
				Field:   "pattern",
				Message: fmt.Sprintf("regex does not compile: %v", err),
			}
		}
	default:
		return &Issue{
			RuleID:  rule.ID,
			Field:   "type",
			Message: fmt.Sprintf("unknown ignore rule type %q", rule.Type),
		}
	}
	return nil
}

// validateTransformRule checks a single transform rule.
func validateTransformRule(rule TransformRule) *Issue {
	if issue := validateTargetPath(rule); issue != nil {
		return issue
	}

	switch rule.Type {
	case TransformTypeRound:
		if rule.Decimals < MinRoundDecimals || rule.Decimals > MaxRoundDecimals {
			return &Issue{
				RuleID: rule.ID,
				Field:  "decimals",
				Message: fmt.Sprintf("decimals must be between %d and %d, got %d",
					MinRoundDecimals, MaxRoundDecimals, rule.Decimals),
			}
		}
	case TransformTypeLowercase, TransformTypeUppercase:
		return nil
	case TransformTypeSortArray:
		if rule.Comparator != "" {
			if _, err := CompileComparatorExpression(rule.Comparator); err != nil {
				return &Issue{
					RuleID:  rule.ID,
					Field:   "comparator",
					Message: fmt.Sprintf("comparator does not compile: %v", err),
				}
			}
		}
	case TransformTypeCustom:
		if rule.Expression == "" {
			return &Issue{
				RuleID:  rule.ID,
				Field:   "expression",
				Message: "custom rule requires an expression",
			}
		}
		if _, err := CompileCustomExpression(rule.Expression); err != nil {
			return &Issue{
				RuleID:  rule.ID,
				Field:   "expression",
				Message: fmt.Sprintf("expression does not compile: %v", err),
			}
		}
	default:
		return &Issue{
			RuleID:  rule.ID,
			Field:   "type",
			Message: fmt.Sprintf("unknown transform rule type %q", rule.Type),
		}
	}
	return nil
}

// validateTargetPath checks the glob syntax of a transform target.
func validateTargetPath(rule TransformRule) *Issue {
	if rule.TargetPath == "" {
		return nil
	}

	if _, err := CompileGlob(rule.TargetPath); err != nil {
		return &Issue{
			RuleID:  rule.ID,
			Field:   "targetPath",
			Message: fmt.Sprintf("target path does not compile: %v", err),
		}
	}
	return nil
}
