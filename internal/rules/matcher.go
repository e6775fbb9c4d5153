package rules

import (
	"regexp"
	"strings"

	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Matcher decides whether a field path is excluded by an ignore rule.
// Rules that fail to compile are skipped at construction and never match.
type Matcher struct {
	logger observability.Logger
	exact  map[string]struct{}
	regexs []*regexp.Regexp
}

// NewMatcher creates a Matcher from the enabled ignore rules. Invalid
// patterns are dropped silently; use Validate to surface them to the
// caller.
func NewMatcher(ignoreRules []IgnoreRule, logger observability.Logger) *Matcher {
	if logger == nil {
		logger = observability.NopLogger()
	}

	m := &Matcher{
		logger: logger,
		exact:  make(map[string]struct{}),
	}

	for _, rule := range ignoreRules {
		if !rule.Enabled {
			continue
		}

		switch rule.Type {
		case IgnoreTypeKeyPath:
			m.exact[rule.Pattern] = struct{}{}
		case IgnoreTypeGlob:
			re, err := CompileGlob(rule.Pattern)
			if err != nil {
				logger.Debug("skipping ignore rule with invalid glob",
					observability.String("ruleId", rule.ID),
					observability.Error(err))
				continue
			}
			m.regexs = append(m.regexs, re)
		case IgnoreTypeRegex:
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				logger.Debug("skipping ignore rule with invalid regex",
					observability.String("ruleId", rule.ID),
					observability.Error(err))
				continue
			}
			m.regexs = append(m.regexs, re)
		default:
			logger.Debug("skipping ignore rule with unknown type",
				observability.String("ruleId", rule.ID),
				observability.String("type", string(rule.Type)))
		}
	}

	return m
}

// Matches reports whether the path is excluded by any ignore rule.
func (m *Matcher) Matches(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}

	for _, re := range m.regexs {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}

// CompileGlob compiles a glob pattern supporting * (any run of
// characters) and ? (a single character) into an anchored regexp.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString("$")

	return regexp.Compile(b.String())
}

// MatchesTarget reports whether a transform target selects the path. An
// empty target matches every path; a target containing * or ? is treated
// as a glob, anything else as an exact path.
func MatchesTarget(target, path string) bool {
	if target == "" {
		return true
	}

	if strings.ContainsAny(target, "*?") {
		re, err := CompileGlob(target)
		if err != nil {
			return false
		}
		return re.MatchString(path)
	}

	return target == path
}
