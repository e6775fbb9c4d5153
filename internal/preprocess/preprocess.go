// Package preprocess rebuilds documents before diff computation,
// dropping ignored fields and applying value transforms.
package preprocess

import (
	"fmt"

	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/rules"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

// Preprocessor walks a document, drops keys matched by an ignore rule,
// and applies transforms to every remaining scalar and container,
// re-deriving the path at each level. The input document is never
// mutated.
type Preprocessor struct {
	logger     observability.Logger
	matcher    *rules.Matcher
	applicator *rules.Applicator
}

// New creates a Preprocessor from rule lists. Invalid rules are excluded
// fail-open; they are surfaced by rules.Validate, not here.
func New(
	ignoreRules []rules.IgnoreRule,
	transformRules []rules.TransformRule,
	logger observability.Logger,
) *Preprocessor {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Preprocessor{
		logger:     logger,
		matcher:    rules.NewMatcher(ignoreRules, logger),
		applicator: rules.NewApplicator(transformRules, logger),
	}
}

// Apply preprocesses a document. On any internal failure it logs a
// warning and returns the original document unchanged; preprocessing
// must never abort the overall diff.
func (p *Preprocessor) Apply(doc interface{}) (out interface{}) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("preprocessing failed, using original document",
				observability.String("panic", fmt.Sprint(r)))
			out = doc
		}
	}()

	return p.walk("", doc)
}

// walk rebuilds a value at the given path. Children are rebuilt first so
// container-level transforms (e.g. sortArray) observe transformed
// elements.
func (p *Preprocessor) walk(path string, value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		rebuilt := make(map[string]interface{}, len(v))
		for key, child := range v {
			childPath := util.JoinKey(path, key)
			if p.matcher.Matches(childPath) {
				continue
			}
			rebuilt[key] = p.walk(childPath, child)
		}
		return p.applicator.Apply(path, rebuilt)

	case []interface{}:
		rebuilt := make([]interface{}, len(v))
		for i, child := range v {
			rebuilt[i] = p.walk(util.JoinIndex(path, i), child)
		}
		return p.applicator.Apply(path, rebuilt)

	default:
		return p.applicator.Apply(path, v)
	}
}
