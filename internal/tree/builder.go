package tree

import (
	"github.com/vyrodovalexey/avjsondiff/internal/delta"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

// DefaultTruncateThreshold is the child count above which a node is
// tagged as truncated.
const DefaultTruncateThreshold = 100

// Builder converts a structural delta into a diff tree.
type Builder struct {
	truncateThreshold int
}

// NewBuilder creates a Builder with the default truncation threshold.
func NewBuilder() *Builder {
	return &Builder{truncateThreshold: DefaultTruncateThreshold}
}

// NewBuilderWithThreshold creates a Builder with a custom truncation
// threshold. A threshold of zero or less disables truncation tagging.
func NewBuilderWithThreshold(threshold int) *Builder {
	return &Builder{truncateThreshold: threshold}
}

// Build converts a delta into a diff tree rooted at the empty path.
// The default strategy tags composite nodes outside any array.
func (b *Builder) Build(d *delta.Delta, defaultStrategy delta.Strategy) *DiffNode {
	if defaultStrategy == "" {
		defaultStrategy = delta.StrategyIndex
	}
	return b.build("", d, defaultStrategy)
}

// build converts one delta slot. The strategy is the one inherited from
// the nearest enclosing array, or the document default.
func (b *Builder) build(path string, d *delta.Delta, strategy delta.Strategy) *DiffNode {
	switch d.Kind {
	case delta.KindUnchanged:
		return &DiffNode{Path: path, Kind: KindUnchanged}

	case delta.KindAdded:
		return &DiffNode{Path: path, Kind: KindAdded, After: d.After}

	case delta.KindRemoved:
		return &DiffNode{Path: path, Kind: KindRemoved, Before: d.Before}

	case delta.KindModified:
		return &DiffNode{Path: path, Kind: KindModified, Before: d.Before, After: d.After}

	case delta.KindObject:
		return b.buildComposite(path, d, strategy, false)

	case delta.KindArray:
		if d.Strategy != "" {
			strategy = d.Strategy
		}
		return b.buildComposite(path, d, strategy, true)

	default:
		return &DiffNode{Path: path, Kind: KindUnchanged}
	}
}

// buildComposite converts an object or array delta into a modified node
// carrying child nodes and metadata.
func (b *Builder) buildComposite(path string, d *delta.Delta, strategy delta.Strategy, isArray bool) *DiffNode {
	children := make([]*DiffNode, 0, len(d.Children))
	countChanged := 0

	for slot, child := range d.Children {
		var childPath string
		if isArray {
			childPath = util.JoinIndex(path, slot)
		} else {
			childPath = util.JoinKey(path, child.Key)
		}

		node := b.build(childPath, child.Delta, strategy)
		if node.Kind != KindUnchanged {
			countChanged++
		}
		children = append(children, node)
	}

	node := &DiffNode{
		Path:     path,
		Kind:     KindModified,
		Children: children,
		Metadata: &Metadata{
			CountChanged:  countChanged,
			ArrayStrategy: strategy,
		},
	}

	if b.truncateThreshold > 0 && len(children) > b.truncateThreshold {
		node.Metadata.IsTruncated = true
	}

	return node
}
