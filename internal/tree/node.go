// Package tree converts a structural delta into a navigable, annotated
// diff tree.
package tree

import (
	"encoding/json"

	"github.com/vyrodovalexey/avjsondiff/internal/delta"
)

// NodeKind classifies a diff tree node.
type NodeKind string

// Diff node kinds.
const (
	KindAdded     NodeKind = "added"
	KindRemoved   NodeKind = "removed"
	KindModified  NodeKind = "modified"
	KindUnchanged NodeKind = "unchanged"
)

// Metadata annotates a composite node.
type Metadata struct {
	// CountChanged is the number of direct non-unchanged children.
	CountChanged int `json:"countChanged,omitempty"`

	// IsTruncated marks nodes with more than the child display limit.
	// It is a rendering hint only; children are never dropped.
	IsTruncated bool `json:"isTruncated,omitempty"`

	// ArrayStrategy is inherited from the nearest enclosing array, or
	// the document default.
	ArrayStrategy delta.Strategy `json:"arrayStrategy,omitempty"`
}

// DiffNode is one node of the output tree describing a change at a JSON
// path. The tree is strict: no cycles, and paths are unique per sibling
// level. Added nodes never carry a before value, removed nodes never
// carry an after value, and unchanged nodes never carry children except
// possibly at the root.
type DiffNode struct {
	Path     string
	Kind     NodeKind
	Before   interface{}
	After    interface{}
	Children []*DiffNode
	Metadata *Metadata
}

// diffNodeJSON is the wire shape of a DiffNode. Before and after are
// pointers so a null value is distinct from an absent one.
type diffNodeJSON struct {
	Path     string       `json:"path"`
	Kind     NodeKind     `json:"kind"`
	Before   *interface{} `json:"before,omitempty"`
	After    *interface{} `json:"after,omitempty"`
	Children []*DiffNode  `json:"children,omitempty"`
	Metadata *Metadata    `json:"metadata,omitempty"`
}

// MarshalJSON implements json.Marshaler. Whether before/after appear is
// derived from the node kind, so a node holding null serializes the
// null instead of omitting the field.
func (n *DiffNode) MarshalJSON() ([]byte, error) {
	out := diffNodeJSON{
		Path:     n.Path,
		Kind:     n.Kind,
		Children: n.Children,
		Metadata: n.Metadata,
	}

	if n.Kind == KindRemoved || n.Kind == KindModified {
		before := n.Before
		out.Before = &before
	}
	if n.Kind == KindAdded || n.Kind == KindModified {
		after := n.After
		out.After = &after
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *DiffNode) UnmarshalJSON(data []byte) error {
	var in diffNodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	n.Path = in.Path
	n.Kind = in.Kind
	n.Children = in.Children
	n.Metadata = in.Metadata

	if in.Before != nil {
		n.Before = *in.Before
	}
	if in.After != nil {
		n.After = *in.After
	}

	return nil
}

// CountNodes returns the number of nodes reachable from the node,
// inclusive.
func (n *DiffNode) CountNodes() int {
	if n == nil {
		return 0
	}

	count := 1
	for _, child := range n.Children {
		count += child.CountNodes()
	}
	return count
}
