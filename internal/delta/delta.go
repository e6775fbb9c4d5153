// Package delta computes the structural difference between two
// preprocessed JSON documents. Array elements are correlated by a
// pluggable strategy, either positional (index) or identity-based
// (keyed).
package delta

import (
	"errors"
	"math"
	"sort"
)

// Common delta errors.
var (
	// ErrMissingKeyPath indicates a keyed strategy without a key path.
	ErrMissingKeyPath = errors.New("keyed array strategy requires a key path")

	// ErrUnknownStrategy indicates an unrecognized array strategy.
	ErrUnknownStrategy = errors.New("unknown array strategy")
)

// Strategy identifies the array correspondence policy.
type Strategy string

// Supported array strategies.
const (
	StrategyIndex Strategy = "index"
	StrategyKeyed Strategy = "keyed"
)

// Config is the per-call configuration of a delta computation. Jobs with
// differing strategies run concurrently, so nothing here is global.
type Config struct {
	ArrayStrategy Strategy
	ArrayKeyPath  string
}

// Kind tags a delta slot. Each slot is exactly one of unchanged, added,
// removed, or modified, or a composite carrying per-child slots.
type Kind int

// Delta slot kinds.
const (
	KindUnchanged Kind = iota
	KindAdded
	KindRemoved
	KindModified
	KindObject
	KindArray
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnchanged:
		return "unchanged"
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	case KindModified:
		return "modified"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Delta is the structural difference at one position. Unchanged subtrees
// are never materialized: a subtree with no delta collapses to a single
// KindUnchanged slot without children.
type Delta struct {
	Kind Kind

	// Before is set for removed and modified slots.
	Before interface{}

	// After is set for added and modified slots.
	After interface{}

	// Children holds per-key or per-slot child deltas for composites.
	Children []Child

	// Strategy records which array strategy aligned a KindArray delta.
	Strategy Strategy
}

// Child is one named or positioned child of a composite delta.
type Child struct {
	// Key is the object key; empty for array slots.
	Key string

	// OldIndex and NewIndex are the element positions in the old and new
	// arrays, or -1 when the element is absent on that side. Both are -1
	// for object children.
	OldIndex int
	NewIndex int

	// Moved marks a matched array element whose value is unchanged but
	// whose position differs. Moves carry no value delta.
	Moved bool

	Delta *Delta
}

// Changed reports whether the delta carries any change.
func (d *Delta) Changed() bool {
	return d != nil && d.Kind != KindUnchanged
}

// Computer computes a structural delta between two preprocessed
// documents.
type Computer interface {
	// Diff computes the delta between a and b under the given
	// configuration.
	Diff(a, b interface{}, cfg Config) (*Delta, error)
}

// computer is the default Computer implementation.
type computer struct{}

// NewComputer creates the default delta computer.
func NewComputer() Computer {
	return &computer{}
}

// Diff computes the delta between a and b.
func (c *computer) Diff(a, b interface{}, cfg Config) (*Delta, error) {
	aligner, err := alignerFor(cfg)
	if err != nil {
		return nil, err
	}
	return c.diffValue(a, b, aligner), nil
}

// alignerFor selects the array aligner for a configuration.
func alignerFor(cfg Config) (aligner, error) {
	switch cfg.ArrayStrategy {
	case StrategyIndex, "":
		return indexAligner{}, nil
	case StrategyKeyed:
		if cfg.ArrayKeyPath == "" {
			return nil, ErrMissingKeyPath
		}
		return keyedAligner{keyPath: cfg.ArrayKeyPath}, nil
	default:
		return nil, ErrUnknownStrategy
	}
}

// aligner aligns two arrays into ordered child slots.
type aligner interface {
	align(c *computer, a, b []interface{}) []Child
	strategy() Strategy
}

// diffValue computes the delta for one value pair. HasValue has already
// been applied by the caller for the root; nested absence is expressed
// through map key union and array alignment.
func (c *computer) diffValue(a, b interface{}, al aligner) *Delta {
	aPresent, bPresent := hasValue(a), hasValue(b)

	switch {
	case !aPresent && !bPresent:
		return &Delta{Kind: KindUnchanged}
	case !aPresent:
		return &Delta{Kind: KindAdded, After: b}
	case !bPresent:
		return &Delta{Kind: KindRemoved, Before: a}
	}

	// Unchanged subtrees collapse here and are never materialized.
	if DeepEqual(a, b) {
		return &Delta{Kind: KindUnchanged}
	}

	if aMap, ok := a.(map[string]interface{}); ok {
		if bMap, ok := b.(map[string]interface{}); ok {
			return c.diffObject(aMap, bMap, al)
		}
	}

	if aArr, ok := a.([]interface{}); ok {
		if bArr, ok := b.([]interface{}); ok {
			return c.diffArray(aArr, bArr, al)
		}
	}

	return &Delta{Kind: KindModified, Before: a, After: b}
}

// diffObject produces a per-key delta over the union of keys. A key
// holding null is distinct from an absent key.
func (c *computer) diffObject(a, b map[string]interface{}, al aligner) *Delta {
	keys := unionKeys(a, b)

	children := make([]Child, 0, len(keys))
	changed := false

	for _, key := range keys {
		aVal, aOk := a[key]
		bVal, bOk := b[key]

		var child *Delta
		switch {
		case aOk && bOk:
			child = c.diffValue(aVal, bVal, al)
		case aOk:
			if !hasValue(aVal) {
				continue
			}
			child = &Delta{Kind: KindRemoved, Before: aVal}
		default:
			if !hasValue(bVal) {
				continue
			}
			child = &Delta{Kind: KindAdded, After: bVal}
		}

		if child.Changed() {
			changed = true
		}
		children = append(children, Child{Key: key, OldIndex: -1, NewIndex: -1, Delta: child})
	}

	if !changed {
		return &Delta{Kind: KindUnchanged}
	}

	return &Delta{Kind: KindObject, Children: children}
}

// diffArray aligns elements with the configured strategy and produces a
// per-slot delta.
func (c *computer) diffArray(a, b []interface{}, al aligner) *Delta {
	children := al.align(c, a, b)

	changed := false
	for _, child := range children {
		if child.Delta.Changed() || child.Moved {
			changed = true
			break
		}
	}

	if !changed {
		return &Delta{Kind: KindUnchanged}
	}

	return &Delta{Kind: KindArray, Children: children, Strategy: al.strategy()}
}

// unionKeys returns the sorted union of keys from both objects, keeping
// output deterministic across runs.
func unionKeys(a, b map[string]interface{}) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))

	for key := range a {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	for key := range b {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys
}

// addedDelta builds the delta for an array slot present on the new side
// only. A slot without a value collapses to unchanged so NaN never
// surfaces in after.
func addedDelta(v interface{}) *Delta {
	if !hasValue(v) {
		return &Delta{Kind: KindUnchanged}
	}
	return &Delta{Kind: KindAdded, After: v}
}

// removedDelta builds the delta for an array slot present on the old
// side only, collapsing absent values the same way.
func removedDelta(v interface{}) *Delta {
	if !hasValue(v) {
		return &Delta{Kind: KindUnchanged}
	}
	return &Delta{Kind: KindRemoved, Before: v}
}

// hasValue reports whether a value is present for diffing purposes.
// NaN is treated as "no value" and never appears in before/after.
func hasValue(v interface{}) bool {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return false
	}
	return true
}

// DeepEqual reports deep equality of two JSON values. Unlike
// reflect.DeepEqual it compares numbers by value and treats NaN slots
// as absent on both sides.
func DeepEqual(a, b interface{}) bool {
	aPresent, bPresent := hasValue(a), hasValue(b)
	if !aPresent || !bPresent {
		return aPresent == bPresent
	}

	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, aVal := range av {
			bVal, ok := bv[key]
			if !ok || !DeepEqual(aVal, bVal) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true

	case float64:
		bv, ok := b.(float64)
		return ok && av == bv

	default:
		return a == b
	}
}

// ExtractKey resolves a dot-separated key path inside an array element.
// The second return value reports whether the full path resolved to a
// present scalar.
func ExtractKey(element interface{}, keyPath string) (interface{}, bool) {
	current := element

	for keyPath != "" {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}

		segment := keyPath
		rest := ""
		for i := 0; i < len(keyPath); i++ {
			if keyPath[i] == '.' {
				segment = keyPath[:i]
				rest = keyPath[i+1:]
				break
			}
		}

		next, ok := obj[segment]
		if !ok {
			return nil, false
		}

		current = next
		keyPath = rest
	}

	switch current.(type) {
	case map[string]interface{}, []interface{}:
		return nil, false
	}

	if !hasValue(current) {
		return nil, false
	}

	return current, true
}
