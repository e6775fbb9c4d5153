// Package engine orchestrates the diff pipeline: rule validation,
// preprocessing, delta computation, and tree building.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avjsondiff/internal/delta"
	"github.com/vyrodovalexey/avjsondiff/internal/rules"
	"github.com/vyrodovalexey/avjsondiff/internal/tree"
)

// Version is one JSON document under comparison. The payload and source
// are immutable once created; only the label and timestamp may change.
type Version struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source,omitempty"`
	Payload   interface{} `json:"payload"`
}

// NewVersion creates a Version with a generated ID and the current
// timestamp.
func NewVersion(label, source string, payload interface{}) Version {
	return Version{
		ID:        uuid.NewString(),
		Label:     label,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Payload:   payload,
	}
}

// Options configures one diff computation. The core never mutates it;
// each call carries its own copy so jobs with differing strategies run
// concurrently.
type Options struct {
	ArrayStrategy  delta.Strategy        `json:"arrayStrategy,omitempty" yaml:"arrayStrategy,omitempty"`
	ArrayKeyPath   string                `json:"arrayKeyPath,omitempty" yaml:"arrayKeyPath,omitempty"`
	IgnoreRules    []rules.IgnoreRule    `json:"ignoreRules,omitempty" yaml:"ignoreRules,omitempty"`
	TransformRules []rules.TransformRule `json:"transformRules,omitempty" yaml:"transformRules,omitempty"`
}

// Stats describes a computed diff tree.
type Stats struct {
	// Nodes is the count of nodes reachable from the root, inclusive.
	Nodes int `json:"nodes"`

	// ComputeMs is the wall-clock computation time in milliseconds.
	ComputeMs int64 `json:"computeMs"`
}

// Result is the outcome of one diff computation.
type Result struct {
	VersionA   string         `json:"versionA"`
	VersionB   string         `json:"versionB"`
	OptionsKey string         `json:"optionsKey"`
	Root       *tree.DiffNode `json:"root"`
	Stats      Stats          `json:"stats"`
}
