package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// OptionsKey derives a stable cache key from diff options. Two calls
// with equal options always produce the same key; it is consumed by the
// result caching layer, never by the engine itself.
func OptionsKey(opts Options) string {
	data, err := json.Marshal(opts)
	if err != nil {
		// Options are plain data; marshaling cannot fail in practice.
		data = []byte{}
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ResultKey derives the full cache key for a computed diff, combining
// both version identifiers with the options key.
func ResultKey(versionA, versionB, optionsKey string) string {
	hash := sha256.Sum256([]byte(versionA + ":" + versionB + ":" + optionsKey))
	return hex.EncodeToString(hash[:])
}
