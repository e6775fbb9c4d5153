package delta

// Confidence grades an array strategy suggestion.
type Confidence string

// Suggestion confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// identityFields is the ordered set of field names tried when looking
// for an identity key in all-object arrays.
var identityFields = []string{"id", "name", "key", "uuid", "identifier"}

// Suggestion is the advisory result of array classification. The
// strategy actually used is whatever the caller configures.
type Suggestion struct {
	Strategy   Strategy   `json:"strategy"`
	KeyField   string     `json:"keyField,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Analyze classifies an array and suggests a correspondence policy:
// all-primitive arrays suggest positional matching with high confidence;
// all-object arrays sharing a unique value for one of the identity
// fields suggest keyed matching on the first such field with medium
// confidence; anything mixed or ambiguous suggests positional with low
// confidence.
func Analyze(arr []interface{}) Suggestion {
	if allPrimitive(arr) {
		return Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceHigh}
	}

	if allObject(arr) {
		if field, ok := identityField(arr); ok {
			return Suggestion{
				Strategy:   StrategyKeyed,
				KeyField:   field,
				Confidence: ConfidenceMedium,
			}
		}
	}

	return Suggestion{Strategy: StrategyIndex, Confidence: ConfidenceLow}
}

// allPrimitive reports whether every element is a scalar.
func allPrimitive(arr []interface{}) bool {
	for _, elem := range arr {
		switch elem.(type) {
		case map[string]interface{}, []interface{}:
			return false
		}
	}
	return true
}

// allObject reports whether the array is non-empty and every element is
// an object.
func allObject(arr []interface{}) bool {
	if len(arr) == 0 {
		return false
	}
	for _, elem := range arr {
		if _, ok := elem.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

// identityField returns the first identity field for which every
// element carries a unique scalar value.
func identityField(arr []interface{}) (string, bool) {
	for _, field := range identityFields {
		if uniqueScalarValues(arr, field) {
			return field, true
		}
	}
	return "", false
}

// uniqueScalarValues reports whether every element resolves the field to
// a scalar and no two elements share a value.
func uniqueScalarValues(arr []interface{}, field string) bool {
	seen := make(map[interface{}]struct{}, len(arr))

	for _, elem := range arr {
		value, ok := ExtractKey(elem, field)
		if !ok {
			return false
		}
		if _, dup := seen[value]; dup {
			return false
		}
		seen[value] = struct{}{}
	}

	return true
}
