package delta

// keyedAligner correlates array elements by equal key-path value.
// Unmatched elements become pure insertions and deletions; a matched
// element whose value is unchanged but whose position differs is marked
// as moved rather than modified.
type keyedAligner struct {
	keyPath string
}

func (k keyedAligner) strategy() Strategy {
	return StrategyKeyed
}

func (k keyedAligner) align(c *computer, a, b []interface{}) []Child {
	oldByKey := k.indexByKey(a)

	children := make([]Child, 0, len(b))
	matched := make(map[int]struct{}, len(a))

	// Walk the new array in order: matched pairs and insertions.
	for newIdx, elem := range b {
		child := Child{OldIndex: -1, NewIndex: newIdx}

		key, ok := ExtractKey(elem, k.keyPath)
		if ok {
			if oldIdx, found := oldByKey[key]; found {
				if _, taken := matched[oldIdx]; !taken {
					matched[oldIdx] = struct{}{}
					child.OldIndex = oldIdx
					child.Delta = c.diffValue(a[oldIdx], elem, k)
					if child.Delta.Kind == KindUnchanged && oldIdx != newIdx {
						child.Moved = true
					}
					children = append(children, child)
					continue
				}
			}
		}

		child.Delta = addedDelta(elem)
		children = append(children, child)
	}

	// Remaining old elements are deletions, in old-array order.
	for oldIdx, elem := range a {
		if _, ok := matched[oldIdx]; ok {
			continue
		}
		children = append(children, Child{
			OldIndex: oldIdx,
			NewIndex: -1,
			Delta:    removedDelta(elem),
		})
	}

	return children
}

// indexByKey maps each resolvable key value to the index of its first
// occurrence. Later duplicates stay unmatched.
func (k keyedAligner) indexByKey(arr []interface{}) map[interface{}]int {
	byKey := make(map[interface{}]int, len(arr))

	for i, elem := range arr {
		key, ok := ExtractKey(elem, k.keyPath)
		if !ok {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = i
		}
	}

	return byKey
}
