package delta

// indexAligner correlates array elements position-to-position. Trailing
// elements present on only one side become pure insertions or deletions.
type indexAligner struct{}

func (indexAligner) strategy() Strategy {
	return StrategyIndex
}

func (indexAligner) align(c *computer, a, b []interface{}) []Child {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	children := make([]Child, 0, longest)

	for i := 0; i < longest; i++ {
		child := Child{OldIndex: -1, NewIndex: -1}

		switch {
		case i < len(a) && i < len(b):
			child.OldIndex = i
			child.NewIndex = i
			child.Delta = c.diffValue(a[i], b[i], indexAligner{})
		case i < len(a):
			child.OldIndex = i
			child.Delta = removedDelta(a[i])
		default:
			child.NewIndex = i
			child.Delta = addedDelta(b[i])
		}

		children = append(children, child)
	}

	return children
}
