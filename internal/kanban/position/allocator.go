package position

// Placement is the outcome of placing one item among its siblings.
type Placement struct {
	Position float64
	Index    int
	// Renumbered holds keys for the whole container in final order (the
	// placed item at Index) when the fractional key ran out of room.
	Renumbered []float64
}

// Rebalanced reports whether the siblings must be rewritten as well.
func (p Placement) Rebalanced() bool {
	return p.Renumbered != nil
}

// Allocator wraps Allocate with the index policy and the renumbering policy.
type Allocator struct {
	// Strict rejects out-of-range indexes instead of clamping them.
	Strict bool
	// Epsilon is the minimum gap to either neighbor; zero means DefaultEpsilon.
	Epsilon float64
	// OnViolation is told about every out-of-range index, clamped or not.
	OnViolation func(err *InvariantError)
}

// Place computes the key for targetIndex. When the computed key is not
// strictly between its neighbors, or sits within Epsilon of one of them, the
// whole container is renumbered.
func (a Allocator) Place(siblings []float64, targetIndex int) (Placement, error) {
	idx := targetIndex
	if idx < 0 || idx > len(siblings) {
		verr := &InvariantError{Index: targetIndex, Len: len(siblings)}
		if a.OnViolation != nil {
			a.OnViolation(verr)
		}
		if a.Strict {
			return Placement{}, verr
		}
		idx = Clamp(idx, len(siblings))
	}

	key := allocate(siblings, idx)
	if a.fits(siblings, idx, key) {
		return Placement{Position: key, Index: idx}, nil
	}

	keys := Renumber(len(siblings) + 1)
	return Placement{Position: keys[idx], Index: idx, Renumbered: keys}, nil
}

func (a Allocator) fits(siblings []float64, idx int, key float64) bool {
	eps := a.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if idx > 0 {
		lower := siblings[idx-1]
		if !(lower < key) || key-lower < eps {
			return false
		}
	}
	if idx < len(siblings) {
		upper := siblings[idx]
		if !(key < upper) || upper-key < eps {
			return false
		}
	}
	return true
}
