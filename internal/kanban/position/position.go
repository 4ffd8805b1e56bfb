// Package position computes fractional sort keys for lists and cards.
//
// Siblings are always passed in display order and without the item being
// placed; targetIndex is the slot the item should occupy among them.
package position

import (
	"errors"
	"fmt"
)

// Base is the key handed to the first item of an empty container and the
// stride used when appending past the last sibling.
const Base = 65536.0

// DefaultEpsilon is the smallest gap between adjacent keys tolerated before
// the container is renumbered.
const DefaultEpsilon = 1e-6

// ErrIndexOutOfRange is wrapped by InvariantError.
var ErrIndexOutOfRange = errors.New("position: target index out of range")

// InvariantError reports a target index outside [0, len(siblings)].
type InvariantError struct {
	Index int
	Len   int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("position: target index %d outside [0, %d]", e.Index, e.Len)
}

func (e *InvariantError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Allocate returns the key for an item inserted at targetIndex among
// siblings. An out-of-range index is a caller bug and is returned as an
// *InvariantError.
func Allocate(siblings []float64, targetIndex int) (float64, error) {
	if targetIndex < 0 || targetIndex > len(siblings) {
		return 0, &InvariantError{Index: targetIndex, Len: len(siblings)}
	}
	return allocate(siblings, targetIndex), nil
}

func allocate(siblings []float64, idx int) float64 {
	switch {
	case len(siblings) == 0:
		return Base
	case idx == 0:
		return siblings[0] / 2
	case idx == len(siblings):
		return siblings[len(siblings)-1] + Base
	default:
		return (siblings[idx-1] + siblings[idx]) / 2
	}
}

// Clamp forces idx into [0, n].
func Clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

// Renumber returns n evenly spaced keys: Base, 2*Base, ...
func Renumber(n int) []float64 {
	keys := make([]float64, n)
	for i := range keys {
		keys[i] = float64(i+1) * Base
	}
	return keys
}

// NeedsRebalance reports whether an ordered key sequence is not strictly
// increasing or has an adjacent gap below eps.
func NeedsRebalance(keys []float64, eps float64) bool {
	for i := 1; i < len(keys); i++ {
		if !(keys[i-1] < keys[i]) || keys[i]-keys[i-1] < eps {
			return true
		}
	}
	return false
}
