// Package cost defines the numeric domain every extraction strategy works in.
//
// What:
//
//   - Cost is a non-negative, NaN-free, totally ordered float64.
//   - Infinity is the "no finite derivation yet / unreachable" sentinel. It is the
//     identity of Min and absorbing for Add (Infinity + x == Infinity).
//
// Values are built through New (validating) or MustNew (panicking, for literals
// in tests and examples). Arithmetic never produces NaN: the only way to reach
// a non-finite value is Infinity itself, and Add saturates to it.
//
// Errors:
//
//   - ErrNaN       the value is NaN
//   - ErrNegative  the value is below zero
package cost

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Sentinel errors returned by New.
var (
	// ErrNaN indicates an attempt to build a Cost from NaN.
	ErrNaN = errors.New("cost: value is NaN")

	// ErrNegative indicates an attempt to build a Cost from a negative value.
	ErrNegative = errors.New("cost: value is negative")
)

// Cost is a non-negative, NaN-free extraction cost.
// The zero value is a valid cost of 0.
type Cost float64

// Infinity denotes an unreachable class or an infeasible derivation.
var Infinity = Cost(math.Inf(1))

// Zero is the additive identity.
const Zero Cost = 0

// Epsilon is the tolerance used when two independently accumulated costs are
// compared, e.g. the DAG cost reported by two strategies.
const Epsilon = 1e-5

// RelTol is the relative margin Improves requires. It absorbs the rounding
// of sums accumulated in different orders and works at any cost magnitude.
const RelTol = 1e-12

// New validates x and returns it as a Cost.
// +Inf is accepted and maps to Infinity.
func New(x float64) (Cost, error) {
	if math.IsNaN(x) {
		return 0, ErrNaN
	}
	if x < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNegative, x)
	}

	return Cost(x), nil
}

// MustNew is New for constants; it panics on an invalid value.
func MustNew(x float64) Cost {
	c, err := New(x)
	if err != nil {
		panic(err)
	}

	return c
}

// Add returns c+o, saturating at Infinity.
func (c Cost) Add(o Cost) Cost {
	if c.IsInf() || o.IsInf() {
		return Infinity
	}

	return c + o
}

// Less reports whether c is strictly smaller than o.
func (c Cost) Less(o Cost) bool { return c < o }

// IsInf reports whether c is the Infinity sentinel.
func (c Cost) IsInf() bool { return math.IsInf(float64(c), 1) }

// Float64 returns the raw value.
func (c Cost) Float64() float64 { return float64(c) }

// String renders finite costs with the shortest exact representation and
// Infinity as "inf".
func (c Cost) String() string {
	if c.IsInf() {
		return "inf"
	}

	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

// Min returns the smaller of a and b.
func Min(a, b Cost) Cost {
	if b < a {
		return b
	}

	return a
}

// Sum adds all values, saturating at Infinity.
func Sum(cs ...Cost) Cost {
	var total Cost
	for _, c := range cs {
		total = total.Add(c)
		if total.IsInf() {
			return Infinity
		}
	}

	return total
}

// ApproxEqual reports whether a and b differ by at most Epsilon.
// Two Infinity values are equal.
func ApproxEqual(a, b Cost) bool {
	if a.IsInf() || b.IsInf() {
		return a.IsInf() && b.IsInf()
	}

	return math.Abs(float64(a-b)) <= Epsilon
}

// Improves reports whether next is below cur by more than RelTol·cur.
// Nothing improves on Zero; any finite value improves on Infinity.
func Improves(next, cur Cost) bool {
	return float64(next) < float64(cur)*(1-RelTol)
}
