// Package space implements the action and observation spaces reported by
// a gym HTTP server.
//
// A Space is one of three concrete types: Discrete, Box, or Tuple. The set
// is closed; code outside this package cannot add new kinds of spaces, and
// every function in this package that needs to distinguish between spaces
// does so with a type switch over exactly these three types.
//
// Values drawn from or sent to a space are always flat []float64 vectors.
// A Discrete value is a one-element vector holding an integer, a Box value
// holds one real per flattened element, and a Tuple value is the
// concatenation of the values of its children in order.
package space

import (
	"fmt"
	"math"
	"strings"
)

// Space describes the set of valid actions or observations of an
// environment
type Space interface {
	fmt.Stringer
	isSpace()
}

// Discrete is the space of integers {0, 1, ..., N-1}
type Discrete struct {
	N uint64
}

// NewDiscrete returns a new Discrete space with n elements
func NewDiscrete(n uint64) Discrete {
	return Discrete{N: n}
}

func (Discrete) isSpace() {}

func (d Discrete) String() string {
	return fmt.Sprintf("Discrete(%d)", d.N)
}

// Box is a (possibly unbounded) box in R^n. Shape holds the number of
// elements along each axis, and Low and High hold one bound per element
// across all axes, in order. That is, len(Low) == len(High) == sum(Shape).
//
// An element is unbounded below if its Low is -Inf and unbounded above if
// its High is +Inf.
type Box struct {
	Shape []uint64
	Low   []float64
	High  []float64
}

// NewBox returns a new Box space. An error is returned if the lengths of
// low and high do not match the number of elements described by shape, if
// any bound is NaN, or if any low bound exceeds its high bound.
func NewBox(shape []uint64, low, high []float64) (Box, error) {
	var size uint64
	for _, s := range shape {
		size += s
	}

	if uint64(len(low)) != size {
		return Box{}, &SchemaError{
			Field: "low",
			Reason: fmt.Sprintf("expected %d bounds for shape %v, got %d",
				size, shape, len(low)),
		}
	}
	if uint64(len(high)) != size {
		return Box{}, &SchemaError{
			Field: "high",
			Reason: fmt.Sprintf("expected %d bounds for shape %v, got %d",
				size, shape, len(high)),
		}
	}

	for i := range low {
		if math.IsNaN(low[i]) {
			return Box{}, &SchemaError{
				Field:  "low",
				Reason: fmt.Sprintf("bound %d is NaN", i),
			}
		}
		if math.IsNaN(high[i]) {
			return Box{}, &SchemaError{
				Field:  "high",
				Reason: fmt.Sprintf("bound %d is NaN", i),
			}
		}
		if low[i] > high[i] {
			return Box{}, &SchemaError{
				Field: "high",
				Reason: fmt.Sprintf("bound %d has low %v greater than high %v",
					i, low[i], high[i]),
			}
		}
	}

	return Box{
		Shape: append([]uint64(nil), shape...),
		Low:   append([]float64(nil), low...),
		High:  append([]float64(nil), high...),
	}, nil
}

func (Box) isSpace() {}

func (b Box) String() string {
	return fmt.Sprintf("Box(shape=%v, low=%v, high=%v)", b.Shape, b.Low, b.High)
}

// BoundedBelow returns whether each element of the box has a finite
// lower bound
func (b Box) BoundedBelow() []bool {
	bounded := make([]bool, len(b.Low))
	for i := range bounded {
		bounded[i] = math.Inf(-1) < b.Low[i]
	}
	return bounded
}

// BoundedAbove returns whether each element of the box has a finite
// upper bound
func (b Box) BoundedAbove() []bool {
	bounded := make([]bool, len(b.High))
	for i := range bounded {
		bounded[i] = math.Inf(1) > b.High[i]
	}
	return bounded
}

// Tuple is the Cartesian product of its child spaces
type Tuple struct {
	Spaces []Space
}

// NewTuple returns a new Tuple space over the argument spaces
func NewTuple(spaces ...Space) Tuple {
	return Tuple{Spaces: append([]Space(nil), spaces...)}
}

func (Tuple) isSpace() {}

func (t Tuple) String() string {
	children := make([]string, len(t.Spaces))
	for i, s := range t.Spaces {
		children[i] = s.String()
	}
	return fmt.Sprintf("Tuple(%s)", strings.Join(children, ", "))
}

// Clone returns a deep copy of s
func Clone(s Space) Space {
	switch s := s.(type) {
	case Discrete:
		return s

	case Box:
		return Box{
			Shape: append([]uint64(nil), s.Shape...),
			Low:   append([]float64(nil), s.Low...),
			High:  append([]float64(nil), s.High...),
		}

	case Tuple:
		spaces := make([]Space, len(s.Spaces))
		for i := range s.Spaces {
			spaces[i] = Clone(s.Spaces[i])
		}
		return Tuple{Spaces: spaces}
	}

	panic(fmt.Sprintf("clone: unknown space %T", s))
}

// Flatdim returns the length of the flat vectors that make up the
// values of s
func Flatdim(s Space) int {
	switch s := s.(type) {
	case Discrete:
		return 1

	case Box:
		return len(s.Low)

	case Tuple:
		dim := 0
		for _, child := range s.Spaces {
			dim += Flatdim(child)
		}
		return dim
	}

	panic(fmt.Sprintf("flatdim: unknown space %T", s))
}

// Contains returns whether x is a valid flat value of s. Box bounds are
// checked inclusively on both ends.
func Contains(s Space, x []float64) bool {
	if len(x) != Flatdim(s) {
		return false
	}

	switch s := s.(type) {
	case Discrete:
		v := x[0]
		return v >= 0 && v == math.Trunc(v) && v < float64(s.N)

	case Box:
		for i := range x {
			if math.IsNaN(x[i]) || x[i] < s.Low[i] || x[i] > s.High[i] {
				return false
			}
		}
		return true

	case Tuple:
		offset := 0
		for _, child := range s.Spaces {
			dim := Flatdim(child)
			if !Contains(child, x[offset:offset+dim]) {
				return false
			}
			offset += dim
		}
		return true
	}

	panic(fmt.Sprintf("contains: unknown space %T", s))
}
