package space

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws random values from spaces. All randomness comes from the
// Sampler's source, so two Samplers created with the same seed produce
// the same sequence of samples for the same sequence of spaces.
//
// A Sampler may be shared between goroutines.
type Sampler struct {
	mu  sync.Mutex
	src rand.Source
	rng *rand.Rand
}

// NewSampler returns a Sampler seeded with seed
func NewSampler(seed uint64) *Sampler {
	return NewSamplerFrom(rand.NewSource(seed))
}

// NewSamplerFrom returns a Sampler which draws from src. The Sampler
// takes ownership of src.
func NewSamplerFrom(src rand.Source) *Sampler {
	return &Sampler{
		src: src,
		rng: rand.New(src),
	}
}

// Seed reseeds the Sampler's source
func (s *Sampler) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Seed(seed)
}

// Sample returns a random flat value of sp.
//
// A Discrete(n) sample is a single integer drawn uniformly from
// {0, ..., n-1}; sampling Discrete(0) returns ErrEmptySpace.
//
// A Box sample draws element i uniformly from [Low[i], High[i]), or
// returns Low[i] when Low[i] == High[i]. Elements that are unbounded are
// drawn as in gym: from a standard normal when unbounded on both sides,
// and from an exponential offset from the finite bound when unbounded on
// one side.
//
// A Tuple sample is the concatenation of samples of its children.
func (s *Sampler) Sample(sp Space) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample(sp, make([]float64, 0, Flatdim(sp)))
}

func (s *Sampler) sample(sp Space, out []float64) ([]float64, error) {
	switch sp := sp.(type) {
	case Discrete:
		if sp.N == 0 {
			return nil, ErrEmptySpace
		}
		return append(out, float64(s.rng.Uint64n(sp.N))), nil

	case Box:
		// Shape only determines how many elements each axis owns, the
		// bounds themselves are indexed positionally
		index := 0
		for _, size := range sp.Shape {
			for j := uint64(0); j < size; j++ {
				out = append(out, s.element(sp.Low[index], sp.High[index]))
				index++
			}
		}
		return out, nil

	case Tuple:
		var err error
		for _, child := range sp.Spaces {
			out, err = s.sample(child, out)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	panic(fmt.Sprintf("sample: unknown space %T", sp))
}

func (s *Sampler) element(low, high float64) float64 {
	boundedBelow := !math.IsInf(low, -1)
	boundedAbove := !math.IsInf(high, 1)

	switch {
	case boundedBelow && boundedAbove:
		if low == high {
			return low
		}
		x := distuv.Uniform{Min: low, Max: high, Src: s.src}.Rand()
		if x >= high {
			// Rounding in Min + u*(Max-Min) can land on Max
			x = math.Nextafter(high, low)
		}
		return x

	case boundedBelow:
		return low + distuv.Exponential{Rate: 1, Src: s.src}.Rand()

	case boundedAbove:
		return high - distuv.Exponential{Rate: 1, Src: s.src}.Rand()

	default:
		return distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}.Rand()
	}
}
