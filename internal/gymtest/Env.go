package gymtest

import (
	"fmt"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/samuelfneumann/gymclient/space"
	"github.com/tidwall/gjson"
)

// Toy environment IDs served by every Server
const (
	// ToyDiscrete has a Discrete(4) action space and a Box observation
	// space of shape [2]. The observation after step n with action a is
	// [n, a], every step is rewarded with 1, and episodes last
	// ToyDiscreteEpisode steps.
	ToyDiscrete = "Toy-Discrete-v0"

	// ToyBox has a Box action space of shape [3] bounded by [-1, 1] and
	// a Discrete(5) observation space. The observation after step n is
	// n mod 5, the reward is the sum of the action, and episodes last
	// ToyBoxEpisode steps.
	ToyBox = "Toy-Box-v0"

	// ToyUnbounded has a Discrete(2) action space and an unbounded Box
	// observation space of shape [3]. It resets to [-Inf, 0, NaN], the
	// observation after step n is [n, +Inf, NaN], every step is rewarded
	// with 0.5, and episodes last ToyUnboundedEpisode steps.
	ToyUnbounded = "Toy-Unbounded-v0"

	// ToyTuple has a Tuple action space, which the server can describe
	// but the client cannot parse
	ToyTuple = "Toy-Tuple-v0"
)

const (
	ToyDiscreteEpisode  = 5
	ToyBoxEpisode       = 10
	ToyUnboundedEpisode = 3
)

// Outcome is the result of a single step of an Env
type Outcome struct {
	Observation interface{}
	Reward      float64
	Done        bool
	Info        interface{}
}

// Env is an environment served by a Server. Observations may be any
// value that encodes to JSON.
type Env struct {
	ActionSpace      space.Space
	ObservationSpace space.Space

	Reset func() interface{}

	// Step takes the nth step of an episode, counting from 1. The
	// action has already been checked against ActionSpace.
	Step func(n int, action gjson.Result) Outcome
}

// Toys returns the toy environments keyed by ID
func Toys() map[string]Env {
	obsBox, err := space.NewBox([]uint64{2}, []float64{0, 0},
		[]float64{100, 3})
	if err != nil {
		panic(err)
	}
	actBox, err := space.NewBox([]uint64{3}, []float64{-1, -1, -1},
		[]float64{1, 1, 1})
	if err != nil {
		panic(err)
	}
	inf := math.Inf(1)
	unboundedBox, err := space.NewBox([]uint64{3},
		[]float64{-inf, 0, -inf}, []float64{inf, inf, inf})
	if err != nil {
		panic(err)
	}
	unitBox, err := space.NewBox([]uint64{1}, []float64{0}, []float64{1})
	if err != nil {
		panic(err)
	}

	return map[string]Env{
		ToyDiscrete: {
			ActionSpace:      space.NewDiscrete(4),
			ObservationSpace: obsBox,
			Reset: func() interface{} {
				return []float64{0, 0}
			},
			Step: func(n int, action gjson.Result) Outcome {
				return Outcome{
					Observation: []float64{float64(n), action.Float()},
					Reward:      1,
					Done:        n >= ToyDiscreteEpisode,
					Info:        gin.H{"step": n},
				}
			},
		},

		ToyBox: {
			ActionSpace:      actBox,
			ObservationSpace: space.NewDiscrete(5),
			Reset: func() interface{} {
				return 0
			},
			Step: func(n int, action gjson.Result) Outcome {
				var sum float64
				for _, a := range action.Array() {
					sum += a.Float()
				}
				return Outcome{
					Observation: n % 5,
					Reward:      sum,
					Done:        n >= ToyBoxEpisode,
					Info:        gin.H{},
				}
			},
		},

		ToyUnbounded: {
			ActionSpace:      space.NewDiscrete(2),
			ObservationSpace: unboundedBox,
			Reset: func() interface{} {
				return []float64{-inf, 0, math.NaN()}
			},
			Step: func(n int, action gjson.Result) Outcome {
				return Outcome{
					Observation: []float64{float64(n), inf, math.NaN()},
					Reward:      0.5,
					Done:        n >= ToyUnboundedEpisode,
					Info:        gin.H{},
				}
			},
		},

		ToyTuple: {
			ActionSpace: space.NewTuple(space.NewDiscrete(2),
				space.NewDiscrete(3)),
			ObservationSpace: unitBox,
			Reset: func() interface{} {
				return []float64{0.5}
			},
			Step: func(int, gjson.Result) Outcome {
				return Outcome{Observation: []float64{0.5}, Done: true}
			},
		},
	}
}

// checkAction validates an action the way gym's from_jsonable would
func checkAction(sp space.Space, action gjson.Result) error {
	switch sp := sp.(type) {
	case space.Discrete:
		if action.Type != gjson.Number || action.Num != float64(int64(action.Num)) {
			return fmt.Errorf("action %s is not an integer", action.Raw)
		}
		if action.Num < 0 || action.Num >= float64(sp.N) {
			return fmt.Errorf("action %s is outside %v", action.Raw, sp)
		}
		return nil

	case space.Box:
		if !action.IsArray() || len(action.Array()) != space.Flatdim(sp) {
			return fmt.Errorf("action %s does not fit %v", action.Raw, sp)
		}
		return nil
	}

	return fmt.Errorf("actions for %v are not supported", sp)
}
