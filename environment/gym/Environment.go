package gym

import (
	"fmt"

	"github.com/samuelfneumann/gymclient/environment"
	"github.com/samuelfneumann/gymclient/space"
	"gonum.org/v1/gonum/mat"
)

// EnvironmentID is the name of an environment registered with the
// server, e.g. CartPole-v1. Any registered ID may be used; the
// constants below are the classic control environments.
type EnvironmentID string

const (
	MountainCarV0           EnvironmentID = "MountainCar-v0"
	MountainCarContinuousV0 EnvironmentID = "MountainCarContinuous-v0"
	AcrobotV1               EnvironmentID = "Acrobot-v1"
	CartPoleV0              EnvironmentID = "CartPole-v0"
	CartPoleV1              EnvironmentID = "CartPole-v1"
	PendulumV0              EnvironmentID = "Pendulum-v0"
)

// SpaceSpec converts a space into an environment Spec of type t.
//
// A Discrete(n) space becomes a single Discrete element with bounds
// [0, n-1]. A Box becomes one Continuous element per flattened bound.
// Tuple spaces cannot be converted.
func SpaceSpec(sp space.Space, t environment.SpecType) (environment.Spec,
	error) {
	switch sp := sp.(type) {
	case space.Discrete:
		if sp.N == 0 {
			return environment.Spec{}, fmt.Errorf("spaceSpec: %v has no "+
				"elements", sp)
		}
		shape := mat.NewVecDense(1, nil)
		lowerBound := mat.NewVecDense(1, nil)
		upperBound := mat.NewVecDense(1, []float64{float64(sp.N - 1)})

		return environment.NewSpec(shape, t, lowerBound, upperBound,
			environment.Discrete), nil

	case space.Box:
		if len(sp.Low) == 0 {
			return environment.Spec{}, fmt.Errorf("spaceSpec: %v has no "+
				"elements", sp)
		}
		lowerBound := mat.NewVecDense(len(sp.Low), append([]float64(nil),
			sp.Low...))
		upperBound := mat.NewVecDense(len(sp.High), append([]float64(nil),
			sp.High...))
		shape := mat.NewVecDense(lowerBound.Len(), nil)

		return environment.NewSpec(shape, t, lowerBound, upperBound,
			environment.Continuous), nil

	case space.Tuple:
		return environment.Spec{}, &UnsupportedSpaceError{Space: "Tuple",
			Op: "spec conversion"}
	}

	panic(fmt.Sprintf("spaceSpec: unknown space %T", sp))
}
