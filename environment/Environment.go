// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
)

// Ender determines when episodes should end. An Ender that ends an
// episode sets the StepType of the timestep to timestep.Last.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements an environment which an agent interacts with
// one step at a time.
//
// Step returns the next timestep and whether that timestep ends the
// episode. Once an episode has ended, Reset must be called before
// taking further steps.
type Environment interface {
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	CurrentTimeStep() timestep.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}
