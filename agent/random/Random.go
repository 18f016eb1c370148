// Package random implements an agent which selects actions uniformly
// at random from an action space and never learns
package random

import (
	"fmt"

	"github.com/samuelfneumann/gymclient/space"
	"github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
)

// Random is an agent which samples each action from its action space.
// Observations are ignored.
type Random struct {
	actionSpace space.Space
	sampler     *space.Sampler

	steps    int
	episodes int
}

// New returns a new Random agent which selects actions from
// actionSpace using a source seeded with seed
func New(actionSpace space.Space, seed uint64) (*Random, error) {
	if space.Flatdim(actionSpace) == 0 {
		return nil, fmt.Errorf("new: action space %v has no elements",
			actionSpace)
	}

	sampler := space.NewSampler(seed)
	if _, err := sampler.Sample(actionSpace); err != nil {
		return nil, fmt.Errorf("new: cannot sample from %v: %w", actionSpace,
			err)
	}
	sampler.Seed(seed)

	return &Random{
		actionSpace: space.Clone(actionSpace),
		sampler:     sampler,
	}, nil
}

// SelectAction samples an action from the action space
func (r *Random) SelectAction(timestep.TimeStep) (*mat.VecDense, error) {
	action, err := r.sampler.Sample(r.actionSpace)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %w", err)
	}
	return mat.NewVecDense(len(action), action), nil
}

// Step counts the number of updates the agent has been asked to make
func (r *Random) Step() error {
	r.steps++
	return nil
}

// Observe implements the agent.Learner interface
func (r *Random) Observe(*mat.VecDense, timestep.TimeStep) error {
	return nil
}

// ObserveFirst implements the agent.Learner interface
func (r *Random) ObserveFirst(timestep.TimeStep) error {
	return nil
}

// EndEpisode counts the number of episodes the agent has finished
func (r *Random) EndEpisode() {
	r.episodes++
}

// Steps returns the number of times Step has been called
func (r *Random) Steps() int {
	return r.steps
}

// Episodes returns the number of times EndEpisode has been called
func (r *Random) Episodes() int {
	return r.episodes
}
