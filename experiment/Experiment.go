// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/gymclient/agent/random"
	"github.com/samuelfneumann/gymclient/environment/envconfig"
	"github.com/samuelfneumann/gymclient/environment/gym"
	"github.com/samuelfneumann/gymclient/experiment/trackers"
)

// Experiment outlines structs that can run experiments. The Run()
// method will run all episodes until the maximum timestep limit is
// reached. The RunEpisode() function will run a single episode.
//
// Experiments send each TimeStep to their Trackers, which determine
// which data generated during the experiment is saved. The Save()
// function saves the data of all Trackers and is usually called after
// the experiment has been run.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error) // Returns whether the step limit was reached

	// Save all tracked data
	Save() error

	// Adds a new Tracker to the (possibly already running) experiment.
	// Useful if you want to track data only after a specified event.
	Register(t trackers.Tracker)
}

// Type is a kind of experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment with a random
// agent, seeded with the environment seed
type Config struct {
	Type
	MaxSteps uint
	EnvConf  envconfig.Config
}

// CreateExp creates the environment described by the Config and returns
// an experiment which runs a random agent on it. The caller is
// responsible for closing the returned environment.
func (c Config) CreateExp(ctx context.Context,
	t ...trackers.Tracker) (*Online, *gym.GymEnv, error) {
	if c.Type != OnlineExp {
		return nil, nil, fmt.Errorf("createExp: no such experiment type %v",
			c.Type)
	}

	env, _, err := c.EnvConf.Create(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: could not create "+
			"environment: %w", err)
	}

	agent, err := random.New(env.Session().ActionSpace(), c.EnvConf.Seed)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("createExp: could not create agent: %w",
			err)
	}

	return NewOnline(env, agent, c.MaxSteps, t...), env, nil
}
