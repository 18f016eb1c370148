// Package gym provides access to environments served by a gym HTTP
// server.
//
// A Client talks to the server. Client.Make creates a new environment
// instance and returns a Session, which owns the instance and drives it
// through Reset and Step using flat []float64 actions and observations.
// GymEnv wraps a Session so that it can be used as an
// environment.Environment.
//
// Every error returned by this package is, or wraps, one of
// *TransportError, *SchemaError, *UnsupportedSpaceError,
// *UnknownEnvironmentError, *InvalidActionError, or *ProtocolError.
package gym

import (
	"context"
	"fmt"

	env "github.com/samuelfneumann/gymclient/environment"
	ts "github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
)

// GymEnvParams holds the configurable parameters of a GymEnv
type GymEnvParams struct {
	Render        bool
	EpisodeCutoff int

	MonitorDir    string
	ForceMonitor  bool
	ResumeMonitor bool
}

// GymEnvOption configures a GymEnv
type GymEnvOption func(*GymEnvParams)

// WithRender asks the server to render every step
func WithRender(render bool) GymEnvOption {
	return func(p *GymEnvParams) {
		p.Render = render
	}
}

// WithCutoff ends episodes after cutoff steps. A cutoff of 0 leaves
// episode lengths to the server.
func WithCutoff(cutoff int) GymEnvOption {
	return func(p *GymEnvParams) {
		p.EpisodeCutoff = cutoff
	}
}

// WithMonitor records episodes to dir on the server. The monitor is
// started when the GymEnv is created and stopped by Close.
func WithMonitor(dir string, force, resume bool) GymEnvOption {
	return func(p *GymEnvParams) {
		p.MonitorDir = dir
		p.ForceMonitor = force
		p.ResumeMonitor = resume
	}
}

// GymEnv implements an environment.Environment backed by a Session
type GymEnv struct {
	ctx     context.Context
	session *Session

	discount   float64
	render     bool
	ender      env.Ender
	monitoring bool

	actionSpec      env.Spec
	observationSpec env.Spec
	currentStep     ts.TimeStep
}

// New returns a new GymEnv which takes ownership of session, along with
// the first timestep of the first episode. The GymEnv keeps ctx for its
// whole lifetime: every request it makes, from the first reset through
// Reset, Step and the monitor stop in Close, uses ctx. Cancelling ctx
// therefore also prevents Close from stopping the monitor.
func New(ctx context.Context, session *Session, discount float64,
	opts ...GymEnvOption) (env.Environment, ts.TimeStep, error) {
	var params GymEnvParams
	for _, opt := range opts {
		opt(&params)
	}
	if params.EpisodeCutoff < 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: episode cutoff must be "+
			"non-negative, got %d", params.EpisodeCutoff)
	}

	actionSpec, err := SpaceSpec(session.ActionSpace(), env.Action)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create action "+
			"spec: %w", err)
	}
	observationSpec, err := SpaceSpec(session.ObservationSpace(),
		env.Observation)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"observation spec: %w", err)
	}

	g := &GymEnv{
		ctx:             ctx,
		session:         session,
		discount:        discount,
		render:          params.Render,
		ender:           env.NewStepLimit(params.EpisodeCutoff),
		actionSpec:      actionSpec,
		observationSpec: observationSpec,
	}

	if params.MonitorDir != "" {
		err := session.MonitorStart(ctx, params.MonitorDir,
			params.ForceMonitor, params.ResumeMonitor)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("new: could not start "+
				"monitor: %w", err)
		}
		g.monitoring = true
	}

	t, err := g.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return g, t, nil
}

// Session returns the Session underlying the GymEnv
func (g *GymEnv) Session() *Session {
	return g.session
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	state, err := g.session.Step(g.ctx, mat.Col(nil, 0, a), g.render)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"environment %v: %w", g.session.EnvID(), err)
	}

	obs, err := vector("step", state.Observation)
	if err != nil {
		return ts.TimeStep{}, true, err
	}

	t := ts.New(ts.Mid, state.Reward, g.discount, obs,
		g.CurrentTimeStep().Number+1)
	t.Info = state.Info

	done := state.Done
	if done {
		t.StepType = ts.Last
	} else {
		done = g.ender.End(&t)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	observation, err := g.session.Reset(g.ctx)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment %v: %w", g.session.EnvID(), err)
	}

	obs, err := vector("reset", observation)
	if err != nil {
		return ts.TimeStep{}, err
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return g.observationSpec
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return g.actionSpec
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// Close stops the monitor if one was started. The environment
// instance itself stays on the server.
func (g *GymEnv) Close() error {
	if !g.monitoring {
		return nil
	}
	g.monitoring = false
	if err := g.session.MonitorStop(g.ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func vector(op string, data []float64) (*mat.VecDense, error) {
	if len(data) == 0 {
		return nil, &ProtocolError{Op: op, Field: "observation",
			Reason: "empty observation"}
	}
	return mat.NewVecDense(len(data), data), nil
}
