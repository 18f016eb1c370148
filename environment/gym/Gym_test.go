package gym_test

import (
	"context"
	"testing"

	"github.com/samuelfneumann/gymclient/environment"
	"github.com/samuelfneumann/gymclient/environment/gym"
	"github.com/samuelfneumann/gymclient/internal/gymtest"
	"github.com/samuelfneumann/gymclient/space"
	ts "github.com/samuelfneumann/gymclient/timestep"
	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/mat"
)

func newGymEnv(t *testing.T, server *gymtest.Server, envID string,
	opts ...gym.GymEnvOption) (*gym.GymEnv, ts.TimeStep) {
	t.Helper()
	ctx := context.Background()

	s, err := newClient(t, server).Make(ctx, envID)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	env, step, err := gym.New(ctx, s, 0.99, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return env.(*gym.GymEnv), step
}

func TestGymEnvEpisode(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	env, step := newGymEnv(t, server, gymtest.ToyDiscrete)
	if !step.First() || step.Number != 0 {
		t.Errorf("first timestep = %v", step)
	}
	if step.Observation.Len() != 2 {
		t.Errorf("observation length = %d, want 2", step.Observation.Len())
	}

	action := mat.NewVecDense(1, []float64{3})
	for n := 1; n <= gymtest.ToyDiscreteEpisode; n++ {
		step, done, err := env.Step(action)
		if err != nil {
			t.Fatalf("step %d: %v", n, err)
		}
		if step.Number != n {
			t.Errorf("step number = %d, want %d", step.Number, n)
		}
		if step.Discount != 0.99 || step.Reward != 1 {
			t.Errorf("step %d = %v", n, step)
		}
		if step.Observation.AtVec(1) != 3 {
			t.Errorf("observation = %v, want action 3 echoed",
				mat.Formatted(step.Observation.T()))
		}
		if len(step.Info) == 0 {
			t.Errorf("step %d has no info", n)
		}

		last := n == gymtest.ToyDiscreteEpisode
		if done != last || step.Last() != last {
			t.Errorf("step %d: done = %v, type = %v", n, done, step.StepType)
		}
		if env.CurrentTimeStep().Number != n {
			t.Errorf("current timestep number = %d, want %d",
				env.CurrentTimeStep().Number, n)
		}
	}

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !step.First() || step.Number != 0 {
		t.Errorf("timestep after reset = %v", step)
	}
}

func TestGymEnvCutoff(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	env, _ := newGymEnv(t, server, gymtest.ToyBox, gym.WithCutoff(3),
		gym.WithRender(true))
	action := mat.NewVecDense(3, []float64{0.1, 0.1, 0.1})

	for n := 1; n <= 3; n++ {
		step, done, err := env.Step(action)
		if err != nil {
			t.Fatalf("step %d: %v", n, err)
		}
		if done != (n == 3) || step.Last() != (n == 3) {
			t.Errorf("step %d: done = %v, type = %v", n, done, step.StepType)
		}
	}

	for _, req := range server.RequestsTo("/step/") {
		if gjson.GetBytes(req.Body, "render").Type != gjson.True {
			t.Errorf("step body = %s, want render set", req.Body)
		}
	}
}

func TestGymEnvSpecs(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	env, _ := newGymEnv(t, server, gymtest.ToyDiscrete)

	action := env.ActionSpec()
	if action.Cardinality != environment.Discrete || action.Len() != 1 ||
		action.LowerBound.AtVec(0) != 0 || action.UpperBound.AtVec(0) != 3 {
		t.Errorf("action spec = %v", action)
	}

	obs := env.ObservationSpec()
	if obs.Cardinality != environment.Continuous || obs.Len() != 2 ||
		obs.Type != environment.Observation || obs.UpperBound.AtVec(0) != 100 {
		t.Errorf("observation spec = %v", obs)
	}

	discount := env.DiscountSpec()
	if discount.LowerBound.AtVec(0) != 0.99 {
		t.Errorf("discount spec = %v", discount)
	}

	box, _ := newGymEnv(t, server, gymtest.ToyBox)
	if spec := box.ObservationSpec(); spec.Cardinality != environment.Discrete ||
		spec.UpperBound.AtVec(0) != 4 {
		t.Errorf("discrete observation spec = %v", spec)
	}
	if spec := box.ActionSpec(); spec.Cardinality != environment.Continuous ||
		spec.Len() != 3 {
		t.Errorf("box action spec = %v", spec)
	}
}

func TestGymEnvMonitor(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	env, _ := newGymEnv(t, server, gymtest.ToyDiscrete,
		gym.WithMonitor("/tmp/monitor", true, false))
	id := env.Session().InstanceID()

	if got := server.Monitor(id); got != "/tmp/monitor" {
		t.Errorf("monitor = %q, want /tmp/monitor", got)
	}

	if err := env.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := server.Monitor(id); got != "" {
		t.Errorf("monitor = %q after close, want it stopped", got)
	}

	// A second Close does not stop the monitor again
	if err := env.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if got := len(server.RequestsTo("/monitor/close/")); got != 1 {
		t.Errorf("server received %d monitor close requests, want 1", got)
	}
}

func TestSpaceSpecRejectsEmpty(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	s, err := newClient(t, server).Make(context.Background(), gymtest.ToyDiscrete)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gym.SpaceSpec(s.ActionSpace(), environment.Action); err != nil {
		t.Errorf("spaceSpec: %v", err)
	}
	empty, err := space.NewBox(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, sp := range []space.Space{space.NewDiscrete(0), empty,
		space.NewTuple(space.NewDiscrete(2))} {
		if _, err := gym.SpaceSpec(sp, environment.Action); err == nil {
			t.Errorf("spaceSpec(%v) should fail", sp)
		}
	}
}
