package environment_test

import (
	"testing"

	"github.com/samuelfneumann/gymclient/environment"
	ts "github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestStepLimit(t *testing.T) {
	ender := environment.NewStepLimit(3)

	for n := 0; n < 3; n++ {
		step := ts.New(ts.Mid, 0, 1, nil, n)
		if ender.End(&step) {
			t.Errorf("step %d ended the episode early", n)
		}
		if step.StepType != ts.Mid {
			t.Errorf("step %d has type %v, want Mid", n, step.StepType)
		}
	}

	step := ts.New(ts.Mid, 0, 1, nil, 3)
	if !ender.End(&step) {
		t.Error("step 3 should end the episode")
	}
	if !step.Last() {
		t.Errorf("ending step has type %v, want Last", step.StepType)
	}

	unlimited := environment.NewStepLimit(0)
	step = ts.New(ts.Mid, 0, 1, nil, 1_000_000)
	if unlimited.End(&step) {
		t.Error("a limit of 0 should never end an episode")
	}
}

func TestSpec(t *testing.T) {
	spec := environment.NewSpec(mat.NewVecDense(2, nil), environment.Action,
		mat.NewVecDense(2, []float64{-1, 0}), mat.NewVecDense(2, []float64{1, 2}),
		environment.Continuous)

	if spec.Len() != 2 {
		t.Errorf("len = %d, want 2", spec.Len())
	}

	want := []r1.Interval{{Min: -1, Max: 1}, {Min: 0, Max: 2}}
	got := spec.Bounds()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bound %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewSpecMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("mismatched bounds should panic")
		}
	}()

	environment.NewSpec(mat.NewVecDense(2, nil), environment.Observation,
		mat.NewVecDense(1, nil), mat.NewVecDense(2, nil), environment.Continuous)
}
