package timestep_test

import (
	"testing"

	ts "github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestStepType(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.5, -0.5})

	first := ts.New(ts.First, 0, 0.99, obs, 0)
	if !first.First() || first.Mid() || first.Last() {
		t.Errorf("first timestep reports type %v", first.StepType)
	}

	last := ts.New(ts.Last, 1, 0.99, obs, 10)
	if !last.Last() || last.First() || last.Mid() {
		t.Errorf("last timestep reports type %v", last.StepType)
	}

	want := "TimeStep | Type: Last  |  Reward:  1.00  |  Discount: 0.99  |  " +
		"Step Number:  10"
	if got := last.String(); got != want {
		t.Errorf("string = %q, want %q", got, want)
	}
}
