package random_test

import (
	"testing"

	"github.com/samuelfneumann/gymclient/agent"
	"github.com/samuelfneumann/gymclient/agent/random"
	"github.com/samuelfneumann/gymclient/space"
	ts "github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/gonum/mat"
)

var _ agent.Agent = &random.Random{}

func TestSelectAction(t *testing.T) {
	box, err := space.NewBox([]uint64{2}, []float64{-2, 0}, []float64{2, 0.5})
	if err != nil {
		t.Fatal(err)
	}

	for _, sp := range []space.Space{space.NewDiscrete(3), box} {
		a, err := random.New(sp, 1)
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		for i := 0; i < 100; i++ {
			action, err := a.SelectAction(ts.TimeStep{})
			if err != nil {
				t.Fatalf("selectAction: %v", err)
			}
			if !space.Contains(sp, mat.Col(nil, 0, action)) {
				t.Errorf("action %v is not in %v",
					mat.Formatted(action.T()), sp)
			}
		}
	}
}

func TestSelectActionSeeded(t *testing.T) {
	sp := space.NewDiscrete(1000)
	a, _ := random.New(sp, 5)
	b, _ := random.New(sp, 5)

	for i := 0; i < 20; i++ {
		x, _ := a.SelectAction(ts.TimeStep{})
		y, _ := b.SelectAction(ts.TimeStep{})
		if x.AtVec(0) != y.AtVec(0) {
			t.Fatalf("agents with equal seeds diverged at action %d", i)
		}
	}
}

func TestNewRejectsEmptySpace(t *testing.T) {
	empty, err := space.NewBox(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, sp := range []space.Space{space.NewDiscrete(0), empty} {
		if _, err := random.New(sp, 1); err == nil {
			t.Errorf("new(%v) should fail", sp)
		}
	}
}

func TestCounters(t *testing.T) {
	a, err := random.New(space.NewDiscrete(2), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
	}
	a.EndEpisode()

	if a.Steps() != 3 || a.Episodes() != 1 {
		t.Errorf("steps = %d, episodes = %d, want 3 and 1", a.Steps(),
			a.Episodes())
	}
}
