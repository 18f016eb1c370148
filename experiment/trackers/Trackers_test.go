package trackers_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samuelfneumann/gymclient/experiment/trackers"
	ts "github.com/samuelfneumann/gymclient/timestep"
)

// episodes returns the timesteps of two finished episodes with returns
// 3 and 10, followed by an unfinished episode
func episodes() []ts.TimeStep {
	var steps []ts.TimeStep
	for _, rewards := range [][]float64{{1, 2}, {4, 4, 2}, {7}} {
		steps = append(steps, ts.New(ts.First, 0, 1, nil, 0))
		for i, r := range rewards {
			steps = append(steps, ts.New(ts.Mid, r, 1, nil, i+1))
		}
	}
	steps[2].StepType = ts.Last
	steps[6].StepType = ts.Last
	return steps
}

func track(t *testing.T, tracker trackers.Tracker) {
	t.Helper()
	for _, step := range episodes() {
		if err := tracker.Track(step); err != nil {
			t.Fatalf("track: %v", err)
		}
	}
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tracker := trackers.NewReturn(filename)
	track(t, tracker)

	want := []float64{3, 10}
	if got := tracker.Returns(); !reflect.DeepEqual(got, want) {
		t.Errorf("returns = %v, want %v", got, want)
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := trackers.LoadData(filename)
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("loaded %v, want %v", data, want)
	}
}

func TestReturnInMemory(t *testing.T) {
	tracker := trackers.NewReturn("")
	track(t, tracker)
	if err := tracker.Save(); err != nil {
		t.Errorf("save without a filename: %v", err)
	}
}

func TestReturnNonSequential(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("tracking non-sequential timesteps should panic")
		}
	}()

	tracker := trackers.NewReturn("")
	tracker.Track(ts.New(ts.First, 0, 1, nil, 0))
	tracker.Track(ts.New(ts.Mid, 0, 1, nil, 2))
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	tracker := trackers.NewEpisodeLength(filename)
	track(t, tracker)

	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := trackers.LoadData(filename)
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	if want := []float64{2, 3}; !reflect.DeepEqual(data, want) {
		t.Errorf("loaded %v, want %v", data, want)
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := trackers.LoadData(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestPlot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.png")
	tracker := trackers.NewPlot(filename, "Returns")
	track(t, tracker)

	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot is empty")
	}

	if err := trackers.PlotReturns(nil, filename, ""); err == nil {
		t.Error("plotting no returns should fail")
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := "gymclient:test:" + uuid.NewString()
	defer client.Del(ctx, key)

	tracker := trackers.NewRedis(ctx, client, key)
	track(t, tracker)
	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	returns, err := trackers.LoadRedis(ctx, client, key)
	if err != nil {
		t.Fatalf("loadRedis: %v", err)
	}
	if want := []float64{3, 10}; !reflect.DeepEqual(returns, want) {
		t.Errorf("returns = %v, want %v", returns, want)
	}
	if tracker.Pushed() != 2 {
		t.Errorf("pushed = %d, want 2", tracker.Pushed())
	}
}
