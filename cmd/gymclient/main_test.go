package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/samuelfneumann/gymclient/environment/envconfig"
	"github.com/samuelfneumann/gymclient/experiment/trackers"
	"github.com/samuelfneumann/gymclient/internal/gymtest"
	ts "github.com/samuelfneumann/gymclient/timestep"
)

// execute runs gymclient with args and returns its standard output and
// error streams
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	dir := t.TempDir()
	returns := filepath.Join(dir, "returns.bin")
	lengths := filepath.Join(dir, "lengths.bin")
	plot := filepath.Join(dir, "returns.png")

	out, _, err := execute(t, "run", "--server", server.URL,
		"--env", gymtest.ToyDiscrete, "--steps", "12", "--seed", "4",
		"--returns", returns, "--lengths", lengths, "--plot", plot)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "steps:    12") ||
		!strings.Contains(out, "episodes: 2") {
		t.Errorf("output = %q", out)
	}

	data, err := trackers.LoadData(returns)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{gymtest.ToyDiscreteEpisode, gymtest.ToyDiscreteEpisode}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("returns = %v, want %v", data, want)
	}

	data, err = trackers.LoadData(lengths)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("lengths = %v, want %v", data, want)
	}

	if _, err := os.Stat(plot); err != nil {
		t.Errorf("plot not written: %v", err)
	}
}

func TestRunConfig(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	filename := filepath.Join(t.TempDir(), "env.json")
	c := envconfig.NewConfig(gymtest.ToyBox, 4, 1.0)
	c.Monitor.Directory = "/tmp/toy-box"
	if err := c.Save(filename); err != nil {
		t.Fatal(err)
	}

	// The cutoff in the file ends each episode after 4 steps, the flag
	// overrides the server of the file
	out, _, err := execute(t, "run", "--server", server.URL,
		"--config", filename, "--steps", "8")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "episodes: 2") {
		t.Errorf("output = %q", out)
	}
	if got := len(server.RequestsTo("/monitor/start/")); got != 1 {
		t.Errorf("monitor started %d times, want 1", got)
	}
	if got := len(server.RequestsTo("/monitor/close/")); got != 1 {
		t.Errorf("monitor closed %d times, want 1", got)
	}
}

func TestRunUnknownEnvironment(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	_, _, err := execute(t, "run", "--server", server.URL, "--env",
		"Missing-v0")
	if err == nil || !strings.Contains(err.Error(), "Missing-v0") {
		t.Errorf("run error = %v", err)
	}
}

func TestSpaces(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	out, _, err := execute(t, "spaces", gymtest.ToyBox, "--server",
		server.URL, "--samples", "3")
	if err != nil {
		t.Fatalf("spaces: %v", err)
	}
	for _, want := range []string{
		"observation space: Discrete(5)",
		"action space:      Box(shape=[3]",
		"sample 2:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}

	if _, _, err := execute(t, "spaces", "--server", server.URL); err == nil {
		t.Error("spaces without an environment id should fail")
	}
}

func TestListVerbose(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	out, _, err := execute(t, "spaces", gymtest.ToyDiscrete, "--server",
		server.URL)
	if err != nil {
		t.Fatal(err)
	}
	instance := strings.Fields(strings.SplitN(out, "\n", 2)[0])[1]

	out, logs, err := execute(t, "list", "--server", server.URL, "-v")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := instance + "\t" + gymtest.ToyDiscrete + "\n"; out != want {
		t.Errorf("list = %q, want %q", out, want)
	}
	if !strings.Contains(logs, "GET /v1/envs/ -> 200") {
		t.Errorf("logs = %q", logs)
	}
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	returns := filepath.Join(dir, "returns.bin")
	tracker := trackers.NewReturn(returns)
	for _, step := range []ts.TimeStep{
		ts.New(ts.First, 0, 1, nil, 0),
		ts.New(ts.Last, 2, 1, nil, 1),
		ts.New(ts.First, 0, 1, nil, 0),
		ts.New(ts.Last, 3, 1, nil, 1),
	} {
		if err := tracker.Track(step); err != nil {
			t.Fatal(err)
		}
	}
	if err := tracker.Save(); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "returns.png")
	if _, _, err := execute(t, "plot", returns, out, "--title", "Toy"); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}

	if _, _, err := execute(t, "plot", filepath.Join(dir, "missing"),
		out); err == nil {
		t.Error("plotting a missing file should fail")
	}
}

func TestUpload(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()
	t.Setenv(APIKeyVar, "")

	if _, _, err := execute(t, "upload", "/tmp/run", "--server",
		server.URL); err == nil {
		t.Error("upload without an API key should fail")
	}
	if len(server.Uploads()) != 0 {
		t.Fatal("upload without an API key reached the server")
	}

	t.Setenv(APIKeyVar, "key")
	_, _, err := execute(t, "upload", "/tmp/run", "--server", server.URL,
		"--algorithm-id", "random")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	uploads := server.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(uploads))
	}
	if uploads[0].Get("api_key").String() != "key" ||
		uploads[0].Get("algorithm_id").String() != "random" ||
		uploads[0].Get("training_dir").String() != "/tmp/run" {
		t.Errorf("upload = %v", uploads[0].Raw)
	}
}

func TestShutdown(t *testing.T) {
	server := gymtest.NewServer()
	defer server.Close()

	if _, _, err := execute(t, "shutdown", "--server", server.URL); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !server.ShutdownRequested() {
		t.Error("server was not asked to shut down")
	}
}
