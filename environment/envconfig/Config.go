// Package envconfig provides configuration structs for configuring
// environments served by a gym server. Environment configurations in
// this package are JSON serializable.
package envconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/samuelfneumann/gymclient/environment/gym"
	ts "github.com/samuelfneumann/gymclient/timestep"
)

// Environment variables read by FromEnv
const (
	ServerURLVar = "GYM_SERVER_URL"
	EnvIDVar     = "GYM_ENV_ID"
	TimeoutVar   = "GYM_TIMEOUT"
)

// DefaultServerURL is the address the gym server listens on by default
const DefaultServerURL = "http://127.0.0.1:5000"

// Duration is a time.Duration which is written to JSON as a string
// such as "30s"
type Duration time.Duration

// MarshalJSON implements the json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements the json.Unmarshaler interface. Durations
// may be given as strings or as a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or a number: %s", data)
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

// Monitor configures recording of episodes on the server. Monitoring
// is disabled when Directory is empty.
type Monitor struct {
	Directory string
	Force     bool
	Resume    bool
}

// Config implements a specific configuration of a specific environment
// on a gym server
type Config struct {
	ServerURL     string
	EnvID         gym.EnvironmentID
	EpisodeCutoff uint
	Discount      float64
	Render        bool
	Monitor       Monitor
	Timeout       Duration
	Seed          uint64
}

// NewConfig returns a new environment Config for envID on the default
// server
func NewConfig(envID gym.EnvironmentID, episodeCutoff uint,
	discount float64) Config {
	return Config{
		ServerURL:     DefaultServerURL,
		EnvID:         envID,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
		Timeout:       Duration(30 * time.Second),
	}
}

// Load reads a JSON Config from filename. Fields missing from the file
// take the values of NewConfig("", 0, 1.0).
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := NewConfig("", 0, 1.0)
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %w",
			filename, err)
	}
	return c, nil
}

// Save writes the Config to filename as JSON
func (c Config) Save(filename string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// FromEnv returns a copy of the Config with fields overridden by the
// GYM_SERVER_URL, GYM_ENV_ID, and GYM_TIMEOUT environment variables.
// GYM_TIMEOUT is either a duration such as 10s or a number of seconds.
func (c Config) FromEnv() (Config, error) {
	if url := os.Getenv(ServerURLVar); url != "" {
		c.ServerURL = url
	}
	if id := os.Getenv(EnvIDVar); id != "" {
		c.EnvID = gym.EnvironmentID(id)
	}
	if timeout := os.Getenv(TimeoutVar); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			seconds, serr := strconv.ParseFloat(timeout, 64)
			if serr != nil {
				return Config{}, fmt.Errorf("fromEnv: invalid %v %q: %w",
					TimeoutVar, timeout, err)
			}
			d = time.Duration(seconds * float64(time.Second))
		}
		c.Timeout = Duration(d)
	}
	return c, nil
}

// Validate returns an error if the Config cannot describe an
// environment
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("validate: server url must be set")
	}
	if c.EnvID == "" {
		return fmt.Errorf("validate: environment id must be set")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount %v must be in [0, 1]",
			c.Discount)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("validate: timeout must be non-negative")
	}
	return nil
}

// Client returns a gym Client for the configured server
func (c Config) Client(opts ...gym.ClientOption) (*gym.Client, error) {
	if c.Timeout > 0 {
		opts = append([]gym.ClientOption{
			gym.WithTimeout(time.Duration(c.Timeout)),
		}, opts...)
	}
	return gym.NewClient(c.ServerURL, opts...)
}

// Create creates the environment described by the Config on the server
// and returns it along with the first timestep of the environment.
func (c Config) Create(ctx context.Context,
	opts ...gym.ClientOption) (*gym.GymEnv, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	client, err := c.Client(opts...)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	session, err := client.Make(ctx, string(c.EnvID))
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	envOpts := []gym.GymEnvOption{
		gym.WithRender(c.Render),
		gym.WithCutoff(int(c.EpisodeCutoff)),
	}
	if c.Monitor.Directory != "" {
		envOpts = append(envOpts, gym.WithMonitor(c.Monitor.Directory,
			c.Monitor.Force, c.Monitor.Resume))
	}

	env, step, err := gym.New(ctx, session, c.Discount, envOpts...)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return env.(*gym.GymEnv), step, nil
}
