package gym

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samuelfneumann/gymclient/space"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const envsPath = "/v1/envs/"

// Session is a single environment instance on a gym server.
//
// A Session owns its Transport and issues one request at a time; it
// must not be used by multiple goroutines at once. To run environments
// concurrently, create one Session per goroutine.
//
// The server protocol has no call to release an instance, so an
// instance lives on the server until the server is shut down.
type Session struct {
	transport  Transport
	envID      string
	instanceID string

	actionSpace      space.Space
	observationSpace space.Space
}

// Make creates a new instance of the environment envID using t, then
// retrieves its observation and action spaces. The returned Session
// takes ownership of t.
func Make(ctx context.Context, t Transport, envID string) (*Session, error) {
	body, err := sjson.SetBytes(nil, "env_id", envID)
	if err != nil {
		return nil, fmt.Errorf("make: could not build request: %w", err)
	}

	resp, err := t.Post(ctx, envsPath, body)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) &&
			transportErr.StatusCode >= http.StatusBadRequest &&
			transportErr.StatusCode < http.StatusInternalServerError {
			return nil, &UnknownEnvironmentError{EnvID: envID, Err: err}
		}
		return nil, fmt.Errorf("make: %w", err)
	}

	id := resp.Get("instance_id")
	if id.Type != gjson.String || id.Str == "" {
		return nil, &UnknownEnvironmentError{EnvID: envID}
	}

	s := &Session{
		transport:  t,
		envID:      envID,
		instanceID: id.Str,
	}

	s.observationSpace, err = s.fetchSpace(ctx, "observation_space")
	if err != nil {
		return nil, err
	}
	s.actionSpace, err = s.fetchSpace(ctx, "action_space")
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) fetchSpace(ctx context.Context, route string) (space.Space,
	error) {
	resp, err := s.transport.Get(ctx, s.path(route))
	if err != nil {
		return nil, fmt.Errorf("make: could not get %s: %w", route, err)
	}

	info := resp.Get("info")
	if !info.Exists() {
		return nil, &SchemaError{Field: "info", Reason: "missing from " + route}
	}
	return space.Parse(info)
}

// EnvID returns the environment ID the Session was created with
func (s *Session) EnvID() string {
	return s.envID
}

// InstanceID returns the identifier the server assigned to the instance
func (s *Session) InstanceID() string {
	return s.instanceID
}

// ActionSpace returns a copy of the action space of the environment
func (s *Session) ActionSpace() space.Space {
	return space.Clone(s.actionSpace)
}

// ObservationSpace returns a copy of the observation space of the
// environment
func (s *Session) ObservationSpace() space.Space {
	return space.Clone(s.observationSpace)
}

// Reset starts a new episode and returns the first observation
func (s *Session) Reset(ctx context.Context) ([]float64, error) {
	resp, err := s.transport.Post(ctx, s.path("reset"), nil)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return observation("reset", resp.Get("observation"))
}

// Step takes action in the environment. The action is checked against
// the action space before anything is sent: a Discrete action must be a
// single integer in [0, n), and a Box action must hold as many finite
// elements as the first axis of the Box's shape.
//
// Step does not track episode boundaries; stepping after Done is
// reported is handled by the server.
func (s *Session) Step(ctx context.Context, action []float64,
	render bool) (State, error) {
	encoded, err := s.encodeAction(action)
	if err != nil {
		return State{}, err
	}

	body, err := sjson.SetBytes(nil, "render", render)
	if err == nil {
		body, err = sjson.SetRawBytes(body, "action", encoded)
	}
	if err != nil {
		return State{}, fmt.Errorf("step: could not build request: %w", err)
	}

	resp, err := s.transport.Post(ctx, s.path("step"), body)
	if err != nil {
		return State{}, fmt.Errorf("step: %w", err)
	}

	obs, err := observation("step", resp.Get("observation"))
	if err != nil {
		return State{}, err
	}

	rewardField := resp.Get("reward")
	reward, ok := space.AsReal(rewardField)
	if !ok {
		return State{}, fieldError("step", "reward", "a number", rewardField)
	}

	done := resp.Get("done")
	if done.Type != gjson.True && done.Type != gjson.False {
		return State{}, fieldError("step", "done", "a boolean", done)
	}

	info := resp.Get("info")
	if !info.Exists() {
		return State{}, &ProtocolError{Op: "step", Field: "info",
			Reason: "missing"}
	}

	return State{
		Observation: obs,
		Reward:      reward,
		Done:        done.Bool(),
		Info:        []byte(info.Raw),
	}, nil
}

// MonitorStart starts recording episodes to directory on the server.
// Nothing is tracked locally, so pairing MonitorStart with MonitorStop
// is up to the caller.
func (s *Session) MonitorStart(ctx context.Context, directory string, force,
	resume bool) error {
	body, err := sjson.SetBytes(nil, "directory", directory)
	if err == nil {
		body, err = sjson.SetBytes(body, "force", force)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "resume", resume)
	}
	if err != nil {
		return fmt.Errorf("monitorStart: could not build request: %w", err)
	}

	if _, err := s.transport.Post(ctx, s.path("monitor/start"), body); err != nil {
		return fmt.Errorf("monitorStart: %w", err)
	}
	return nil
}

// MonitorStop stops recording and flushes monitor data to disk on the
// server
func (s *Session) MonitorStop(ctx context.Context) error {
	if _, err := s.transport.Post(ctx, s.path("monitor/close"), nil); err != nil {
		return fmt.Errorf("monitorStop: %w", err)
	}
	return nil
}

// Exists returns whether the server still knows the instance
func (s *Session) Exists(ctx context.Context) (bool, error) {
	resp, err := s.transport.Post(ctx, s.path("check_exists"), nil)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}

	exists := resp.Get("exists")
	if exists.Type != gjson.True && exists.Type != gjson.False {
		return false, fieldError("exists", "exists", "a boolean", exists)
	}
	return exists.Bool(), nil
}

func (s *Session) path(route string) string {
	return envsPath + url.PathEscape(s.instanceID) + "/" + route + "/"
}

// encodeAction returns the wire encoding of action
func (s *Session) encodeAction(action []float64) ([]byte, error) {
	switch sp := s.actionSpace.(type) {
	case space.Discrete:
		if len(action) != 1 {
			return nil, &InvalidActionError{Space: sp, Expected: 1,
				Got: len(action)}
		}
		a := action[0]
		if a < 0 || a != math.Trunc(a) || a >= float64(sp.N) {
			return nil, &InvalidActionError{
				Space:    sp,
				Expected: 1,
				Got:      1,
				Reason:   fmt.Sprintf("%v is not an integer in [0, %d)", a, sp.N),
			}
		}
		return strconv.AppendUint(nil, uint64(a), 10), nil

	case space.Box:
		arity := 0
		if len(sp.Shape) > 0 {
			arity = int(sp.Shape[0])
		}
		if len(action) != arity {
			return nil, &InvalidActionError{Space: sp, Expected: arity,
				Got: len(action)}
		}
		for i, a := range action {
			if math.IsNaN(a) || math.IsInf(a, 0) {
				return nil, &InvalidActionError{
					Space:    sp,
					Expected: arity,
					Got:      len(action),
					Reason:   fmt.Sprintf("element %d is %v", i, a),
				}
			}
		}
		return space.MarshalReals(action), nil

	case space.Tuple:
		return nil, &UnsupportedSpaceError{Space: "Tuple", Op: "action encoding"}
	}

	panic(fmt.Sprintf("encodeAction: unknown space %T", s.actionSpace))
}

// observation decodes an observation field. Discrete observations are
// sent as a bare integer, and multi-axis Box observations as nested
// arrays, which are flattened in row-major order. Elements may be the
// literals Infinity, -Infinity or NaN.
func observation(op string, r gjson.Result) ([]float64, error) {
	if !r.Exists() {
		return nil, &ProtocolError{Op: op, Field: "observation",
			Reason: "missing"}
	}
	raw := space.NormalizeLiterals([]byte(r.Raw))
	if !gjson.ValidBytes(raw) {
		return nil, fieldError(op, "observation", "valid JSON", r)
	}
	r = gjson.ParseBytes(raw)

	if x, ok := space.AsReal(r); ok {
		return []float64{x}, nil
	}
	if !r.IsArray() {
		return nil, fieldError(op, "observation", "an array of numbers", r)
	}

	obs := make([]float64, 0, len(r.Array()))
	var flatten func(gjson.Result) bool
	flatten = func(r gjson.Result) bool {
		for _, elem := range r.Array() {
			if elem.IsArray() {
				if !flatten(elem) {
					return false
				}
				continue
			}
			x, ok := space.AsReal(elem)
			if !ok {
				return false
			}
			obs = append(obs, x)
		}
		return true
	}
	if !flatten(r) {
		return nil, fieldError(op, "observation", "an array of numbers", r)
	}
	return obs, nil
}

func fieldError(op, field, want string, got gjson.Result) error {
	if !got.Exists() {
		return &ProtocolError{Op: op, Field: field, Reason: "missing"}
	}
	return &ProtocolError{Op: op, Field: field,
		Reason: fmt.Sprintf("expected %s, got %s", want, got.Raw)}
}
