// Package gymtest implements an in-process fake of the gym HTTP server
// for tests. It serves a few toy environments, records every request it
// receives, and allows individual routes to be overridden to simulate
// misbehaving servers.
package gymtest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samuelfneumann/gymclient/space"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Routes of the gym HTTP API, in the form used by Override
const (
	CreateRoute           = "/v1/envs/"
	ListRoute             = "/v1/envs/"
	ResetRoute            = "/v1/envs/:instance_id/reset/"
	StepRoute             = "/v1/envs/:instance_id/step/"
	ActionSpaceRoute      = "/v1/envs/:instance_id/action_space/"
	ObservationSpaceRoute = "/v1/envs/:instance_id/observation_space/"
	CheckExistsRoute      = "/v1/envs/:instance_id/check_exists/"
	MonitorStartRoute     = "/v1/envs/:instance_id/monitor/start/"
	MonitorCloseRoute     = "/v1/envs/:instance_id/monitor/close/"
	UploadRoute           = "/v1/upload/"
	ShutdownRoute         = "/v1/shutdown/"
)

// Request is a request received by the Server
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Server is a fake gym HTTP server
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	envs      map[string]Env
	instances map[string]*instance
	requests  []Request
	overrides map[string]gin.HandlerFunc
	uploads   []gjson.Result
	shutdown  bool
}

type instance struct {
	envID   string
	env     Env
	steps   int
	monitor string
}

// NewServer starts and returns a new Server which serves the toy
// environments. The caller must call Close when finished.
func NewServer() *Server {
	s := &Server{
		envs:      Toys(),
		instances: make(map[string]*instance),
		overrides: make(map[string]gin.HandlerFunc),
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.record, s.override)

	r.POST(CreateRoute, s.handleCreate)
	r.GET(ListRoute, s.handleList)
	r.POST(ResetRoute, s.handleReset)
	r.POST(StepRoute, s.handleStep)
	r.GET(ActionSpaceRoute, s.handleSpace(func(e Env) space.Space {
		return e.ActionSpace
	}))
	r.GET(ObservationSpaceRoute, s.handleSpace(func(e Env) space.Space {
		return e.ObservationSpace
	}))
	r.POST(CheckExistsRoute, s.handleCheckExists)
	r.POST(MonitorStartRoute, s.handleMonitorStart)
	r.POST(MonitorCloseRoute, s.handleMonitorClose)
	r.POST(UploadRoute, s.handleUpload)
	r.POST(ShutdownRoute, s.handleShutdown)

	s.Server = httptest.NewServer(r)
	return s
}

// Register adds an environment which can be created with id
func (s *Server) Register(id string, e Env) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs[id] = e
}

// Override replaces the handler of the route registered for method and
// route, e.g. Override(http.MethodPost, StepRoute, h)
func (s *Server) Override(method, route string, h gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+route] = h
}

// Requests returns every request received so far, in order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for paths ending in suffix
func (s *Server) RequestsTo(suffix string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// Monitor returns the directory being monitored by an instance, or ""
// if the instance is not being monitored
func (s *Server) Monitor(instanceID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[instanceID]; ok {
		return inst.monitor
	}
	return ""
}

// Uploads returns the bodies of all upload requests
func (s *Server) Uploads() []gjson.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gjson.Result(nil), s.uploads...)
}

// ShutdownRequested returns whether a shutdown request was received
func (s *Server) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Body:   body,
	})
	s.mu.Unlock()

	c.Next()
}

func (s *Server) override(c *gin.Context) {
	s.mu.Lock()
	h, ok := s.overrides[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()

	if ok {
		h(c)
		c.Abort()
		return
	}
	c.Next()
}

func invalidUsage(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf(format, args...)})
}

func (s *Server) lookup(c *gin.Context) (*instance, bool) {
	id := c.Param("instance_id")

	s.mu.Lock()
	inst, ok := s.instances[id]
	s.mu.Unlock()

	if !ok {
		invalidUsage(c, "Instance_id %s unknown", id)
	}
	return inst, ok
}

func (s *Server) handleCreate(c *gin.Context) {
	body, _ := c.GetRawData()
	envID := gjson.GetBytes(body, "env_id")
	if envID.Type != gjson.String {
		invalidUsage(c, "A required request parameter was not provided")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.envs[envID.Str]
	if !ok {
		invalidUsage(c, "Attempted to look up malformed environment ID")
		return
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	s.instances[id] = &instance{envID: envID.Str, env: e}
	c.JSON(http.StatusOK, gin.H{"instance_id": id})
}

func (s *Server) handleList(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[string]string, len(s.instances))
	for id, inst := range s.instances {
		all[id] = inst.envID
	}
	c.JSON(http.StatusOK, gin.H{"all_envs": all})
}

func (s *Server) handleSpace(get func(Env) space.Space) gin.HandlerFunc {
	return func(c *gin.Context) {
		inst, ok := s.lookup(c)
		if !ok {
			return
		}

		info, err := get(inst.env).(interface{ MarshalJSON() ([]byte, error) }).
			MarshalJSON()
		if err == nil {
			info, err = sjson.SetRawBytes([]byte(`{}`), "info", info)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", info)
	}
}

func (s *Server) handleReset(c *gin.Context) {
	inst, ok := s.lookup(c)
	if !ok {
		return
	}

	s.mu.Lock()
	inst.steps = 0
	s.mu.Unlock()

	body, err := withObservation(nil, inst.env.Reset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) handleStep(c *gin.Context) {
	inst, ok := s.lookup(c)
	if !ok {
		return
	}

	body, _ := c.GetRawData()
	action := gjson.GetBytes(body, "action")
	if !action.Exists() {
		invalidUsage(c, "A required request parameter was not provided")
		return
	}
	if err := checkAction(inst.env.ActionSpace, action); err != nil {
		invalidUsage(c, "%v", err)
		return
	}

	s.mu.Lock()
	inst.steps++
	steps := inst.steps
	s.mu.Unlock()

	out := inst.env.Step(steps, action)
	body, err := sjson.SetBytes(nil, "reward", out.Reward)
	if err == nil {
		body, err = sjson.SetBytes(body, "done", out.Done)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "info", out.Info)
	}
	if err == nil {
		body, err = withObservation(body, out.Observation)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// withObservation adds the observation field to body. Real-valued
// observations are written as the server writes them, with Infinity and
// NaN literals for non-finite elements.
func withObservation(body []byte, obs interface{}) ([]byte, error) {
	if xs, ok := obs.([]float64); ok {
		return sjson.SetRawBytes(body, "observation", space.MarshalReals(xs))
	}
	return sjson.SetBytes(body, "observation", obs)
}

func (s *Server) handleCheckExists(c *gin.Context) {
	s.mu.Lock()
	_, ok := s.instances[c.Param("instance_id")]
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"exists": ok})
}

func (s *Server) handleMonitorStart(c *gin.Context) {
	inst, ok := s.lookup(c)
	if !ok {
		return
	}

	body, _ := c.GetRawData()
	dir := gjson.GetBytes(body, "directory")
	if dir.Type != gjson.String {
		invalidUsage(c, "A required request parameter was not provided")
		return
	}

	s.mu.Lock()
	inst.monitor = dir.Str
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) handleMonitorClose(c *gin.Context) {
	inst, ok := s.lookup(c)
	if !ok {
		return
	}

	s.mu.Lock()
	inst.monitor = ""
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpload(c *gin.Context) {
	body, _ := c.GetRawData()
	req := gjson.ParseBytes(body)
	if !req.Get("training_dir").Exists() || !req.Get("api_key").Exists() {
		invalidUsage(c, "A required request parameter was not provided")
		return
	}
	if req.Get("api_key").String() == "" {
		invalidUsage(c, "You must provide an OpenAI Gym API key")
		return
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, req)
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) handleShutdown(c *gin.Context) {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	c.String(http.StatusOK, "Server shutting down")
}
