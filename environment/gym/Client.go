package gym

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samuelfneumann/gymclient/space"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Transport performs a single blocking request/response exchange with a
// gym server and returns the decoded JSON body of the response. An empty
// response body is returned as a gjson.Result which does not exist.
//
// Any failure to complete the exchange, including a non-2xx response or
// a malformed body, must be reported as a *TransportError. Bodies should
// be passed through space.NormalizeLiterals so that non-finite numbers
// read back through space.AsReal.
type Transport interface {
	Get(ctx context.Context, path string) (gjson.Result, error)

	// Post sends body as the JSON request body. A nil body sends a
	// request without a body.
	Post(ctx context.Context, path string, body []byte) (gjson.Result, error)
}

// ClientParams holds the configurable parameters of a Client
type ClientParams struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Header     http.Header
	Logger     *log.Logger
}

// ClientOption configures a Client
type ClientOption func(*ClientParams)

// WithHTTPClient sets the http.Client used to send requests. The
// default is http.DefaultClient.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(p *ClientParams) {
		p.HTTPClient = client
	}
}

// WithTimeout bounds the duration of each request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(p *ClientParams) {
		p.Timeout = timeout
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(p *ClientParams) {
		if p.Header == nil {
			p.Header = make(http.Header)
		}
		p.Header.Add(key, value)
	}
}

// WithLogger logs one line per request to logger
func WithLogger(logger *log.Logger) ClientOption {
	return func(p *ClientParams) {
		p.Logger = logger
	}
}

// Client is a Transport which talks to a gym HTTP server. A Client
// may be used concurrently, but each Session created from it issues its
// requests one at a time.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
	logger  *log.Logger
}

// NewClient returns a new Client for the server at baseURL, e.g.
// http://127.0.0.1:5000
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("newClient: invalid server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("newClient: invalid server url %q: expected "+
			"http(s)://host[:port]", baseURL)
	}

	var params ClientParams
	for _, opt := range opts {
		opt(&params)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if params.Timeout > 0 {
		c := *httpClient
		c.Timeout = params.Timeout
		httpClient = &c
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		header:  params.Header,
		logger:  params.Logger,
	}, nil
}

// Make creates a new environment instance of envID on the server and
// returns a Session which uses c as its transport
func (c *Client) Make(ctx context.Context, envID string) (*Session, error) {
	return Make(ctx, c, envID)
}

// Get implements the Transport interface
func (c *Client) Get(ctx context.Context, path string) (gjson.Result, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return decode(http.MethodGet, path, body)
}

// Post implements the Transport interface
func (c *Client) Post(ctx context.Context, path string,
	body []byte) (gjson.Result, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return gjson.Result{}, err
	}
	return decode(http.MethodPost, path, resp)
}

// ListAll returns the environment ID of every instance on the server,
// keyed by instance ID
func (c *Client) ListAll(ctx context.Context) (map[string]string, error) {
	resp, err := c.Get(ctx, envsPath)
	if err != nil {
		return nil, fmt.Errorf("listAll: %w", err)
	}

	all := resp.Get("all_envs")
	if !all.IsObject() {
		return nil, &ProtocolError{Op: "listAll", Field: "all_envs",
			Reason: "expected an object"}
	}

	envs := make(map[string]string)
	var protoErr error
	all.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			protoErr = &ProtocolError{Op: "listAll", Field: "all_envs." + key.String(),
				Reason: "expected a string environment id"}
			return false
		}
		envs[key.String()] = value.Str
		return true
	})
	if protoErr != nil {
		return nil, protoErr
	}
	return envs, nil
}

// UploadParams describes a set of monitor results to upload
type UploadParams struct {
	TrainingDir        string
	APIKey             string
	AlgorithmID        string
	Writeup            string
	IgnoreOpenMonitors bool
}

// Upload asks the server to upload the monitor results in a training
// directory. AlgorithmID and Writeup are only sent when non-empty.
func (c *Client) Upload(ctx context.Context, p UploadParams) error {
	if p.TrainingDir == "" {
		return fmt.Errorf("upload: training directory must be set")
	}

	body, err := sjson.SetBytes(nil, "training_dir", p.TrainingDir)
	if err == nil {
		body, err = sjson.SetBytes(body, "api_key", p.APIKey)
	}
	if err == nil && p.AlgorithmID != "" {
		body, err = sjson.SetBytes(body, "algorithm_id", p.AlgorithmID)
	}
	if err == nil && p.Writeup != "" {
		body, err = sjson.SetBytes(body, "writeup", p.Writeup)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "ignore_open_monitors",
			p.IgnoreOpenMonitors)
	}
	if err != nil {
		return fmt.Errorf("upload: could not build request: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, "/v1/upload/", body); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// Shutdown asks the server to stop
func (c *Client) Shutdown(ctx context.Context) error {
	// The server answers with plain text, so the body is not decoded
	if _, err := c.do(ctx, http.MethodPost, "/v1/shutdown/", nil); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string,
	body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logf("%s %s -> error: %v", method, path, err)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.logf("%s %s -> %d (%v)", method, path, resp.StatusCode,
		time.Since(start).Round(time.Microsecond))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path,
			StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(respBody, "message").String(),
		}
	}

	return respBody, nil
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// decode parses a response body. The literals Infinity, -Infinity and
// NaN written by the server are normalized before the body is validated.
func decode(method, path string, body []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return gjson.Result{}, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return gjson.Result{}, &TransportError{
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("response body is not a JSON object or array"),
		}
	}

	normalized := space.NormalizeLiterals(trimmed)
	if !gjson.ValidBytes(normalized) {
		return gjson.Result{}, &TransportError{
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("response body is malformed JSON"),
		}
	}
	return gjson.ParseBytes(normalized), nil
}
