package backendsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
)

// Client talks JSON to the ticketing backend. A Client is bound to at most one session token;
// use WithToken to get a copy acting for another user.
type Client struct {
	rest    *rest.Client
	baseURL string
	timeout time.Duration
	token   string
	logger  core.Logger
}

var (
	_ core.Backend     = (*Client)(nil)
	_ dialog.Submitter = (*Client)(nil)
)

func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).Check(); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(conf.Backend.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, errors.Wrap(err, "parsing backend url")
	}
	return &Client{
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Backend.Timeout}},
		baseURL: base,
		timeout: conf.Backend.Timeout,
		logger:  logger,
	}, nil
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	res, err := c.send(ctx, rest.Get, path, query, nil)
	if err != nil {
		return err
	}
	return decode(res, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	res, err := c.send(ctx, rest.Post, path, nil, body)
	if err != nil {
		return err
	}
	return decode(res, out)
}

// Submit issues exactly one request. It never retries.
func (c *Client) Submit(ctx context.Context, req dialog.Request) (map[string]interface{}, error) {
	res, err := c.send(ctx, rest.Method(req.Method), req.Path, nil, req.Payload)
	if err != nil {
		return nil, err
	}
	// the status decides the outcome; a success body that is not an object is an empty result
	var out map[string]interface{}
	if err := decode(res, &out); err != nil {
		c.logger.Debug(fmt.Sprintf("backend %s %s: ignoring body: %v", req.Method, req.Path, err))
		return map[string]interface{}{}, nil
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

// send performs the call and classifies its outcome: transport failures are
// *core.ConnectivityError, statuses >= 400 are *core.ServerError.
func (c *Client) send(ctx context.Context, method rest.Method, path string, query url.Values, body interface{}) (*rest.Response, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if c.token != "" {
		req.Headers["Authorization"] = "Bearer " + c.token
	}
	if len(query) > 0 {
		req.QueryParams = make(map[string]string, len(query))
		for k := range query {
			req.QueryParams[k] = query.Get(k)
		}
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		req.Body = b
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("backend %s %s: %v", method, path, err))
		return nil, core.NewConnectivityError(err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		c.logger.Debug(fmt.Sprintf("backend %s %s - status: %d - body: %s", method, path, res.StatusCode, res.Body))
		return nil, core.NewServerError(res.StatusCode, errorMessage(res.Body))
	}
	return res, nil
}

func decode(res *rest.Response, out interface{}) error {
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrap(err, "decoding backend response")
	}
	return nil
}

// errorMessage extracts the "message" of an error body. Validation pipes may send it as a list.
func errorMessage(body string) string {
	var e struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return ""
	}
	var msg string
	if err := json.Unmarshal(e.Message, &msg); err == nil && msg != "" {
		return msg
	}
	var msgs []string
	if err := json.Unmarshal(e.Message, &msgs); err == nil && len(msgs) > 0 {
		return strings.Join(msgs, ". ")
	}
	return e.Error
}
