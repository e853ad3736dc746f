// Package testutil provides fakes of the ticketing backend for tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/user"
)

// Backend is an in-memory core.Backend and dialog.Submitter.
// GET and POST responses are looked up by path; every submission is recorded.
type Backend struct {
	mu        sync.Mutex
	responses map[string]interface{}
	errs      map[string]error
	requests  []dialog.Request
	// SubmitErr, when set, is returned by every Submit.
	SubmitErr error
	// SubmitResult is returned by every successful Submit.
	SubmitResult map[string]interface{}
}

var (
	_ core.Backend     = (*Backend)(nil)
	_ dialog.Submitter = (*Backend)(nil)
)

func NewBackend() *Backend {
	return &Backend{
		responses: make(map[string]interface{}),
		errs:      make(map[string]error),
	}
}

// Set registers the response of path.
func (b *Backend) Set(path string, v interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[path] = v
}

// Fail makes every call to path return err.
func (b *Backend) Fail(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[path] = err
}

func (b *Backend) lookup(path string, out interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.errs[path]; ok {
		return err
	}
	v, ok := b.responses[path]
	if !ok {
		return core.NewServerError(http.StatusNotFound, "No encontrado")
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (b *Backend) Get(_ context.Context, path string, _ url.Values, out interface{}) error {
	return b.lookup(path, out)
}

func (b *Backend) Post(_ context.Context, path string, _, out interface{}) error {
	return b.lookup(path, out)
}

func (b *Backend) Submit(_ context.Context, req dialog.Request) (map[string]interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.SubmitErr != nil {
		return nil, b.SubmitErr
	}
	res := b.SubmitResult
	if res == nil {
		res = map[string]interface{}{"id": "new"}
	}
	return res, nil
}

// Requests returns the submissions received so far.
func (b *Backend) Requests() []dialog.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dialog.Request(nil), b.requests...)
}

// Route is a canned HTTP response of a fake backend server.
type Route struct {
	Status int
	Body   interface{}
}

// Recorded is a request received by a fake backend server.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   map[string]interface{}
}

// Server is an httptest server answering "METHOD /path" routes with canned JSON.
type Server struct {
	*httptest.Server
	mu       sync.Mutex
	routes   map[string]Route
	received []Recorded
}

func NewServer(t *testing.T, routes map[string]Route) *Server {
	t.Helper()
	s := &Server{routes: routes}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	rec := Recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}

	s.mu.Lock()
	s.received = append(s.received, rec)
	route, ok := s.routes[r.Method+" "+strings.TrimSuffix(r.URL.Path, "/")]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Recurso no encontrado"}`))
		return
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if route.Body != nil {
		_ = json.NewEncoder(w).Encode(route.Body)
	}
}

// Received returns the requests served so far.
func (s *Server) Received() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.received...)
}

// Token signs an HS256 token for a user with role, valid for an hour.
func Token(t *testing.T, secret []byte, userID, username, role string) string {
	t.Helper()
	claims := &user.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Username: username,
		Email:    username + "@evento.com",
		Role:     role,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return ss
}
