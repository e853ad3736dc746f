package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/core/validation"
	"github.com/darivadeneira/evento-web/internal/testutil"
	backendsvc "github.com/darivadeneira/evento-web/services/backend"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
)

var (
	secretKey = []byte("secret")

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type fakeGeocoder struct{}

func (fakeGeocoder) Reverse(_ context.Context, p form.Point) (geocodesvc.Place, error) {
	if p.IsSentinel() {
		return geocodesvc.Place{}, geocodesvc.ErrNoLocation
	}
	return geocodesvc.Place{DisplayName: "Quito, Ecuador", City: "Quito", Latitude: p.Lat, Longitude: p.Lng}, nil
}

// setup starts an API server in front of a fake backend answering routes.
func setup(t *testing.T, routes map[string]testutil.Route) (*Server, *testutil.Server) {
	t.Helper()
	backend := testutil.NewServer(t, routes)

	conf := &core.Config{
		TestMode:  true,
		SecretKey: string(secretKey),
		Server:    core.ServerConfig{DisableReqLogs: true},
		Backend:   core.BackendConfig{BaseURL: backend.URL, Timeout: 2 * time.Second},
		Dialog:    core.DialogConfig{CloseDelay: time.Hour, TTL: time.Minute},
	}
	logger := new(testutil.Logger)
	client, err := backendsvc.NewClient(conf, logger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	v := validation.NewDefault()
	user.RegisterValidators(v)

	srv := NewServer(ServerDeps{
		Conf:      conf,
		Logger:    logger,
		Backend:   client,
		Validator: v,
		Geocoder:  &fakeGeocoder{},
	})
	t.Cleanup(func() { _ = srv.Close() })
	return srv, backend
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, userID, role string) string {
	return testutil.Token(t, secretKey, userID, userID, role)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decodeView reads a dialog view out of a response.
func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dialog.View {
	t.Helper()
	var v dialog.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding view %q: %v", rec.Body.String(), err)
	}
	return v
}
