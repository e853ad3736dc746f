package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/internal/testutil"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
)

var secretKey = []byte("secret")

// fakePrompter answers prompts by field name. Queued answers are used once, then the prompt
// default is returned.
type fakePrompter struct {
	answers map[string][]string
	asked   []string
}

var _ Prompter = (*fakePrompter)(nil)

func (p *fakePrompter) next(name, def string) (string, error) {
	p.asked = append(p.asked, name)
	if len(p.asked) > 100 {
		return "", errors.New("too many prompts")
	}
	if q := p.answers[name]; len(q) > 0 {
		p.answers[name] = q[1:]
		return q[0], nil
	}
	return def, nil
}

func (p *fakePrompter) Input(_ context.Context, cfg InputConfig) (string, error) {
	return p.next(cfg.Name, cfg.Default)
}

func (p *fakePrompter) Password(_ context.Context, cfg InputConfig) (string, error) {
	return p.next(cfg.Name, "")
}

func (p *fakePrompter) TextArea(_ context.Context, cfg InputConfig) (string, error) {
	return p.next(cfg.Name, cfg.Default)
}

func (p *fakePrompter) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	def := "n"
	if cfg.Default {
		def = "y"
	}
	ans, err := p.next(cfg.Name, def)
	return ans == "y", err
}

func (p *fakePrompter) Select(_ context.Context, cfg SelectConfig) (int, error) {
	ans, err := p.next(cfg.Name, cfg.Default)
	if err != nil {
		return 0, err
	}
	for i, o := range cfg.Options {
		if o == ans {
			return i, nil
		}
	}
	return 0, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Reverse(_ context.Context, p form.Point) (geocodesvc.Place, error) {
	return geocodesvc.Place{DisplayName: "Quito, Ecuador", City: "Quito", Latitude: p.Lat, Longitude: p.Lng}, nil
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

// setup starts a fake backend and returns a runner executing the CLI against it.
func setup(t *testing.T, routes map[string]testutil.Route) (*testutil.Server, string, func(p Prompter, args ...string) (string, error)) {
	t.Helper()
	srv := testutil.NewServer(t, routes)
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	run := func(p Prompter, args ...string) (string, error) {
		out := new(bytes.Buffer)
		cli := newCommandLine(viper.New(), p, out)
		cli.logger = new(testutil.Logger)
		cli.geocoder = fakeGeocoder{}
		args = append(args, "--backend-url", srv.URL, "--session-path", sessionPath)
		err := cli.run(context.Background(), args)
		return out.String(), err
	}
	return srv, sessionPath, run
}

func saveSession(t *testing.T, path, role string) user.Session {
	t.Helper()
	sess, err := user.ParseSession(testutil.Token(t, secretKey, "u1", "ana", role), secretKey)
	if err != nil {
		t.Fatalf("ParseSession() failed: %v", err)
	}
	if err := newSessionStore(path).Save(sess); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	return sess
}

func lastRequest(t *testing.T, srv *testutil.Server) testutil.Recorded {
	t.Helper()
	received := srv.Received()
	if len(received) == 0 {
		t.Fatal("backend received no request")
	}
	return received[len(received)-1]
}

func Test_commandLine_loginLogout(t *testing.T) {
	token := testutil.Token(t, secretKey, "u1", "ana", user.RoleOrganizer)
	srv, sessionPath, run := setup(t, map[string]testutil.Route{
		"POST /auth/login": {Body: map[string]interface{}{
			"token": token,
			"user":  map[string]interface{}{"id": "u1", "username": "ana", "email": "ana@evento.com", "role": "organizer"},
		}},
	})

	defer func(f func(int) ([]byte, error)) { readPasswordFunc = f }(readPasswordFunc)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("secret1"), nil }

	out, err := run(&fakePrompter{}, "login", "--username", " AnaP ")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Sesión iniciada como ana (organizer)") {
		t.Errorf("login output = %q", out)
	}
	want := map[string]interface{}{"username": "AnaP", "password": "secret1"}
	if diff := cmp.Diff(want, lastRequest(t, srv).Body); diff != "" {
		t.Errorf("login body mismatch (-want +got):\n%s", diff)
	}

	sess, err := newSessionStore(sessionPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.UserID != "u1" || sess.Token != token {
		t.Errorf("stored session = %+v", sess)
	}

	if _, err := run(&fakePrompter{}, "logout"); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if sess, _ := newSessionStore(sessionPath).Load(); !sess.IsZero() {
		t.Errorf("session kept after logout: %+v", sess)
	}
}

func Test_commandLine_loginFailed(t *testing.T) {
	_, sessionPath, run := setup(t, map[string]testutil.Route{
		"POST /auth/login": {Status: 401, Body: map[string]interface{}{"message": "Unauthorized"}},
	})
	defer func(f func(int) ([]byte, error)) { readPasswordFunc = f }(readPasswordFunc)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("nope"), nil }

	prompter := &fakePrompter{answers: map[string][]string{"username": {"ana"}}}
	if _, err := run(prompter, "login"); err != user.ErrAuthenticationFailed {
		t.Errorf("login error = %v, want %v", err, user.ErrAuthenticationFailed)
	}
	if sess, _ := newSessionStore(sessionPath).Load(); !sess.IsZero() {
		t.Errorf("session stored after a failed login: %+v", sess)
	}
}

func Test_commandLine_access(t *testing.T) {
	_, sessionPath, run := setup(t, nil)

	tests := []cliTest{
		{name: "no session", args: []string{"metrics", "--event", "e1"}, wantErr: errLoginRequired},
		{name: "attendee registers", args: []string{"register"}, wantErr: user.ErrForbidden},
		{name: "attendee creates event", args: []string{"event", "create"}, wantErr: user.ErrForbidden},
		{name: "category without event", args: []string{"category", "create"}, wantErrStr: `required flag(s) "event" not set`},
		{name: "edit without id", args: []string{"event", "edit"}, wantErrStr: "accepts 1 arg(s), received 0"},
	}
	for i, tt := range tests {
		if i == 1 {
			saveSession(t, sessionPath, user.RoleAttendee)
		}

		t.Run(tt.name, func(t *testing.T) {
			_, err := run(&fakePrompter{}, tt.args...)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_categoryEdit(t *testing.T) {
	srv, sessionPath, run := setup(t, map[string]testutil.Route{
		"GET /ticket-categories/c1": {Body: map[string]interface{}{
			"id":          "c1",
			"eventId":     "e1",
			"name":        "General",
			"description": "Acceso general",
			"price":       10,
			"capacity":    300,
		}},
		"PATCH /ticket-categories/c1": {Body: map[string]interface{}{"id": "c1"}},
	})
	sess := saveSession(t, sessionPath, user.RoleOrganizer)

	prompter := &fakePrompter{answers: map[string][]string{"price": {"12.50"}}}
	out, err := run(prompter, "category", "edit", "c1")
	if err != nil {
		t.Fatalf("category edit error = %v", err)
	}
	if !strings.Contains(out, "Categoría actualizada correctamente") {
		t.Errorf("output = %q", out)
	}

	req := lastRequest(t, srv)
	if req.Method != "PATCH" || req.Auth != "Bearer "+sess.Token {
		t.Errorf("request = %s auth %q", req.Method, req.Auth)
	}
	if diff := cmp.Diff(map[string]interface{}{"price": 12.5}, req.Body); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func Test_commandLine_categoryEditNoChanges(t *testing.T) {
	srv, sessionPath, run := setup(t, map[string]testutil.Route{
		"GET /ticket-categories/c1": {Body: map[string]interface{}{
			"id": "c1", "eventId": "e1", "name": "General", "description": "Acceso general", "price": 10, "capacity": 300,
		}},
	})
	saveSession(t, sessionPath, user.RoleAdmin)

	_, err := run(&fakePrompter{}, "category", "edit", "c1")
	if err == nil || !strings.Contains(err.Error(), "No has realizado ningún cambio") {
		t.Errorf("category edit error = %v, want no changes", err)
	}
	if n := len(srv.Received()); n != 1 {
		t.Errorf("backend received %d requests, want 1", n)
	}
}

func Test_commandLine_eventCreate(t *testing.T) {
	srv, sessionPath, run := setup(t, map[string]testutil.Route{
		"POST /events": {Status: 201, Body: map[string]interface{}{"id": "e9"}},
	})
	saveSession(t, sessionPath, user.RoleOrganizer)

	date := time.Now().AddDate(0, 1, 0).Format(form.DateLayout)
	prompter := &fakePrompter{answers: map[string][]string{
		"name":         {"Concierto de rock"},
		"date":         {date},
		"hour":         {"25:00", "20:00"},
		"description":  {"Banda <b>en vivo</b>"},
		"capacity":     {"120"},
		"city":         {"Quito"},
		"location.lat": {"-0.18"},
		"location.lng": {"abc", "-78.47"},
	}}
	out, err := run(prompter, "event", "create")
	if err != nil {
		t.Fatalf("event create error = %v", err)
	}
	for _, want := range []string{"Formato de hora inválido (HH:MM)", "Debe ser un número", "Evento creado correctamente"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}

	req := lastRequest(t, srv)
	if req.Method != "POST" || req.Path != "/events" {
		t.Fatalf("request = %s %s", req.Method, req.Path)
	}
	got := map[string]interface{}{
		"name":        req.Body["name"],
		"description": req.Body["description"],
		"capacity":    req.Body["capacity"],
		"city":        req.Body["city"],
		"latitude":    req.Body["latitude"],
		"longitude":   req.Body["longitude"],
	}
	want := map[string]interface{}{
		"name":        "Concierto de rock",
		"description": "Banda en vivo",
		"capacity":    float64(120),
		"city":        "Quito",
		"latitude":    -0.18,
		"longitude":   -78.47,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if d, _ := req.Body["date"].(string); !strings.HasPrefix(d, date) {
		t.Errorf("date = %v, want prefix %s", req.Body["date"], date)
	}
}

func Test_commandLine_signupRetry(t *testing.T) {
	srv, _, run := setup(t, map[string]testutil.Route{
		"POST /auth/signup": {Status: 201, Body: map[string]interface{}{"id": "u7"}},
	})

	prompter := &fakePrompter{answers: map[string][]string{
		"username":        {"lector"},
		"email":           {"lector@mail.com"},
		"password":        {"secret1"},
		"passwordConfirm": {"otra", "secret1"},
	}}
	out, err := run(prompter, "signup")
	if err != nil {
		t.Fatalf("signup error = %v", err)
	}
	if !strings.Contains(out, "Las contraseñas no coinciden") || !strings.Contains(out, "Cuenta creada") {
		t.Errorf("output = %q", out)
	}

	received := srv.Received()
	if len(received) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(received))
	}
	want := map[string]interface{}{
		"username": "lector",
		"email":    "lector@mail.com",
		"password": "secret1",
		"role":     user.RoleAttendee,
	}
	if diff := cmp.Diff(want, received[0].Body); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if received[0].Auth != "" {
		t.Errorf("signup sent auth %q", received[0].Auth)
	}
}

func Test_commandLine_metrics(t *testing.T) {
	_, sessionPath, run := setup(t, map[string]testutil.Route{
		"GET /ticket-categories": {Body: []map[string]interface{}{
			{"id": "c1", "eventId": "e1", "name": "General", "capacity": 100},
			{"id": "c2", "eventId": "e1", "name": "VIP", "capacity": 20},
		}},
		"GET /transactions": {Body: []map[string]interface{}{
			{"id": "t1", "categoryId": "c1", "quantity": 3, "total": 30, "status": "completed"},
			{"id": "t2", "categoryId": "c2", "quantity": 2, "total": 90.5, "status": "completed"},
			{"id": "t3", "categoryId": "c1", "quantity": 5, "total": 50, "status": "pending"},
		}},
	})
	saveSession(t, sessionPath, user.RoleOrganizer)

	out, err := run(&fakePrompter{}, "metrics", "--event", "e1")
	if err != nil {
		t.Fatalf("metrics error = %v", err)
	}
	var total []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "TOTAL") {
			total = strings.Fields(line)
		}
	}
	want := []string{"TOTAL", "5", "120", "4.17%", "120.50", "2"}
	if diff := cmp.Diff(want, total); diff != "" {
		t.Errorf("total row mismatch (-want +got):\n%s", diff)
	}
}
