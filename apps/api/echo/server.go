package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/validation"
	backendsvc "github.com/darivadeneira/evento-web/services/backend"
)

type (
	ServerDeps struct {
		Conf      *core.Config
		Logger    core.Logger
		Backend   *backendsvc.Client
		Validator *validation.Validator
		Geocoder  Geocoder
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		dialogs  *registry
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Backend, "Backend"),
		vala.IsNotNil(deps.Validator, "Validator"),
	).CheckAndPanic()
	// vala cannot check struct kinds, and a Geocoder may be a value type
	if deps.Geocoder == nil {
		panic("parameter Geocoder is nil")
	}

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		dialogs:  newRegistry(deps.Conf.Dialog.TTL),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Validator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	secret := []byte(conf.SecretKey)
	jwt := middleware.JWTWithConfig(newJWTConfig(secret, false))
	optionalJWT := middleware.JWTWithConfig(newJWTConfig(secret, true))

	registerUserAPI(v1, jwt, s.deps)
	registerDialogAPI(v1, optionalJWT, s.deps, s.dialogs)
	registerEventAPI(v1, jwt, s.deps)
	registerGeocodeAPI(v1, jwt, s.deps.Geocoder)
}

// Start serves until the server is shut down. Failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops accepting requests and closes every open dialog.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.dialogs.closeAll()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	defer s.dialogs.closeAll()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Evento API!")
}
