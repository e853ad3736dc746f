package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/darivadeneira/evento-web/apps/api/echo"
	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/core/validation"
	backendsvc "github.com/darivadeneira/evento-web/services/backend"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
	logsvc "github.com/darivadeneira/evento-web/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	backendLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "BACKEND : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	backend, err := backendsvc.NewClient(conf, backendLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up backend client: %v", err), err)
	}
	geocoder, err := geocodesvc.NewNominatim(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up geocoder: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	v := validation.NewDefault()
	user.RegisterValidators(v)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:      conf,
		Logger:    logger,
		Backend:   backend,
		Validator: v,
		Geocoder:  geocoder,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
