package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core/event"
	"github.com/darivadeneira/evento-web/core/ticket"
	"github.com/darivadeneira/evento-web/core/transaction"
)

type eventApi struct {
	deps ServerDeps
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := eventApi{deps: deps}

	eg := g.Group("/events", jwt)
	eg.GET("", api.query)
	eg.GET("/:id/metrics", api.metrics, roleMiddleware(managers...))
}

// Handlers

func (api *eventApi) query(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []event.Event{})
	}
	sess := getContextSession(ctx)
	svc, err := event.NewService(api.deps.Backend.WithToken(sess.Token), api.deps.Validator)
	if err != nil {
		return errors.Wrap(err, "creating event service")
	}
	evs, err := svc.List(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if evs == nil {
		evs = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, evs)
}

func (api *eventApi) metrics(ctx echo.Context) error {
	sess := getContextSession(ctx)
	backend := api.deps.Backend.WithToken(sess.Token)
	cats, err := ticket.NewService(backend)
	if err != nil {
		return errors.Wrap(err, "creating ticket service")
	}
	svc, err := transaction.NewService(backend, cats)
	if err != nil {
		return errors.Wrap(err, "creating transaction service")
	}
	m, err := svc.Metrics(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing metrics")
	}
	return ctx.JSON(http.StatusOK, m)
}
