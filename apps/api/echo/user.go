package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
	ag.GET("/roles", api.queryRoles, jwt)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	svc, err := user.NewService(api.deps.Backend, api.deps.Validator)
	if err != nil {
		return errors.Wrap(err, "creating user service")
	}
	sess, err := svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: sess.Token, Session: sess})
}

func (api *userApi) me(ctx echo.Context) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	svc, err := user.NewService(api.deps.Backend.WithToken(sess.Token), api.deps.Validator)
	if err != nil {
		return errors.Wrap(err, "creating user service")
	}
	usr, err := svc.Me(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

type LoginResponse struct {
	Token   string       `json:"token"`
	Session user.Session `json:"session"`
}
