package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/darivadeneira/evento-web/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
)

// newJWTConfig verifies the HS256 tokens issued by the backend. An optional config lets
// requests without an Authorization header through with an empty session.
func newJWTConfig(secret []byte, optional bool) middleware.JWTConfig {
	conf := middleware.JWTConfig{
		SigningKey:    secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(user.Claims),
	}
	if optional {
		conf.Skipper = func(ctx echo.Context) bool {
			return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
		}
	}
	return conf
}

// getContextSession returns the session of the verified token, or a zero session for
// anonymous requests.
func getContextSession(ctx echo.Context) user.Session {
	if sess, ok := ctx.Get(contextSessionKey).(user.Session); ok {
		return sess
	}
	token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
	if !ok {
		return user.Session{}
	}
	claims, ok := token.Claims.(*user.Claims)
	if !ok {
		return user.Session{}
	}
	sess := user.SessionFromClaims(claims, token.Raw)
	ctx.Set(contextSessionKey, sess)
	return sess
}

// requireSession checks that the request acts for a user with one of roles.
func requireSession(ctx echo.Context, roles ...string) (user.Session, error) {
	sess := getContextSession(ctx)
	if err := sess.Require(roles...); err != nil {
		return user.Session{}, err
	}
	return sess, nil
}
