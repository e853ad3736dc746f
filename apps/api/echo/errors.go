package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/core/validation"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errDialogNotFound = echo.NewHTTPError(http.StatusNotFound, "dialog not found")
	errUnknownKind    = echo.NewHTTPError(http.StatusBadRequest, "unknown dialog kind")
	errUnknownField   = echo.NewHTTPError(http.StatusBadRequest, "unknown field")

	// sentinelCodes maps the package errors a handler may return to their status.
	sentinelCodes = map[error]int{
		core.ErrNoChanges:            http.StatusBadRequest,
		user.ErrAuthenticationFailed: http.StatusBadRequest,
		user.ErrNoSession:            http.StatusUnauthorized,
		user.ErrSessionExpired:       http.StatusUnauthorized,
		user.ErrForbidden:            http.StatusForbidden,
		dialog.ErrClosed:             http.StatusNotFound,
		dialog.ErrSubmitting:         http.StatusConflict,
		dialog.ErrSubmitted:          http.StatusConflict,
		geocodesvc.ErrNoLocation:     http.StatusBadRequest,
	}
)

// submissionCode returns the status of the errors a dialog also reports through its view.
func submissionCode(err error) (int, bool) {
	switch cause := errors.Cause(err).(type) {
	case *core.ValidationError:
		return http.StatusBadRequest, true
	case *core.ServerError:
		return http.StatusUnprocessableEntity, true
	case *core.ConnectivityError:
		return http.StatusBadGateway, true
	default:
		if cause == core.ErrNoChanges {
			return http.StatusBadRequest, true
		}
	}
	return 0, false
}

// sentinelCode compares rather than indexes, since err may be of an unhashable type.
func sentinelCode(err error) (int, bool) {
	for sentinel, code := range sentinelCodes {
		if err == sentinel {
			return code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, v *validation.Validator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(v.Translator())
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.ServerError:
			code = http.StatusUnprocessableEntity
			message = origErr.Message
		case *core.ConnectivityError:
			code = http.StatusBadGateway
			message = core.ConnectivityText
		default:
			if c, ok := sentinelCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), getContextSession(ctx))

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
