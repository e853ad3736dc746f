package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/event"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/ticket"
	"github.com/darivadeneira/evento-web/core/transaction"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/core/validation"
	"github.com/darivadeneira/evento-web/core/wizard"
)

const contextDialogKey = "dialog"

var managers = []string{user.RoleOrganizer, user.RoleAdmin}

// dialogKind describes who may open a kind of dialog and which form it opens.
type dialogKind struct {
	roles     []string // none: any signed in user
	anonymous bool
	form      func(b core.Backend, v *validation.Validator) (dialog.Form, error)
}

var kinds = map[string]dialogKind{
	"event": {
		roles: managers,
		form: func(b core.Backend, v *validation.Validator) (dialog.Form, error) {
			svc, err := event.NewService(b, v)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	},
	"category": {
		roles: managers,
		form: func(b core.Backend, _ *validation.Validator) (dialog.Form, error) {
			svc, err := ticket.NewService(b)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	},
	"purchase": {
		form: func(b core.Backend, _ *validation.Validator) (dialog.Form, error) {
			cats, err := ticket.NewService(b)
			if err != nil {
				return nil, err
			}
			svc, err := transaction.NewService(b, cats)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	},
	"register": {
		roles: []string{user.RoleAdmin},
		form: func(core.Backend, *validation.Validator) (dialog.Form, error) {
			return user.RegistrationForm{}, nil
		},
	},
	"signup": {
		anonymous: true,
		form: func(core.Backend, *validation.Validator) (dialog.Form, error) {
			return user.SignupForm{}, nil
		},
	},
}

type dialogApi struct {
	deps    ServerDeps
	dialogs *registry
}

func registerDialogAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, dialogs *registry) {
	api := dialogApi{
		deps:    deps,
		dialogs: dialogs,
	}

	dg := g.Group("/dialogs", jwt)
	dg.POST("", api.open)

	// detail endpoints
	ig := dg.Group("/:id", api.dialogMiddleware)
	ig.GET("", api.retrieve)
	ig.PUT("/fields/:field", api.setField)
	ig.POST("/next", api.next)
	ig.POST("/back", api.back)
	ig.POST("/reset", api.reset)
	ig.POST("/submit", api.submit)
	ig.DELETE("", api.cancel)
}

// Handlers

func (api *dialogApi) open(ctx echo.Context) error {
	var data OpenDialogRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OpenDialogRequest")
	}
	data.Clean()

	kind, ok := kinds[data.Kind]
	if !ok {
		return errUnknownKind
	}
	mode, err := dialog.ParseMode(data.Mode)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "mode", Error: err.Error()})
	}

	sess := getContextSession(ctx)
	if !kind.anonymous {
		if err := sess.Require(kind.roles...); err != nil {
			return err
		}
	}
	backend := api.deps.Backend
	if !sess.IsZero() {
		backend = backend.WithToken(sess.Token)
	}

	frm, err := kind.form(backend, api.deps.Validator)
	if err != nil {
		return errors.Wrap(err, "creating form")
	}
	cfg, err := frm.Config(ctx.Request().Context(), mode, data.ID, data.Params)
	if err != nil {
		return errors.Wrapf(err, "opening %s dialog", data.Kind)
	}
	cfg.CloseDelay = api.deps.Conf.Dialog.CloseDelay
	cfg.OnClose = func(d *dialog.Dialog) { api.dialogs.remove(d.ID()) }

	d := dialog.New(cfg, api.deps.Validator, backend)
	api.dialogs.add(d, sess.UserID)
	return ctx.JSON(http.StatusCreated, d.View())
}

func (api *dialogApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextDialog(ctx).View())
}

func (api *dialogApi) setField(ctx echo.Context) error {
	d := contextDialog(ctx)
	name := ctx.Param("field")
	f, ok := d.Schema().Field(name)
	if !ok {
		return errUnknownField
	}

	var data SetFieldRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetFieldRequest")
	}
	value, err := form.DecodeValue(f, data.Value)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: name, Error: err.Error()})
	}
	if _, err := d.SetField(name, value); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d.View())
}

func (api *dialogApi) next(ctx echo.Context) error {
	d := contextDialog(ctx)
	outcome, err := d.Next(ctx.Request().Context())
	return api.respond(ctx, err, StepResponse{Outcome: outcome.String(), Dialog: d.View()})
}

func (api *dialogApi) back(ctx echo.Context) error {
	d := contextDialog(ctx)
	outcome := wizard.Blocked
	if d.Back() {
		outcome = wizard.Advanced
	}
	return ctx.JSON(http.StatusOK, StepResponse{Outcome: outcome.String(), Dialog: d.View()})
}

func (api *dialogApi) reset(ctx echo.Context) error {
	d := contextDialog(ctx)
	if err := d.Reset(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d.View())
}

func (api *dialogApi) submit(ctx echo.Context) error {
	d := contextDialog(ctx)
	err := d.Submit(ctx.Request().Context())
	return api.respond(ctx, err, d.View())
}

func (api *dialogApi) cancel(ctx echo.Context) error {
	contextDialog(ctx).Close()
	return ctx.NoContent(http.StatusNoContent)
}

// respond sends body with the status of err when the dialog already reports err in its view.
func (api *dialogApi) respond(ctx echo.Context, err error, body interface{}) error {
	if err == nil {
		return ctx.JSON(http.StatusOK, body)
	}
	if code, ok := submissionCode(err); ok {
		return ctx.JSON(code, body)
	}
	return err
}

func (api *dialogApi) dialogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess := getContextSession(ctx)
		d, ok := api.dialogs.get(ctx.Param("id"), sess.UserID)
		if !ok {
			return errDialogNotFound
		}
		ctx.Set(contextDialogKey, d)
		return next(ctx)
	}
}

func contextDialog(ctx echo.Context) *dialog.Dialog {
	return ctx.Get(contextDialogKey).(*dialog.Dialog)
}
