package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/validation"
)

const (
	registeredText = "Usuario registrado correctamente"
	signedUpText   = "Cuenta creada. Ya puedes iniciar sesión"
)

var (
	// RegistrationSchema is the form an admin fills to create an organizer or admin account.
	RegistrationSchema = form.NewSchema(
		form.Field{Name: "name", Kind: form.String},
		form.Field{Name: "username", Kind: form.String},
		form.Field{Name: "email", Kind: form.String},
		form.Field{Name: "phone", Kind: form.String},
		form.Field{Name: "role", Kind: form.String, Default: RoleOrganizer},
		form.Field{Name: "password", Kind: form.Secret},
		form.Field{Name: "passwordConfirm", Kind: form.Secret, Local: true},
	)

	RegistrationTable = validation.NewTable(
		validation.Rule{Field: "name", Policy: validation.PersonName},
		validation.Rule{Field: "username", Policy: validation.UsernameRegistration},
		validation.Rule{Field: "email", Policy: validation.EmailExtended},
		validation.Rule{Field: "phone", Policy: validation.Phone},
		validation.Rule{Field: "role", Policy: RolePolicy},
		validation.Rule{Field: "password", Policy: validation.PasswordStrong},
		validation.Rule{Field: "passwordConfirm", Policy: validation.Required},
	)

	// SignupSchema is the public attendee sign-up form.
	SignupSchema = form.NewSchema(
		form.Field{Name: "username", Kind: form.String},
		form.Field{Name: "email", Kind: form.String},
		form.Field{Name: "password", Kind: form.Secret},
		form.Field{Name: "passwordConfirm", Kind: form.Secret, Local: true},
	)

	SignupTable = validation.NewTable(
		validation.Rule{Field: "username", Policy: validation.UsernameSignup},
		validation.Rule{Field: "email", Policy: validation.EmailStrict},
		validation.Rule{Field: "password", Policy: validation.PasswordBasic},
		validation.Rule{Field: "passwordConfirm", Policy: validation.Required},
	)

	keywords = dialog.Keywords{
		"name":     {"nombre"},
		"username": {"usuario", "user"},
		"email":    {"correo", "mail"},
		"phone":    {"teléfono", "telefono", "celular"},
		"role":     {"rol"},
		"password": {"contraseña", "clave"},
	}
)

// RegistrationForm opens registration dialogs. Only create is supported.
type RegistrationForm struct{}

func (RegistrationForm) Config(_ context.Context, mode dialog.Mode, _ string, _ map[string]string) (dialog.Config, error) {
	if mode != dialog.Create {
		return dialog.Config{}, core.NewValidationError(errors.New("registration: only create is supported"))
	}
	return dialog.Config{
		Kind:        "register",
		Mode:        dialog.Create,
		Schema:      RegistrationSchema,
		Table:       RegistrationTable,
		Check:       passwordChecks("name", "username", "email"),
		Endpoint:    registerPath,
		Keywords:    keywords,
		SuccessText: registeredText,
	}, nil
}

// SignupForm opens attendee sign-up dialogs. Only create is supported.
type SignupForm struct{}

func (SignupForm) Config(_ context.Context, mode dialog.Mode, _ string, _ map[string]string) (dialog.Config, error) {
	if mode != dialog.Create {
		return dialog.Config{}, core.NewValidationError(errors.New("signup: only create is supported"))
	}
	return dialog.Config{
		Kind:        "signup",
		Mode:        dialog.Create,
		Schema:      SignupSchema,
		Table:       SignupTable,
		Check:       passwordChecks(),
		Endpoint:    signupPath,
		Extra:       map[string]interface{}{"role": RoleAttendee},
		Keywords:    keywords,
		SuccessText: signedUpText,
	}, nil
}
