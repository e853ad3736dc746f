package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/validation"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	signupPath   = "/auth/signup"
	mePath       = "/auth/me"
)

var (
	// errors
	ErrAuthenticationFailed = errors.New("Usuario o contraseña incorrectos")
)

type Service struct {
	backend   core.Backend
	validator *validation.Validator
}

func NewService(backend core.Backend, v *validation.Validator) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(backend, "backend"),
		vala.IsNotNil(v, "validator"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{backend: backend, validator: v}, nil
}

// Login exchanges credentials for a session. A rejected login is ErrAuthenticationFailed.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	creds.Clean()
	if err := svc.validator.Engine().Struct(creds); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return Session{}, core.ValidationFromErrors(err, svc.validator.Translator())
		}
		return Session{}, err
	}

	var res LoginResult
	if err := svc.backend.Post(ctx, loginPath, creds, &res); err != nil {
		if se, ok := core.IsServerError(err); ok && se.Status < 500 {
			return Session{}, ErrAuthenticationFailed
		}
		return Session{}, errors.Wrap(err, "logging in")
	}
	if res.Token == "" {
		return Session{}, errors.New("logging in: backend returned no token")
	}

	sess, err := ParseSessionUnverified(res.Token)
	if err != nil {
		return Session{}, err
	}
	// the login payload is fresher than the claims
	if res.User.ID != "" {
		sess.UserID = res.User.ID
		sess.Username = res.User.Username
		sess.Email = res.User.Email
		sess.Name = res.User.Name
		if res.User.Role != "" {
			sess.Role = res.User.Role
		}
	}
	return sess, nil
}

// Me returns the user behind the session the backend was bound to.
func (svc *Service) Me(ctx context.Context) (User, error) {
	var usr User
	if err := svc.backend.Get(ctx, mePath, nil, &usr); err != nil {
		return User{}, errors.Wrap(err, "getting current user")
	}
	return usr, nil
}
