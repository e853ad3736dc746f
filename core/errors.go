package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

const (
	NoChangesText    = "No has realizado ningún cambio. Modifica al menos un campo antes de guardar."
	ConnectivityText = "No se pudo conectar con el servidor. Revisa tu conexión e inténtalo de nuevo."
)

// ErrNoChanges is returned when an edit is submitted with an empty change set.
// It never reaches the backend.
var ErrNoChanges = errors.New(NoChangesText)

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	fm := make(map[string]string, len(err.Fields))
	for _, fe := range err.Fields {
		fm[fe.Field] = fe.Error
	}
	return fm
}

// ServerError is a rejection reported by the backend (HTTP status >= 400).
type ServerError struct {
	Status  int
	Message string
}

func NewServerError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ServerError{Status: status, Message: msg}
}

func (err *ServerError) Error() string {
	return err.Message
}

// ConnectivityError means the request never reached the backend.
type ConnectivityError struct {
	Err error
}

func NewConnectivityError(err error) error {
	return &ConnectivityError{Err: err}
}

func (err *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity: %v", err.Err)
}

func (err *ConnectivityError) Unwrap() error { return err.Err }

func IsServerError(err error) (*ServerError, bool) {
	se, ok := errors.Cause(err).(*ServerError)
	return se, ok
}

func IsConnectivityError(err error) bool {
	_, ok := errors.Cause(err).(*ConnectivityError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
