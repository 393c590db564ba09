// Package errs provides the error types the ledger web api hands back to
// clients.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/validate"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// ToResponse converts an error returned by a handler into the response the
// client sees. Errors that are not trusted or field errors are not shown
// to the client.
func ToResponse(err error) (Response, int) {
	switch {
	case validate.IsFieldErrors(err):
		fieldErrors := validate.GetFieldErrors(err)

		fields := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			fields[fe.Field] = fe.Error
		}

		return Response{Error: "data validation error", Fields: fields}, http.StatusBadRequest

	case IsTrusted(err):
		te := GetTrusted(err)
		return Response{Error: te.Error()}, te.Status

	default:
		return Response{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
	}
}
