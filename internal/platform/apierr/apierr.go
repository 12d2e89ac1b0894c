package apierr

import (
	"errors"
	"fmt"
	"net/http"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomain maps the graph error taxonomy onto an HTTP status and code.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		return New(http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, types.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrUnsupportedOperation):
		return New(http.StatusNotImplemented, "unsupported_operation", err)
	case errors.Is(err, types.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, types.ErrBackendUnavailable):
		return New(http.StatusServiceUnavailable, "backend_unavailable", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
