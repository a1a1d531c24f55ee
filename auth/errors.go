package auth

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an Error; its value is used as the "error" member of
// error responses.
type Kind string

// Error kinds
const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInactiveUser       Kind = "inactive_user"
	KindInsufficientRole   Kind = "insufficient_role"
	KindNotFound           Kind = "not_found"
	KindDuplicateUsername  Kind = "duplicate_username"
	KindValidation         Kind = "validation_error"
	KindInvalidRequest     Kind = "invalid_request"
	KindServerError        Kind = "server_error"
)

// Error is a classified authentication or authorization failure
type Error struct {
	Kind        Kind
	Description string
	// Code is the client error status of a KindInvalidRequest error
	Code int
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// Is reports errors of the same kind as equal, so that sentinel values can
// be matched with errors.Is regardless of the description.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status returns the http status code for the error kind
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInactiveUser, KindInsufficientRole:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateUsername:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidRequest:
		if e.Code >= http.StatusBadRequest && e.Code < http.StatusInternalServerError {
			return e.Code
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Challenge reports whether a response should carry a
// WWW-Authenticate: Bearer header
func (e *Error) Challenge() bool {
	return e.Kind == KindInvalidCredentials || e.Kind == KindUnauthenticated
}

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong
	// password alike
	ErrInvalidCredentials = &Error{
		Kind:        KindInvalidCredentials,
		Description: "Incorrect username or password",
	}
	// ErrInvalidToken is returned for every token that cannot be accepted
	ErrInvalidToken = &Error{
		Kind:        KindUnauthenticated,
		Description: "Could not validate credentials",
	}
	// ErrInactiveUser is returned when an inactive account is used
	ErrInactiveUser = &Error{
		Kind:        KindInactiveUser,
		Description: "Inactive user",
	}
)

// Unauthenticated returns an Error of KindUnauthenticated
func Unauthenticated(description string) *Error {
	return &Error{
		Kind:        KindUnauthenticated,
		Description: description,
	}
}

// InsufficientRole returns an Error of KindInsufficientRole
func InsufficientRole(description string) *Error {
	return &Error{
		Kind:        KindInsufficientRole,
		Description: description,
	}
}

// NotFound returns an Error of KindNotFound
func NotFound(format string, args ...any) *Error {
	return &Error{
		Kind:        KindNotFound,
		Description: fmt.Sprintf(format, args...),
	}
}

// DuplicateUsername returns an Error of KindDuplicateUsername
func DuplicateUsername(username string) *Error {
	return &Error{
		Kind:        KindDuplicateUsername,
		Description: fmt.Sprintf("The user with username '%s' already exists", username),
	}
}

// InvalidRequest returns a KindInvalidRequest error answered with the
// client error status code
func InvalidRequest(code int, description string) *Error {
	return &Error{
		Kind:        KindInvalidRequest,
		Description: description,
		Code:        code,
	}
}

// Validation returns an Error of KindValidation
func Validation(format string, args ...any) *Error {
	return &Error{
		Kind:        KindValidation,
		Description: fmt.Sprintf(format, args...),
	}
}

// AsError returns the *Error in err's chain, or nil
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf returns the kind of err; errors outside the taxonomy are
// KindServerError
func KindOf(err error) Kind {
	if e := AsError(err); e != nil {
		return e.Kind
	}
	return KindServerError
}
