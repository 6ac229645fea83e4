package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrUnauthenticated is returned when no identity could be resolved for a request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is matched by every denial returned from Decision.Err.
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest marks malformed input such as an unusable owner bundle file.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks the creation of a record that already exists.
	ErrConflict = errors.New("conflict")

	// ErrSystem wraps failures while evaluating an authorization, e.g. an unreachable store.
	// It must never be reported as a denial.
	ErrSystem = errors.New("authorization could not be evaluated")

	// ErrMalformedName is returned by ParseName for names outside the action:resource format.
	ErrMalformedName = errors.New("malformed permission name")

	// ErrUserNameExists is returned when attempting to create a user with a username that already exists.
	ErrUserNameExists = errors.New("user with username already exists")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")
)

// DeniedError carries the decision behind a denial.
type DeniedError struct {
	Decision Decision
}

// Error implements error.
func (e *DeniedError) Error() string {
	return "forbidden: " + e.Decision.Reason
}

// Is makes errors.Is(err, ErrForbidden) true for denials.
func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// StatusCode maps the authorization error taxonomy to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func malformed(name string) error {
	return fmt.Errorf("%w: %q", ErrMalformedName, name)
}

func systemError(err error) error {
	return fmt.Errorf("%w: %w", ErrSystem, err)
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
