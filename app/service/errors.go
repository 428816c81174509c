package service

import (
	"errors"
	"fmt"
)

// Error kinds. Controllers map a kind to a status with errors.Is; concrete
// errors below wrap exactly one kind.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrServerMisconfigured = errors.New("server misconfigured")
)

var (
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken        = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	ErrMissingRefreshToken = fmt.Errorf("%w: missing refresh token", ErrUnauthorized)
	ErrLogoutTokenRequired = fmt.Errorf("%w: refresh token cookie is required", ErrBadRequest)
	ErrNoSession           = fmt.Errorf("%w: no active session", ErrForbidden)
	ErrSessionNotFound     = fmt.Errorf("%w: session not found", ErrNotFound)
	ErrRefreshTokenReused  = fmt.Errorf("%w: refresh token does not match the active session", ErrForbidden)
	ErrTokenIDMismatch     = fmt.Errorf("%w: refresh token id does not match the active session", ErrForbidden)
	ErrUserExists          = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrUserNotFound        = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("%w: application not found", ErrNotFound)
	ErrPasswordTooLong     = fmt.Errorf("%w: password must be at most 72 bytes", ErrBadRequest)
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrServerMisconfigured):
		return "misconfigured"
	default:
		return "error"
	}
}
