// Package common defines shared constants, helpers and sentinel errors used
// across credkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrUniquenessViolation = errors.New("uniqueness violation")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Credential manager errors.
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrEmptySecret           = errors.New("empty signing secret")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
