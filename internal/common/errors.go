// Package common defines shared constants and sentinel errors used across
// the guessgame server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Token errors. All of them are authentication failures.
	ErrInvalidToken     = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrorUnauthorized)
	ErrMalformedToken   = fmt.Errorf("%w: malformed token", ErrorUnauthorized)
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrorUnauthorized)

	// Game preconditions.
	ErrInvalidGuess     = errors.New("invalid guess")
	ErrNoTurnsRemaining = errors.New("no turns remaining")

	// Storage errors. Both are transient and safe to retry.
	ErrPersistence = errors.New("persistence error")
	ErrLockTimeout = fmt.Errorf("%w: lock wait timeout", ErrPersistence)

	// Payment errors.
	ErrOrderAlreadyConfirmed = errors.New("order already confirmed")
)
