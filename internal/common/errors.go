// Package common defines shared constants and sentinel errors used across
// the celengan server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Directory errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Goal and ledger errors.
	ErrDuplicateGoalName = errors.New("goal with this name already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Auth errors (missing, invalid or malformed token).
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Optional integrations that were not configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
