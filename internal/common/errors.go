// Package common defines shared constants and sentinel errors used across
// the client and server halves of the food scheduler. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors (missing or malformed request fields).
	ErrorValidation = errors.New("missing required fields")

	// Sync-code lifecycle errors. A code that is unknown, already consumed
	// or past its expiry is rejected without touching any meal data.
	ErrSyncCodeInvalid = errors.New("invalid sync code")
	ErrSyncCodeUsed    = errors.New("sync code already used")
	ErrSyncCodeExpired = errors.New("sync code expired")

	// Backup import errors.
	ErrInvalidBackup = errors.New("invalid backup file format")
)
