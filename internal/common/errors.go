package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrValidation      = errors.New("validation error")
	ErrTooManyAttempts = errors.New("too many attempts")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Reconciliation errors. A store records one of these per failed
	// pending operation; callers match them with errors.Is.
	ErrLoadFailure   = errors.New("load failed")
	ErrInsertFailure = errors.New("insert failed")
	ErrDeleteFailure = errors.New("delete failed")
	ErrUploadFailure = errors.New("upload failed")

	// ErrOrphanedBlob is advisory: a blob was stored but the record that
	// should reference it was not.
	ErrOrphanedBlob = errors.New("orphaned blob")
)
