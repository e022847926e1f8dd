package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateLoginHandle  = errors.New("login handle already registered")
	ErrInvalidCredential     = errors.New("invalid login handle or password")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrSelfReviewForbidden   = errors.New("cannot review own account")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidInput          = errors.New("invalid input")

	// ErrCorruptCredential means a stored password hash could not be parsed.
	// It points at storage corruption and is never a user error.
	ErrCorruptCredential = errors.New("stored credential is corrupt")
)
