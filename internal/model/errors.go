package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrNoActiveChallenge is returned by SubmitCode when no challenge is
	// pending, or the pending challenge targets a different user.
	ErrNoActiveChallenge = errors.New("no active security check for this user")

	// ErrCodeNotConfigured is returned when a user has never set a security code.
	ErrCodeNotConfigured = errors.New("security code not set for this user")
)
