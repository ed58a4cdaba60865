// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import "errors"

// ErrNotFound is returned by repositories when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// User-facing failures. Their messages are shown verbatim on the forms.
var (
	ErrDuplicateEmail    = errors.New("User Exists")
	ErrEmailNotFound     = errors.New("Email Not Found")
	ErrIncorrectPassword = errors.New("Incorrect Password")
	ErrInvalidInput      = errors.New("invalid input")
)

// Internal failures. Callers log these and show a generic message.
var (
	ErrHashFailure = errors.New("password hash failure")
	ErrInternal    = errors.New("internal error")
	ErrPoolClosed  = errors.New("worker pool closed")
)

// ErrInvalidSession is returned by a SessionCodec for any token it cannot
// verify. Current-user resolution treats it as anonymous.
var ErrInvalidSession = errors.New("invalid session")

// IsUserFacing reports whether err is one of the failures that are rendered
// back to the client instead of being treated as an internal error.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrEmailNotFound) ||
		errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrInvalidInput)
}
