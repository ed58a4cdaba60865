// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field limits. Email and display name match the column widths.
const (
	MaxEmailLength       = 100
	MaxDisplayNameLength = 100
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// User is a registered account.
type User struct {
	ID           ulid.ULID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidationError describes a rejected registration or login field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidInput(field, msg string) error {
	return oops.Code("AUTH_INVALID_INPUT").
		With("field", field).
		Wrap(&ValidationError{Field: field, Message: msg})
}

// NewUser creates a validated User with a fresh ID.
// The password hash must come from a HashService.
func NewUser(email, displayName, passwordHash string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// NormalizeEmail trims surrounding whitespace. Case is preserved for display;
// lookups and uniqueness are case-insensitive in the store.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ValidateEmail checks that email is a single bare address within the column width.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return invalidInput("email", "Email is required")
	}
	if len(email) > MaxEmailLength {
		return invalidInput("email", "Email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidInput("email", "Email is not valid")
	}
	return nil
}

// ValidateDisplayName checks that name is non-blank and within the column width.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidInput("name", "Name is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return invalidInput("name", "Name is too long")
	}
	return nil
}

// ValidatePassword checks that password is non-empty and short enough to hash.
func ValidatePassword(password string) error {
	if password == "" {
		return invalidInput("password", "Password is required")
	}
	if len(password) > MaxPasswordBytes {
		return invalidInput("password", "Password is too long")
	}
	return nil
}

// UserMessage returns the text to show a client for a user-facing error,
// or "" if err is internal.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return ErrDuplicateEmail.Error()
	case errors.Is(err, ErrEmailNotFound):
		return ErrEmailNotFound.Error()
	case errors.Is(err, ErrIncorrectPassword):
		return ErrIncorrectPassword.Error()
	case errors.As(err, &verr):
		return verr.Message
	}
	return ""
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create stores a new user. Returns an error matching ErrDuplicateEmail
	// if the email is already registered, compared case-insensitively.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns an error matching ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	// Returns an error matching ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)
}
