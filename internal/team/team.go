// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package team implements team creation and lookup for logged-in users.
package team

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field limits.
const (
	MaxNameLength         = 100
	MaxIntroductionLength = 2000
)

// ErrNotFound is returned when no team has the requested name.
var ErrNotFound = errors.New("Team Not Exists")

// ErrDuplicateName is returned when a team with the same name already exists.
var ErrDuplicateName = errors.New("Team Exists")

// ErrInvalidInput marks a rejected team form field.
var ErrInvalidInput = errors.New("invalid team input")

// Team is a named group led by one user.
type Team struct {
	ID           ulid.ULID
	Name         string
	LeaderID     ulid.ULID
	Introduction string
	CreatedAt    time.Time

	// LeaderName is the leader's display name. Filled on reads only.
	LeaderName string
}

// InputError carries a message suitable for rendering next to the form.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, msg string) error {
	return oops.Code("TEAM_INVALID_INPUT").
		With("field", field).
		Wrap(&InputError{Field: field, Message: msg})
}

// NewTeam validates the fields and returns a Team with a fresh ID.
func NewTeam(name, introduction string, leader ulid.ULID) (*Team, error) {
	name = strings.TrimSpace(name)
	introduction = strings.TrimSpace(introduction)

	switch {
	case name == "":
		return nil, invalid("name", "Team name is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return nil, invalid("name", "Team name is too long")
	case utf8.RuneCountInString(introduction) > MaxIntroductionLength:
		return nil, invalid("introduction", "Introduction is too long")
	case leader.IsZero():
		return nil, oops.Code("TEAM_INVALID_LEADER").Errorf("leader ID cannot be zero")
	}

	return &Team{
		ID:           ulid.Make(),
		Name:         name,
		LeaderID:     leader,
		Introduction: introduction,
		CreatedAt:    time.Now(),
	}, nil
}

// Message returns the text to show the user for err, or "" when err is an
// internal failure.
func Message(err error) string {
	var inputErr *InputError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.Is(err, ErrDuplicateName):
		return ErrDuplicateName.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	}
	return ""
}

// Repository persists teams.
type Repository interface {
	// Create stores t. Returns ErrDuplicateName if the name is taken.
	Create(ctx context.Context, t *Team) error

	// GetByName returns the team with the exact name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*Team, error)

	// List returns every team, oldest first.
	List(ctx context.Context) ([]*Team, error)
}
