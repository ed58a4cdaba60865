// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package team

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service validates team requests before they reach the repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a Service. A nil logger uses slog.Default.
func NewService(repo Repository, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("team repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With("component", "team")}, nil
}

// Create makes a new team led by leader.
func (s *Service) Create(ctx context.Context, leader ulid.ULID, name, introduction string) (*Team, error) {
	t, err := NewTeam(name, introduction, leader)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return nil, oops.Code("TEAM_EXISTS").With("name", t.Name).Wrap(err)
		}
		return nil, oops.Code("TEAM_CREATE_FAILED").With("name", t.Name).Wrap(err)
	}
	s.logger.InfoContext(ctx, "team created", "team_id", t.ID.String(), "leader_id", leader.String())
	return t, nil
}

// Get returns the team called name.
func (s *Service) Get(ctx context.Context, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("TEAM_NOT_FOUND").With("name", name).Wrap(ErrNotFound)
	}
	t, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors carry their own codes
	}
	return t, nil
}

// List returns every team.
func (s *Service) List(ctx context.Context) ([]*Team, error) {
	teams, err := s.repo.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors carry their own codes
	}
	return teams, nil
}
