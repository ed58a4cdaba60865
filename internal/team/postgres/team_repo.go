// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package postgres stores teams in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tier-app/tier/internal/team"
)

const nameUniqueConstraint = "teams_name_key"

type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TeamRepository implements team.Repository using PostgreSQL.
type TeamRepository struct {
	pool poolIface
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(pool poolIface) *TeamRepository {
	return &TeamRepository{pool: pool}
}

const selectTeams = `
	SELECT t.id, t.name, t.leader_id, t.introduction, t.created_at, u.display_name
	FROM teams t
	JOIN users u ON u.id = t.leader_id
`

// Create inserts t.
func (r *TeamRepository) Create(ctx context.Context, t *team.Team) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teams (id, name, leader_id, introduction, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID.String(), t.Name, t.LeaderID.String(), t.Introduction, t.CreatedAt)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == nameUniqueConstraint {
		return oops.Code("TEAM_DUPLICATE_NAME").With("name", t.Name).Wrap(team.ErrDuplicateName)
	}
	return oops.Code("TEAM_CREATE_FAILED").
		With("operation", "insert team").
		With("name", t.Name).
		Wrap(err)
}

// GetByName returns the team named name together with its leader's display name.
func (r *TeamRepository) GetByName(ctx context.Context, name string) (*team.Team, error) {
	row := r.pool.QueryRow(ctx, selectTeams+`WHERE t.name = $1`, name)
	t, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TEAM_NOT_FOUND").With("name", name).Wrap(team.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TEAM_GET_FAILED").
			With("operation", "get team by name").
			With("name", name).
			Wrap(err)
	}
	return t, nil
}

// List returns all teams ordered by creation time.
func (r *TeamRepository) List(ctx context.Context) ([]*team.Team, error) {
	rows, err := r.pool.Query(ctx, selectTeams+`ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").With("operation", "list teams").Wrap(err)
	}
	defer rows.Close()

	var teams []*team.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, oops.Code("TEAM_LIST_FAILED").With("operation", "scan team").Wrap(err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").With("operation", "iterate teams").Wrap(err)
	}
	return teams, nil
}

func scanTeam(row pgx.Row) (*team.Team, error) {
	var (
		t                team.Team
		idStr, leaderStr string
		createdAt        time.Time
	)
	if err := row.Scan(&idStr, &t.Name, &leaderStr, &t.Introduction, &createdAt, &t.LeaderName); err != nil {
		return nil, err //nolint:wrapcheck // callers distinguish pgx.ErrNoRows
	}

	var err error
	if t.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("TEAM_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if t.LeaderID, err = ulid.Parse(leaderStr); err != nil {
		return nil, oops.Code("TEAM_INVALID_ID").With("leader_id", leaderStr).Wrap(err)
	}
	t.CreatedAt = createdAt
	return &t, nil
}

var _ team.Repository = (*TeamRepository)(nil)
