// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package team_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tier-app/tier/internal/auth/authtest"
	"github.com/tier-app/tier/internal/team"
	"github.com/tier-app/tier/internal/team/mocks"
)

func TestNewTeam(t *testing.T) {
	leader := ulid.Make()

	tm, err := team.NewTeam("  Gophers ", " hi ", leader)
	require.NoError(t, err)
	assert.Equal(t, "Gophers", tm.Name)
	assert.Equal(t, "hi", tm.Introduction)
	assert.Equal(t, leader, tm.LeaderID)
	assert.NotEqual(t, ulid.ULID{}, tm.ID)

	tests := []struct {
		name  string
		tname string
		intro string
		want  string
	}{
		{name: "blank name", tname: "  ", want: "Team name is required"},
		{name: "long name", tname: strings.Repeat("g", team.MaxNameLength+1), want: "Team name is too long"},
		{name: "long introduction", tname: "Gophers", intro: strings.Repeat("i", team.MaxIntroductionLength+1), want: "Introduction is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := team.NewTeam(tt.tname, tt.intro, leader)
			require.ErrorIs(t, err, team.ErrInvalidInput)
			authtest.AssertErrorCode(t, err, "TEAM_INVALID_INPUT")
			assert.Equal(t, tt.want, team.Message(err))
		})
	}

	t.Run("zero leader", func(t *testing.T) {
		_, err := team.NewTeam("Gophers", "", ulid.ULID{})
		authtest.AssertErrorCode(t, err, "TEAM_INVALID_LEADER")
		assert.Empty(t, team.Message(err))
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	leader := ulid.Make()

	t.Run("stores the team", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(tm *team.Team) bool {
			return tm.Name == "Gophers" && tm.LeaderID == leader
		})).Return(nil)

		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		tm, err := svc.Create(ctx, leader, "Gophers", "")
		require.NoError(t, err)
		assert.Equal(t, "Gophers", tm.Name)
	})

	t.Run("invalid input never reaches the repository", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		_, err = svc.Create(ctx, leader, "", "")
		require.ErrorIs(t, err, team.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("Create", mock.Anything, mock.Anything).Return(team.ErrDuplicateName)
		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		_, err = svc.Create(ctx, leader, "Gophers", "")
		require.ErrorIs(t, err, team.ErrDuplicateName)
		assert.Equal(t, "Team Exists", team.Message(err))
	})

	t.Run("store failure is not user facing", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		_, err = svc.Create(ctx, leader, "Gophers", "")
		authtest.AssertErrorCode(t, err, "TEAM_CREATE_FAILED")
		assert.Empty(t, team.Message(err))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("blank name is not found", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		_, err = svc.Get(ctx, " ")
		require.ErrorIs(t, err, team.ErrNotFound)
		assert.Equal(t, "Team Not Exists", team.Message(err))
	})

	t.Run("delegates to repository", func(t *testing.T) {
		want := &team.Team{ID: ulid.Make(), Name: "Gophers", LeaderName: "Ann"}
		repo := mocks.NewMockRepository(t)
		repo.On("GetByName", mock.Anything, "Gophers").Return(want, nil)
		svc, err := team.NewService(repo, nil)
		require.NoError(t, err)

		got, err := svc.Get(ctx, "Gophers")
		require.NoError(t, err)
		assert.Same(t, want, got)
	})
}

func TestService_List(t *testing.T) {
	repo := mocks.NewMockRepository(t)
	repo.On("List", mock.Anything).Return([]*team.Team{{Name: "A"}, {Name: "B"}}, nil)
	svc, err := team.NewService(repo, nil)
	require.NoError(t, err)

	teams, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := team.NewService(nil, nil)
	assert.Error(t, err)
}
