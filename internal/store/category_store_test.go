package store

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/db"
	"github.com/AdamBeresnev/op-groups/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every pooled connection would otherwise get its own empty database
	database.SetMaxOpenConns(1)

	err = db.RunMigrationsFrom(database.DB, "file://../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

func inTx(t *testing.T, database *sqlx.DB, fn func(tx *sqlx.Tx) error) {
	t.Helper()
	tx, err := database.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		tx.Rollback()
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
}

func seedCategory(t *testing.T, database *sqlx.DB, s *CategoryStore, names ...string) (*bracket.Category, []bracket.Registration) {
	t.Helper()
	category := &bracket.Category{ID: uuid.New(), Name: "Men's Singles B", PtsVictory: utils.Ptr(2)}
	registrations := make([]bracket.Registration, len(names))
	for i, name := range names {
		registrations[i] = bracket.Registration{
			ID:          uuid.New(),
			CategoryID:  category.ID,
			Class:       "B",
			Kind:        bracket.MemberParticipant,
			AccountName: utils.Ptr(name),
		}
	}
	inTx(t, database, func(tx *sqlx.Tx) error {
		if err := s.CreateCategory(context.Background(), tx, category); err != nil {
			return err
		}
		return s.CreateRegistrations(context.Background(), tx, registrations)
	})
	return category, registrations
}

func TestCreateCategory(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)

	category, registrations := seedCategory(t, database, s, "Ana", "Bruno")

	fetched, err := s.GetCategory(context.Background(), category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, category.Name, fetched.Name)
	require.NotNil(t, fetched.PtsVictory)
	assert.Equal(t, 2, *fetched.PtsVictory)
	assert.Nil(t, fetched.PtsDefeat)
	assert.False(t, fetched.CreatedAt.IsZero())

	fetchedRegs, err := s.GetRegistrations(context.Background(), category.ID.String())
	require.NoError(t, err)
	require.Len(t, fetchedRegs, 2)
	assert.Equal(t, registrations[0].ID, fetchedRegs[0].ID)
	assert.Equal(t, "Bruno", fetchedRegs[1].DisplayName())
}

func TestGroupMembersOrderedByDraw(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)
	category, regs := seedCategory(t, database, s, "Ana", "Bruno", "Caio")

	group := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "A", SeedID: &regs[2].ID}
	members := []bracket.GroupMember{
		{GroupID: group.ID, RegistrationID: regs[0].ID, DrawOrder: 2},
		{GroupID: group.ID, RegistrationID: regs[1].ID, DrawOrder: 3},
		{GroupID: group.ID, RegistrationID: regs[2].ID, DrawOrder: 1},
	}
	inTx(t, database, func(tx *sqlx.Tx) error {
		return s.CreateGroup(context.Background(), tx, group, members)
	})

	fetched, err := s.GetGroupMembers(context.Background(), group.ID.String())
	require.NoError(t, err)
	require.Len(t, fetched, 3)
	assert.Equal(t, regs[2].ID, fetched[0].ID)
	assert.Equal(t, 1, fetched[0].DrawOrder)
	assert.Equal(t, regs[0].ID, fetched[1].ID)
	assert.Equal(t, regs[1].ID, fetched[2].ID)

	groups, err := s.GetGroups(context.Background(), category.ID.String())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].SeedID)
	assert.Equal(t, regs[2].ID, *groups[0].SeedID)
}

func TestDuplicateDrawOrderRejected(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)
	category, regs := seedCategory(t, database, s, "Ana", "Bruno")

	group := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "A"}
	members := []bracket.GroupMember{
		{GroupID: group.ID, RegistrationID: regs[0].ID, DrawOrder: 1},
		{GroupID: group.ID, RegistrationID: regs[1].ID, DrawOrder: 1},
	}

	tx, err := database.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = s.CreateGroup(context.Background(), tx, group, members)
	assert.Error(t, err)
}

func TestMatchRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)
	category, regs := seedCategory(t, database, s, "Ana", "Bruno")
	ctx := context.Background()

	group := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "A"}
	round := bracket.Round{ID: uuid.New(), CategoryID: category.ID, Number: 1, Phase: bracket.GroupRound}
	match := bracket.Match{
		ID:              uuid.New(),
		CategoryID:      category.ID,
		GroupID:         &group.ID,
		RoundID:         &round.ID,
		Phase:           bracket.PhaseGroups,
		Registration1ID: &regs[0].ID,
		Registration2ID: &regs[1].ID,
		Sets1:           bracket.ZeroScore(),
		Sets2:           bracket.ZeroScore(),
		Status:          bracket.MatchPending,
		ResultKind:      bracket.ResultPlayed,
	}
	inTx(t, database, func(tx *sqlx.Tx) error {
		if err := s.CreateGroup(ctx, tx, group, nil); err != nil {
			return err
		}
		if err := s.CreateRounds(ctx, tx, []bracket.Round{round}); err != nil {
			return err
		}
		return s.CreateMatches(ctx, tx, []bracket.Match{match})
	})

	var count int
	inTx(t, database, func(tx *sqlx.Tx) error {
		var err error
		count, err = s.CountGroupMatchesTx(ctx, tx, group.ID.String())
		return err
	})
	assert.Equal(t, 1, count)

	fetched, err := s.GetMatch(ctx, match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.Sets{0, 0, 0}, fetched.Sets1)
	assert.Equal(t, bracket.MatchPending, fetched.Status)

	fetched.Sets1 = bracket.Sets{6, 6}
	fetched.Sets2 = bracket.Sets{3, 4}
	fetched.Status = bracket.MatchFinished
	fetched.WinnerID = &regs[0].ID
	fetched.ResultSetBy = utils.Ptr("operator")
	inTx(t, database, func(tx *sqlx.Tx) error {
		return s.UpdateMatchResult(ctx, tx, fetched)
	})

	matches, err := s.GetGroupMatches(ctx, group.ID.String())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, bracket.Sets{6, 6}, matches[0].Sets1)
	assert.Equal(t, bracket.Sets{3, 4}, matches[0].Sets2)
	assert.True(t, matches[0].IsWinner(regs[0].ID))
	assert.Equal(t, "operator", *matches[0].ResultSetBy)
}

func TestGetKnockoutMatchesExcludesGroups(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)
	category, regs := seedCategory(t, database, s, "Ana", "Bruno")
	ctx := context.Background()

	group := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "A"}
	groupMatch := bracket.Match{
		ID: uuid.New(), CategoryID: category.ID, GroupID: &group.ID, Phase: bracket.PhaseGroups,
		Registration1ID: &regs[0].ID, Registration2ID: &regs[1].ID,
		Sets1: bracket.ZeroScore(), Sets2: bracket.ZeroScore(),
		Status: bracket.MatchPending, ResultKind: bracket.ResultPlayed,
	}
	semi := bracket.Match{
		ID: uuid.New(), CategoryID: category.ID, Phase: bracket.PhaseSemifinal,
		Sets1: bracket.ZeroScore(), Sets2: bracket.ZeroScore(),
		Status: bracket.MatchWaitingOpponents, ResultKind: bracket.ResultPlayed,
	}
	inTx(t, database, func(tx *sqlx.Tx) error {
		if err := s.CreateGroup(ctx, tx, group, nil); err != nil {
			return err
		}
		return s.CreateMatches(ctx, tx, []bracket.Match{groupMatch, semi})
	})

	knockout, err := s.GetKnockoutMatches(ctx, category.ID.String())
	require.NoError(t, err)
	require.Len(t, knockout, 1)
	assert.Equal(t, semi.ID, knockout[0].ID)
	assert.False(t, knockout[0].HasParticipants())
}

func TestRegistrationSitsInOneGroupOnly(t *testing.T) {
	database := setupTestDB(t)
	s := NewCategoryStore(database)
	category, regs := seedCategory(t, database, s, "Ana", "Bruno")
	ctx := context.Background()

	groupA := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "A"}
	inTx(t, database, func(tx *sqlx.Tx) error {
		return s.CreateGroup(ctx, tx, groupA, []bracket.GroupMember{{GroupID: groupA.ID, RegistrationID: regs[0].ID, DrawOrder: 0}})
	})

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	drawn, err := s.GetDrawnRegistrationIDsTx(ctx, tx, category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{regs[0].ID}, drawn)

	groupB := &bracket.Group{ID: uuid.New(), CategoryID: category.ID, Name: "B"}
	err = s.CreateGroup(ctx, tx, groupB, []bracket.GroupMember{{GroupID: groupB.ID, RegistrationID: regs[0].ID, DrawOrder: 0}})
	assert.Error(t, err)
}
