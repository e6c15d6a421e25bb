package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/db"
	"github.com/AdamBeresnev/op-groups/internal/middleware"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testOperator = "Marta"

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	err = db.RunMigrationsFrom(database.DB, "file://../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

type testEnv struct {
	ctx       context.Context
	store     *store.CategoryStore
	groups    *GroupStageService
	matches   *MatchService
	standings *StandingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)
	categoryStore := store.NewCategoryStore(database)

	matchService := NewMatchService(database, categoryStore)
	matchService.now = func() time.Time { return fixedNow }

	return &testEnv{
		ctx:       middleware.WithOperator(context.Background(), testOperator),
		store:     categoryStore,
		groups:    NewGroupStageService(database, categoryStore),
		matches:   matchService,
		standings: NewStandingsService(categoryStore, scoring.Defaults()),
	}
}

// category creates a category with the named members and three group rounds
func (e *testEnv) category(t *testing.T, overrides scoring.Overrides, names ...string) (uuid.UUID, []bracket.Registration) {
	t.Helper()

	categoryID, err := e.groups.CreateCategory(e.ctx, "Men's Singles B", overrides)
	require.NoError(t, err)

	inputs := make([]RegistrationInput, len(names))
	for i, name := range names {
		inputs[i] = RegistrationInput{Name: name, Class: "B"}
	}
	regs, err := e.groups.Register(e.ctx, categoryID, inputs)
	require.NoError(t, err)

	_, err = e.groups.CreateRounds(e.ctx, categoryID, []RoundInput{
		{Number: 1, Phase: bracket.GroupRound},
		{Number: 2, Phase: bracket.GroupRound},
		{Number: 3, Phase: bracket.GroupRound},
	})
	require.NoError(t, err)

	return categoryID, regs
}

// group draws the registrations into a group and generates its fixtures
func (e *testEnv) group(t *testing.T, categoryID uuid.UUID, name string, regs ...bracket.Registration) (*bracket.Group, []bracket.Match) {
	t.Helper()

	ids := make([]uuid.UUID, len(regs))
	for i, r := range regs {
		ids[i] = r.ID
	}
	group, err := e.groups.Draw(e.ctx, categoryID, name, ids)
	require.NoError(t, err)

	fixtures, err := e.groups.GenerateFixtures(e.ctx, group.ID)
	require.NoError(t, err)
	return group, fixtures
}

// play records a straight-sets win for winner in the fixture between winner and loser
func (e *testEnv) play(t *testing.T, fixtures []bracket.Match, winner, loser uuid.UUID) {
	t.Helper()

	for _, m := range fixtures {
		if !m.IsBetween(winner, loser) {
			continue
		}
		sets1, sets2 := bracket.Sets{6, 6}, bracket.Sets{2, 3}
		if m.Slot(winner) == 2 {
			sets1, sets2 = sets2, sets1
		}
		_, err := e.matches.RecordPlayed(e.ctx, m.ID, sets1, sets2)
		require.NoError(t, err)
		return
	}
	t.Fatalf("no fixture between %s and %s", winner, loser)
}
