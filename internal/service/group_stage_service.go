package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/schedule"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/store"
	"github.com/AdamBeresnev/op-groups/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GroupStageService sets a category up: registrations, rounds, the group draw and fixtures.
type GroupStageService struct {
	db    *sqlx.DB
	store *store.CategoryStore
}

func NewGroupStageService(db *sqlx.DB, store *store.CategoryStore) *GroupStageService {
	return &GroupStageService{db: db, store: store}
}

type RoundInput struct {
	Number int
	Phase  bracket.RoundPhase
}

func (s *GroupStageService) GetCategory(ctx context.Context, id uuid.UUID) (*bracket.Category, error) {
	return s.store.GetCategory(ctx, id.String())
}

func (s *GroupStageService) CreateCategory(ctx context.Context, name string, overrides scoring.Overrides) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, ErrEmptyName
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	category := bracket.Category{
		ID:               uuid.New(),
		Name:             name,
		PtsVictory:       overrides.Victory,
		PtsDefeat:        overrides.Defeat,
		PtsWoVictory:     overrides.WoVictory,
		PtsSet:           overrides.Set,
		PtsGame:          overrides.Game,
		PtsTechnicalDraw: overrides.TechnicalDraw,
	}
	if err := s.store.CreateCategory(ctx, tx, &category); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category.ID, tx.Commit()
}

func (s *GroupStageService) Register(ctx context.Context, categoryID uuid.UUID, inputs []RegistrationInput) ([]bracket.Registration, error) {
	if _, err := s.store.GetCategory(ctx, categoryID.String()); err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	registrations := make([]bracket.Registration, 0, len(inputs))
	for _, input := range inputs {
		name := utils.StringOrNil(input.Name)
		if name == nil {
			return nil, ErrEmptyName
		}

		r := bracket.Registration{
			ID:         uuid.New(),
			CategoryID: categoryID,
			Class:      strings.TrimSpace(input.Class),
			Kind:       input.Kind,
		}
		switch input.Kind {
		case bracket.GuestParticipant:
			r.GuestName = name
		default:
			r.Kind = bracket.MemberParticipant
			r.AccountName = name
		}
		registrations = append(registrations, r)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateRegistrations(ctx, tx, registrations); err != nil {
		return nil, fmt.Errorf("failed to create registrations: %w", err)
	}

	return registrations, tx.Commit()
}

func (s *GroupStageService) CreateRounds(ctx context.Context, categoryID uuid.UUID, inputs []RoundInput) ([]bracket.Round, error) {
	if _, err := s.store.GetCategory(ctx, categoryID.String()); err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	rounds := make([]bracket.Round, 0, len(inputs))
	for _, input := range inputs {
		if input.Number < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidRoundNumber, input.Number)
		}
		phase := bracket.RoundPhase(strings.TrimSpace(string(input.Phase)))
		if phase == "" {
			phase = bracket.GroupRound
		}
		rounds = append(rounds, bracket.Round{
			ID:         uuid.New(),
			CategoryID: categoryID,
			Number:     input.Number,
			Phase:      phase,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateRounds(ctx, tx, rounds); err != nil {
		return nil, fmt.Errorf("failed to create rounds: %w", err)
	}

	return rounds, tx.Commit()
}

// Draw creates a group from the given registrations. The first registration is
// the seed (draw order 0) and the slice order becomes the draw order. A
// registration can sit in only one group.
func (s *GroupStageService) Draw(ctx context.Context, categoryID uuid.UUID, name string, memberIDs []uuid.UUID) (*bracket.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := schedule.RoundsFor(len(memberIDs)); err != nil {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGroupSize, len(memberIDs))
	}

	registrations, err := s.store.GetRegistrations(ctx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	index := bracket.RegistrationIndex(registrations)

	seed := memberIDs[0]
	group := bracket.Group{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       name,
		SeedID:     &seed,
	}

	seen := make(map[uuid.UUID]bool, len(memberIDs))
	members := make([]bracket.GroupMember, 0, len(memberIDs))
	for i, id := range memberIDs {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrForeignRegistration, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, id)
		}
		seen[id] = true
		members = append(members, bracket.GroupMember{
			GroupID:        group.ID,
			RegistrationID: id,
			DrawOrder:      i,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	drawn, err := s.store.GetDrawnRegistrationIDsTx(ctx, tx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get drawn registrations: %w", err)
	}
	for _, id := range drawn {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyDrawn, id)
		}
	}

	if err := s.store.CreateGroup(ctx, tx, &group, members); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return &group, tx.Commit()
}

// GenerateFixtures writes the round-robin fixtures of a group. It refuses to
// run twice for the same group.
func (s *GroupStageService) GenerateFixtures(ctx context.Context, groupID uuid.UUID) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	group, err := s.store.GetGroupTx(ctx, tx, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	count, err := s.store.CountGroupMatchesTx(ctx, tx, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to count group matches: %w", err)
	}
	if count > 0 {
		return nil, ErrFixturesExist
	}

	members, err := s.store.GetGroupMembersTx(ctx, tx, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}

	rounds, err := s.store.GetRoundsTx(ctx, tx, group.CategoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	roundIDs := make(map[int]uuid.UUID)
	for _, r := range rounds {
		if !r.Phase.IsKnockout() {
			roundIDs[r.Number] = r.ID
		}
	}
	if len(roundIDs) == 0 {
		return nil, ErrNoGroupRounds
	}

	ordered := make([]schedule.OrderedMember, len(members))
	for i, m := range members {
		ordered[i] = schedule.OrderedMember{RegistrationID: m.ID, DrawOrder: m.DrawOrder}
	}

	matches, err := schedule.GenerateFixtures(group.CategoryID, group.ID, ordered, roundIDs)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return matches, tx.Commit()
}

// CreateKnockoutMatch adds a semifinal or final row. With an empty slot the
// match waits for its opponents.
func (s *GroupStageService) CreateKnockoutMatch(ctx context.Context, categoryID uuid.UUID, phase bracket.MatchPhase, roundID, reg1, reg2 *uuid.UUID) (*bracket.Match, error) {
	if !phase.IsKnockout() {
		return nil, fmt.Errorf("%w: %q", ErrNotKnockoutPhase, phase)
	}
	if reg1 != nil && reg2 != nil && *reg1 == *reg2 {
		return nil, fmt.Errorf("%w: both slots hold the same registration", bracket.ErrInvalidSlot)
	}

	registrations, err := s.store.GetRegistrations(ctx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	index := bracket.RegistrationIndex(registrations)
	for _, id := range []*uuid.UUID{reg1, reg2} {
		if id == nil {
			continue
		}
		if _, ok := index[*id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrForeignRegistration, *id)
		}
	}

	match := bracket.Match{
		ID:              uuid.New(),
		CategoryID:      categoryID,
		RoundID:         roundID,
		Phase:           phase,
		Registration1ID: reg1,
		Registration2ID: reg2,
		Sets1:           bracket.ZeroScore(),
		Sets2:           bracket.ZeroScore(),
		Status:          bracket.MatchPending,
		ResultKind:      bracket.ResultPlayed,
	}
	if !match.HasParticipants() {
		match.Status = bracket.MatchWaitingOpponents
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateMatches(ctx, tx, []bracket.Match{match}); err != nil {
		return nil, fmt.Errorf("failed to create knockout match: %w", err)
	}

	return &match, tx.Commit()
}
