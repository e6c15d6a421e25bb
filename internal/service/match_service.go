package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/middleware"
	"github.com/AdamBeresnev/op-groups/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MatchService applies result transitions on behalf of the session operator.
type MatchService struct {
	db    *sqlx.DB
	store *store.CategoryStore
	now   func() time.Time
}

func NewMatchService(db *sqlx.DB, store *store.CategoryStore) *MatchService {
	return &MatchService{db: db, store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.store.GetMatch(ctx, matchID.String())
}

func (s *MatchService) RecordPlayed(ctx context.Context, matchID uuid.UUID, sets1, sets2 bracket.Sets) (*bracket.Match, error) {
	return s.transition(ctx, matchID, "played", func(tx *sqlx.Tx, m *bracket.Match, operator string) error {
		return m.RecordPlayed(sets1, sets2, operator, s.now())
	})
}

func (s *MatchService) RecordWalkover(ctx context.Context, matchID, winnerID uuid.UUID) (*bracket.Match, error) {
	return s.transition(ctx, matchID, "walkover", func(tx *sqlx.Tx, m *bracket.Match, operator string) error {
		return m.RecordWalkover(winnerID, operator, s.now())
	})
}

func (s *MatchService) RecordTechnicalDraw(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.transition(ctx, matchID, "technical_draw", func(tx *sqlx.Tx, m *bracket.Match, operator string) error {
		var roundPhase bracket.RoundPhase
		if m.RoundID != nil {
			round, err := s.store.GetRoundTx(ctx, tx, m.RoundID.String())
			if err != nil {
				return fmt.Errorf("failed to get round: %w", err)
			}
			roundPhase = round.Phase
		}
		return m.RecordTechnicalDraw(roundPhase, operator, s.now())
	})
}

func (s *MatchService) Reopen(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.transition(ctx, matchID, "reopen", func(tx *sqlx.Tx, m *bracket.Match, operator string) error {
		return m.Reopen()
	})
}

func (s *MatchService) AssignOpponent(ctx context.Context, matchID uuid.UUID, slot int, registrationID uuid.UUID) (*bracket.Match, error) {
	return s.transition(ctx, matchID, "assign_opponent", func(tx *sqlx.Tx, m *bracket.Match, operator string) error {
		if m.GroupID != nil {
			return fmt.Errorf("%w: group fixtures have fixed opponents", bracket.ErrInvalidTransition)
		}
		registrations, err := s.store.GetRegistrationsTx(ctx, tx, m.CategoryID.String())
		if err != nil {
			return fmt.Errorf("failed to get registrations: %w", err)
		}
		if _, ok := bracket.RegistrationIndex(registrations)[registrationID]; !ok {
			return fmt.Errorf("%w: %s", ErrForeignRegistration, registrationID)
		}
		return m.AssignOpponent(slot, registrationID)
	})
}

// transition loads the match in a transaction, applies fn and persists the
// result. Nothing is written when fn fails.
func (s *MatchService) transition(ctx context.Context, matchID uuid.UUID, action string, fn func(tx *sqlx.Tx, m *bracket.Match, operator string) error) (*bracket.Match, error) {
	operator, ok := middleware.GetOperatorFromContext(ctx)
	if !ok {
		return nil, ErrOperatorRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if err := fn(tx, match, operator); err != nil {
		slog.Warn("match transition rejected", "match_id", matchID, "action", action, "operator", operator, "error", err)
		return nil, err
	}

	if err := s.store.UpdateMatchResult(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("match transition applied", "match_id", matchID, "action", action, "operator", operator, "status", match.Status)
	return match, nil
}
