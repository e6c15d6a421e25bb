package bracket

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MaxGamesPerSet = 20

	walkoverPlaceholderGames = 6
	walkoverPlaceholderSets  = 2
)

var (
	ErrInvalidTransition       = errors.New("invalid match transition")
	ErrInvalidScore            = errors.New("invalid score")
	ErrUndecidedScore          = errors.New("score does not determine a winner")
	ErrNotParticipant          = errors.New("registration is not part of this match")
	ErrTechnicalDrawNotAllowed = errors.New("technical draw is not allowed in knockout matches, record a walkover or a decisive result instead")
	ErrInvalidSlot             = errors.New("invalid match slot")
)

// ValidateScore checks the shape of a played score: both sides have the same
// non-zero number of sets and every value is within 0..MaxGamesPerSet.
func ValidateScore(sets1, sets2 Sets) error {
	if len(sets1) == 0 || len(sets2) == 0 {
		return fmt.Errorf("%w: no sets recorded", ErrInvalidScore)
	}
	if len(sets1) != len(sets2) {
		return fmt.Errorf("%w: %d sets against %d", ErrInvalidScore, len(sets1), len(sets2))
	}
	for i := range sets1 {
		if sets1[i] < 0 || sets1[i] > MaxGamesPerSet || sets2[i] < 0 || sets2[i] > MaxGamesPerSet {
			return fmt.Errorf("%w: set %d (%d-%d) outside 0-%d", ErrInvalidScore, i+1, sets1[i], sets2[i], MaxGamesPerSet)
		}
	}
	return nil
}

// IsTechnicalDrawAllowed is false whenever either the round or the match phase
// marks a knockout stage. A missing round phase is treated as unknown, not as group play.
func IsTechnicalDrawAllowed(roundPhase RoundPhase, matchPhase MatchPhase) bool {
	return !roundPhase.IsKnockout() && !matchPhase.IsKnockout()
}

func (m *Match) requirePending() error {
	if m.Status != MatchPending {
		return fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	if !m.HasParticipants() {
		return fmt.Errorf("%w: match has no opponents yet", ErrInvalidTransition)
	}
	return nil
}

func (m *Match) finish(kind ResultKind, by string, at time.Time) {
	m.Status = MatchFinished
	m.ResultKind = kind
	m.ResultSetBy = &by
	m.ResultSetAt = &at
}

func (m *Match) RecordPlayed(sets1, sets2 Sets, by string, at time.Time) error {
	if err := m.requirePending(); err != nil {
		return err
	}
	if err := ValidateScore(sets1, sets2); err != nil {
		return err
	}

	won1, won2 := CountSets(sets1, sets2)
	var winner uuid.UUID
	switch {
	case won1 > won2:
		winner = *m.Registration1ID
	case won2 > won1:
		winner = *m.Registration2ID
	default:
		return fmt.Errorf("%w: %d sets each", ErrUndecidedScore, won1)
	}

	m.Sets1 = append(Sets(nil), sets1...)
	m.Sets2 = append(Sets(nil), sets2...)
	m.WinnerID = &winner
	m.WalkoverWinnerID = nil
	m.finish(ResultPlayed, by, at)
	return nil
}

// RecordWalkover finishes the match for the declared winner. The score written
// here is for display only and never counts towards set or game totals.
func (m *Match) RecordWalkover(winner uuid.UUID, by string, at time.Time) error {
	if err := m.requirePending(); err != nil {
		return err
	}
	slot := m.Slot(winner)
	if slot == 0 {
		return ErrNotParticipant
	}

	won := make(Sets, walkoverPlaceholderSets)
	lost := make(Sets, walkoverPlaceholderSets)
	for i := range won {
		won[i] = walkoverPlaceholderGames
	}
	if slot == 1 {
		m.Sets1, m.Sets2 = won, lost
	} else {
		m.Sets1, m.Sets2 = lost, won
	}

	m.WinnerID = &winner
	m.WalkoverWinnerID = &winner
	m.finish(ResultWalkover, by, at)
	return nil
}

func (m *Match) RecordTechnicalDraw(roundPhase RoundPhase, by string, at time.Time) error {
	if !IsTechnicalDrawAllowed(roundPhase, m.Phase) {
		return ErrTechnicalDrawNotAllowed
	}
	if err := m.requirePending(); err != nil {
		return err
	}

	m.Sets1 = ZeroScore()
	m.Sets2 = ZeroScore()
	m.WinnerID = nil
	m.WalkoverWinnerID = nil
	m.finish(ResultTechnicalDraw, by, at)
	return nil
}

// Reopen returns a finished match to pending and clears every result field.
func (m *Match) Reopen() error {
	if m.Status != MatchFinished {
		return fmt.Errorf("%w: only finished matches can be reopened, match is %s", ErrInvalidTransition, m.Status)
	}
	m.Status = MatchPending
	m.ResultKind = ResultPlayed
	m.Sets1 = ZeroScore()
	m.Sets2 = ZeroScore()
	m.WinnerID = nil
	m.WalkoverWinnerID = nil
	m.ResultSetBy = nil
	m.ResultSetAt = nil
	return nil
}

// AssignOpponent fills one slot of a knockout match. A match waiting for
// opponents becomes pending once both slots are filled.
func (m *Match) AssignOpponent(slot int, id uuid.UUID) error {
	if m.Status == MatchFinished {
		return fmt.Errorf("%w: match is already finished", ErrInvalidTransition)
	}
	if other := m.Slot(id); other != 0 && other != slot {
		return fmt.Errorf("%w: registration already holds slot %d", ErrInvalidSlot, other)
	}
	switch slot {
	case 1:
		m.Registration1ID = &id
	case 2:
		m.Registration2ID = &id
	default:
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if m.Status == MatchWaitingOpponents && m.HasParticipants() {
		m.Status = MatchPending
	}
	return nil
}
