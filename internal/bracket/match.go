package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending          MatchStatus = "pending"
	MatchFinished         MatchStatus = "finished"
	MatchWaitingOpponents MatchStatus = "waiting_opponents"
)

type ResultKind string

const (
	ResultPlayed        ResultKind = "played"
	ResultWalkover      ResultKind = "walkover"
	ResultTechnicalDraw ResultKind = "technical_draw"
)

type MatchPhase string

const (
	PhaseGroups    MatchPhase = "groups"
	PhaseSemifinal MatchPhase = "semifinal"
	PhaseFinal     MatchPhase = "final"
)

// IsKnockout reports whether the phase label names a knockout stage. Labels come
// from administrators, so "Semi", "Final" and "quarterfinal" all count.
func (p MatchPhase) IsKnockout() bool {
	s := strings.ToLower(strings.TrimSpace(string(p)))
	return strings.Contains(s, "semi") || strings.Contains(s, "final") || strings.Contains(s, knockoutRoundTag)
}

// Sets holds the games won in each set, one entry per set slot.
type Sets []int

func (s Sets) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Sets) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Sets{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported sets column type %T", src)
	}
	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("failed to decode sets: %w", err)
	}
	*s = values
	return nil
}

func (s Sets) Games() int {
	total := 0
	for _, g := range s {
		total += g
	}
	return total
}

// CountSets returns how many set slots each side won. Equal slots count for neither.
func CountSets(sets1, sets2 Sets) (int, int) {
	won1, won2 := 0, 0
	for i := 0; i < len(sets1) && i < len(sets2); i++ {
		switch {
		case sets1[i] > sets2[i]:
			won1++
		case sets2[i] > sets1[i]:
			won2++
		}
	}
	return won1, won2
}

// ZeroScore is the placeholder written to new and reopened matches.
func ZeroScore() Sets {
	return Sets{0, 0, 0}
}

type Match struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CategoryID uuid.UUID  `db:"category_id" json:"category_id"`
	GroupID    *uuid.UUID `db:"group_id" json:"group_id,omitempty"`
	RoundID    *uuid.UUID `db:"round_id" json:"round_id,omitempty"`
	Phase      MatchPhase `db:"phase" json:"phase"`

	Registration1ID *uuid.UUID `db:"registration_1_id" json:"registration_1_id,omitempty"`
	Registration2ID *uuid.UUID `db:"registration_2_id" json:"registration_2_id,omitempty"`

	Sets1      Sets        `db:"sets_1" json:"sets_1"`
	Sets2      Sets        `db:"sets_2" json:"sets_2"`
	Status     MatchStatus `db:"status" json:"status"`
	ResultKind ResultKind  `db:"result_kind" json:"result_kind"`

	WinnerID         *uuid.UUID `db:"winner_id" json:"winner_id,omitempty"`
	WalkoverWinnerID *uuid.UUID `db:"walkover_winner_id" json:"walkover_winner_id,omitempty"`

	ResultSetBy *string    `db:"result_set_by" json:"result_set_by,omitempty"`
	ResultSetAt *time.Time `db:"result_set_at" json:"result_set_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Slot returns 1 or 2 for a participant of the match, 0 otherwise.
func (m *Match) Slot(id uuid.UUID) int {
	switch {
	case m.Registration1ID != nil && *m.Registration1ID == id:
		return 1
	case m.Registration2ID != nil && *m.Registration2ID == id:
		return 2
	}
	return 0
}

func (m *Match) HasParticipants() bool {
	return m.Registration1ID != nil && m.Registration2ID != nil
}

// IsBetween reports whether the match is between a and b, in either order.
func (m *Match) IsBetween(a, b uuid.UUID) bool {
	if !m.HasParticipants() {
		return false
	}
	r1, r2 := *m.Registration1ID, *m.Registration2ID
	return (r1 == a && r2 == b) || (r1 == b && r2 == a)
}

func (m *Match) IsWinner(id uuid.UUID) bool {
	return m.Status == MatchFinished && m.WinnerID != nil && *m.WinnerID == id
}
