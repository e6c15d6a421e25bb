package standings

import (
	"cmp"
	"slices"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/google/uuid"
)

// Standing is the derived ranking row for one registration inside a group.
type Standing struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	Points         int       `json:"points"`
	MatchesPlayed  int       `json:"matches_played"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	SetsWon        int       `json:"sets_won"`
	SetsLost       int       `json:"sets_lost"`
	GamesWon       int       `json:"games_won"`
	GamesLost      int       `json:"games_lost"`
}

func (s Standing) SetDiff() int {
	return s.SetsWon - s.SetsLost
}

func (s Standing) GameDiff() int {
	return s.GamesWon - s.GamesLost
}

// Compute folds the finished matches between the given registrations into
// standings and returns them ranked. It is recomputed from the full snapshot
// every time and never mutates its inputs.
func Compute(registrations []bracket.Registration, matches []bracket.Match, rules scoring.Rules) []Standing {
	rows := make(map[uuid.UUID]*Standing, len(registrations))
	order := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		if _, dup := rows[r.ID]; dup {
			continue
		}
		rows[r.ID] = &Standing{RegistrationID: r.ID}
		order = append(order, r.ID)
	}

	counted := make([]bracket.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status != bracket.MatchFinished || !m.HasParticipants() {
			continue
		}
		s1, s2 := rows[*m.Registration1ID], rows[*m.Registration2ID]
		if s1 == nil || s2 == nil {
			continue
		}
		fold(s1, s2, m, rules)
		counted = append(counted, m)
	}

	out := make([]Standing, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}

	h2h := headToHead(counted)
	slices.SortStableFunc(out, func(a, b Standing) int {
		return compare(a, b, h2h)
	})
	return out
}

func fold(s1, s2 *Standing, m bracket.Match, rules scoring.Rules) {
	s1.MatchesPlayed++
	s2.MatchesPlayed++

	switch m.ResultKind {
	case bracket.ResultTechnicalDraw:
		s1.Points += rules.TechnicalDraw
		s2.Points += rules.TechnicalDraw

	case bracket.ResultWalkover:
		winner := m.WalkoverWinnerID
		if winner == nil {
			winner = m.WinnerID
		}
		if winner == nil {
			return
		}
		switch *winner {
		case s1.RegistrationID:
			s1.Points += rules.WoVictory
			s1.Wins++
			s2.Losses++
		case s2.RegistrationID:
			s2.Points += rules.WoVictory
			s2.Wins++
			s1.Losses++
		}

	default:
		won1, won2 := bracket.CountSets(m.Sets1, m.Sets2)
		games1, games2 := m.Sets1.Games(), m.Sets2.Games()

		s1.SetsWon += won1
		s1.SetsLost += won2
		s2.SetsWon += won2
		s2.SetsLost += won1
		s1.GamesWon += games1
		s1.GamesLost += games2
		s2.GamesWon += games2
		s2.GamesLost += games1

		s1.Points += won1*rules.Set + games1*rules.Game
		s2.Points += won2*rules.Set + games2*rules.Game

		switch {
		case won1 > won2:
			s1.Points += rules.Victory
			s1.Wins++
			s2.Points += rules.Defeat
			s2.Losses++
		case won2 > won1:
			s2.Points += rules.Victory
			s2.Wins++
			s1.Points += rules.Defeat
			s1.Losses++
		}
	}
}

type pair struct {
	winner, loser uuid.UUID
}

// headToHead counts wins per ordered (winner, loser) pair. Technical draws have no winner.
func headToHead(matches []bracket.Match) map[pair]int {
	wins := make(map[pair]int)
	for _, m := range matches {
		if m.ResultKind == bracket.ResultTechnicalDraw {
			continue
		}
		winner := decidedWinner(m)
		if winner == nil {
			continue
		}
		loser := *m.Registration1ID
		if loser == *winner {
			loser = *m.Registration2ID
		}
		wins[pair{*winner, loser}]++
	}
	return wins
}

func decidedWinner(m bracket.Match) *uuid.UUID {
	if m.ResultKind == bracket.ResultWalkover {
		if m.WalkoverWinnerID != nil {
			return m.WalkoverWinnerID
		}
		return m.WinnerID
	}
	won1, won2 := bracket.CountSets(m.Sets1, m.Sets2)
	switch {
	case won1 > won2:
		return m.Registration1ID
	case won2 > won1:
		return m.Registration2ID
	}
	return nil
}

// compare ranks by points, head-to-head wins, set difference, game difference
// and finally registration id. Head-to-head is pairwise, so a three-way cycle
// (A beat B, B beat C, C beat A) with everything else equal is not transitive
// and the resulting order depends on the input order.
func compare(a, b Standing, h2h map[pair]int) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(h2h[pair{b.RegistrationID, a.RegistrationID}], h2h[pair{a.RegistrationID, b.RegistrationID}]); c != 0 {
		return c
	}
	if c := cmp.Compare(b.SetDiff(), a.SetDiff()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GameDiff(), a.GameDiff()); c != 0 {
		return c
	}
	return cmp.Compare(a.RegistrationID.String(), b.RegistrationID.String())
}
