package views

import (
	"fmt"
	"strings"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/knockout"
	"github.com/AdamBeresnev/op-groups/internal/service"
	"github.com/AdamBeresnev/op-groups/internal/utils"
)

var standingHeaders = []string{"#", "Player", "Pts", "P", "W", "L", "Sets", "Games", ""}

// ScoreLine formats a finished match as "6-3 4-6 7-5". Unfinished matches show a dash.
func ScoreLine(m bracket.Match) string {
	if m.Status != bracket.MatchFinished {
		return "-"
	}
	switch m.ResultKind {
	case bracket.ResultWalkover:
		return "W.O."
	case bracket.ResultTechnicalDraw:
		return "technical draw"
	}

	parts := make([]string, 0, len(m.Sets1))
	for i := 0; i < len(m.Sets1) && i < len(m.Sets2); i++ {
		parts = append(parts, fmt.Sprintf("%d-%d", m.Sets1[i], m.Sets2[i]))
	}
	return strings.Join(parts, " ")
}

func StatusLabel(s bracket.MatchStatus) string {
	switch s {
	case bracket.MatchFinished:
		return "finished"
	case bracket.MatchWaitingOpponents:
		return "waiting for opponents"
	default:
		return "pending"
	}
}

func FixtureLine(f service.Fixture) string {
	line := fmt.Sprintf("%s vs %s: %s (%s)", f.Player1, f.Player2, ScoreLine(f.Match), StatusLabel(f.Match.Status))
	if by := utils.OrZero(f.Match.ResultSetBy); by != "" {
		line += ", recorded by " + by
	}
	return line
}

func standingCells(row service.StandingRow) []string {
	clinched := ""
	if row.Clinched {
		clinched = "Q"
	}
	return []string{
		fmt.Sprint(row.Position),
		row.Name,
		fmt.Sprint(row.Points),
		fmt.Sprint(row.MatchesPlayed),
		fmt.Sprint(row.Wins),
		fmt.Sprint(row.Losses),
		tally(row.SetsWon, row.SetsLost, row.SetDiff()),
		tally(row.GamesWon, row.GamesLost, row.GameDiff()),
		clinched,
	}
}

func tally(won, lost, diff int) string {
	sign := ""
	if diff > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%d/%d (%s%d)", won, lost, sign, diff)
}

func pairingScore(p knockout.Pairing) string {
	if p.Match == nil {
		return "-"
	}
	return ScoreLine(*p.Match)
}

func slotState(s knockout.PlayerSlot, p knockout.Pairing) string {
	switch {
	case s.IsUndetermined():
		return "undetermined"
	case p.WinnerID != nil && s.RegistrationID != nil && *p.WinnerID == *s.RegistrationID:
		return "winner"
	}
	return "named"
}
