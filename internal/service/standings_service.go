package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/knockout"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/standings"
	"github.com/AdamBeresnev/op-groups/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StandingsService derives group tables and the knockout bracket. Nothing it
// returns is stored, every call recomputes from the current matches.
type StandingsService struct {
	store *store.CategoryStore
	base  scoring.Rules
}

func NewStandingsService(store *store.CategoryStore, base scoring.Rules) *StandingsService {
	return &StandingsService{store: store, base: base}
}

type StandingRow struct {
	standings.Standing
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Qualifying bool   `json:"qualifying"`
	Clinched   bool   `json:"clinched"`
}

type Fixture struct {
	Match   bracket.Match `json:"match"`
	Player1 string        `json:"player_1"`
	Player2 string        `json:"player_2"`
}

type GroupTable struct {
	Group    bracket.Group `json:"group"`
	Rules    scoring.Rules `json:"rules"`
	Rows     []StandingRow `json:"rows"`
	Fixtures []Fixture     `json:"fixtures"`
}

// CategoryOverrides returns the scoring values stored on a category.
func CategoryOverrides(c *bracket.Category) scoring.Overrides {
	return scoring.Overrides{
		Victory:       c.PtsVictory,
		Defeat:        c.PtsDefeat,
		WoVictory:     c.PtsWoVictory,
		Set:           c.PtsSet,
		Game:          c.PtsGame,
		TechnicalDraw: c.PtsTechnicalDraw,
	}
}

func (s *StandingsService) rulesFor(ctx context.Context, categoryID uuid.UUID) (scoring.Rules, error) {
	category, err := s.store.GetCategory(ctx, categoryID.String())
	if err != nil {
		return scoring.Rules{}, fmt.Errorf("failed to get category: %w", err)
	}
	return scoring.Resolve(s.base, CategoryOverrides(category)), nil
}

func (s *StandingsService) snapshot(ctx context.Context, group bracket.Group) (knockout.GroupSnapshot, error) {
	members, err := s.store.GetGroupMembers(ctx, group.ID.String())
	if err != nil {
		return knockout.GroupSnapshot{}, fmt.Errorf("failed to get members of group %s: %w", group.Name, err)
	}
	matches, err := s.store.GetGroupMatches(ctx, group.ID.String())
	if err != nil {
		return knockout.GroupSnapshot{}, fmt.Errorf("failed to get matches of group %s: %w", group.Name, err)
	}

	registrations := make([]bracket.Registration, len(members))
	for i, m := range members {
		registrations[i] = m.Registration
	}
	return knockout.GroupSnapshot{Group: group, Members: registrations, Matches: matches}, nil
}

func (s *StandingsService) GroupStandings(ctx context.Context, groupID uuid.UUID) (*GroupTable, error) {
	group, err := s.store.GetGroup(ctx, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rules, err := s.rulesFor(ctx, group.CategoryID)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx, *group)
	if err != nil {
		return nil, err
	}

	ranked := standings.Compute(snap.Members, snap.Matches, rules)
	qualifiers := standings.Qualifiers(ranked, len(snap.Members), rules)
	index := bracket.RegistrationIndex(snap.Members)

	table := &GroupTable{Group: *group, Rules: rules}
	for i, st := range ranked {
		row := StandingRow{
			Standing: st,
			Position: i + 1,
			Name:     index[st.RegistrationID].DisplayName(),
		}
		if i < len(qualifiers) {
			row.Qualifying = true
			row.Clinched = qualifiers[i].Clinched
		}
		table.Rows = append(table.Rows, row)
	}

	for _, m := range snap.Matches {
		table.Fixtures = append(table.Fixtures, Fixture{
			Match:   m,
			Player1: nameOf(index, m.Registration1ID),
			Player2: nameOf(index, m.Registration2ID),
		})
	}

	return table, nil
}

// Bracket resolves the knockout bracket of a category. Group snapshots are
// loaded concurrently.
func (s *StandingsService) Bracket(ctx context.Context, categoryID uuid.UUID) (*knockout.Bracket, error) {
	rules, err := s.rulesFor(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.GetGroups(ctx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}

	registrations, err := s.store.GetRegistrations(ctx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}

	knockoutMatches, err := s.store.GetKnockoutMatches(ctx, categoryID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get knockout matches: %w", err)
	}

	snapshots := make([]knockout.GroupSnapshot, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			snap, err := s.snapshot(gctx, group)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := knockout.Resolve(snapshots, registrations, knockoutMatches, rules)
	return &b, nil
}

func nameOf(index map[uuid.UUID]bracket.Registration, id *uuid.UUID) string {
	if id == nil {
		return knockout.AwaitingDefinition
	}
	if r, ok := index[*id]; ok {
		return r.DisplayName()
	}
	return id.String()
}
