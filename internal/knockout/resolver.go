package knockout

import (
	"sort"
	"strings"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/standings"
	"github.com/google/uuid"
)

// AwaitingDefinition is shown for slots that cannot name a competitor yet.
const AwaitingDefinition = "awaiting definition"

type GroupSnapshot struct {
	Group   bracket.Group
	Members []bracket.Registration
	Matches []bracket.Match
}

type Source string

const (
	FromMatch     Source = "match"
	FromQualifier Source = "qualifier"
	Undetermined  Source = "undetermined"
)

type PlayerSlot struct {
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	Name           string     `json:"name"`
	Source         Source     `json:"source"`
}

func (s PlayerSlot) IsUndetermined() bool {
	return s.Source == Undetermined
}

type Binding string

const (
	BoundByExpectedPair Binding = "expected_pair"
	BoundByFallback     Binding = "fallback_order"
	BoundByPhase        Binding = "phase"
	Unbound             Binding = "unbound"
)

type Pairing struct {
	Match    *bracket.Match `json:"match,omitempty"`
	Binding  Binding        `json:"binding"`
	Player1  PlayerSlot     `json:"player_1"`
	Player2  PlayerSlot     `json:"player_2"`
	WinnerID *uuid.UUID     `json:"winner_id,omitempty"`
}

type Bracket struct {
	Semifinal1 Pairing `json:"semifinal_1"`
	Semifinal2 Pairing `json:"semifinal_2"`
	Final      Pairing `json:"final"`
}

type qualifierKey struct {
	group    string
	position int
}

type resolver struct {
	names      map[uuid.UUID]bracket.Registration
	qualifiers map[qualifierKey]standings.Qualifier
}

// Resolve crosses the top two of the first two groups (by name) into the
// semifinals, 1st of A against 2nd of B and 1st of B against 2nd of A, binding
// each pairing to an existing knockout match where one can be found. It never
// fails: slots that cannot be named are reported as undetermined.
func Resolve(groups []GroupSnapshot, registrations []bracket.Registration, knockoutMatches []bracket.Match, rules scoring.Rules) Bracket {
	r := resolver{
		names:      bracket.RegistrationIndex(registrations),
		qualifiers: make(map[qualifierKey]standings.Qualifier),
	}

	ordered := make([]GroupSnapshot, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Group.Name < ordered[j].Group.Name
	})

	var groupA, groupB string
	if len(ordered) > 0 {
		groupA = ordered[0].Group.Name
	}
	if len(ordered) > 1 {
		groupB = ordered[1].Group.Name
	}

	for _, g := range ordered {
		ranked := standings.Compute(g.Members, g.Matches, rules)
		for _, q := range standings.Qualifiers(ranked, len(g.Members), rules) {
			r.qualifiers[qualifierKey{g.Group.Name, q.Position}] = q
		}
		for _, m := range g.Members {
			if _, ok := r.names[m.ID]; !ok {
				r.names[m.ID] = m
			}
		}
	}

	sf1Expected := [2]*standings.Qualifier{r.qualifier(groupA, 1), r.qualifier(groupB, 2)}
	sf2Expected := [2]*standings.Qualifier{r.qualifier(groupB, 1), r.qualifier(groupA, 2)}

	// Bound pairings point into this copy, never into the caller's slice
	ko := append([]bracket.Match(nil), knockoutMatches...)
	var semis, finals []*bracket.Match
	for i := range ko {
		switch phaseOf(ko[i]) {
		case bracket.PhaseSemifinal:
			semis = append(semis, &ko[i])
		case bracket.PhaseFinal:
			finals = append(finals, &ko[i])
		}
	}

	claimed := make(map[uuid.UUID]bool)
	sf1, sf1Binding := resolveByExpectedPair(semis, sf1Expected, claimed)
	sf2, sf2Binding := resolveByExpectedPair(semis, sf2Expected, claimed)
	if sf1 == nil {
		sf1, sf1Binding = resolveByFallbackOrder(semis, claimed)
	}
	if sf2 == nil {
		sf2, sf2Binding = resolveByFallbackOrder(semis, claimed)
	}

	out := Bracket{
		Semifinal1: r.semifinal(sf1, sf1Binding, sf1Expected),
		Semifinal2: r.semifinal(sf2, sf2Binding, sf2Expected),
	}
	out.Final = r.final(resolveFinal(finals), out.Semifinal1, out.Semifinal2)
	return out
}

func (r *resolver) qualifier(group string, position int) *standings.Qualifier {
	if group == "" {
		return nil
	}
	q, ok := r.qualifiers[qualifierKey{group, position}]
	if !ok {
		return nil
	}
	return &q
}

// phaseOf normalizes administrator labels. Knockout rounds other than the
// semifinals and the final (quarterfinals, playoffs) map to "" and are ignored.
func phaseOf(m bracket.Match) bracket.MatchPhase {
	switch m.Phase {
	case bracket.PhaseSemifinal, bracket.PhaseFinal:
		return m.Phase
	}
	if !m.Phase.IsKnockout() {
		return m.Phase
	}
	label := strings.ToLower(strings.TrimSpace(string(m.Phase)))
	switch {
	case strings.Contains(label, "quarter"):
		return ""
	case strings.Contains(label, "semi"):
		return bracket.PhaseSemifinal
	case strings.HasSuffix(label, "final"):
		return bracket.PhaseFinal
	}
	return ""
}

// resolveByExpectedPair binds the first unclaimed semifinal whose participants
// are exactly the expected qualifiers, in either order.
func resolveByExpectedPair(semis []*bracket.Match, expected [2]*standings.Qualifier, claimed map[uuid.UUID]bool) (*bracket.Match, Binding) {
	if expected[0] == nil || expected[1] == nil {
		return nil, Unbound
	}
	for _, m := range semis {
		if claimed[m.ID] {
			continue
		}
		if m.IsBetween(expected[0].RegistrationID, expected[1].RegistrationID) {
			claimed[m.ID] = true
			return m, BoundByExpectedPair
		}
	}
	return nil, Unbound
}

// resolveByFallbackOrder binds the first semifinal not claimed by the other
// slot. It covers brackets created by hand that do not follow the crossing.
func resolveByFallbackOrder(semis []*bracket.Match, claimed map[uuid.UUID]bool) (*bracket.Match, Binding) {
	for _, m := range semis {
		if claimed[m.ID] {
			continue
		}
		claimed[m.ID] = true
		return m, BoundByFallback
	}
	return nil, Unbound
}

// resolveFinal prefers a finished final over a stale placeholder.
func resolveFinal(finals []*bracket.Match) *bracket.Match {
	for _, m := range finals {
		if m.Status == bracket.MatchFinished {
			return m
		}
	}
	if len(finals) > 0 {
		return finals[0]
	}
	return nil
}

func (r *resolver) semifinal(m *bracket.Match, binding Binding, expected [2]*standings.Qualifier) Pairing {
	p := Pairing{Match: m, Binding: binding}

	var ids [2]*uuid.UUID
	if m != nil {
		ids = [2]*uuid.UUID{m.Registration1ID, m.Registration2ID}
		// Keep the crossing order on display when the match was stored the other way round
		if binding == BoundByExpectedPair && ids[0] != nil && *ids[0] != expected[0].RegistrationID {
			ids[0], ids[1] = ids[1], ids[0]
		}
		p.WinnerID = winnerOf(m)
	}

	for i := range ids {
		var slot PlayerSlot
		if ids[i] != nil {
			slot = r.fromMatch(*ids[i])
		} else {
			slot = r.fromQualifier(expected[i])
		}
		if i == 0 {
			p.Player1 = slot
		} else {
			p.Player2 = slot
		}
	}
	return p
}

func (r *resolver) final(m *bracket.Match, sf1, sf2 Pairing) Pairing {
	p := Pairing{Match: m, Binding: Unbound}
	var ids [2]*uuid.UUID
	if m != nil {
		p.Binding = BoundByPhase
		ids = [2]*uuid.UUID{m.Registration1ID, m.Registration2ID}
		p.WinnerID = winnerOf(m)
	}

	semiWinners := [2]*uuid.UUID{sf1.WinnerID, sf2.WinnerID}
	for i := range ids {
		slot := PlayerSlot{Name: AwaitingDefinition, Source: Undetermined}
		switch {
		case ids[i] != nil:
			slot = r.fromMatch(*ids[i])
		case semiWinners[i] != nil:
			slot = r.fromMatch(*semiWinners[i])
		}
		if i == 0 {
			p.Player1 = slot
		} else {
			p.Player2 = slot
		}
	}
	return p
}

func (r *resolver) fromMatch(id uuid.UUID) PlayerSlot {
	slot := PlayerSlot{RegistrationID: &id, Source: FromMatch}
	if reg, ok := r.names[id]; ok {
		slot.Name = reg.DisplayName()
	} else {
		slot.Name = bracket.Registration{ID: id}.DisplayName()
	}
	return slot
}

// fromQualifier names the provisional qualifier only once the place is clinched.
func (r *resolver) fromQualifier(q *standings.Qualifier) PlayerSlot {
	if q == nil || !q.Clinched {
		return PlayerSlot{Name: AwaitingDefinition, Source: Undetermined}
	}
	slot := r.fromMatch(q.RegistrationID)
	slot.Source = FromQualifier
	return slot
}

func winnerOf(m *bracket.Match) *uuid.UUID {
	if m.Status != bracket.MatchFinished {
		return nil
	}
	if m.WinnerID != nil {
		return m.WinnerID
	}
	return m.WalkoverWinnerID
}
