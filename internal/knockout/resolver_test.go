package knockout

import (
	"fmt"
	"testing"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(group string, n int) []bracket.Registration {
	out := make([]bracket.Registration, n)
	for i := range out {
		out[i] = bracket.Registration{
			ID:        uuid.New(),
			Kind:      bracket.GuestParticipant,
			GuestName: utils.Ptr(fmt.Sprintf("%s%d", group, i+1)),
		}
	}
	return out
}

func decided(phase bracket.MatchPhase, winner, loser bracket.Registration) bracket.Match {
	return bracket.Match{
		ID:              uuid.New(),
		Phase:           phase,
		Registration1ID: utils.Ptr(winner.ID),
		Registration2ID: utils.Ptr(loser.ID),
		Sets1:           bracket.Sets{6, 6},
		Sets2:           bracket.Sets{0, 0},
		Status:          bracket.MatchFinished,
		ResultKind:      bracket.ResultPlayed,
		WinnerID:        utils.Ptr(winner.ID),
	}
}

func knockoutMatch(phase bracket.MatchPhase, r1, r2 *bracket.Registration) bracket.Match {
	m := bracket.Match{
		ID:         uuid.New(),
		Phase:      phase,
		Sets1:      bracket.ZeroScore(),
		Sets2:      bracket.ZeroScore(),
		Status:     bracket.MatchWaitingOpponents,
		ResultKind: bracket.ResultPlayed,
	}
	if r1 != nil {
		m.Registration1ID = utils.Ptr(r1.ID)
	}
	if r2 != nil {
		m.Registration2ID = utils.Ptr(r2.ID)
	}
	if m.HasParticipants() {
		m.Status = bracket.MatchPending
	}
	return m
}

// finishedGroup plays every fixture so the members finish in input order.
func finishedGroup(name string, regs []bracket.Registration) GroupSnapshot {
	var matches []bracket.Match
	for i := range regs {
		for j := i + 1; j < len(regs); j++ {
			matches = append(matches, decided(bracket.PhaseGroups, regs[i], regs[j]))
		}
	}
	return GroupSnapshot{Group: bracket.Group{ID: uuid.New(), Name: name}, Members: regs, Matches: matches}
}

type fixture struct {
	a, b   []bracket.Registration
	groups []GroupSnapshot
	all    []bracket.Registration
}

func newFixture() fixture {
	a, b := players("A", 4), players("B", 4)
	return fixture{
		a:      a,
		b:      b,
		groups: []GroupSnapshot{finishedGroup("B", b), finishedGroup("A", a)},
		all:    append(append([]bracket.Registration{}, a...), b...),
	}
}

func assertSlot(t *testing.T, expected bracket.Registration, slot PlayerSlot) {
	t.Helper()
	require.NotNil(t, slot.RegistrationID, "slot should name %s", expected.DisplayName())
	assert.Equal(t, expected.ID, *slot.RegistrationID)
	assert.Equal(t, expected.DisplayName(), slot.Name)
}

func TestResolve_CrossingWithoutKnockoutMatches(t *testing.T) {
	f := newFixture()

	br := Resolve(f.groups, f.all, nil, scoring.Defaults())

	assert.Nil(t, br.Semifinal1.Match)
	assert.Equal(t, Unbound, br.Semifinal1.Binding)
	assertSlot(t, f.a[0], br.Semifinal1.Player1)
	assertSlot(t, f.b[1], br.Semifinal1.Player2)
	assert.Equal(t, FromQualifier, br.Semifinal1.Player1.Source)

	assertSlot(t, f.b[0], br.Semifinal2.Player1)
	assertSlot(t, f.a[1], br.Semifinal2.Player2)

	assert.True(t, br.Final.Player1.IsUndetermined())
	assert.True(t, br.Final.Player2.IsUndetermined())
	assert.Equal(t, AwaitingDefinition, br.Final.Player1.Name)
}

func TestResolve_BindsExpectedPairsInAnyOrder(t *testing.T) {
	f := newFixture()
	sf2 := knockoutMatch(bracket.PhaseSemifinal, &f.a[1], &f.b[0])
	sf1 := knockoutMatch(bracket.PhaseSemifinal, &f.b[1], &f.a[0])

	br := Resolve(f.groups, f.all, []bracket.Match{sf2, sf1}, scoring.Defaults())

	require.NotNil(t, br.Semifinal1.Match)
	assert.Equal(t, sf1.ID, br.Semifinal1.Match.ID)
	assert.Equal(t, BoundByExpectedPair, br.Semifinal1.Binding)
	assertSlot(t, f.a[0], br.Semifinal1.Player1)
	assertSlot(t, f.b[1], br.Semifinal1.Player2)
	assert.Equal(t, FromMatch, br.Semifinal1.Player1.Source)

	require.NotNil(t, br.Semifinal2.Match)
	assert.Equal(t, sf2.ID, br.Semifinal2.Match.ID)
	assertSlot(t, f.b[0], br.Semifinal2.Player1)
	assertSlot(t, f.a[1], br.Semifinal2.Player2)
}

func TestResolve_FallsBackToUnclaimedSemifinals(t *testing.T) {
	f := newFixture()
	manual := knockoutMatch(bracket.PhaseSemifinal, &f.a[0], &f.a[2])
	crossing := knockoutMatch(bracket.PhaseSemifinal, &f.b[0], &f.a[1])

	br := Resolve(f.groups, f.all, []bracket.Match{manual, crossing}, scoring.Defaults())

	assert.Equal(t, crossing.ID, br.Semifinal2.Match.ID)
	assert.Equal(t, BoundByExpectedPair, br.Semifinal2.Binding)

	assert.Equal(t, manual.ID, br.Semifinal1.Match.ID)
	assert.Equal(t, BoundByFallback, br.Semifinal1.Binding)
	// The real participants win over the qualifier guess
	assertSlot(t, f.a[0], br.Semifinal1.Player1)
	assertSlot(t, f.a[2], br.Semifinal1.Player2)
}

func TestResolve_FallbackOrderFollowsEncounterOrder(t *testing.T) {
	f := newFixture()
	first := knockoutMatch(bracket.PhaseSemifinal, &f.a[2], &f.b[2])
	second := knockoutMatch(bracket.PhaseSemifinal, &f.a[3], &f.b[3])

	br := Resolve(f.groups, f.all, []bracket.Match{first, second}, scoring.Defaults())

	assert.Equal(t, first.ID, br.Semifinal1.Match.ID)
	assert.Equal(t, second.ID, br.Semifinal2.Match.ID)
	assert.Equal(t, BoundByFallback, br.Semifinal2.Binding)
}

func TestResolve_EmptySlotUsesClinchedQualifier(t *testing.T) {
	f := newFixture()
	waiting := knockoutMatch(bracket.PhaseSemifinal, &f.a[0], nil)

	br := Resolve(f.groups, f.all, []bracket.Match{waiting}, scoring.Defaults())

	assert.Equal(t, waiting.ID, br.Semifinal1.Match.ID)
	assertSlot(t, f.a[0], br.Semifinal1.Player1)
	assertSlot(t, f.b[1], br.Semifinal1.Player2)
	assert.Equal(t, FromQualifier, br.Semifinal1.Player2.Source)
	assert.Nil(t, br.Semifinal2.Match)
}

func TestResolve_UnclinchedQualifiersAwaitDefinition(t *testing.T) {
	a, b := players("A", 4), players("B", 4)
	groups := []GroupSnapshot{
		{
			Group:   bracket.Group{Name: "A"},
			Members: a,
			Matches: []bracket.Match{decided(bracket.PhaseGroups, a[0], a[1]), decided(bracket.PhaseGroups, a[2], a[3])},
		},
		finishedGroup("B", b),
	}
	all := append(append([]bracket.Registration{}, a...), b...)

	br := Resolve(groups, all, nil, scoring.Defaults())

	assert.True(t, br.Semifinal1.Player1.IsUndetermined())
	assert.Nil(t, br.Semifinal1.Player1.RegistrationID)
	assertSlot(t, b[1], br.Semifinal1.Player2)
	assertSlot(t, b[0], br.Semifinal2.Player1)
	assert.True(t, br.Semifinal2.Player2.IsUndetermined())
}

func TestResolve_SingleGroupLeavesOtherSideUndetermined(t *testing.T) {
	a := players("A", 3)
	br := Resolve([]GroupSnapshot{finishedGroup("A", a)}, a, nil, scoring.Defaults())

	assertSlot(t, a[0], br.Semifinal1.Player1)
	assert.True(t, br.Semifinal1.Player2.IsUndetermined())
	assert.True(t, br.Semifinal2.Player1.IsUndetermined())
	assertSlot(t, a[1], br.Semifinal2.Player2)
}

func TestResolve_FinalPrefersFinishedMatch(t *testing.T) {
	f := newFixture()
	stale := knockoutMatch(bracket.PhaseFinal, nil, nil)
	played := decided(bracket.PhaseFinal, f.b[0], f.a[0])

	br := Resolve(f.groups, f.all, []bracket.Match{stale, played}, scoring.Defaults())

	require.NotNil(t, br.Final.Match)
	assert.Equal(t, played.ID, br.Final.Match.ID)
	assert.Equal(t, f.b[0].ID, *br.Final.WinnerID)
	assertSlot(t, f.b[0], br.Final.Player1)

	onlyStale := Resolve(f.groups, f.all, []bracket.Match{stale}, scoring.Defaults())
	assert.Equal(t, stale.ID, onlyStale.Final.Match.ID)
	assert.True(t, onlyStale.Final.Player1.IsUndetermined())
}

func TestResolve_FinalFromSemifinalWinners(t *testing.T) {
	f := newFixture()
	sf1 := decided(bracket.PhaseSemifinal, f.b[1], f.a[0])
	sf2 := decided(bracket.PhaseSemifinal, f.b[0], f.a[1])

	br := Resolve(f.groups, f.all, []bracket.Match{sf1, sf2}, scoring.Defaults())

	assert.Nil(t, br.Final.Match)
	assertSlot(t, f.b[1], br.Final.Player1)
	assertSlot(t, f.b[0], br.Final.Player2)
}

func TestResolve_KnockoutPhaseLabels(t *testing.T) {
	f := newFixture()
	semi := knockoutMatch("Semi", &f.a[0], &f.b[1])
	final := knockoutMatch("Final", nil, nil)

	br := Resolve(f.groups, f.all, []bracket.Match{final, semi}, scoring.Defaults())

	assert.Equal(t, semi.ID, br.Semifinal1.Match.ID)
	assert.Equal(t, final.ID, br.Final.Match.ID)
}

func TestResolve_IgnoresOtherKnockoutRounds(t *testing.T) {
	q := players("Q", 2)
	regs := append(append([]bracket.Registration{}, q...), players("R", 2)...)

	tests := []struct {
		name  string
		phase bracket.MatchPhase
	}{
		{"quarterfinal", "quarterfinal"},
		{"spaced quarter final", "Quarter Final"},
		{"generic knockout", "knockout"},
		{"third place playoff", "knockout third place"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := Resolve(nil, regs, []bracket.Match{decided(tt.phase, q[0], q[1])}, scoring.Defaults())

			assert.Nil(t, br.Final.Match)
			assert.Equal(t, Unbound, br.Final.Binding)
			assert.True(t, br.Final.Player1.IsUndetermined())
			assert.True(t, br.Final.Player2.IsUndetermined())
			assert.Nil(t, br.Semifinal1.Match)
			assert.Nil(t, br.Semifinal2.Match)
		})
	}
}

func TestPhaseOf(t *testing.T) {
	tests := []struct {
		label bracket.MatchPhase
		want  bracket.MatchPhase
	}{
		{"semifinal", bracket.PhaseSemifinal},
		{"Semi", bracket.PhaseSemifinal},
		{"final", bracket.PhaseFinal},
		{" Grand Final ", bracket.PhaseFinal},
		{"quarterfinal", ""},
		{"knockout", ""},
		{"groups", bracket.PhaseGroups},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			assert.Equal(t, tt.want, phaseOf(bracket.Match{Phase: tt.label}))
		})
	}
}
