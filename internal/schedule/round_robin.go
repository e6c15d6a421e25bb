package schedule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedGroupSize = errors.New("round robin groups must have 3 or 4 members")
	ErrInvalidDrawOrder     = errors.New("draw orders must be unique")
)

type OrderedMember struct {
	RegistrationID uuid.UUID
	DrawOrder      int
}

// Pairings per round number, as indices into the members sorted by draw order.
// Index 0 is the seed.
var pairings = map[int]map[int][][2]int{
	3: {
		1: {{0, 1}},
		2: {{0, 2}, {1, 2}},
	},
	4: {
		1: {{0, 1}, {2, 3}},
		2: {{0, 2}, {1, 3}},
		3: {{0, 3}, {1, 2}},
	},
}

// RoundsFor returns how many rounds a group of the given size plays.
func RoundsFor(size int) (int, error) {
	rounds, ok := pairings[size]
	if !ok {
		return 0, fmt.Errorf("%w (got %d)", ErrUnsupportedGroupSize, size)
	}
	return len(rounds), nil
}

// GenerateFixtures emits the group fixtures round by round. Rounds missing from
// the roundIDs map have not been created yet and their fixtures are left out.
func GenerateFixtures(categoryID uuid.UUID, groupID uuid.UUID, members []OrderedMember, roundIDs map[int]uuid.UUID) ([]bracket.Match, error) {
	schedule, ok := pairings[len(members)]
	if !ok {
		return nil, fmt.Errorf("%w (got %d)", ErrUnsupportedGroupSize, len(members))
	}

	ordered := make([]OrderedMember, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DrawOrder < ordered[j].DrawOrder
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i].DrawOrder == ordered[i-1].DrawOrder {
			return nil, fmt.Errorf("%w (draw order %d repeated)", ErrInvalidDrawOrder, ordered[i].DrawOrder)
		}
	}

	var matches []bracket.Match
	for roundNumber := 1; roundNumber <= len(schedule); roundNumber++ {
		roundID, exists := roundIDs[roundNumber]
		if !exists {
			continue
		}

		for _, pair := range schedule[roundNumber] {
			gid := groupID
			rid := roundID
			r1 := ordered[pair[0]].RegistrationID
			r2 := ordered[pair[1]].RegistrationID

			matches = append(matches, bracket.Match{
				ID:              uuid.New(),
				CategoryID:      categoryID,
				GroupID:         &gid,
				RoundID:         &rid,
				Phase:           bracket.PhaseGroups,
				Registration1ID: &r1,
				Registration2ID: &r2,
				Sets1:           bracket.ZeroScore(),
				Sets2:           bracket.ZeroScore(),
				Status:          bracket.MatchPending,
				ResultKind:      bracket.ResultPlayed,
			})
		}
	}

	return matches, nil
}
