package service

import (
	"strings"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
)

type RegistrationInput struct {
	Name  string
	Class string
	Kind  bracket.ParticipantKind
}

const guestPrefix = "guest:"

// ParseRegistrationLines turns one name per line into registration inputs.
// Lines starting with "guest:" register a guest, blank lines are skipped.
func ParseRegistrationLines(class, text string) []RegistrationInput {
	var inputs []RegistrationInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		kind := bracket.MemberParticipant
		if strings.HasPrefix(strings.ToLower(line), guestPrefix) {
			kind = bracket.GuestParticipant
			line = strings.TrimSpace(line[len(guestPrefix):])
			if line == "" {
				continue
			}
		}

		inputs = append(inputs, RegistrationInput{Name: line, Class: class, Kind: kind})
	}
	return inputs
}
