package service

import "errors"

var (
	ErrFixturesExist       = errors.New("group already has fixtures")
	ErrInvalidGroupSize    = errors.New("a group needs 3 or 4 registrations")
	ErrForeignRegistration = errors.New("registration does not belong to the category")
	ErrDuplicateMember     = errors.New("registration listed twice")
	ErrAlreadyDrawn        = errors.New("registration already belongs to a group")
	ErrEmptyName           = errors.New("name is required")
	ErrNoGroupRounds       = errors.New("category has no group-phase rounds")
	ErrInvalidRoundNumber  = errors.New("round numbers start at 1")
	ErrNotKnockoutPhase    = errors.New("phase is not a knockout phase")
	ErrOperatorRequired    = errors.New("operator not found in the context")
)
