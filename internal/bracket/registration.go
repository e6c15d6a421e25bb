package bracket

import "github.com/google/uuid"

type ParticipantKind string

const (
	MemberParticipant ParticipantKind = "member"
	GuestParticipant  ParticipantKind = "guest"
)

// Registration is one competitor entered in one category. Guests have no account,
// so the core only ever keys on the registration id.
type Registration struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	CategoryID  uuid.UUID       `db:"category_id" json:"category_id"`
	Class       string          `db:"class" json:"class"`
	Kind        ParticipantKind `db:"kind" json:"kind"`
	AccountName *string         `db:"account_name" json:"account_name,omitempty"`
	GuestName   *string         `db:"guest_name" json:"guest_name,omitempty"`
}

func (r Registration) DisplayName() string {
	if r.AccountName != nil && *r.AccountName != "" {
		return *r.AccountName
	}
	if r.GuestName != nil && *r.GuestName != "" {
		return *r.GuestName
	}
	return "Registration " + r.ID.String()[:8]
}

// RegistrationIndex maps ids to registrations for name lookups.
func RegistrationIndex(registrations []Registration) map[uuid.UUID]Registration {
	index := make(map[uuid.UUID]Registration, len(registrations))
	for _, r := range registrations {
		index[r.ID] = r
	}
	return index
}
