package bracket

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at"`

	// Nullable scoring overrides, merged over the configured defaults
	PtsVictory       *int `db:"pts_victory"`
	PtsDefeat        *int `db:"pts_defeat"`
	PtsWoVictory     *int `db:"pts_wo_victory"`
	PtsSet           *int `db:"pts_set"`
	PtsGame          *int `db:"pts_game"`
	PtsTechnicalDraw *int `db:"pts_technical_draw"`
}

type Group struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CategoryID uuid.UUID  `db:"category_id" json:"category_id"`
	Name       string     `db:"name" json:"name"`
	SeedID     *uuid.UUID `db:"seed_id" json:"seed_id,omitempty"`
}

type GroupMember struct {
	GroupID        uuid.UUID `db:"group_id"`
	RegistrationID uuid.UUID `db:"registration_id"`
	DrawOrder      int       `db:"draw_order"`
}

type RoundPhase string

const (
	GroupRound     RoundPhase = "classificatoria"
	SemifinalRound RoundPhase = "mata-mata-semifinal"
	FinalRound     RoundPhase = "mata-mata-final"
)

const (
	knockoutPrefix   = "mata-mata"
	knockoutRoundTag = "knockout"
)

func (p RoundPhase) IsKnockout() bool {
	s := strings.ToLower(strings.TrimSpace(string(p)))
	return strings.HasPrefix(s, knockoutPrefix) || strings.Contains(s, knockoutRoundTag)
}

type Round struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CategoryID uuid.UUID  `db:"category_id" json:"category_id"`
	Number     int        `db:"number" json:"number"`
	Phase      RoundPhase `db:"phase" json:"phase"`
}
