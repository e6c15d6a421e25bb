package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the point values used to build standings.
type Rules struct {
	Victory       int `yaml:"victory" json:"pts_victory"`
	Defeat        int `yaml:"defeat" json:"pts_defeat"`
	WoVictory     int `yaml:"wo_victory" json:"pts_wo_victory"`
	Set           int `yaml:"set" json:"pts_set"`
	Game          int `yaml:"game" json:"pts_game"`
	TechnicalDraw int `yaml:"technical_draw" json:"pts_technical_draw"`
}

func Defaults() Rules {
	return Rules{
		Victory:       3,
		Defeat:        0,
		WoVictory:     3,
		Set:           0,
		Game:          0,
		TechnicalDraw: 1,
	}
}

// Overrides is a partial Rules. Nil fields keep the value underneath.
type Overrides struct {
	Victory       *int `yaml:"victory"`
	Defeat        *int `yaml:"defeat"`
	WoVictory     *int `yaml:"wo_victory"`
	Set           *int `yaml:"set"`
	Game          *int `yaml:"game"`
	TechnicalDraw *int `yaml:"technical_draw"`
}

func (o Overrides) IsEmpty() bool {
	return o == Overrides{}
}

// Resolve applies each layer over base in order, later layers winning.
func Resolve(base Rules, layers ...Overrides) Rules {
	r := base
	for _, o := range layers {
		apply(&r.Victory, o.Victory)
		apply(&r.Defeat, o.Defeat)
		apply(&r.WoVictory, o.WoVictory)
		apply(&r.Set, o.Set)
		apply(&r.Game, o.Game)
		apply(&r.TechnicalDraw, o.TechnicalDraw)
	}
	return r
}

func apply(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// LoadFile reads overrides from a YAML file. An empty path means no overrides.
func LoadFile(path string) (Overrides, error) {
	var o Overrides
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return o, nil
		}
		return o, fmt.Errorf("failed to read scoring file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("failed to parse scoring file %s: %w", path, err)
	}
	return o, nil
}
