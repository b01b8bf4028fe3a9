package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
)

// MobTemplate is the immutable stat blueprint of one mob type. Ranges and
// speeds are in map units; see RangeScale.
type MobTemplate struct {
	Name        string  `json:"name"`
	Level       int     `json:"level"`
	Hp          int     `json:"hp"`
	AttackPower int     `json:"attack_power"`
	Defense     int     `json:"defense"`
	XpReward    int     `json:"xp_reward"`
	DropRate    float64 `json:"drop_rate"`
	AttackRange float64 `json:"attack_range"`
	AttackSpeed float64 `json:"attack_speed"`
	MoveSpeed   float64 `json:"move_speed"`
	Drops       []int64 `json:"drops"`
}

func (m *MobTemplate) Validate() error {
	el := errors.NewErrorList()

	if m.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if m.Level < 1 {
		el.Add(fmt.Errorf("level must be at least 1"))
	}
	if m.Hp < 1 {
		el.Add(fmt.Errorf("hp must be at least 1"))
	}
	if m.AttackPower < 0 || m.Defense < 0 || m.XpReward < 0 {
		el.Add(fmt.Errorf("attack_power, defense and xp_reward must not be negative"))
	}
	if m.DropRate < 0 || m.DropRate > 1 {
		el.Add(fmt.Errorf("drop_rate must be between 0 and 1"))
	}
	if m.AttackSpeed <= 0 {
		el.Add(fmt.Errorf("attack_speed must be positive"))
	}
	if m.AttackRange < 0 || m.MoveSpeed < 0 {
		el.Add(fmt.Errorf("attack_range and move_speed must not be negative"))
	}

	return el.Err()
}

// ClassStats are the starting stats of a freshly created character.
type ClassStats struct {
	Hp          int     `json:"hp"`
	AttackPower int     `json:"attack_power"`
	Defense     int     `json:"defense"`
	AttackRange float64 `json:"attack_range"`
	AttackSpeed float64 `json:"attack_speed"`
	MoveSpeed   float64 `json:"move_speed"`
}

// CharacterClass holds the base stats and per-level growth of a class.
type CharacterClass struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	BaseStats       ClassStats `json:"base_stats"`
	HpPerLevel      int        `json:"hp_per_level"`
	AttackPerLevel  int        `json:"attack_per_level"`
	DefensePerLevel int        `json:"defense_per_level"`
}

func (c *CharacterClass) Validate() error {
	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if c.BaseStats.Hp < 1 {
		el.Add(fmt.Errorf("base_stats.hp must be at least 1"))
	}
	if c.BaseStats.AttackSpeed <= 0 {
		el.Add(fmt.Errorf("base_stats.attack_speed must be positive"))
	}
	if c.HpPerLevel < 0 || c.AttackPerLevel < 0 || c.DefensePerLevel < 0 {
		el.Add(fmt.Errorf("per level increments must not be negative"))
	}

	return el.Err()
}

// Catalog is the read-only content a room is built from.
type Catalog struct {
	mobs       storage.Storer[*MobTemplate]
	classes    storage.Storer[*CharacterClass]
	defaultMob string
}

// NewCatalog fails with ErrEmptyCatalog when there are no mob templates, and
// when the fallback type is not one of them.
func NewCatalog(mobs storage.Storer[*MobTemplate], classes storage.Storer[*CharacterClass], defaultMob string) (*Catalog, error) {
	if len(mobs.GetAll()) == 0 {
		return nil, ErrEmptyCatalog
	}
	if mobs.Get(defaultMob) == nil {
		return nil, fmt.Errorf("default mob type %q: %w", defaultMob, ErrUnknownMobType)
	}

	return &Catalog{
		mobs:       mobs,
		classes:    classes,
		defaultMob: defaultMob,
	}, nil
}

// Mob returns the template for type t.
func (c *Catalog) Mob(t string) (*MobTemplate, bool) {
	m := c.mobs.Get(t)
	return m, m != nil
}

// Class returns the class named name, ignoring case.
func (c *Catalog) Class(name string) (*CharacterClass, bool) {
	cl := c.classes.Get(strings.ToLower(name))
	return cl, cl != nil
}

// DefaultMob is the type used for unmapped zones.
func (c *Catalog) DefaultMob() string {
	return c.defaultMob
}
