package game

import (
	"math"
	"time"

	"github.com/pixil98/go-realm/internal/protocol"
	"github.com/pixil98/go-realm/internal/storage"
)

// RangeScale converts map units, used by content and persisted stats for
// ranges and speeds, into world units.
const RangeScale = 20.0

// Identity is the authenticated account behind a session.
type Identity int64

// Player is a connected character.
type Player struct {
	SessionId   string
	Identity    Identity
	CharacterId int64
	Name        string
	Class       string

	X float64
	Y float64

	Hp          int
	MaxHp       int
	AttackPower int
	Defense     int
	AttackRange float64
	AttackSpeed float64
	MoveSpeed   float64
	Level       int
	Xp          int

	LastAttack time.Time

	class *CharacterClass
}

// Stats is the snapshot persisted for the character.
func (p *Player) Stats() storage.CharacterStats {
	return storage.CharacterStats{
		Level:       p.Level,
		Xp:          p.Xp,
		Hp:          p.Hp,
		MaxHp:       p.MaxHp,
		AttackPower: p.AttackPower,
		Defense:     p.Defense,
		X:           p.X,
		Y:           p.Y,
	}
}

func (p *Player) View() protocol.PlayerView {
	return protocol.PlayerView{
		Id:    p.SessionId,
		Name:  p.Name,
		Class: p.Class,
		X:     p.X,
		Y:     p.Y,
		Hp:    p.Hp,
		MaxHp: p.MaxHp,
		Level: p.Level,
		Xp:    p.Xp,
	}
}

// Mob is a spawned hostile entity.
type Mob struct {
	Id   string
	Type string
	Name string

	X float64
	Y float64
	// Home is the zone the mob was spawned for; respawns return there.
	Home ZoneKey

	Hp          int
	MaxHp       int
	Level       int
	AttackPower int
	Defense     int
	XpReward    int
	DropRate    float64
	AttackRange float64
	AttackSpeed float64
	MoveSpeed   float64
	Drops       []int64

	LastAttack time.Time
	LastMove   time.Time
	SpawnTime  time.Time
}

func newMob(id, mobType string, tmpl *MobTemplate, x, y float64, now time.Time) *Mob {
	drops := make([]int64, len(tmpl.Drops))
	copy(drops, tmpl.Drops)

	return &Mob{
		Id:          id,
		Type:        mobType,
		Name:        tmpl.Name,
		X:           x,
		Y:           y,
		Hp:          tmpl.Hp,
		MaxHp:       tmpl.Hp,
		Level:       tmpl.Level,
		AttackPower: tmpl.AttackPower,
		Defense:     tmpl.Defense,
		XpReward:    tmpl.XpReward,
		DropRate:    tmpl.DropRate,
		AttackRange: tmpl.AttackRange,
		AttackSpeed: tmpl.AttackSpeed,
		MoveSpeed:   tmpl.MoveSpeed,
		Drops:       drops,
		LastMove:    now,
		SpawnTime:   now,
	}
}

func (m *Mob) View() protocol.MobView {
	return protocol.MobView{
		Id:    m.Id,
		Type:  m.Type,
		Name:  m.Name,
		X:     m.X,
		Y:     m.Y,
		Hp:    m.Hp,
		MaxHp: m.MaxHp,
		Level: m.Level,
	}
}

// attackCooldown is 1000 / attackSpeed milliseconds. A non-positive speed
// never comes off cooldown.
func attackCooldown(attackSpeed float64) time.Duration {
	if attackSpeed <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(float64(time.Second) / attackSpeed)
}

// offCooldown reports whether an attacker that last struck at last may strike
// again at now. The zero time always passes.
func offCooldown(last time.Time, attackSpeed float64, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= attackCooldown(attackSpeed)
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
