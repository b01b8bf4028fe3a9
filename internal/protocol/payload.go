package protocol

import "encoding/json"

// PlayerView is the replicated form of a player.
type PlayerView struct {
	Id    string  `json:"id"`
	Name  string  `json:"name"`
	Class string  `json:"class"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Hp    int     `json:"hp"`
	MaxHp int     `json:"maxHp"`
	Level int     `json:"level"`
	Xp    int     `json:"xp"`
}

// MobView is the replicated form of a mob.
type MobView struct {
	Id    string  `json:"id"`
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Hp    int     `json:"hp"`
	MaxHp int     `json:"maxHp"`
	Level int     `json:"level"`
}

type InitPayload struct {
	Id      string       `json:"id"`
	Players []PlayerView `json:"players"`
	Mobs    []MobView    `json:"mobs"`
}

type SnapshotPayload struct {
	Seq     uint64       `json:"seq"`
	Players []PlayerView `json:"players"`
	Mobs    []MobView    `json:"mobs"`
}

// Changes lists what happened to one entity collection since the last
// broadcast. Changed entries hold the entity id plus only the fields that
// differ.
type Changes[T any] struct {
	Added   []T              `json:"added,omitempty"`
	Removed []string         `json:"removed,omitempty"`
	Changed []map[string]any `json:"changed,omitempty"`
}

// Empty reports whether nothing changed.
func (c Changes[T]) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

type PatchPayload struct {
	Seq     uint64              `json:"seq"`
	Players Changes[PlayerView] `json:"players"`
	Mobs    Changes[MobView]    `json:"mobs"`
}

type PlayerJoinedPayload struct {
	Id    string  `json:"id"`
	Name  string  `json:"name"`
	Class string  `json:"class"`
	Level int     `json:"level"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type PlayerLeftPayload struct {
	Id string `json:"id"`
}

type MobDeadPayload struct {
	Id       string `json:"id"`
	Type     string `json:"type"`
	KillerId string `json:"killerId,omitempty"`
}

type XpGainedPayload struct {
	Id     string `json:"id"`
	Amount int    `json:"amount"`
	Xp     int    `json:"xp"`
	Level  int    `json:"level"`
}

type PlayerLevelUpPayload struct {
	Id          string `json:"id"`
	Level       int    `json:"level"`
	Xp          int    `json:"xp"`
	Hp          int    `json:"hp"`
	MaxHp       int    `json:"maxHp"`
	AttackPower int    `json:"attackPower"`
	Defense     int    `json:"defense"`
}

type PlayerDamagedPayload struct {
	Id       string `json:"id"`
	SourceId string `json:"sourceId"`
	Damage   int    `json:"damage"`
	Hp       int    `json:"hp"`
	MaxHp    int    `json:"maxHp"`
}

type PlayerDiedPayload struct {
	Id       string  `json:"id"`
	KillerId string  `json:"killerId"`
	XpLost   int     `json:"xpLost"`
	Xp       int     `json:"xp"`
	Hp       int     `json:"hp"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type ItemView struct {
	Id     int64           `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Rarity string          `json:"rarity"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type ItemDroppedPayload struct {
	Item    ItemView `json:"item"`
	MobId   string   `json:"mobId"`
	MobType string   `json:"mobType"`
	Message string   `json:"message"`
}

type KickedPayload struct {
	Reason string `json:"reason"`
}
