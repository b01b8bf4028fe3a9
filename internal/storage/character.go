package storage

import "encoding/json"

// Character is the persisted form of a playable character.
type Character struct {
	Id          int64
	UserId      int64
	Name        string
	Class       string
	Level       int
	Xp          int
	Hp          int
	MaxHp       int
	AttackPower int
	Defense     int
	AttackRange float64
	AttackSpeed float64
	MoveSpeed   float64
	X           float64
	Y           float64
}

// CharacterStats is the subset of a character written back during play.
type CharacterStats struct {
	Level       int
	Xp          int
	Hp          int
	MaxHp       int
	AttackPower int
	Defense     int
	X           float64
	Y           float64
}

// Item is an entry of the item table, appended to inventories as loot.
type Item struct {
	Id     int64           `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Rarity string          `json:"rarity"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// User is an account able to log in.
type User struct {
	Id           int64
	Email        string
	PasswordHash string
}
