package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types sent from the server.
const (
	TypeInit          = "init"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypeSnapshot      = "snapshot"
	TypePatch         = "patch"
	TypeMobDead       = "mob_dead"
	TypeXpGained      = "xp_gained"
	TypePlayerLevelUp = "player_levelup"
	TypePlayerDamaged = "player_damaged"
	TypePlayerDied    = "player_died"
	TypeItemDropped   = "item_dropped"
	TypeKicked        = "kicked"
)

// TypeInput is the only message type accepted from clients.
const TypeInput = "input"

// Envelope is the frame wrapping every outbound message.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode wraps payload in an envelope of the given type and marshals it.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msgType, err)
	}
	return data, nil
}
