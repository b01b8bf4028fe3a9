package game

import (
	"maps"
	"slices"
)

// WorldState holds the live entities of one room. It is owned by the room
// goroutine and is not safe for concurrent use.
type WorldState struct {
	players map[string]*Player
	mobs    map[string]*Mob
}

func NewWorldState() *WorldState {
	return &WorldState{
		players: map[string]*Player{},
		mobs:    map[string]*Mob{},
	}
}

// Player returns the player for a session, or nil.
func (w *WorldState) Player(sessionId string) *Player {
	return w.players[sessionId]
}

func (w *WorldState) AddPlayer(p *Player) {
	w.players[p.SessionId] = p
}

// RemovePlayer deletes and returns the player for a session, or nil if there
// was none.
func (w *WorldState) RemovePlayer(sessionId string) *Player {
	p, ok := w.players[sessionId]
	if !ok {
		return nil
	}
	delete(w.players, sessionId)
	return p
}

// Players returns every player ordered by session id.
func (w *WorldState) Players() []*Player {
	return sortedValues(w.players)
}

func (w *WorldState) PlayerCount() int {
	return len(w.players)
}

// Mob returns the mob with the given id, or nil.
func (w *WorldState) Mob(id string) *Mob {
	return w.mobs[id]
}

func (w *WorldState) AddMob(m *Mob) {
	w.mobs[m.Id] = m
}

func (w *WorldState) RemoveMob(id string) *Mob {
	m, ok := w.mobs[id]
	if !ok {
		return nil
	}
	delete(w.mobs, id)
	return m
}

// Mobs returns every mob ordered by id.
func (w *WorldState) Mobs() []*Mob {
	return sortedValues(w.mobs)
}

func (w *WorldState) MobCount() int {
	return len(w.mobs)
}

func sortedValues[V any](m map[string]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	vals := make([]V, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, m[k])
	}
	return vals
}
