package game

import (
	"maps"
	"slices"

	"github.com/pixil98/go-realm/internal/protocol"
)

const DefaultKeyframeInterval = 50

// Replicator turns the world into the per-tick wire update. It remembers what
// was last broadcast and sends either a full snapshot (a keyframe) or a patch
// holding only what changed since then.
type Replicator struct {
	keyframeInterval uint64
	seq              uint64
	forceKeyframe    bool

	players map[string]protocol.PlayerView
	mobs    map[string]protocol.MobView
}

func NewReplicator(keyframeInterval int) *Replicator {
	if keyframeInterval < 1 {
		keyframeInterval = 1
	}
	return &Replicator{
		keyframeInterval: uint64(keyframeInterval),
		forceKeyframe:    true,
		players:          map[string]protocol.PlayerView{},
		mobs:             map[string]protocol.MobView{},
	}
}

// ForceKeyframe makes the next Step a full snapshot.
func (r *Replicator) ForceKeyframe() {
	r.forceKeyframe = true
}

// Step returns the message type and payload for this tick. An empty type
// means nothing changed and nothing needs sending.
func (r *Replicator) Step(w *WorldState) (string, any) {
	r.seq++

	players := make(map[string]protocol.PlayerView, w.PlayerCount())
	for _, p := range w.Players() {
		players[p.SessionId] = p.View()
	}
	mobs := make(map[string]protocol.MobView, w.MobCount())
	for _, m := range w.Mobs() {
		mobs[m.Id] = m.View()
	}

	keyframe := r.forceKeyframe || r.seq%r.keyframeInterval == 0
	r.forceKeyframe = false

	var msgType string
	var payload any
	if keyframe {
		msgType = protocol.TypeSnapshot
		payload = protocol.SnapshotPayload{
			Seq:     r.seq,
			Players: orderedViews(players),
			Mobs:    orderedViews(mobs),
		}
	} else {
		patch := protocol.PatchPayload{
			Seq:     r.seq,
			Players: diff(r.players, players, playerChanges),
			Mobs:    diff(r.mobs, mobs, mobChanges),
		}
		if !patch.Players.Empty() || !patch.Mobs.Empty() {
			msgType = protocol.TypePatch
			payload = patch
		}
	}

	r.players = players
	r.mobs = mobs
	return msgType, payload
}

func orderedViews[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

func diff[V any](prev, cur map[string]V, changes func(id string, a, b V) map[string]any) protocol.Changes[V] {
	var c protocol.Changes[V]
	for _, id := range slices.Sorted(maps.Keys(cur)) {
		v := cur[id]
		old, ok := prev[id]
		if !ok {
			c.Added = append(c.Added, v)
			continue
		}
		if ch := changes(id, old, v); ch != nil {
			c.Changed = append(c.Changed, ch)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(prev)) {
		if _, ok := cur[id]; !ok {
			c.Removed = append(c.Removed, id)
		}
	}
	return c
}

// fieldSet collects changed fields keyed by their wire name.
type fieldSet map[string]any

func (f fieldSet) set(name string, changed bool, v any) {
	if changed {
		f[name] = v
	}
}

func (f fieldSet) result(id string) map[string]any {
	if len(f) == 0 {
		return nil
	}
	f["id"] = id
	return f
}

func playerChanges(id string, a, b protocol.PlayerView) map[string]any {
	f := fieldSet{}
	f.set("name", a.Name != b.Name, b.Name)
	f.set("class", a.Class != b.Class, b.Class)
	f.set("x", a.X != b.X, b.X)
	f.set("y", a.Y != b.Y, b.Y)
	f.set("z", a.Z != b.Z, b.Z)
	f.set("hp", a.Hp != b.Hp, b.Hp)
	f.set("maxHp", a.MaxHp != b.MaxHp, b.MaxHp)
	f.set("level", a.Level != b.Level, b.Level)
	f.set("xp", a.Xp != b.Xp, b.Xp)
	return f.result(id)
}

func mobChanges(id string, a, b protocol.MobView) map[string]any {
	f := fieldSet{}
	f.set("type", a.Type != b.Type, b.Type)
	f.set("name", a.Name != b.Name, b.Name)
	f.set("x", a.X != b.X, b.X)
	f.set("y", a.Y != b.Y, b.Y)
	f.set("z", a.Z != b.Z, b.Z)
	f.set("hp", a.Hp != b.Hp, b.Hp)
	f.set("maxHp", a.MaxHp != b.MaxHp, b.MaxHp)
	f.set("level", a.Level != b.Level, b.Level)
	return f.result(id)
}
