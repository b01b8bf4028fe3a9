package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-realm/internal/display"
	"github.com/pixil98/go-realm/internal/protocol"
	"github.com/pixil98/go-realm/internal/storage"
)

func (r *Room) hitMob(ctx context.Context, now time.Time, p *Player, m *Mob) {
	m.Hp = max(0, m.Hp-Damage(p.AttackPower, m.Defense))
	if m.Hp == 0 {
		r.killMob(ctx, now, p, m)
	}
}

// killMob resolves a mob death in one step so the dead mob never outlives it.
func (r *Room) killMob(ctx context.Context, now time.Time, killer *Player, m *Mob) {
	killer.Xp += m.XpReward
	r.broadcast(ctx, protocol.TypeXpGained, protocol.XpGainedPayload{
		Id:     killer.SessionId,
		Amount: m.XpReward,
		Xp:     killer.Xp,
		Level:  killer.Level,
	}, "")

	for _, level := range applyLevelUps(killer, killer.class) {
		r.broadcast(ctx, protocol.TypePlayerLevelUp, protocol.PlayerLevelUpPayload{
			Id:          killer.SessionId,
			Level:       level,
			Xp:          killer.Xp,
			Hp:          killer.Hp,
			MaxHp:       killer.MaxHp,
			AttackPower: killer.AttackPower,
			Defense:     killer.Defense,
		}, "")
		slog.InfoContext(ctx, "player levelled up", "room", r.id, "character", killer.CharacterId, "level", level)
	}
	r.save(killer)

	r.rollLoot(ctx, killer, m)

	r.world.RemoveMob(m.Id)
	r.broadcast(ctx, protocol.TypeMobDead, protocol.MobDeadPayload{
		Id:       m.Id,
		Type:     m.Type,
		KillerId: killer.SessionId,
	}, "")

	r.spawner.ScheduleRespawn(m.Home, r.respawnDelay, now)
}

func (r *Room) hitPlayer(ctx context.Context, now time.Time, m *Mob, p *Player) {
	dmg := Damage(m.AttackPower, p.Defense)
	p.Hp = max(0, p.Hp-dmg)

	r.broadcast(ctx, protocol.TypePlayerDamaged, protocol.PlayerDamagedPayload{
		Id:       p.SessionId,
		SourceId: m.Id,
		Damage:   dmg,
		Hp:       p.Hp,
		MaxHp:    p.MaxHp,
	}, "")

	if p.Hp == 0 {
		r.killPlayer(ctx, p, m)
	}
}

// killPlayer respawns the player at the origin with full hp, minus part of
// their xp.
func (r *Room) killPlayer(ctx context.Context, p *Player, killer *Mob) {
	lost := deathPenalty(p)
	p.Hp = p.MaxHp
	p.X, p.Y = r.grid.Clamp(0, 0)

	r.broadcast(ctx, protocol.TypePlayerDied, protocol.PlayerDiedPayload{
		Id:       p.SessionId,
		KillerId: killer.Id,
		XpLost:   lost,
		Xp:       p.Xp,
		Hp:       p.Hp,
		X:        p.X,
		Y:        p.Y,
	}, "")
	r.save(p)

	slog.InfoContext(ctx, "player died", "room", r.id, "character", p.CharacterId, "mob", killer.Type, "xp_lost", lost)
}

// rollLoot draws once against the drop rate and, on success, once more to
// pick the item. Persisting the item and notifying the killer happen off the
// room goroutine.
func (r *Room) rollLoot(ctx context.Context, killer *Player, m *Mob) {
	if len(m.Drops) == 0 || r.rng.Float64() >= m.DropRate {
		return
	}
	itemId := m.Drops[r.rng.IntN(len(m.Drops))]

	characterId := killer.CharacterId
	identity := killer.Identity
	mobId, mobType := m.Id, m.Type

	err := r.jobs.Enqueue("loot", func(ctx context.Context) error {
		item, err := r.chars.LookupItem(ctx, itemId)
		if err != nil {
			return fmt.Errorf("looking up drop from %s: %w", mobType, err)
		}
		err = r.chars.AppendInventoryItem(ctx, characterId, item)
		if err != nil {
			return fmt.Errorf("storing drop for character %d: %w", characterId, err)
		}
		r.post(func(ctx context.Context, _ time.Time) {
			r.deliverDrop(ctx, identity, item, mobId, mobType)
		})
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "loot dropped", "room", r.id, "character", characterId, "item", itemId, "error", err)
	}
}

// deliverDrop notifies whichever session owns the identity now.
func (r *Room) deliverDrop(ctx context.Context, identity Identity, item *storage.Item, mobId, mobType string) {
	sid, ok := r.registry.Owner(identity)
	if !ok {
		return
	}

	name := mobType
	if tmpl, ok := r.catalog.Mob(mobType); ok {
		name = tmpl.Name
	}

	r.send(ctx, sid, protocol.TypeItemDropped, protocol.ItemDroppedPayload{
		Item: protocol.ItemView{
			Id:     item.Id,
			Name:   item.Name,
			Type:   item.Type,
			Rarity: item.Rarity,
			Data:   item.Data,
		},
		MobId:   mobId,
		MobType: mobType,
		Message: display.ItemNotice(item.Name, item.Rarity, name),
	})
}
