package game

import (
	"context"
	"time"

	"github.com/pixil98/go-realm/internal/protocol"
)

func (r *Room) applyInput(ctx context.Context, now time.Time, sid string, cmds []protocol.Command) {
	p := r.world.Player(sid)
	if p == nil {
		return
	}

	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case protocol.MoveCommand:
			r.move(p, c)
		case protocol.AttackCommand:
			r.playerAttack(ctx, now, p)
		}
	}
}

// move advances the player by one quantum of the requested velocity.
func (r *Room) move(p *Player, c protocol.MoveCommand) {
	q := r.quantum.Seconds()
	x := p.X + protocol.Finite(c.Vx)*q
	y := p.Y + protocol.Finite(c.Vy)*q
	p.X, p.Y = r.grid.Clamp(x, y)
}

// playerAttack strikes the nearest mob in range. Attacks inside the cooldown
// are dropped without a reply.
func (r *Room) playerAttack(ctx context.Context, now time.Time, p *Player) {
	if !offCooldown(p.LastAttack, p.AttackSpeed, now) {
		return
	}
	p.LastAttack = now

	target := r.nearestMob(p.X, p.Y, p.AttackRange/RangeScale)
	if target == nil {
		return
	}
	r.hitMob(ctx, now, p, target)
}

// nearestMob returns the closest mob within reach. Mobs are visited in id
// order and only a strictly closer mob replaces the current pick, so ties go
// to the lowest id.
func (r *Room) nearestMob(x, y, reach float64) *Mob {
	var best *Mob
	bestDist := reach
	for _, m := range r.world.Mobs() {
		d := distance(x, y, m.X, m.Y)
		if d > reach {
			continue
		}
		if best == nil || d < bestDist {
			best = m
			bestDist = d
		}
	}
	return best
}

// nearestPlayer returns the closest player to a point, ties to the lowest
// session id.
func (r *Room) nearestPlayer(x, y float64) (*Player, float64) {
	var best *Player
	var bestDist float64
	for _, p := range r.world.Players() {
		d := distance(x, y, p.X, p.Y)
		if best == nil || d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best, bestDist
}
