package game

import (
	"context"
	"time"
)

// runAI moves or attacks with every mob, in id order.
func (r *Room) runAI(ctx context.Context, now time.Time) {
	for _, m := range r.world.Mobs() {
		target, dist := r.nearestPlayer(m.X, m.Y)

		switch {
		case target == nil || dist > r.awareness:
			r.wander(m, now)
		case dist <= m.AttackRange/RangeScale:
			if offCooldown(m.LastAttack, m.AttackSpeed, now) {
				m.LastAttack = now
				r.hitPlayer(ctx, now, m, target)
			}
		default:
			r.chase(m, target, dist, now)
		}
	}
}

// wander nudges an idle mob by a small random offset, at most once per idle
// interval.
func (r *Room) wander(m *Mob, now time.Time) {
	if now.Sub(m.LastMove) < r.idleInterval {
		return
	}
	dx := (r.rng.Float64()*2 - 1) * r.idleJitter
	dy := (r.rng.Float64()*2 - 1) * r.idleJitter
	m.X, m.Y = r.grid.Clamp(m.X+dx, m.Y+dy)
	m.LastMove = now
}

// chase steps straight toward the target without overshooting it.
func (r *Room) chase(m *Mob, target *Player, dist float64, now time.Time) {
	if dist == 0 {
		return
	}
	step := min(m.MoveSpeed/RangeScale*r.quantum.Seconds(), dist)
	x := m.X + (target.X-m.X)/dist*step
	y := m.Y + (target.Y-m.Y)/dist*step
	m.X, m.Y = r.grid.Clamp(x, y)
	m.LastMove = now
}
