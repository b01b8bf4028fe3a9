package game

import (
	"math/rand/v2"
	"time"

	"github.com/pixil98/go-realm/internal/driver"
)

const (
	DefaultRespawnDelay    = 30 * time.Second
	DefaultEvictGrace      = 200 * time.Millisecond
	DefaultAwarenessRadius = 10.0
	DefaultIdleInterval    = 2 * time.Second
	DefaultIdleJitter      = 0.5
	DefaultFlushTimeout    = 5 * time.Second
)

type RoomOpt func(*Room)

// WithTickLength sets both the tick period and the movement time quantum.
func WithTickLength(d time.Duration) RoomOpt {
	return func(r *Room) {
		r.quantum = d
		r.driverOpts = append(r.driverOpts, driver.WithTickLength(d))
	}
}

// WithCommandQueue sets how many commands may wait for the room goroutine
// before submitters block.
func WithCommandQueue(n int) RoomOpt {
	return func(r *Room) {
		r.driverOpts = append(r.driverOpts, driver.WithQueueSize(n))
	}
}

func WithClock(clock func() time.Time) RoomOpt {
	return func(r *Room) {
		r.clock = clock
		r.driverOpts = append(r.driverOpts, driver.WithClock(clock))
	}
}

// WithRand seeds spawn positions, idle wandering and loot rolls.
func WithRand(rng *rand.Rand) RoomOpt {
	return func(r *Room) {
		r.rng = rng
	}
}

// WithIdGenerator replaces uuid mob ids.
func WithIdGenerator(newId func() string) RoomOpt {
	return func(r *Room) {
		r.newId = newId
	}
}

func WithRespawnDelay(d time.Duration) RoomOpt {
	return func(r *Room) {
		r.respawnDelay = d
	}
}

// WithEvictGrace sets how long a superseded session has to receive its
// kicked notice before it is disconnected.
func WithEvictGrace(d time.Duration) RoomOpt {
	return func(r *Room) {
		r.evictGrace = d
	}
}

// WithAwarenessRadius sets, in world units, how close a player must be for a
// mob to chase.
func WithAwarenessRadius(radius float64) RoomOpt {
	return func(r *Room) {
		r.awareness = radius
	}
}

func WithIdleWander(interval time.Duration, jitter float64) RoomOpt {
	return func(r *Room) {
		r.idleInterval = interval
		r.idleJitter = jitter
	}
}

func WithKeyframeInterval(ticks int) RoomOpt {
	return func(r *Room) {
		r.keyframeInterval = ticks
	}
}
