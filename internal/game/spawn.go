package game

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// SpawnDirector places mobs into the world according to the zone grid.
type SpawnDirector struct {
	catalog  *Catalog
	grid     *ZoneGrid
	world    *WorldState
	schedule *Schedule
	rng      *rand.Rand
	newId    func() string
}

func NewSpawnDirector(catalog *Catalog, grid *ZoneGrid, world *WorldState, schedule *Schedule, rng *rand.Rand, newId func() string) *SpawnDirector {
	return &SpawnDirector{
		catalog:  catalog,
		grid:     grid,
		world:    world,
		schedule: schedule,
		rng:      rng,
		newId:    newId,
	}
}

// Populate spawns every biome's configured count at random points in its
// zone and returns how many mobs were created.
func (d *SpawnDirector) Populate(now time.Time) int {
	spawned := 0
	for _, b := range d.grid.Biomes() {
		for range b.Count {
			x, y := d.grid.RandomPoint(b.Zone, d.rng)
			if d.SpawnAt(x, y, now) != nil {
				spawned++
			}
		}
	}
	return spawned
}

// SpawnAt creates a mob of the type mapped to the zone containing (x, y).
// It returns nil when that type has no template.
func (d *SpawnDirector) SpawnAt(x, y float64, now time.Time) *Mob {
	zone := d.grid.ZoneAt(x, y)
	mobType := d.grid.MobType(zone, d.catalog.DefaultMob())

	tmpl, ok := d.catalog.Mob(mobType)
	if !ok {
		slog.Warn("skipping spawn", "mob_type", mobType, "zone_x", zone.X, "zone_y", zone.Y, "error", ErrUnknownMobType)
		return nil
	}

	x, y = d.grid.Clamp(x, y)
	m := newMob(d.newId(), mobType, tmpl, x, y, now)
	m.Home = zone
	d.world.AddMob(m)
	return m
}

// ScheduleRespawn arms a spawn in zone after delay. The new mob lands at a
// fresh random point in that zone.
func (d *SpawnDirector) ScheduleRespawn(zone ZoneKey, delay time.Duration, now time.Time) {
	d.schedule.At(now.Add(delay), "respawn", func(now time.Time) {
		rx, ry := d.grid.RandomPoint(zone, d.rng)
		d.SpawnAt(rx, ry, now)
	})
}
