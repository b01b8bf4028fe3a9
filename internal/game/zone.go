package game

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ZoneKey addresses one cell of the zone grid. The centre cell is (0, 0).
type ZoneKey struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Biome assigns a mob type and a population to one zone.
type Biome struct {
	Zone    ZoneKey `json:"zone"`
	MobType string  `json:"mob_type"`
	Count   int     `json:"count"`
}

// ZoneGrid partitions the map into an odd number of equally sized zones
// centred on the origin. Its outer edge is the world boundary.
type ZoneGrid struct {
	width  float64
	height float64
	halfX  int
	halfY  int
	biomes []Biome
	byZone map[ZoneKey]Biome
}

func NewZoneGrid(width, height float64, cols, rows int, biomes []Biome) (*ZoneGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("zone size must be positive")
	}
	if cols < 1 || rows < 1 || cols%2 == 0 || rows%2 == 0 {
		return nil, fmt.Errorf("zone grid must have an odd number of columns and rows")
	}

	g := &ZoneGrid{
		width:  width,
		height: height,
		halfX:  cols / 2,
		halfY:  rows / 2,
		byZone: make(map[ZoneKey]Biome, len(biomes)),
	}

	for _, b := range biomes {
		if !g.contains(b.Zone) {
			return nil, fmt.Errorf("biome zone (%d, %d) is outside the grid", b.Zone.X, b.Zone.Y)
		}
		if _, dup := g.byZone[b.Zone]; dup {
			return nil, fmt.Errorf("biome zone (%d, %d) is mapped twice", b.Zone.X, b.Zone.Y)
		}
		g.byZone[b.Zone] = b
		g.biomes = append(g.biomes, b)
	}

	return g, nil
}

func (g *ZoneGrid) contains(k ZoneKey) bool {
	return k.X >= -g.halfX && k.X <= g.halfX && k.Y >= -g.halfY && k.Y <= g.halfY
}

// Biomes returns the configured biomes in configuration order.
func (g *ZoneGrid) Biomes() []Biome {
	return g.biomes
}

// Bounds returns the world rectangle.
func (g *ZoneGrid) Bounds() (minX, minY, maxX, maxY float64) {
	maxX = (float64(g.halfX) + 0.5) * g.width
	maxY = (float64(g.halfY) + 0.5) * g.height
	return -maxX, -maxY, maxX, maxY
}

// Clamp pulls a point inside the world bounds.
func (g *ZoneGrid) Clamp(x, y float64) (float64, float64) {
	minX, minY, maxX, maxY := g.Bounds()
	return math.Max(minX, math.Min(maxX, x)), math.Max(minY, math.Min(maxY, y))
}

// ZoneAt returns the zone containing a point. Points on or beyond the world
// edge belong to the nearest edge zone.
func (g *ZoneGrid) ZoneAt(x, y float64) ZoneKey {
	zx := int(math.Floor((x + g.width/2) / g.width))
	zy := int(math.Floor((y + g.height/2) / g.height))
	return ZoneKey{
		X: max(-g.halfX, min(g.halfX, zx)),
		Y: max(-g.halfY, min(g.halfY, zy)),
	}
}

// Rect returns the area covered by a zone.
func (g *ZoneGrid) Rect(k ZoneKey) (minX, minY, maxX, maxY float64) {
	minX = float64(k.X)*g.width - g.width/2
	minY = float64(k.Y)*g.height - g.height/2
	return minX, minY, minX + g.width, minY + g.height
}

// RandomPoint picks a uniformly random point inside a zone.
func (g *ZoneGrid) RandomPoint(k ZoneKey, rng *rand.Rand) (float64, float64) {
	minX, minY, _, _ := g.Rect(k)
	return minX + rng.Float64()*g.width, minY + rng.Float64()*g.height
}

// MobType returns the type mapped to a zone, or fallback when the zone has
// no biome.
func (g *ZoneGrid) MobType(k ZoneKey, fallback string) string {
	if b, ok := g.byZone[k]; ok {
		return b.MobType
	}
	return fallback
}
