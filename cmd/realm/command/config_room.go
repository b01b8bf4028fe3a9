package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/game"
)

const (
	defaultZoneSize  = 24
	defaultZoneCount = 3
)

type RoomConfig struct {
	Id               string       `json:"id"`
	ZoneWidth        float64      `json:"zone_width"`
	ZoneHeight       float64      `json:"zone_height"`
	ZoneCols         int          `json:"zone_cols"`
	ZoneRows         int          `json:"zone_rows"`
	DefaultMob       string       `json:"default_mob"`
	Biomes           []game.Biome `json:"biomes"`
	RespawnDelay     string       `json:"respawn_delay"`
	KeyframeInterval int          `json:"keyframe_interval"`
	AwarenessRadius  float64      `json:"awareness_radius"`
	CommandQueue     int          `json:"command_queue"`
}

func (c *RoomConfig) validate() error {
	el := errors.NewErrorList()

	if c.Id == "" {
		el.Add(fmt.Errorf("room.id is required"))
	}
	if c.DefaultMob == "" {
		el.Add(fmt.Errorf("room.default_mob is required"))
	}
	if len(c.Biomes) == 0 {
		el.Add(fmt.Errorf("room.biomes must not be empty"))
	}
	_, err := parseDuration("room.respawn_delay", c.RespawnDelay, game.DefaultRespawnDelay)
	el.Add(err)
	if c.KeyframeInterval < 0 {
		el.Add(fmt.Errorf("room.keyframe_interval must not be negative"))
	}
	if c.AwarenessRadius < 0 {
		el.Add(fmt.Errorf("room.awareness_radius must not be negative"))
	}
	if c.CommandQueue < 0 {
		el.Add(fmt.Errorf("room.command_queue must not be negative"))
	}
	_, err = c.buildZoneGrid()
	el.Add(err)

	return el.Err()
}

func (c *RoomConfig) buildZoneGrid() (*game.ZoneGrid, error) {
	width, height := c.ZoneWidth, c.ZoneHeight
	if width == 0 {
		width = defaultZoneSize
	}
	if height == 0 {
		height = defaultZoneSize
	}
	cols, rows := c.ZoneCols, c.ZoneRows
	if cols == 0 {
		cols = defaultZoneCount
	}
	if rows == 0 {
		rows = defaultZoneCount
	}

	grid, err := game.NewZoneGrid(width, height, cols, rows, c.Biomes)
	if err != nil {
		return nil, fmt.Errorf("room zones: %w", err)
	}
	return grid, nil
}

func (c *RoomConfig) roomOpts(tick time.Duration) ([]game.RoomOpt, error) {
	opts := []game.RoomOpt{game.WithTickLength(tick)}

	respawn, err := parseDuration("room.respawn_delay", c.RespawnDelay, game.DefaultRespawnDelay)
	if err != nil {
		return nil, err
	}
	opts = append(opts, game.WithRespawnDelay(respawn))

	if c.KeyframeInterval > 0 {
		opts = append(opts, game.WithKeyframeInterval(c.KeyframeInterval))
	}
	if c.AwarenessRadius > 0 {
		opts = append(opts, game.WithAwarenessRadius(c.AwarenessRadius))
	}
	if c.CommandQueue > 0 {
		opts = append(opts, game.WithCommandQueue(c.CommandQueue))
	}
	return opts, nil
}
