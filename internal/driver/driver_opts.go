package driver

import "time"

type RoomDriverOpt func(*RoomDriver)

func WithTickLength(tickLength time.Duration) RoomDriverOpt {
	return func(d *RoomDriver) {
		d.tickLength = tickLength
	}
}

// WithQueueSize sets how many ops may wait before Submit blocks.
func WithQueueSize(n int) RoomDriverOpt {
	return func(d *RoomDriver) {
		d.queueSize = n
	}
}

// WithClock replaces time.Now as the source of the time handed to ops and ticks.
func WithClock(clock func() time.Time) RoomDriverOpt {
	return func(d *RoomDriver) {
		d.clock = clock
	}
}
