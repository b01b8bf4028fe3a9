package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultTickLength = 100 * time.Millisecond
	DefaultQueueSize  = 256
)

// State is the lifecycle stage of a RoomDriver.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Handler is the domain side of a room. Every method is called from the
// driver goroutine only.
type Handler interface {
	Tick(ctx context.Context, now time.Time)
	Dispose(ctx context.Context, now time.Time)
}

// Op is a unit of work run on the driver goroutine.
type Op func(ctx context.Context, now time.Time)

// RoomDriver serializes every mutation of a room onto one goroutine. Work
// submitted with Submit or Call runs in arrival order. Before each tick the
// queue is drained so a tick always observes every op submitted before it.
type RoomDriver struct {
	handler    Handler
	tickLength time.Duration
	queueSize  int
	clock      func() time.Time

	ops  chan Op
	done chan struct{}

	mu    sync.Mutex
	state State
}

func NewRoomDriver(h Handler, opts ...RoomDriverOpt) *RoomDriver {
	d := &RoomDriver{
		handler:    h,
		tickLength: DefaultTickLength,
		queueSize:  DefaultQueueSize,
		clock:      time.Now,
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.ops = make(chan Op, d.queueSize)

	return d
}

// State returns the current lifecycle stage.
func (d *RoomDriver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start runs the room until ctx is cancelled, then disposes it. A driver can
// only be started once.
func (d *RoomDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateCreated {
		s := d.state
		d.mu.Unlock()
		if s == StateDisposed {
			return ErrDisposed
		}
		return ErrAlreadyStarted
	}
	d.state = StateRunning
	d.mu.Unlock()

	defer d.dispose(ctx)

	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-d.ops:
			op(ctx, d.clock())
		case <-ticker.C:
			d.drain(ctx)
			d.handler.Tick(ctx, d.clock())
		}
	}
}

func (d *RoomDriver) drain(ctx context.Context) {
	for {
		select {
		case op := <-d.ops:
			op(ctx, d.clock())
		default:
			return
		}
	}
}

func (d *RoomDriver) dispose(ctx context.Context) {
	d.mu.Lock()
	d.state = StateDisposed
	d.mu.Unlock()
	close(d.done)

	// Queued ops are dropped so nothing mutates the room after disposal.
	dropped := len(d.ops)
	if dropped > 0 {
		slog.WarnContext(ctx, "dropping queued room ops on dispose", "count", dropped)
	}

	d.handler.Dispose(context.WithoutCancel(ctx), d.clock())
}

// Submit queues op without waiting for it to run.
func (d *RoomDriver) Submit(ctx context.Context, op Op) error {
	select {
	case <-d.done:
		return ErrDisposed
	default:
	}

	select {
	case d.ops <- op:
		return nil
	case <-d.done:
		return ErrDisposed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call queues op and waits until it has run.
func (d *RoomDriver) Call(ctx context.Context, op Op) error {
	finished := make(chan struct{})
	err := d.Submit(ctx, func(ctx context.Context, now time.Time) {
		defer close(finished)
		op(ctx, now)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-d.done:
		// The op may have run just before disposal.
		select {
		case <-finished:
			return nil
		default:
			return ErrDisposed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
