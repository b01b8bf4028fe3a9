package command

import (
	"context"
	"fmt"
	"io"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/auth"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/listener"
	"github.com/pixil98/go-realm/internal/messaging"
	"github.com/pixil98/go-realm/internal/player"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	tick, err := cfg.tickInterval()
	if err != nil {
		return nil, err
	}

	// Load content
	catalog, err := cfg.Storage.BuildCatalog(cfg.Room.DefaultMob)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	grid, err := cfg.Room.buildZoneGrid()
	if err != nil {
		return nil, err
	}

	// Connect persistence
	store, err := cfg.Storage.Postgres.buildStore(context.Background())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	built := false
	defer func() {
		if !built {
			_ = store.Close()
		}
	}()
	jobs := cfg.Storage.buildJobQueue()

	// Session fan-out
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, err
	}
	publisher := messaging.NewNatsPublisher(nats)

	// Create the room
	roomOpts, err := cfg.Room.roomOpts(tick)
	if err != nil {
		return nil, err
	}
	room, err := game.NewRoom(cfg.Room.Id, catalog, grid, publisher, store, jobs, roomOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}

	// Create the listener
	tokens, err := cfg.Auth.buildVerifier()
	if err != nil {
		return nil, err
	}
	pm := player.NewPlayerManager(room, publisher, store, tokens)
	ws, err := cfg.Listener.buildListener(listener.NewConnectionManager(pm), auth.NewLoginHandler(store, tokens), room)
	if err != nil {
		return nil, fmt.Errorf("creating listener: %w", err)
	}

	built = true
	return service.WorkerList{
		"nats":     nats,
		"room":     &roomWorker{room: room, jobs: jobs, store: store},
		"listener": &afterReady{ready: nats.Ready(), start: ws.Start},
	}, nil
}

type starter interface {
	Start(ctx context.Context) error
}

// roomWorker runs the room together with its persistence queue. The queue is
// stopped only after the room has disposed, so the final saves drain before
// the store is closed.
type roomWorker struct {
	room  starter
	jobs  starter
	store io.Closer
}

func (w *roomWorker) Start(ctx context.Context) error {
	jobsCtx, stopJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer stopJobs()

	jobsErr := make(chan error, 1)
	go func() {
		jobsErr <- w.jobs.Start(jobsCtx)
	}()

	el := errors.NewErrorList()
	el.Add(w.room.Start(ctx))

	stopJobs()
	el.Add(<-jobsErr)

	if err := w.store.Close(); err != nil {
		el.Add(fmt.Errorf("closing store: %w", err))
	}
	return el.Err()
}

// afterReady holds a worker back until ready is closed, so no session is
// accepted before its messages can be delivered.
type afterReady struct {
	ready <-chan struct{}
	start func(ctx context.Context) error
}

func (w *afterReady) Start(ctx context.Context) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return nil
	}
	return w.start(ctx)
}
