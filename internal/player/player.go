package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pixil98/go-realm/internal/display"
	"github.com/pixil98/go-realm/internal/protocol"
)

// Player is a joined session. It is the room's handle for disconnecting the
// client, and relays the client's frames to the room.
type Player struct {
	id   string
	conn Conn

	closeOnce sync.Once
}

func newPlayer(id string, conn Conn) *Player {
	return &Player{id: id, conn: conn}
}

// Id returns the session id.
func (p *Player) Id() string {
	return p.id
}

// Disconnect closes the connection once. Later calls are ignored.
func (p *Player) Disconnect(code int, reason string) {
	p.closeOnce.Do(func() {
		if err := p.conn.Close(code, display.CloseReason(reason)); err != nil {
			slog.Debug("closing session", "session", p.id, "code", code, "error", err)
		}
	})
}

func (p *Player) deliver(data []byte) {
	if err := p.conn.Write(data); err != nil {
		slog.Debug("writing to session", "session", p.id, "error", err)
	}
}

// Play forwards input frames to the room until the connection fails or ctx
// is done.
func (p *Player) Play(ctx context.Context, room Room) error {
	// Start goroutine to read frames into a channel
	inputChan := make(chan []byte)
	inputErrChan := make(chan error, 1)
	go func() {
		for {
			data, err := p.conn.Read()
			if err != nil {
				inputErrChan <- err
				return
			}
			select {
			case inputChan <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.Disconnect(protocol.CloseGoingAway, display.ShutdownNotice())
			return ctx.Err()

		case err := <-inputErrChan:
			return err

		case data := <-inputChan:
			cmds, err := protocol.DecodeInput(data)
			if err != nil {
				if !errors.Is(err, protocol.ErrUnknownMessage) {
					slog.DebugContext(ctx, "dropping frame", "session", p.id, "error", err)
				}
				continue
			}
			if err := room.HandleInput(ctx, p.id, cmds); err != nil {
				return err
			}
		}
	}
}
