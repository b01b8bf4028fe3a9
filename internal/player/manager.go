package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixil98/go-realm/internal/display"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/protocol"
	"github.com/pixil98/go-realm/internal/storage"
)

// Conn is one client connection carrying whole text frames.
type Conn interface {
	// Read blocks for the next frame. It fails once the connection is closed.
	Read() ([]byte, error)
	Write(data []byte) error
	Close(code int, reason string) error
}

// Room is the simulation a session plays in.
type Room interface {
	Join(ctx context.Context, sess game.Session, char *storage.Character) error
	Leave(ctx context.Context, sessionId string) error
	HandleInput(ctx context.Context, sessionId string, cmds []protocol.Command) error
}

// Bus delivers messages the room publishes for a session.
type Bus interface {
	SubscribeSession(sessionId string, handler func(data []byte)) (func(), error)
}

type CharacterLoader interface {
	LoadActiveCharacter(ctx context.Context, userId int64) (*storage.Character, error)
}

type Verifier interface {
	Verify(token string) (int64, error)
}

// PlayerManager takes an accepted connection through authentication,
// character loading and joining, then relays its input to the room.
type PlayerManager struct {
	room   Room
	bus    Bus
	chars  CharacterLoader
	tokens Verifier

	newId func() string
}

type PlayerManagerOpt func(*PlayerManager)

// WithSessionIds replaces uuid session ids.
func WithSessionIds(newId func() string) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.newId = newId
	}
}

func NewPlayerManager(room Room, bus Bus, chars CharacterLoader, tokens Verifier, opts ...PlayerManagerOpt) *PlayerManager {
	m := &PlayerManager{
		room:   room,
		bus:    bus,
		chars:  chars,
		tokens: tokens,
		newId:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunSession serves conn until it closes or ctx is cancelled. Any failure
// before the player is in the world closes conn with the matching code.
func (m *PlayerManager) RunSession(ctx context.Context, conn Conn, token string) error {
	userId, err := m.tokens.Verify(token)
	if err != nil {
		reject(conn, protocol.CloseAuthFailed, err)
		return fmt.Errorf("authenticating: %w", err)
	}

	char, err := m.chars.LoadActiveCharacter(ctx, userId)
	if err != nil {
		code := protocol.CloseJoinFailed
		if errors.Is(err, storage.ErrNoActiveCharacter) {
			code = protocol.CloseNoCharacter
		}
		reject(conn, code, err)
		return fmt.Errorf("loading character for user %d: %w", userId, err)
	}

	p := newPlayer(m.newId(), conn)

	// Subscribe before joining so the init message is not missed.
	unsubscribe, err := m.bus.SubscribeSession(p.Id(), p.deliver)
	if err != nil {
		reject(conn, protocol.CloseJoinFailed, err)
		return fmt.Errorf("subscribing session %s: %w", p.Id(), err)
	}
	defer unsubscribe()

	err = m.room.Join(ctx, p, char)
	if err != nil {
		code := protocol.CloseJoinFailed
		if errors.Is(err, game.ErrRoomDisposed) {
			code = protocol.CloseGoingAway
		}
		reject(conn, code, err)
		return fmt.Errorf("joining character %d: %w", char.Id, err)
	}
	defer func() {
		if err := m.room.Leave(context.WithoutCancel(ctx), p.Id()); err != nil && !errors.Is(err, game.ErrRoomDisposed) {
			slog.WarnContext(ctx, "leaving room", "session", p.Id(), "error", err)
		}
	}()

	slog.InfoContext(ctx, "session started", "session", p.Id(), "user", userId, "character", char.Id)

	err = p.Play(ctx, m.room)
	slog.InfoContext(ctx, "session ended", "session", p.Id(), "reason", err)
	if errors.Is(err, ErrConnectionClosed) || errors.Is(err, game.ErrRoomDisposed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func reject(conn Conn, code int, cause error) {
	if err := conn.Close(code, display.CloseReason(display.RejectedNotice(cause.Error()))); err != nil {
		slog.Debug("closing rejected connection", "code", code, "error", err)
	}
}
