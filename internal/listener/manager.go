package listener

import (
	"context"
	"log/slog"

	"github.com/pixil98/go-realm/internal/player"
)

// SessionRunner serves one authenticated connection to completion.
type SessionRunner interface {
	RunSession(ctx context.Context, conn player.Conn, token string) error
}

type ConnectionManager struct {
	pm SessionRunner
}

func NewConnectionManager(pm SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		pm: pm,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn player.Conn, token string) {
	if err := m.pm.RunSession(ctx, conn, token); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
}
