package game

import (
	"context"

	"github.com/pixil98/go-realm/internal/storage"
)

// Publisher delivers an encoded message to one session.
type Publisher interface {
	Publish(sessionId string, data []byte) error
}

// Session is the room's handle on a connected client.
type Session interface {
	Id() string
	Disconnect(code int, reason string)
}

// CharacterRepository is the persistence the room writes to during play.
type CharacterRepository interface {
	UpsertCharacterStats(ctx context.Context, id int64, stats storage.CharacterStats) error
	LookupItem(ctx context.Context, id int64) (*storage.Item, error)
	AppendInventoryItem(ctx context.Context, characterId int64, item *storage.Item) error
}

// JobQueue runs persistence work off the room goroutine.
type JobQueue interface {
	Enqueue(name string, job storage.Job) error
}
