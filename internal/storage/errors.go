package storage

import "errors"

var (
	ErrNoActiveCharacter = errors.New("no active character")
	ErrItemNotFound      = errors.New("item not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrQueueFull         = errors.New("job queue full")
)
