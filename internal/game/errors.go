package game

import "errors"

var (
	ErrEmptyCatalog   = errors.New("content catalog has no mob templates")
	ErrUnknownMobType = errors.New("unknown mob type")
	ErrUnknownClass   = errors.New("unknown character class")
	ErrRoomDisposed   = errors.New("room disposed")
)
