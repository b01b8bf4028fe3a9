package messaging

import "errors"

var (
	ErrNotStarted = errors.New("nats server not started")
	ErrNotReady   = errors.New("nats server not ready for connections")
)
