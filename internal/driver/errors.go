package driver

import "errors"

var (
	ErrDisposed       = errors.New("room disposed")
	ErrAlreadyStarted = errors.New("room already started")
)
