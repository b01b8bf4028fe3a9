package protocol

import "errors"

var ErrUnknownMessage = errors.New("unknown message type")
