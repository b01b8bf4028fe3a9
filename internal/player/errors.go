package player

import "errors"

// ErrConnectionClosed is returned by Conn.Read once either side has closed
// the connection.
var ErrConnectionClosed = errors.New("connection closed")
