package listener

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-realm/internal/player"
)

const (
	writeWait      = 10 * time.Second
	closeWait      = 500 * time.Millisecond
	maxFrameSize   = 4096
	pongWaitFactor = 2
)

// wsConn adapts a websocket to player.Conn. Writes are serialised; gorilla
// allows one concurrent reader and one concurrent writer.
type wsConn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newWsConn(ws *websocket.Conn, pingInterval time.Duration) *wsConn {
	c := &wsConn{
		ws:   ws,
		done: make(chan struct{}),
	}

	pongWait := pingInterval * pongWaitFactor
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.ping(pingInterval)
	return c
}

func (c *wsConn) ping(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				slog.Debug("pinging websocket", "remote", c.ws.RemoteAddr(), "error", err)
				return
			}
		}
	}
}

// Read returns the next text frame. Binary frames are skipped.
func (c *wsConn) Read() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", player.ErrConnectionClosed, err)
		}
		if mt == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return player.ErrConnectionClosed
	default:
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame with code and reason, then drops the
// connection. Only the first call has any effect. Close does not take
// writeMu, so a writer stalled on a slow peer delays it by at most closeWait.
func (c *wsConn) Close(code int, reason string) error {
	err := player.ErrConnectionClosed
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(code, reason)
		err = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		if cerr := c.ws.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
