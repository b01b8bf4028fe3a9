package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-realm/internal/driver"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/protocol"
)

const (
	DefaultPingInterval    = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// StatusReporter summarises the room for health checks.
type StatusReporter interface {
	Status(ctx context.Context) (game.Status, error)
}

// WebsocketListener serves game sessions over websockets, plus the login and
// health endpoints.
type WebsocketListener struct {
	port uint16
	cm   *ConnectionManager

	login          http.Handler
	status         StatusReporter
	allowedOrigins []string
	pingInterval   time.Duration

	upgrader websocket.Upgrader

	// conns tracks live sessions; http.Server.Shutdown does not wait for
	// hijacked connections.
	conns       sync.WaitGroup
	connCtx     context.Context
	cancelConns context.CancelFunc
}

type WebsocketListenerOpt func(*WebsocketListener)

// WithLoginHandler serves h at /auth/login.
func WithLoginHandler(h http.Handler) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.login = h
	}
}

// WithStatus serves the room status at /healthz.
func WithStatus(s StatusReporter) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.status = s
	}
}

// WithAllowedOrigins limits which browser origins may open a session. An
// empty list allows any origin.
func WithAllowedOrigins(origins []string) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.allowedOrigins = origins
	}
}

func WithPingInterval(d time.Duration) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.pingInterval = d
	}
}

func NewWebsocketListener(port uint16, cm *ConnectionManager, opts ...WebsocketListenerOpt) *WebsocketListener {
	connCtx, cancelConns := context.WithCancel(context.Background())
	l := &WebsocketListener{
		port:         port,
		cm:           cm,
		pingInterval: DefaultPingInterval,
		connCtx:      connCtx,
		cancelConns:  cancelConns,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     l.checkOrigin,
	}
	return l
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	srv := &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return l.connCtx },
	}

	slog.InfoContext(ctx, "listening for websockets", "port", l.port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		l.Stop()
		return fmt.Errorf("serving websockets on port %d: %w", l.port, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.WarnContext(ctx, "shutting down http server", "error", err)
	}
	l.Stop()

	return nil
}

// Stop cancels every live session and waits for them to finish.
func (l *WebsocketListener) Stop() {
	l.cancelConns()
	l.conns.Wait()
}

// Handler returns the routes served by the listener.
func (l *WebsocketListener) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", l.serveSession)
	mux.HandleFunc("/healthz", l.serveHealth)
	if l.login != nil {
		mux.Handle("/auth/login", l.login)
	}
	return mux
}

func (l *WebsocketListener) serveSession(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.DebugContext(r.Context(), "upgrading websocket", "remote", r.RemoteAddr, "error", err)
		return
	}

	l.conns.Add(1)
	defer l.conns.Done()

	conn := newWsConn(ws, l.pingInterval)
	defer func() {
		_ = conn.Close(protocol.CloseNormal, "")
	}()

	slog.DebugContext(r.Context(), "websocket connection established", "remote", r.RemoteAddr)
	l.cm.AcceptConnection(l.connCtx, conn, token)
}

func (l *WebsocketListener) serveHealth(w http.ResponseWriter, r *http.Request) {
	if l.status == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	st, err := l.status.Status(r.Context())
	code := http.StatusOK
	if err != nil || st.State != driver.StateRunning.String() {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(st); err != nil {
		slog.WarnContext(r.Context(), "writing health", "error", err)
	}
}

func (l *WebsocketListener) checkOrigin(r *http.Request) bool {
	if len(l.allowedOrigins) == 0 {
		return true
	}
	return slices.Contains(l.allowedOrigins, r.Header.Get("Origin"))
}
