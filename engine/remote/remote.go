// Package remote accepts scroll geometry from a companion page over WebSocket.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/Carmen-Shannon/oxy-scrub/engine/scroll"
	"github.com/gorilla/websocket"
)

const (
	// DefaultPath is the WebSocket endpoint.
	DefaultPath = "/scroll"

	// DefaultBuffer is the number of pending geometries kept for the main thread.
	DefaultBuffer = 8

	maxMessageSize = 4096
)

// ErrMissingField is reported for messages that lack one of the geometry fields.
var ErrMissingField = errors.New("remote: missing geometry field")

// wireGeometry is the JSON message; every field is required.
type wireGeometry struct {
	ScrollTop      *float64 `json:"scrollTop"`
	DocumentHeight *float64 `json:"documentHeight"`
	ViewportHeight *float64 `json:"viewportHeight"`
}

// server is the implementation of the Server interface.
type server struct {
	mu       *sync.Mutex
	path     string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	buffer  int
	events  chan scroll.Geometry
	dropped int

	httpServer *http.Server
	listener   net.Listener
	conns      map[*websocket.Conn]struct{}
}

// Server is a running scroll feed.
type Server interface {
	// Addr returns the address the server listens on.
	Addr() string

	// Handler returns the HTTP handler serving the WebSocket endpoint.
	Handler() http.Handler

	// Events returns the channel of received geometries. When the main thread falls behind,
	// the oldest pending geometry is dropped in favour of the newest.
	Events() <-chan scroll.Geometry

	// Dropped returns how many geometries were discarded because the buffer was full.
	Dropped() int

	// Shutdown stops accepting connections and closes the open ones.
	//
	// Parameters:
	//   - ctx: bounds the graceful HTTP shutdown
	//
	// Returns:
	//   - error: an error if the HTTP server did not stop cleanly
	Shutdown(ctx context.Context) error
}

var _ Server = &server{}

// Listen starts a scroll feed on addr and serves it in the background.
//
// Parameters:
//   - addr: TCP listen address, e.g. "127.0.0.1:8787"; port 0 picks a free port
//   - options: functional options to configure the server
//
// Returns:
//   - Server: the running server
//   - error: an error if addr could not be bound
func Listen(addr string, options ...ServerBuilderOption) (Server, error) {
	s := newServer(options...)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("scroll feed stopped", "error", err)
		}
	}()
	s.logger.Info("scroll feed listening", "addr", ln.Addr().String(), "path", s.path)
	return s, nil
}

func newServer(options ...ServerBuilderOption) *server {
	s := &server{
		mu:     &sync.Mutex{},
		path:   DefaultPath,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		buffer: DefaultBuffer,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.events = make(chan scroll.Geometry, max(s.buffer, 1))
	s.logger = s.logger.With("component", "remote")
	return s
}

func (s *server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)
	return mux
}

func (s *server) Events() <-chan scroll.Geometry {
	return s.events
}

func (s *server) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
		delete(s.conns, c)
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.logger.Info("scroll client connected", "remote", conn.RemoteAddr().String())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("scroll client read failed", "error", err)
			}
			return
		}
		g, err := DecodeGeometry(data)
		if err != nil {
			s.logger.Warn("invalid scroll message skipped", "error", err)
			continue
		}
		s.publish(g)
	}
}

// publish delivers g, discarding the oldest pending geometry when the buffer is full.
func (s *server) publish(g scroll.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case s.events <- g:
			return
		default:
		}
		select {
		case <-s.events:
			s.dropped++
		default:
		}
	}
}

// DecodeGeometry parses one scroll message.
//
// Parameters:
//   - data: a JSON object with scrollTop, documentHeight and viewportHeight
//
// Returns:
//   - scroll.Geometry: the decoded geometry
//   - error: a JSON error, or ErrMissingField when a field is absent
func DecodeGeometry(data []byte) (scroll.Geometry, error) {
	var w wireGeometry
	if err := json.Unmarshal(data, &w); err != nil {
		return scroll.Geometry{}, fmt.Errorf("decode scroll message: %w", err)
	}
	if w.ScrollTop == nil || w.DocumentHeight == nil || w.ViewportHeight == nil {
		return scroll.Geometry{}, ErrMissingField
	}
	return scroll.Geometry{
		ScrollTop:      *w.ScrollTop,
		DocumentHeight: *w.DocumentHeight,
		ViewportHeight: *w.ViewportHeight,
	}, nil
}
