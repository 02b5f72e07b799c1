package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/windtrail/particles"
)

const writeTimeout = 2 * time.Second

// DefaultPath is where Handler mounts the hub when no path is given.
const DefaultPath = "/ws"

// Control is a message a remote client sends to steer the layer. Nil
// fields are left unchanged.
type Control struct {
	Animate     *bool    `json:"animate,omitempty"`
	SpeedFactor *float64 `json:"speedFactor,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Step        bool     `json:"step,omitempty"`
	Clear       bool     `json:"clear,omitempty"`
}

// Apply applies the control to props and reports whether a step or clear
// was requested.
func (c Control) Apply(p particles.Props) (particles.Props, bool, bool) {
	if c.Animate != nil {
		p.Animate = *c.Animate
	}
	if c.SpeedFactor != nil {
		p.SpeedFactor = *c.SpeedFactor
	}
	if c.Opacity != nil {
		p.Opacity = *c.Opacity
	}
	return p, c.Step, c.Clear
}

// Hub fans segment frames out to websocket clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex

	controls chan Control
	buf      []byte
	sent     atomic.Int64
}

// NewHub creates a hub with an empty client set.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		controls: make(chan Control, 16),
	}
}

// ServeHTTP upgrades the request and reads controls until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		slog.Info("stream client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var c Control
		if err := json.Unmarshal(data, &c); err != nil {
			slog.Warn("ignoring malformed control", "remote", r.RemoteAddr, "error", err)
			continue
		}
		select {
		case h.controls <- c:
		default:
			slog.Warn("control queue full, dropping", "remote", r.RemoteAddr)
		}
	}
}

// Controls delivers client controls; drain it from the frame loop.
func (h *Hub) Controls() <-chan Control {
	return h.controls
}

// Broadcast encodes one frame and writes it to every client. Clients that
// fail to keep up are disconnected.
func (h *Hub) Broadcast(tick int64, segs []particles.Segment) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	h.buf = EncodeFrame(h.buf[:0], tick, segs)

	var failed []*websocket.Conn
	for conn, mu := range h.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := conn.WriteMessage(websocket.BinaryMessage, h.buf)
		mu.Unlock()
		if err != nil {
			slog.Warn("stream write failed", "remote", conn.RemoteAddr().String(), "error", err)
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	h.sent.Add(1)
	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Sent returns how many frames have been broadcast.
func (h *Hub) Sent() int {
	return int(h.sent.Load())
}

// Handler mounts the hub at path, DefaultPath when empty.
func (h *Hub) Handler(path string) http.Handler {
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, h)
	return mux
}

// Serve listens on addr and serves the hub at path until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr, path string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler(path), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("stream server listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
