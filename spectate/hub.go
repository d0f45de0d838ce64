package spectate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/engine"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/hupe1980/minionmesh/match"
)

// FrameSnapshot marks a frame that was not caused by a match event.
const FrameSnapshot core.EventType = "snapshot"

// Frame is the JSON message sent to viewers.
type Frame struct {
	Type     core.EventType      `json:"type"`
	MatchID  string              `json:"match_id"`
	Round    int                 `json:"round"`
	Board    [][]string          `json:"board"`
	Agents   []core.Agent        `json:"agents"`
	Teams    []core.Team         `json:"teams"`
	Resolved *core.ResolvedRound `json:"resolved,omitempty"`
	Outcome  core.Outcome        `json:"outcome"`
}

// NewFrame renders an event together with the match state after it.
func NewFrame(typ core.EventType, v match.View, resolved *core.ResolvedRound) Frame {
	board := make([][]string, 0, v.Grid.Rows())
	for _, row := range v.Grid.Rows2D() {
		line := make([]string, len(row))
		for i, c := range row {
			line[i] = c.String()
		}
		board = append(board, line)
	}

	return Frame{
		Type:     typ,
		MatchID:  v.MatchID,
		Round:    v.Round,
		Board:    board,
		Agents:   v.Agents,
		Teams:    v.Teams,
		Resolved: resolved,
		Outcome:  v.Outcome,
	}
}

// Options configures a Hub.
type Options struct {
	Logger logging.Logger

	// SendBuffer is the number of frames queued per viewer. Viewers falling
	// further behind are disconnected.
	SendBuffer int

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// CheckOrigin overrides the upgrader's origin check. Nil accepts any origin.
	CheckOrigin func(r *http.Request) bool
}

// Hub fans frames out to connected viewers. It implements http.Handler.
type Hub struct {
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

type client struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() { c.once.Do(func() { close(c.done) }) }

// NewHub creates an empty hub.
func NewHub(optFns ...func(o *Options)) *Hub {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		SendBuffer:   16,
		WriteTimeout: 5 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Attach publishes a snapshot of the engine's match now and a frame after
// every resolved round, reset and game over.
func (h *Hub) Attach(e *engine.Engine) {
	m := e.Match()

	publish := func(_ context.Context, cc *engine.CallbackContext) error {
		typ := FrameSnapshot
		if cc.Event != nil {
			typ = cc.Event.Type
		}
		if err := h.Publish(NewFrame(typ, m.View(), cc.Resolved)); err != nil {
			h.opts.Logger.Warn("spectate.publish.failed", "match", cc.MatchID, "error", err)
		}
		return nil
	}

	for _, typ := range []engine.CallbackType{engine.CallbackAfterRound, engine.CallbackOnGameOver, engine.CallbackOnReset} {
		e.RegisterCallback(engine.NewFunctionCallback(typ, publish))
	}

	_ = publish(context.Background(), &engine.CallbackContext{MatchID: m.ID()})
}

// Publish sends f to every viewer and keeps it for viewers that join later.
func (h *Hub) Publish(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.opts.Logger.Warn("spectate.viewer.dropped", "reason", "send buffer full")
			delete(h.clients, c)
			c.stop()
		}
	}

	return nil
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every viewer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.stop()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}

	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
}

// ServeHTTP upgrades the request and streams frames until the viewer leaves,
// falls behind or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Debug("spectate.upgrade.failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{send: make(chan []byte, max(h.opts.SendBuffer, 1)), done: make(chan struct{})}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"), time.Now().Add(time.Second))
		return
	}
	defer h.unregister(c)

	// Viewers never send anything meaningful; reading detects disconnects.
	go func() {
		defer c.stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case b := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		}
	}
}
