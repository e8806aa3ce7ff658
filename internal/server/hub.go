package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	mdexport "github.com/alnah/go-mdexport"
)

const (
	clientBuffer   = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 20
)

// Message types exchanged over the socket.
const (
	MessageMount   = "mount"
	MessageUnmount = "unmount"
	MessageEdit    = "edit"
	MessagePreview = "preview"
)

// clientMessage is sent by the editor page.
type clientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Width int    `json:"width,omitempty"`
}

// previewMessage is pushed to every client after a state change.
type previewMessage struct {
	Type string `json:"type"`
	mdexport.PreviewEvent
}

// outbound is an encoded preview message and the session version it carries.
type outbound struct {
	version uint64
	data    []byte
}

// client is one websocket connection. Only its writer goroutine writes to
// conn.
type client struct {
	conn    *websocket.Conn
	send    chan outbound
	mounted bool
}

// offer queues msg without blocking. When the buffer is full the oldest
// queued message is discarded, so the newest state always gets through.
func (c *client) offer(msg outbound) {
	for {
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// Hub fans session events out to websocket clients and applies their edits
// to the session. The preview stays mounted while at least one client has
// mounted it.
type Hub struct {
	session  *mdexport.Session
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*client]struct{}

	// pending holds the newest unsent event; notify wakes the broadcaster.
	pendingMu sync.Mutex
	pending   *outbound
	notify    chan struct{}

	stopChan    chan struct{}
	stopOnce    sync.Once
	unsubscribe func()
}

// NewHub subscribes to session events and starts the broadcast loop.
func NewHub(session *mdexport.Session, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Hub{
		session: session,
		logger:  logger,
		// Default origin check: same host only.
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		clients:  make(map[*client]struct{}),
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	h.unsubscribe = session.Subscribe(h.publish)
	go h.broadcastMessages()
	return h
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// publish is the session subscriber. It never blocks: the event replaces
// any older one still waiting for the broadcaster.
func (h *Hub) publish(ev mdexport.PreviewEvent) {
	msg, err := encodePreview(ev)
	if err != nil {
		h.logger.Error("encode preview event", "error", err)
		return
	}

	h.pendingMu.Lock()
	if h.pending == nil || msg.version > h.pending.version {
		h.pending = &msg
	}
	h.pendingMu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// takePending returns and clears the waiting event.
func (h *Hub) takePending() (outbound, bool) {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	if h.pending == nil {
		return outbound{}, false
	}
	msg := *h.pending
	h.pending = nil
	return msg, true
}

func encodePreview(ev mdexport.PreviewEvent) (outbound, error) {
	data, err := json.Marshal(previewMessage{Type: MessagePreview, PreviewEvent: ev})
	if err != nil {
		return outbound{}, err
	}
	return outbound{version: ev.Version, data: data}, nil
}

// broadcastMessages sends the newest event to all connected clients. Events
// not newer than the last one sent are skipped.
func (h *Hub) broadcastMessages() {
	var lastSent uint64
	for {
		select {
		case <-h.notify:
			msg, ok := h.takePending()
			if !ok || msg.version <= lastSent {
				continue
			}
			lastSent = msg.version
			h.clientsMu.RLock()
			for c := range h.clients {
				c.offer(msg)
			}
			h.clientsMu.RUnlock()
		case <-h.stopChan:
			return
		}
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan outbound, clientBuffer)}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())

	// Seed the new client with the current state.
	if ev, err := h.session.Snapshot(r.Context()); err == nil {
		if msg, err := encodePreview(ev); err == nil {
			c.offer(msg)
		}
	}

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(context.WithoutCancel(r.Context()), c)
	close(done)
	h.remove(context.WithoutCancel(r.Context()), c)
}

func (h *Hub) add(c *client) bool {
	select {
	case <-h.stopChan:
		return false
	default:
	}
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
	return true
}

// remove drops c and unmounts the preview when no mounted client is left.
func (h *Hub) remove(ctx context.Context, c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	stillMounted := false
	for other := range h.clients {
		if other.mounted {
			stillMounted = true
			break
		}
	}
	h.clientsMu.Unlock()
	_ = c.conn.Close()

	if ok && c.mounted && !stillMounted {
		h.session.Unmount(ctx)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *client, msg clientMessage) {
	switch msg.Type {
	case MessageMount:
		if err := h.session.Mount(ctx, msg.Width); err != nil {
			h.logger.Warn("mount rejected", "width", msg.Width, "error", err)
			return
		}
		h.setMounted(c, true)
	case MessageUnmount:
		h.setMounted(c, false)
		if !h.anyMounted() {
			h.session.Unmount(ctx)
		}
	case MessageEdit:
		h.session.SetText(ctx, msg.Text)
	default:
		h.logger.Debug("unknown websocket message", "type", msg.Type)
	}
}

func (h *Hub) setMounted(c *client, mounted bool) {
	h.clientsMu.Lock()
	c.mounted = mounted
	h.clientsMu.Unlock()
}

func (h *Hub) anyMounted() bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for c := range h.clients {
		if c.mounted {
			return true
		}
	}
	return false
}

// writeLoop writes queued messages in version order; the seed snapshot and
// a broadcast can race, so a message older than the last written is skipped.
func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case msg := <-c.send:
			if msg.version <= last {
				continue
			}
			last = msg.version
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// Close unsubscribes from the session and closes all connections.
// Safe to call more than once.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		h.unsubscribe()
		close(h.stopChan)

		h.clientsMu.Lock()
		for c := range h.clients {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
		h.clientsMu.Unlock()
	})
}
