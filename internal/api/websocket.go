package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/iot-sensor-simulator/internal/control"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/logging"
	"github.com/nerrad567/iot-sensor-simulator/internal/publish"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeStatus      = "status"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// wsSendBufferSize is the per-client outbound queue length.
	wsSendBufferSize = 256
)

// knownChannels are the event streams a client may subscribe to. A client
// that names none on connect gets all of them.
var knownChannels = []string{publish.ChannelReading, control.ChannelStatus}

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe requests.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

func encodeWS(msg WSMessage) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// Hub fans events out to connected dashboard clients.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one dashboard connection and the channels it follows.
type WSClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	status func() any

	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

// Origins are enforced by the CORS layer, so the upgrader accepts all.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewHub returns an empty hub. Call Run to tie its lifetime to a context.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run waits for ctx to end and then drops every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Register starts delivering broadcasts to c.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister stops delivery and closes c.send. Whoever removes c from the
// map closes the channel, so repeated calls are safe.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// Broadcast queues an event for every client following channel. It runs on
// the tick goroutine, so it never blocks: a client with a full queue misses
// the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeWS(WSMessage{Type: WSTypeEvent, EventType: channel, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		if c.follows(channel) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.queue(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// parseChannels splits the ?channels= query. Unknown names are dropped;
// an empty result means every known channel.
func parseChannels(query string) []string {
	var out []string
	for _, ch := range strings.Split(query, ",") {
		if ch = strings.TrimSpace(ch); slices.Contains(knownChannels, ch) {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return knownChannels
	}
	return out
}

// handleWebSocket upgrades the request, subscribes the client to the
// requested channels and sends the current status straight away when the
// client follows status changes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	channels := parseChannels(r.URL.Query().Get("channels"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		status:        func() any { return control.StatusPayload(s.ctrl.Status()) },
		subscriptions: make(map[string]struct{}, len(channels)),
	}
	c.setSubscriptions(channels, true)

	if c.follows(control.ChannelStatus) {
		c.reply(WSMessage{Type: WSTypeEvent, EventType: control.ChannelStatus, Payload: c.status()})
	}
	s.hub.Register(c)

	go c.writePump(s.wsCfg)
	go c.readPump(s.wsCfg)
}

// readPump handles client requests until the connection fails. Every
// inbound frame or pong pushes the read deadline out by one ping interval
// plus the pong timeout.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	window := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	alive := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(window)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	c.conn.SetPongHandler(alive)
	_ = alive("") //nolint:errcheck // a dead peer surfaces on the next read

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = alive("") //nolint:errcheck // a dead peer surfaces on the next read
		c.handleMessage(data)
	}
}

// writePump owns all writes to the connection: queued frames and the
// keepalive pings.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	deadline := time.Duration(cfg.PongTimeout) * time.Second
	write := func(kind int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(deadline)) //nolint:errcheck // WriteMessage reports it
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, open := <-c.send:
			if !open {
				_ = write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ping.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// handleMessage answers one client request.
func (c *WSClient) handleMessage(data []byte) {
	var req struct {
		Type    string          `json:"type"`
		ID      string          `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.replyError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		var sub WSSubscribePayload
		if len(req.Payload) == 0 || json.Unmarshal(req.Payload, &sub) != nil {
			c.replyError(req.ID, "invalid "+req.Type+" payload")
			return
		}
		for _, ch := range sub.Channels {
			if !slices.Contains(knownChannels, ch) {
				c.replyError(req.ID, "unknown channel: "+ch)
				return
			}
		}
		on := req.Type == WSTypeSubscribe
		c.setSubscriptions(sub.Channels, on)

		key := "unsubscribed"
		if on {
			key = "subscribed"
		}
		c.reply(WSMessage{Type: WSTypeResponse, ID: req.ID, Payload: map[string]any{key: sub.Channels}})
	case WSTypeStatus:
		if c.status == nil {
			c.replyError(req.ID, "status unavailable")
			return
		}
		c.reply(WSMessage{Type: WSTypeResponse, ID: req.ID, Payload: c.status()})
	case WSTypePing:
		c.reply(WSMessage{Type: WSTypePong, ID: req.ID})
	default:
		c.replyError(req.ID, "unknown message type: "+req.Type)
	}
}

func (c *WSClient) setSubscriptions(channels []string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		if on {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
}

func (c *WSClient) follows(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// queue hands data to writePump without blocking. A full queue drops it,
// and a queue closed by a concurrent Unregister is tolerated.
func (c *WSClient) queue(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on closed channel during disconnect
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) reply(msg WSMessage) {
	if data, err := encodeWS(msg); err == nil {
		c.queue(data)
	}
}

func (c *WSClient) replyError(id, message string) {
	c.reply(WSMessage{Type: WSTypeError, ID: id, Payload: map[string]string{"message": message}})
}
