package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
)

// Logger is the subset of logging.Logger the client reports through.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler receives a message from a subscription. Returned errors
// are logged; they do not affect acknowledgement.
type MessageHandler func(topic string, payload []byte) error

// conn is the part of pahomqtt.Client the wrapper drives.
type conn interface {
	Connect() pahomqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
}

// Client is the simulator's broker connection. It announces presence on
// Topics.Connection, restores subscriptions after a reconnect and gives up
// reconnecting after mqtt.reconnect.max_attempts when that is set.
// All methods are safe for concurrent use.
type Client struct {
	conn     conn
	cfg      config.MQTTConfig
	clientID string
	now      func() time.Time

	connected atomic.Bool
	attempts  atomic.Int64

	subs subscriptionSet

	mu           sync.RWMutex
	log          Logger
	onConnect    func()
	onDisconnect func(err error)
}

// Connect dials the broker and waits up to ten seconds for the session.
// The returned client keeps reconnecting in the background if the link
// drops later.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := newClient(cfg)
	opts := newOptions(cfg, c.clientID, c.now())
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleLost(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) { c.handleReconnecting() })

	c.conn = pahomqtt.NewClient(opts)
	if err := await(c.conn.Connect(), connectTimeout); err != nil {
		// Stop the retry loop paho started for the failed attempt.
		c.conn.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs asynchronously; mark the state here so
	// callers see a connected client as soon as Connect returns.
	c.connected.Store(true)
	return c, nil
}

func newClient(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:      cfg,
		clientID: resolveClientID(cfg.Broker.ClientID),
		now:      time.Now,
	}
}

func (c *Client) handleConnect() {
	c.connected.Store(true)
	c.attempts.Store(0)

	for topic, sub := range c.subs.snapshot() {
		tok := c.conn.Subscribe(topic, sub.qos, c.deliver(sub.handler))
		go c.warnOnFailure(tok, "MQTT resubscribe failed", topic)
	}
	c.announce(PresenceOnline, "")

	if hook := c.connectHook(); hook != nil {
		hook()
	}
}

func (c *Client) handleLost(err error) {
	c.connected.Store(false)
	if hook := c.disconnectHook(); hook != nil {
		hook(err)
	}
}

func (c *Client) handleReconnecting() {
	n := c.attempts.Add(1)
	log := c.logger()
	if log != nil {
		log.Warn("MQTT reconnecting", "client_id", c.clientID, "attempt", n)
	}

	limit := int64(c.cfg.Reconnect.MaxAttempts)
	if limit > 0 && n > limit {
		if log != nil {
			log.Error("MQTT reconnect attempts exhausted", "client_id", c.clientID, "max_attempts", limit)
		}
		// Disconnect from inside paho's reconnect callback would block it.
		go c.conn.Disconnect(0)
	}
}

// announce publishes a retained presence message without waiting for the
// broker.
func (c *Client) announce(status, reason string) pahomqtt.Token {
	p := Presence{Status: status, ClientID: c.clientID, Reason: reason, Timestamp: c.now().UTC()}
	tok := c.conn.Publish(Topics{}.Connection(), byte(c.cfg.QoS), true, p.payload())
	go c.warnOnFailure(tok, "MQTT presence publish failed", Topics{}.Connection())
	return tok
}

func (c *Client) warnOnFailure(tok pahomqtt.Token, msg, topic string) {
	if err := await(tok, ackTimeout); err != nil {
		if log := c.logger(); log != nil {
			log.Warn(msg, "topic", topic, "error", err)
		}
	}
}

// Close publishes the graceful offline presence, which replaces the will,
// and disconnects. Safe on a client that never connected.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if c.IsConnected() {
		c.announce(PresenceOffline, ReasonShutdown).WaitTimeout(ackTimeout)
	}
	c.conn.Disconnect(quiesceMillis)
	c.connected.Store(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known link state.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.connected.Load() && c.conn.IsConnected()
}

// ClientID returns the client ID presented to the broker.
func (c *Client) ClientID() string {
	return c.clientID
}

// SetOnConnect registers a hook run after the initial connect and every
// reconnect.
func (c *Client) SetOnConnect(hook func()) {
	c.mu.Lock()
	c.onConnect = hook
	c.mu.Unlock()
}

// SetOnDisconnect registers a hook run when the link is lost.
func (c *Client) SetOnDisconnect(hook func(err error)) {
	c.mu.Lock()
	c.onDisconnect = hook
	c.mu.Unlock()
}

// SetLogger enables logging of handler failures and reconnects.
func (c *Client) SetLogger(log Logger) {
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

func (c *Client) logger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

func (c *Client) connectHook() func() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onConnect
}

func (c *Client) disconnectHook() func(error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onDisconnect
}

// deliver adapts handler to paho and recovers handler panics.
func (c *Client) deliver(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if log := c.logger(); log != nil {
					log.Error("MQTT handler panicked", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if log := c.logger(); log != nil {
				log.Warn("MQTT handler failed", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
