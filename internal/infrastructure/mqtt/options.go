package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	ackTimeout     = 5 * time.Second
	keepAlive      = 30 * time.Second

	// quiesceMillis is how long Disconnect lets in-flight work drain.
	quiesceMillis = 250

	maxQoS = 2

	// clientIDPrefix matches the client IDs the dashboard expects to see.
	clientIDPrefix = "iot-simulator-"
)

// Presence states and reasons carried on the connection topic.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"

	ReasonShutdown = "graceful_shutdown"
	ReasonLost     = "unexpected_disconnect"
)

// Presence is the retained payload on Topics.Connection. The broker
// delivers the ReasonLost variant as the will message.
type Presence struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (p Presence) payload() []byte {
	// Strings and a time only; Marshal cannot fail here.
	data, _ := json.Marshal(p)
	return data
}

// resolveClientID returns the configured client ID or a generated one.
func resolveClientID(configured string) string {
	if configured != "" {
		return configured
	}
	return clientIDPrefix + uuid.NewString()[:8]
}

func brokerURL(b config.MQTTBrokerConfig) string {
	scheme := "tcp"
	if b.TLS {
		scheme = "ssl"
	}
	return scheme + "://" + net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// newOptions maps the broker section of the config onto paho options,
// including the will that marks this client offline if it drops.
func newOptions(cfg config.MQTTConfig, clientID string, now time.Time) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(clientID).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(seconds(cfg.Reconnect.InitialDelay, time.Second)).
		SetMaxReconnectInterval(seconds(cfg.Reconnect.MaxDelay, time.Minute)).
		// Handlers wait on publish tokens, so each runs on its own goroutine
		// instead of blocking the router.
		SetOrderMatters(false)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	will := Presence{Status: PresenceOffline, ClientID: clientID, Reason: ReasonLost, Timestamp: now.UTC()}
	opts.SetBinaryWill(Topics{}.Connection(), will.payload(), 1, true)

	return opts
}

// seconds converts a config value in seconds, using fallback for zero or
// negative values.
func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// await blocks on tok for at most timeout.
func await(tok pahomqtt.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return tok.Error()
}
