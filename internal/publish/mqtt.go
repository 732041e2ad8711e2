package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// MQTTClient is the subset of *mqtt.Client used to publish readings.
type MQTTClient interface {
	PublishContext(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
}

// MQTT publishes readings as flat JSON to an MQTT topic.
type MQTT struct {
	client   MQTTClient
	qos      byte
	retained bool
}

// NewMQTT creates an MQTT publisher. Readings are normally sent QoS 0,
// not retained.
func NewMQTT(client MQTTClient, qos byte, retained bool) *MQTT {
	return &MQTT{client: client, qos: qos, retained: retained}
}

// Publish implements simulation.Publisher.
func (m *MQTT) Publish(ctx context.Context, topic string, reading simulation.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}
	return m.client.PublishContext(ctx, topic, payload, m.qos, m.retained)
}
