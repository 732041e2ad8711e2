package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// KafkaProducer is the subset of *kafka.Producer used to mirror readings.
type KafkaProducer interface {
	Write(ctx context.Context, key, value []byte, at time.Time) error
}

// Kafka mirrors readings to the producer's own topic. The MQTT topic is
// ignored; the key identifies this simulator instance.
type Kafka struct {
	producer KafkaProducer
	key      []byte
}

// NewKafka creates a Kafka mirror keyed by key.
func NewKafka(producer KafkaProducer, key string) *Kafka {
	return &Kafka{producer: producer, key: []byte(key)}
}

// Publish implements simulation.Publisher.
func (k *Kafka) Publish(ctx context.Context, _ string, reading simulation.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}
	return k.producer.Write(ctx, k.key, payload, reading.Timestamp)
}
