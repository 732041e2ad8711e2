package publish

import (
	"context"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// ChannelReading is the WebSocket channel readings are broadcast on.
const ChannelReading = "sensor.reading"

// Broadcaster is the subset of *api.Hub used to push readings.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Broadcast pushes readings to WebSocket subscribers of ChannelReading.
type Broadcast struct {
	hub Broadcaster
}

// NewBroadcast creates a WebSocket mirror.
func NewBroadcast(hub Broadcaster) *Broadcast {
	return &Broadcast{hub: hub}
}

// Publish implements simulation.Publisher. It never fails; slow clients
// drop messages inside the hub.
func (b *Broadcast) Publish(_ context.Context, topic string, reading simulation.Reading) error {
	b.hub.Broadcast(ChannelReading, map[string]any{
		"topic":   topic,
		"mode":    reading.Mode,
		"reading": reading,
	})
	return nil
}
