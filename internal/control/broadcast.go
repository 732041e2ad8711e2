package control

import (
	"context"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// ChannelStatus is the WebSocket channel status changes are broadcast on.
const ChannelStatus = "simulation.status"

// Broadcaster is the subset of *api.Hub used to push status.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BroadcastStatus adapts a Broadcaster to StatusNotifier.
type BroadcastStatus struct {
	Hub Broadcaster
}

// NotifyStatus implements StatusNotifier.
func (b BroadcastStatus) NotifyStatus(_ context.Context, status simulation.Status) {
	b.Hub.Broadcast(ChannelStatus, StatusPayload(status))
}

// StatusPayload is the wire form of a status shared by the WebSocket and
// MQTT status messages.
func StatusPayload(status simulation.Status) map[string]any {
	return map[string]any{
		"simulation":       status.State(),
		"settings":         status.Settings,
		"manualOverride":   status.ManualOverride,
		"lastManualValues": status.LastManualValues,
	}
}
