package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the simulator.
const (
	// MeasurementTicks records one point per engine tick.
	MeasurementTicks = "simulator_ticks"

	// MeasurementControl records one point per control operation.
	MeasurementControl = "simulator_control"
)

// WriteTick records the outcome of one engine tick: outcome and mode as
// tags, publish latency in milliseconds as a field. Reading values are not
// written.
//
//	client.WriteTick("published", "automatic", 3*time.Millisecond, time.Now())
func (c *Client) WriteTick(outcome, mode string, latency time.Duration, timestamp time.Time) {
	c.writePoint(write.NewPoint(
		MeasurementTicks,
		map[string]string{"outcome": outcome, "mode": mode},
		map[string]any{
			"count":      1,
			"latency_ms": float64(latency) / float64(time.Millisecond),
		},
		timestamp,
	))
}

// WriteControlEvent records a control operation such as simulation.start,
// tagged with where it came from (api, mqtt, startup).
func (c *Client) WriteControlEvent(action, source string, running bool) {
	c.writePoint(write.NewPoint(
		MeasurementControl,
		map[string]string{"action": action, "source": source},
		map[string]any{"running": running},
		c.now(),
	))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(p)
}
