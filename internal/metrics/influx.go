package metrics

import (
	"time"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// InfluxWriter is the subset of *influxdb.Client used here.
type InfluxWriter interface {
	WriteTick(outcome, mode string, latency time.Duration, timestamp time.Time)
	WriteControlEvent(action, source string, running bool)
}

// Influx forwards tick results and control operations to InfluxDB.
// Writes are non-blocking; the client batches them.
type Influx struct {
	writer InfluxWriter
	clock  func() time.Time
}

// NewInflux creates an InfluxDB observer.
func NewInflux(w InfluxWriter) *Influx {
	return &Influx{writer: w, clock: time.Now}
}

// ObserveTick implements simulation.Observer.
func (i *Influx) ObserveTick(r simulation.TickResult) {
	ts := r.Reading.Timestamp
	if ts.IsZero() {
		ts = i.clock()
	}
	i.writer.WriteTick(string(r.Outcome), string(r.Mode), r.Duration, ts)
}

// ObserveControl implements control.Observer.
func (i *Influx) ObserveControl(action, source string, status simulation.Status) {
	i.writer.WriteControlEvent(action, source, status.Running)
}
