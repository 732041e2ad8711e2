package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

const namespace = "sensorsim"

// Snapshot is the in-process view of tick statistics.
type Snapshot struct {
	TicksPublished uint64            `json:"ticks_published"`
	TicksFailed    uint64            `json:"ticks_failed"`
	TicksSkipped   uint64            `json:"ticks_skipped"`
	MirrorErrors   map[string]uint64 `json:"mirror_errors"`
	LastTickAt     *time.Time        `json:"last_tick_at,omitempty"`
	LastError      string            `json:"last_error,omitempty"`
}

// Collector records engine activity as Prometheus metrics.
//
// Thread Safety: all methods are safe for concurrent use. ObserveTick never
// blocks beyond a short mutex hold.
type Collector struct {
	ticks          *prometheus.CounterVec
	publishLatency prometheus.Histogram
	sensorValue    *prometheus.GaugeVec
	running        prometheus.Gauge
	manual         prometheus.Gauge
	controlOps     *prometheus.CounterVec
	mirrorErrors   *prometheus.CounterVec

	mu   sync.Mutex
	snap Snapshot
}

// NewCollector creates a collector and registers it with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks by outcome and mode.",
		}, []string{"outcome", "mode"}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time from tick start to publish completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Last published value per sensor.",
		}, []string{"sensor", "unit"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while the simulation loop is active.",
		}),
		manual: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "manual_override",
			Help:      "1 while manual mode is enabled.",
		}),
		controlOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_operations_total",
			Help:      "Control operations by action and source.",
		}, []string{"action", "source"}),
		mirrorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      "Failed publishes to secondary sinks.",
		}, []string{"mirror"}),
		snap: Snapshot{MirrorErrors: map[string]uint64{}},
	}

	for _, col := range []prometheus.Collector{
		c.ticks, c.publishLatency, c.sensorValue, c.running, c.manual, c.controlOps, c.mirrorErrors,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveTick implements simulation.Observer.
func (c *Collector) ObserveTick(r simulation.TickResult) {
	c.ticks.WithLabelValues(string(r.Outcome), string(r.Mode)).Inc()

	if r.Outcome != simulation.TickSkipped {
		c.publishLatency.Observe(r.Duration.Seconds())
	}
	if r.Outcome == simulation.TickPublished {
		for kind, v := range r.Reading.Values {
			c.sensorValue.WithLabelValues(string(kind), kind.Unit()).Set(v)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch r.Outcome {
	case simulation.TickPublished:
		c.snap.TicksPublished++
	case simulation.TickFailed:
		c.snap.TicksFailed++
		if r.Err != nil {
			c.snap.LastError = r.Err.Error()
		}
	case simulation.TickSkipped:
		c.snap.TicksSkipped++
	}
	if !r.Reading.Timestamp.IsZero() {
		ts := r.Reading.Timestamp
		c.snap.LastTickAt = &ts
	}
}

// ObserveMirrorError implements publish.MirrorObserver.
func (c *Collector) ObserveMirrorError(name string) {
	c.mirrorErrors.WithLabelValues(name).Inc()

	c.mu.Lock()
	c.snap.MirrorErrors[name]++
	c.mu.Unlock()
}

// ObserveControl counts a control operation and refreshes the state gauges.
func (c *Collector) ObserveControl(action, source string, status simulation.Status) {
	c.controlOps.WithLabelValues(action, source).Inc()
	c.SetState(status)
}

// SetState updates the running and manual gauges.
func (c *Collector) SetState(status simulation.Status) {
	c.running.Set(boolGauge(status.Running))
	c.manual.Set(boolGauge(status.ManualOverride))
}

// Snapshot returns a copy of the in-process statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.snap
	out.MirrorErrors = make(map[string]uint64, len(c.snap.MirrorErrors))
	for k, v := range c.snap.MirrorErrors {
		out.MirrorErrors[k] = v
	}
	if c.snap.LastTickAt != nil {
		ts := *c.snap.LastTickAt
		out.LastTickAt = &ts
	}
	return out
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
