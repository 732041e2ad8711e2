// Package metrics observes the simulation engine.
//
// Collector exports Prometheus series for ticks, publish latency, the last
// published value of each sensor and control operations, and keeps a small
// in-process snapshot for the JSON /api/v1/metrics endpoint. Influx forwards
// each tick to InfluxDB as operational telemetry. Multi combines observers
// so the engine only ever sees one.
package metrics
