// Package influxdb provides InfluxDB connectivity for the sensor simulator.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// # Purpose
//
// The simulator writes operational telemetry only:
//   - simulator_ticks: one point per tick (outcome, mode, publish latency)
//   - simulator_control: one point per control operation
//
// Generated readings are not stored; subscribers keep their own history.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTick("published", "automatic", latency, time.Now())
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered to the
// SetOnError callback. Connection and health check errors are returned directly.
package influxdb
