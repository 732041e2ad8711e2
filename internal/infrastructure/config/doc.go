// Package config loads the simulator's YAML configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// SENSORSIM_<SECTION>_<KEY> environment variables (see envOverrides).
// Validate reports every problem in one error.
//
// Keep broker passwords and InfluxDB tokens out of the file and supply
// them through SENSORSIM_MQTT_PASSWORD and SENSORSIM_INFLUXDB_TOKEN.
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
package config
