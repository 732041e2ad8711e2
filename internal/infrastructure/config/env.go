package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix starts every environment override: SENSORSIM_<SECTION>_<KEY>.
const EnvPrefix = "SENSORSIM_"

// envOverrides binds environment variables to config fields. Malformed
// numbers and booleans are ignored and the file value stands.
var envOverrides = map[string]func(*Config, string){
	"SIMULATOR_TOPIC":         setString(func(c *Config) *string { return &c.Simulator.Topic }),
	"SIMULATOR_AUTO_START":    setBool(func(c *Config) *bool { return &c.Simulator.AutoStart }),
	"SIMULATOR_SEED":          setUint(func(c *Config) *uint64 { return &c.Simulator.Seed }),
	"SIMULATOR_COMMAND_TOPIC": setString(func(c *Config) *string { return &c.Simulator.CommandTopic }),
	"SIMULATOR_STATUS_TOPIC":  setString(func(c *Config) *string { return &c.Simulator.StatusTopic }),

	"DATABASE_PATH": setString(func(c *Config) *string { return &c.Database.Path }),

	"MQTT_HOST":      setString(func(c *Config) *string { return &c.MQTT.Broker.Host }),
	"MQTT_PORT":      setInt(func(c *Config) *int { return &c.MQTT.Broker.Port }),
	"MQTT_TLS":       setBool(func(c *Config) *bool { return &c.MQTT.Broker.TLS }),
	"MQTT_CLIENT_ID": setString(func(c *Config) *string { return &c.MQTT.Broker.ClientID }),
	"MQTT_USERNAME":  setString(func(c *Config) *string { return &c.MQTT.Auth.Username }),
	"MQTT_PASSWORD":  setString(func(c *Config) *string { return &c.MQTT.Auth.Password }),
	"MQTT_QOS":       setInt(func(c *Config) *int { return &c.MQTT.QoS }),

	"KAFKA_ENABLED": setBool(func(c *Config) *bool { return &c.Kafka.Enabled }),
	"KAFKA_BROKERS": setList(func(c *Config) *[]string { return &c.Kafka.Brokers }),
	"KAFKA_TOPIC":   setString(func(c *Config) *string { return &c.Kafka.Topic }),

	"API_HOST": setString(func(c *Config) *string { return &c.API.Host }),
	"API_PORT": setInt(func(c *Config) *int { return &c.API.Port }),

	"INFLUXDB_ENABLED": setBool(func(c *Config) *bool { return &c.InfluxDB.Enabled }),
	"INFLUXDB_URL":     setString(func(c *Config) *string { return &c.InfluxDB.URL }),
	"INFLUXDB_TOKEN":   setString(func(c *Config) *string { return &c.InfluxDB.Token }),
	"INFLUXDB_ORG":     setString(func(c *Config) *string { return &c.InfluxDB.Org }),
	"INFLUXDB_BUCKET":  setString(func(c *Config) *string { return &c.InfluxDB.Bucket }),

	"LOG_LEVEL":  setString(func(c *Config) *string { return &c.Logging.Level }),
	"LOG_FORMAT": setString(func(c *Config) *string { return &c.Logging.Format }),
}

// applyEnvOverrides copies every non-empty SENSORSIM_* variable it knows
// onto cfg.
func applyEnvOverrides(cfg *Config) {
	for key, apply := range envOverrides {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			apply(cfg, v)
		}
	}
}

func setString(field func(*Config) *string) func(*Config, string) {
	return func(c *Config, v string) { *field(c) = v }
}

func setInt(field func(*Config) *int) func(*Config, string) {
	return func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			*field(c) = n
		}
	}
}

func setUint(field func(*Config) *uint64) func(*Config, string) {
	return func(c *Config, v string) {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*field(c) = n
		}
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) {
	return func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			*field(c) = b
		}
	}
}

// setList splits a comma-separated value, dropping blanks.
func setList(field func(*Config) *[]string) func(*Config, string) {
	return func(c *Config, v string) {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) > 0 {
			*field(c) = out
		}
	}
}
