package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
simulator:
  topic: "lab/sensors"
  auto_start: false
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: "lab.sensors"
api:
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Simulator.Topic != "lab/sensors" {
		t.Errorf("Simulator.Topic = %q, want %q", cfg.Simulator.Topic, "lab/sensors")
	}

	if cfg.Simulator.AutoStart {
		t.Error("Simulator.AutoStart = true, want false")
	}

	// Values not present in the file keep their defaults.
	if cfg.Simulator.PublishTimeout != 5 {
		t.Errorf("Simulator.PublishTimeout = %d, want 5", cfg.Simulator.PublishTimeout)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.ClientID != "test-client" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "test-client")
	}

	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("len(Kafka.Brokers) = %d, want 2", len(cfg.Kafka.Brokers))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
simulator:
  topic: ""
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty simulator.topic, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing topic",
			mutate:  func(c *Config) { c.Simulator.Topic = "" },
			wantErr: true,
		},
		{
			name:    "zero publish timeout",
			mutate:  func(c *Config) { c.Simulator.PublishTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "command topic without status topic",
			mutate:  func(c *Config) { c.Simulator.StatusTopic = "" },
			wantErr: true,
		},
		{
			name: "remote control disabled",
			mutate: func(c *Config) {
				c.Simulator.CommandTopic = ""
				c.Simulator.StatusTopic = ""
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "kafka enabled without brokers",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			wantErr: true,
		},
		{
			name: "kafka enabled without topic",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Topic = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
		{
			name:    "command topic equals data topic",
			mutate:  func(c *Config) { c.Simulator.CommandTopic = c.Simulator.Topic },
			wantErr: true,
		},
		{
			name:    "negative reconnect attempts",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxAttempts = -1 },
			wantErr: true,
		},
		{
			name:    "tls without certificate",
			mutate:  func(c *Config) { c.API.TLS.Enabled = true },
			wantErr: true,
		},
		{
			name:    "zero ping interval",
			mutate:  func(c *Config) { c.WebSocket.PingInterval = 0 },
			wantErr: true,
		},
		{
			name:    "relative metrics path",
			mutate:  func(c *Config) { c.Metrics.Path = "metrics" },
			wantErr: true,
		},
		{
			name: "metrics disabled ignores path",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Path = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := &Config{
		Simulator: SimulatorConfig{PublishTimeout: 7},
		API:       APIConfig{Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60}},
	}

	if got := cfg.API.ReadTimeout(); got != 30*time.Second {
		t.Errorf("ReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.WriteTimeout(); got != 45*time.Second {
		t.Errorf("WriteTimeout() = %v, want 45s", got)
	}
	if got := cfg.API.IdleTimeout(); got != time.Minute {
		t.Errorf("IdleTimeout() = %v, want 1m", got)
	}
	if got := cfg.GetPublishTimeout(); got != 7*time.Second {
		t.Errorf("GetPublishTimeout() = %v, want 7s", got)
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Simulator.Topic = ""
	cfg.MQTT.QoS = 5
	cfg.Metrics.Path = "metrics"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"simulator.topic", "mqtt.qos", "metrics.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("SENSORSIM_SIMULATOR_TOPIC", "plant/floor1")
	t.Setenv("SENSORSIM_SIMULATOR_AUTO_START", "false")
	t.Setenv("SENSORSIM_DATABASE_PATH", "/custom/path.db")
	t.Setenv("SENSORSIM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SENSORSIM_MQTT_PORT", "8883")
	t.Setenv("SENSORSIM_MQTT_USERNAME", "testuser")
	t.Setenv("SENSORSIM_MQTT_PASSWORD", "testpass")
	t.Setenv("SENSORSIM_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SENSORSIM_API_HOST", "192.168.1.1")
	t.Setenv("SENSORSIM_API_PORT", "9090")
	t.Setenv("SENSORSIM_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("SENSORSIM_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Simulator.Topic != "plant/floor1" {
		t.Errorf("Simulator.Topic = %q, want %q", cfg.Simulator.Topic, "plant/floor1")
	}

	if cfg.Simulator.AutoStart {
		t.Error("Simulator.AutoStart = true, want false")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_Optional(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("SENSORSIM_SIMULATOR_SEED", "42")
	t.Setenv("SENSORSIM_MQTT_TLS", "true")
	t.Setenv("SENSORSIM_MQTT_QOS", "1")
	t.Setenv("SENSORSIM_KAFKA_ENABLED", "1")
	t.Setenv("SENSORSIM_KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SENSORSIM_INFLUXDB_ENABLED", "true")
	t.Setenv("SENSORSIM_INFLUXDB_URL", "http://influx:8086")
	t.Setenv("SENSORSIM_LOG_FORMAT", "text")

	applyEnvOverrides(cfg)

	if cfg.Simulator.Seed != 42 {
		t.Errorf("Simulator.Seed = %d, want 42", cfg.Simulator.Seed)
	}
	if !cfg.MQTT.Broker.TLS || cfg.MQTT.QoS != 1 {
		t.Errorf("MQTT TLS=%v QoS=%d, want true/1", cfg.MQTT.Broker.TLS, cfg.MQTT.QoS)
	}
	if !cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = false, want true")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %q, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}
	if !cfg.InfluxDB.Enabled || cfg.InfluxDB.URL != "http://influx:8086" {
		t.Errorf("InfluxDB = %+v", cfg.InfluxDB)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
}

func TestApplyEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("SENSORSIM_API_PORT", "not-a-port")
	t.Setenv("SENSORSIM_SIMULATOR_AUTO_START", "maybe")
	t.Setenv("SENSORSIM_SIMULATOR_SEED", "-1")
	t.Setenv("SENSORSIM_KAFKA_BROKERS", " , ")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 5000 {
		t.Errorf("API.Port = %d, want default 5000", cfg.API.Port)
	}
	if !cfg.Simulator.AutoStart {
		t.Error("Simulator.AutoStart = false, want default true")
	}
	if cfg.Simulator.Seed != 0 {
		t.Errorf("Simulator.Seed = %d, want default 0", cfg.Simulator.Seed)
	}
	if len(cfg.Kafka.Brokers) != 1 {
		t.Errorf("Kafka.Brokers = %v, want default", cfg.Kafka.Brokers)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Simulator.Topic != "iot/simulated/data" {
		t.Errorf("defaultConfig Simulator.Topic = %q, want %q", cfg.Simulator.Topic, "iot/simulated/data")
	}

	if !cfg.Simulator.AutoStart {
		t.Error("defaultConfig should auto-start the simulation")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.QoS != 0 {
		t.Errorf("defaultConfig MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}

	if cfg.API.Port != 5000 {
		t.Errorf("defaultConfig API.Port = %d, want 5000", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
