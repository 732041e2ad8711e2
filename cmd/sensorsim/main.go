// IoT Sensor Simulator
//
// This is the main entry point for the sensor simulator. It publishes
// synthetic temperature, humidity, pressure and light readings to MQTT on
// a fixed period, and exposes a REST API, a WebSocket stream and an MQTT
// command topic to control the simulation at runtime.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/iot-sensor-simulator/internal/api"
	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/control"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/database"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/influxdb"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/kafka"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/logging"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/mqtt"
	"github.com/nerrad567/iot-sensor-simulator/internal/metrics"
	"github.com/nerrad567/iot-sensor-simulator/internal/preset"
	"github.com/nerrad567/iot-sensor-simulator/internal/publish"
	"github.com/nerrad567/iot-sensor-simulator/internal/remote"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
	"github.com/nerrad567/iot-sensor-simulator/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Deferred cleanup runs in reverse start order.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sensor simulator",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database (presets + audit log)
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// MQTT is the primary sink and the remote control transport
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttClient.ClientID(),
	)

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}

	// Kafka mirror (optional)
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("creating Kafka producer: %w", err)
		}
		defer func() {
			log.Info("closing Kafka producer")
			if closeErr := producer.Close(); closeErr != nil {
				log.Error("error closing Kafka producer", "error", closeErr)
			}
		}()
		checks["kafka"] = producer
		log.Info("Kafka mirror enabled", "brokers", cfg.Kafka.Brokers, "topic", producer.Topic())
	} else {
		log.Info("Kafka mirror disabled")
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	tickObservers := metrics.Multi{collector}
	controlObservers := []control.Observer{collector}
	if influxClient != nil {
		influx := metrics.NewInflux(influxClient)
		tickObservers = append(tickObservers, influx)
		controlObservers = append(controlObservers, influx)
	}

	// The hub is shared: the engine mirrors readings into it and the API
	// serves it, so it is created up front and owned here.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)

	mirrors := []publish.Mirror{{Name: "websocket", Publisher: publish.NewBroadcast(hub)}}
	if producer != nil {
		mirrors = append(mirrors, publish.Mirror{Name: "kafka", Publisher: publish.NewKafka(producer, mqttClient.ClientID())})
	}
	fanout := publish.NewFanout(
		publish.NewMQTT(mqttClient, byte(cfg.MQTT.QoS), cfg.MQTT.Retain),
		log.Component("publish"),
		mirrors...,
	)
	fanout.SetMirrorObserver(collector)

	engine, err := simulation.New(simulation.Options{
		Publisher:      fanout,
		Topic:          cfg.Simulator.Topic,
		Rand:           newRand(cfg.Simulator.Seed),
		Logger:         log.Component("simulation"),
		PublishTimeout: cfg.GetPublishTimeout(),
		Observer:       tickObservers,
	})
	if err != nil {
		return fmt.Errorf("creating simulation engine: %w", err)
	}
	defer func() {
		log.Info("stopping simulation")
		engine.Close()
	}()

	presets := preset.NewService(preset.NewSQLiteRepository(db.DB), engine)
	recorder := audit.NewRecorder(audit.NewSQLiteRepository(db.DB), log.Component("audit"))
	ctrl := control.New(control.Options{
		Engine:    engine,
		Presets:   presets,
		Recorder:  recorder,
		Observers: controlObservers,
		Logger:    log.Component("control"),
	})
	ctrl.AddNotifier(control.BroadcastStatus{Hub: hub})

	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Metrics:   cfg.Metrics,
		Logger:    log.Component("api"),
		Control:   ctrl,
		Presets:   presets,
		Audit:     recorder,
		Collector: collector,
		Gatherer:  registry,
		Checks:    checks,
		MQTT:      mqttClient,
		DB:        db,
		Hub:       hub,
		Topic:     cfg.Simulator.Topic,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", apiServer.Addr())

	// Remote control and retained status over MQTT (optional)
	if cfg.Simulator.CommandTopic != "" || cfg.Simulator.StatusTopic != "" {
		listener := remote.New(remote.Options{
			Client:       mqttClient,
			Controller:   ctrl,
			CommandTopic: cfg.Simulator.CommandTopic,
			StatusTopic:  cfg.Simulator.StatusTopic,
			QoS:          byte(cfg.MQTT.QoS),
			Logger:       log.Component("remote"),
		})
		if startErr := listener.Start(ctx); startErr != nil {
			return fmt.Errorf("starting remote control: %w", startErr)
		}
		defer func() {
			if closeErr := listener.Close(); closeErr != nil {
				log.Warn("error closing remote control", "error", closeErr)
			}
		}()
	}

	if cfg.Simulator.AutoStart {
		if _, startErr := ctrl.Start(ctx, audit.SourceStartup); startErr != nil {
			return fmt.Errorf("starting simulation: %w", startErr)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"topic", cfg.Simulator.Topic,
		"auto_start", cfg.Simulator.AutoStart,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// newRand returns a seeded source, or nil to let the engine seed from the clock.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1)) //nolint:gosec // simulation values, not security
}

// getConfigPath returns the configuration file path.
// Uses SENSORSIM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENSORSIM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
