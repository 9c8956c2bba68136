// Gray Logic Links - item, thing and link core
//
// This is the main entry point of the link core. It aggregates items,
// things, item-channel links, item-thing links, module types and rules
// from their providers, keeps default links in step with discovered
// things, and serves the result over REST and WebSocket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-links/migrations"

	"github.com/nerrad567/gray-logic-links/internal/api"
	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-links/internal/metrics"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when GRAYLOGIC_CONFIG is not set.
	defaultConfigPath = "configs/config.yaml"

	// eventQueueSize bounds the events waiting for delivery.
	eventQueueSize = 1024

	// registrySampleInterval is how often registry sizes are written to InfluxDB.
	registrySampleInterval = time.Minute
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Links",
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

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	m := metrics.New()
	c := newCore(log, m)

	// The hub and the event queue are shared by every registry.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)

	fanout := event.NewMulti(hub)
	queue := event.NewQueue(m.Publisher(fanout), eventQueueSize, log.Component("events"))
	go queue.Run(ctx)
	defer queue.Close()
	c.publishEvents(queue)

	// MQTT carries thing discovery in and core events out.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		fanout.Attach(event.NewMQTTPublisher(mqttClient, log.Component("events")))
	} else {
		log.Info("MQTT disabled, thing discovery is off")
	}

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		fanout.Attach(event.NewHistoryRecorder(influxClient))
		go sampleRegistrySizes(ctx, influxClient, registrySampleInterval, c.sizes)
	} else {
		log.Info("InfluxDB disabled")
	}

	if loadErr := c.loadDefinitions(cfg.Automation); loadErr != nil {
		return loadErr
	}

	backend, err := selectBackend(cfg.Storage, db)
	if err != nil {
		return err
	}
	c.selectStorage(backend)
	log.Info("storage selected", "backend", backend.Name())

	c.manager.Activate(ctx, cfg.Links.AutoLinks)
	defer c.manager.Deactivate()
	log.Info("thing link manager active", "auto_links", cfg.Links.AutoLinks)

	if mqttClient != nil {
		if startErr := c.discovery.Start(mqttClient); startErr != nil {
			return fmt.Errorf("starting thing discovery: %w", startErr)
		}
		log.Info("thing discovery started")
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Items:      c.items,
		Things:     c.things,
		Links:      c.links,
		ThingLinks: c.thingLinks,
		Types:      c.types,
		Rules:      c.rules,
		Metrics:    m.Handler(),
		Hub:        hub,
		Checks:     healthChecks(db, mqttClient, influxClient),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"items", len(c.items.GetAll()),
		"things", len(c.things.GetAll()),
		"links", len(c.links.GetAll()),
		"rules", len(c.rules.GetAll()),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, link manager,
	// InfluxDB, MQTT, event queue, database.

	log.Info("Gray Logic Links stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthChecks returns the checks reported by GET /api/v1/health. Disabled
// dependencies are left out.
func healthChecks(db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"database": db.HealthCheck,
	}
	if mqttClient != nil {
		checks["mqtt"] = mqttClient.HealthCheck
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient.HealthCheck
	}
	return checks
}

// healthCheck verifies every enabled connection at startup and returns the
// first failure.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
