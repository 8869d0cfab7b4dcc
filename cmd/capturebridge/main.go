// Gray Logic Capture Bridge
//
// This is the main entry point for the capture command bridge. It turns
// capture requests (still capture, autofocus, confidence threshold, device
// reset, ISP 3A) arriving over MQTT or the HTTP API into wire packets and
// fans each packet out to the observers configured for its stream.
//
// Usage:
//
//	capturebridge                      run the bridge
//	capturebridge token -subject ops   mint an API access token
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/api"
	"github.com/nerrad567/gray-logic-capture/internal/bridge"
	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/commandlog"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-capture/internal/observer"
	"github.com/nerrad567/gray-logic-capture/migrations"
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

// healthCheckTimeout bounds the startup health check.
const healthCheckTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting capture bridge",
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

	db, err := database.Open(ctx, cfg.Database)
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

	commandLog := commandlog.NewSQLiteRepository(db.DB)

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
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB is optional; the bridge runs without packet metrics.
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// The hub must exist before the streams so it can observe them.
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log)
		go hub.Run(ctx)
	}

	commanders, err := buildCommanders(cfg, log, observersFor(cfg, log, mqttClient, commandLog, influxClient, hub))
	if err != nil {
		return err
	}
	log.Info("capture streams configured",
		"streams", commanders.Names(),
		"isp3a_truncation", cfg.Capture.ISP3ATruncation,
	)

	br, err := bridge.NewBridge(bridge.Options{
		Commanders: commanders,
		MQTTClient: mqttClient,
		Version:    version,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if startErr := br.Start(ctx); startErr != nil {
		return fmt.Errorf("starting bridge: %w", startErr)
	}
	defer func() {
		log.Info("stopping bridge")
		br.Stop()
	}()
	log.Info("capture bridge started")

	if cfg.API.Enabled {
		health := map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		}
		if influxClient != nil {
			health["influxdb"] = influxClient
		}

		srv, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Security:   cfg.Security,
			Logger:     log,
			Executor:   br,
			Streams:    commanders,
			CommandLog: commandLog,
			Health:     health,
			Hub:        hub,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		log.Warn("startup health check failed", "error", err)
	} else {
		log.Info("all services healthy")
	}

	log.Info("capture bridge running, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping services")

	return nil
}

// observersFor returns the observers attached to every stream, in
// configuration order. Disabled or unavailable sinks are left out so the
// broadcast never holds a typed nil.
func observersFor(
	cfg *config.Config,
	log *logging.Logger,
	mqttClient *mqtt.Client,
	commandLog *commandlog.SQLiteRepository,
	influxClient *influxdb.Client,
	hub *api.Hub,
) []capture.Notifier {
	var observers []capture.Notifier

	if cfg.Capture.PublishPackets && mqttClient != nil {
		observers = append(observers, observer.NewMQTT(mqttClient, byte(cfg.MQTT.QoS), log)) //nolint:gosec // QoS validated to 0-2
	}
	if cfg.Capture.Audit && commandLog != nil {
		observers = append(observers, observer.NewAudit(commandLog, log))
	}
	if influxClient != nil {
		observers = append(observers, observer.NewMetrics(influxClient))
	}
	if hub != nil {
		observers = append(observers, hub)
	}

	return observers
}

// buildCommanders creates one dispatcher per configured stream. All streams
// share the same observer list and truncation policy.
func buildCommanders(cfg *config.Config, log *logging.Logger, observers []capture.Notifier) (capture.Commanders, error) {
	policy, err := capture.ParseTruncationPolicy(cfg.Capture.ISP3ATruncation)
	if err != nil {
		return nil, fmt.Errorf("capture config: %w", err)
	}

	notifier := observer.NewBroadcast(log, observers...)

	commanders := make(capture.Commanders, len(cfg.Capture.Streams))
	for _, s := range cfg.Capture.Streams {
		stream := capture.StreamInfo{
			Name:     s.Name,
			DeviceID: s.DeviceID,
			Channel:  s.Channel,
		}
		commanders[s.Name] = capture.NewCommander(stream, notifier,
			capture.WithTruncationPolicy(policy),
			capture.WithLogger(log),
		)
	}

	return commanders, nil
}

// getConfigPath returns the configuration file path.
// Checks GRAYLOGIC_CONFIG environment variable first, falls back to default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all connected services are responding.
//
// Parameters:
//   - ctx: Parent context
//   - db: Database connection
//   - mqttClient: MQTT client
//   - influxClient: InfluxDB client (may be nil when disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
