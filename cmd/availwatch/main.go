// Availability Watch - Unavailability Classification & Report Engine
//
// This is the main entry point for the Availability Watch service. It
// watches entity availability across a home-automation deployment:
//   - Classifies unavailable/unknown entities into failed devices and
//     standalone entities
//   - Publishes a paginated markdown report over retained MQTT
//   - Serves the latest report and registry over a REST API
//   - Records severity counts and state transitions in InfluxDB
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/availwatch/migrations"

	"github.com/nerrad567/availwatch/internal/api"
	"github.com/nerrad567/availwatch/internal/infrastructure/config"
	"github.com/nerrad567/availwatch/internal/infrastructure/database"
	"github.com/nerrad567/availwatch/internal/infrastructure/influxdb"
	"github.com/nerrad567/availwatch/internal/infrastructure/logging"
	"github.com/nerrad567/availwatch/internal/infrastructure/mqtt"
	"github.com/nerrad567/availwatch/internal/registry"
	"github.com/nerrad567/availwatch/internal/report"
	"github.com/nerrad567/availwatch/internal/scheduler"
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
	issueToken := flag.String("issue-token", "", "print a maintenance API token for the given subject and exit")
	flag.Parse()

	if *issueToken != "" {
		if err := printToken(*issueToken); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printToken mints a maintenance token against the configured JWT secret.
// Used by operators to authorise the registry removal endpoint.
func printToken(subject string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := api.GenerateToken(subject, cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Availability Watch",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise entity registry
	entityRepo := registry.NewSQLiteEntityRepository(db.DB)
	deviceRepo := registry.NewSQLiteDeviceRepository(db.DB)
	reg := registry.NewRegistry(entityRepo, deviceRepo)
	reg.SetLogger(log)

	if refreshErr := reg.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading entity registry: %w", refreshErr)
	}
	log.Info("entity registry initialised",
		"entities", reg.EntityCount(),
		"devices", reg.DeviceCount(),
	)

	// Live state store, fed by the MQTT state topic
	states := registry.NewStateStore()
	states.SetLogger(log)

	// Connect to MQTT broker
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		// Record every real status transition as telemetry
		states.SetTransitionHook(func(entityID string, status report.Status) {
			influxClient.WriteEntityTransition(entityID, string(status))
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Subscribe to entity state updates
	topics := mqtt.Topics{}
	err = mqttClient.Subscribe(topics.AllEntityStates(), byte(cfg.MQTT.QoS), func(topic string, payload []byte) error {
		if handleErr := states.HandleStateMessage(topic, payload); handleErr != nil {
			log.Warn("dropping malformed state message", "topic", topic, "error", handleErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to state topic: %w", err)
	}
	log.Info("subscribed to entity states", "topic", topics.AllEntityStates())

	// Assemble the report runner
	sinks := []scheduler.Sink{
		scheduler.NewMQTTSink(mqttClient, topics.Report()),
	}
	if influxClient != nil {
		sinks = append(sinks, scheduler.NewInfluxSink(influxClient))
	}

	builder := registry.NewSnapshotBuilder(reg, states)
	runner := scheduler.NewRunner(builder, scheduler.Config{
		StartupDelay: cfg.GetStartupDelay(),
		Interval:     cfg.GetScanInterval(),
		Options: report.Options{
			IgnoreUnknown: cfg.Report.IgnoreUnknown,
			Exclusions:    report.NewExclusionSet(cfg.Report.ExcludedDevices, cfg.Report.ExcludedEntities),
			MaxPageBytes:  cfg.Report.MaxPageBytes,
		},
	}, sinks...)
	runner.SetLogger(log)
	runner.Start(ctx)
	defer func() {
		log.Info("stopping report runner")
		runner.Stop()
	}()
	log.Info("report runner started",
		"startup_delay", cfg.GetStartupDelay(),
		"interval", cfg.GetScanInterval(),
	)

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Registry: reg,
		States:   states,
		Reports:  runner,
		Version:  version,
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

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Report runner
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Availability Watch stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AVAILWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AVAILWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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
