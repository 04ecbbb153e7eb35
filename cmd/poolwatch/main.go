// Pool Watch Core - pool controller data service
//
// This is the main entry point for the Pool Watch Core backend. It resolves
// users by email against the controller database (reached through an SSH
// tunnel), returns their controllers and latest sensor readings, and keeps
// short-lived sessions in memory for refresh calls.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iotnatural/poolwatch-core/internal/account"
	"github.com/iotnatural/poolwatch-core/internal/api"
	"github.com/iotnatural/poolwatch-core/internal/controller"
	"github.com/iotnatural/poolwatch-core/internal/datasource"
	"github.com/iotnatural/poolwatch-core/internal/export"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/influxdb"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/logging"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/mqtt"
	"github.com/iotnatural/poolwatch-core/internal/session"
	"github.com/iotnatural/poolwatch-core/migrations"
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
	log.Info("starting Pool Watch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"driver", cfg.Database.Driver,
		"level", cfg.Logging.Level,
	)

	checks := make(map[string]api.HealthChecker)

	provider, closeProvider, err := openProvider(ctx, cfg, log, checks)
	if err != nil {
		return fmt.Errorf("opening datasource: %w", err)
	}
	defer closeProvider()

	sessions := session.NewStore(cfg.SessionTTL())
	go sessions.Run(ctx, cfg.SessionSweepInterval())
	log.Info("session store ready",
		"ttl", cfg.SessionTTL(),
		"sweep_interval", cfg.SessionSweepInterval(),
	)

	sinks, closeSinks := connectSinks(ctx, cfg, log, checks)
	defer closeSinks()

	schema := controller.ConfigFrom(cfg.Schema)
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("validating schema mapping: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Security:     cfg.Security,
		Debug:        cfg.Debug,
		Logger:       log,
		Provider:     provider,
		Accounts:     account.NewService(account.ConfigFrom(cfg.Schema)),
		Aggregator:   controller.NewAggregator(schema),
		Sessions:     sessions,
		Exporter:     export.NewPublisher(log, sinks...),
		Checks:       checks,
		QueryTimeout: cfg.QueryTimeout(),
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path from POOLWATCH_CONFIG or the default.
func getConfigPath() string {
	if path := os.Getenv("POOLWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openProvider builds the datasource selected by database.driver.
// The returned closer is always safe to call.
func openProvider(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (datasource.Provider, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		local, err := datasource.OpenLocal(ctx, database.Config{Path: cfg.Database.Path}, migrations.FS)
		if err != nil {
			return nil, func() {}, err
		}
		checks["database"] = local.DB()
		log.Info("local database ready", "path", cfg.Database.Path)

		return local, func() {
			log.Info("closing local database")
			if closeErr := local.Close(); closeErr != nil {
				log.Error("error closing local database", "error", closeErr)
			}
		}, nil

	default:
		p := datasource.NewTunnelProvider(datasource.TunnelConfigFrom(cfg))
		p.SetLogger(log)
		log.Info("remote database via SSH tunnel",
			"ssh_host", cfg.SSH.Host,
			"ssh_port", cfg.SSH.Port,
			"remote", fmt.Sprintf("%s:%d", cfg.SSH.RemoteHost, cfg.SSH.RemotePort),
			"database", cfg.Database.Name,
		)
		return p, func() {}, nil
	}
}

// connectSinks connects the optional export targets.
// A target that fails to connect is logged and skipped; export is best-effort.
func connectSinks(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) ([]export.Sink, func()) {
	var (
		sinks   []export.Sink
		closers []func()
	)

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn("MQTT unavailable, snapshot publishing disabled", "error", err)
		} else {
			client.SetLogger(log)
			checks["mqtt"] = client
			sinks = append(sinks, export.NewMQTTSink(client, cfg.Schema.ControllerColumn))
			closers = append(closers, func() {
				log.Info("disconnecting from MQTT")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			})
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		}
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			log.Warn("InfluxDB unavailable, reading export disabled", "error", err)
		} else {
			client.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			checks["influxdb"] = client
			sinks = append(sinks, export.NewInfluxSink(client, export.InfluxFields{
				Controller: cfg.Schema.ControllerColumn,
				Sensor:     cfg.Schema.SensorColumn,
				Value:      cfg.Schema.ValueColumn,
				Name:       "Name",
			}))
			closers = append(closers, func() {
				log.Info("closing InfluxDB connection")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			})
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	return sinks, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
