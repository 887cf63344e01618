// FIWARE Gateway - session and credential front door for a FIWARE stack.
//
// The gateway signs users in against Keyrock, keeps their upstream
// credentials in server-side sessions, and proxies Orion, IoT Agent and
// Keyrock administration calls with the right trust headers attached.
// Clients hold a single gateway JWT and never see a FIWARE token.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/activity"
	"github.com/ssio-project/fiware-gateway/internal/api"
	"github.com/ssio-project/fiware-gateway/internal/auth"
	"github.com/ssio-project/fiware-gateway/internal/fiware/iotagent"
	"github.com/ssio-project/fiware-gateway/internal/fiware/keyrock"
	"github.com/ssio-project/fiware-gateway/internal/fiware/pep"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/influxdb"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/logging"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/mqtt"
	"github.com/ssio-project/fiware-gateway/internal/session"
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
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting FIWARE gateway",
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

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	upstreamTimeout := time.Duration(cfg.Gateway.Timeouts.Upstream) * time.Second

	// Session store and token lifecycle
	store := session.NewStore()
	store.SetLogger(log)

	keyrockClient := keyrock.New(cfg.Keyrock, upstreamTimeout)
	keyrockClient.SetLogger(log)

	sessions := session.NewManager(store, keyrockClient)
	sessions.SetLogger(log)

	jwtTTL := time.Duration(cfg.JWT.TTL) * time.Second
	authService := auth.NewService(keyrockClient, store, sessions, cfg.JWT.Secret, jwtTTL)
	authService.SetLogger(log)

	// Upstream clients
	pepForwarder := pep.New(cfg.PEPProxy, cfg.FIWARE, upstreamTimeout)
	iotClient := iotagent.New(cfg.IoTAgent, cfg.FIWARE, upstreamTimeout)
	log.Info("upstream clients ready",
		"keyrock", cfg.Keyrock.URL,
		"pep_proxy", cfg.PEPProxy.URL,
		"iot_agent", cfg.IoTAgent.URL,
		"iot_agent_south", iotClient.SouthPortURL(),
	)

	// Optional MQTT transport for device measurements
	if cfg.IoTAgent.MQTTIngestion {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		iotClient.SetPublisher(mqttClient)
		log.Info("MQTT ingestion enabled",
			"broker", cfg.MQTT.BrokerURL(),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// Activity log with optional InfluxDB mirror
	activityLog := activity.NewLog()

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil && !errors.Is(err, influxdb.ErrDisabled) {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			influxClient.Close()
		}()
		log.Info("InfluxDB mirror connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	// HTTP server
	server, err := api.New(api.Deps{
		Config:   cfg.Gateway,
		WS:       cfg.WebSocket,
		Logger:   log,
		Auth:     authService,
		Store:    store,
		Sessions: sessions,
		Keyrock:  keyrockClient,
		PEP:      pepForwarder,
		IoT:      iotClient,
		Activity: activityLog,
		Influx:   influxClient,
		Version:  version,
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
	log.Info("FIWARE gateway stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GATEWAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GATEWAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
