// SMARWI Hub - window opener control hub
//
// This is the main entry point for the SMARWI Hub application.
// The hub discovers Vektiva SMARWI window openers over MQTT, mirrors
// their state, and exposes them through a REST/WebSocket API:
//   - Passive discovery from device liveness topics
//   - Local-first operation (no cloud dependency)
//   - Canonical state republished for other MQTT consumers
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/graylogic/smarwi-hub/migrations"

	"github.com/graylogic/smarwi-hub/internal/api"
	"github.com/graylogic/smarwi-hub/internal/auth"
	"github.com/graylogic/smarwi-hub/internal/device"
	"github.com/graylogic/smarwi-hub/internal/infrastructure/config"
	"github.com/graylogic/smarwi-hub/internal/infrastructure/database"
	"github.com/graylogic/smarwi-hub/internal/infrastructure/influxdb"
	"github.com/graylogic/smarwi-hub/internal/infrastructure/logging"
	"github.com/graylogic/smarwi-hub/internal/infrastructure/mqtt"
	"github.com/graylogic/smarwi-hub/internal/smarwi"
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
	// Subcommands that don't start the hub
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := runHashPassword(); err != nil {
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

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SMARWI Hub",
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

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.GetDeviceCount())

	// Build the user store from configuration
	users, err := buildUserStore(cfg.Security.Users)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	log.Info("user store initialised", "users", users.Count())

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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the SMARWI device manager
	manager := smarwi.NewManager(smarwi.ManagerConfig{
		RemoteID:    cfg.SMARWI.RemoteID,
		QoS:         byte(cfg.MQTT.QoS),
		StrictRidge: cfg.SMARWI.StrictRidge,
	}, mqttClient, log)
	defer func() {
		log.Info("stopping SMARWI manager")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing SMARWI manager", "error", closeErr)
		}
	}()

	// Create and start the API server. The WebSocket hub exists after
	// Start(), so manager callbacks are wired afterwards but before the
	// manager subscribes to the discovery pattern.
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Registry: registry,
		Manager:  manager,
		Users:    users,
		MQTT:     mqttClient,
		DB:       db,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Bridge device events to the registry, the WebSocket hub, InfluxDB
	// and the hub's own MQTT namespace.
	bridge := &eventBridge{
		log:      log,
		registry: registry,
		manager:  manager,
		hub:      apiServer.Hub(),
		mqtt:     mqttClient,
		influx:   influxClient,
		qos:      byte(cfg.MQTT.QoS),
	}
	manager.OnDiscovered(bridge.handleDiscovered)
	manager.OnPropertyChanged(bridge.handlePropertyChanged)

	// Start device discovery
	if startErr := manager.Start(); startErr != nil {
		return fmt.Errorf("starting SMARWI manager: %w", startErr)
	}
	log.Info("SMARWI discovery started", "remote_id", cfg.SMARWI.RemoteID)

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
	// 2. SMARWI manager
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("SMARWI Hub stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARWIHUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARWIHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildUserStore converts configured users into the auth store.
func buildUserStore(configured []config.UserConfig) (*auth.Store, error) {
	users := make([]auth.User, 0, len(configured))
	for _, u := range configured {
		users = append(users, auth.User{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         auth.Role(u.Role),
		})
	}
	return auth.NewStore(users)
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// metadataProps are the status properties persisted to the registry.
// Everything else is live state owned by the manager.
var metadataProps = smarwi.NewPropSet(
	smarwi.PropName,
	smarwi.PropFWVersion,
	smarwi.PropIPAddress,
)

// eventBridge fans device events out to the persistence, observability and
// republish layers.
//
// Callbacks run on MQTT handler goroutines, so each handler does a bounded
// amount of work: SQLite upserts, buffered InfluxDB writes and non-blocking
// WebSocket broadcasts.
type eventBridge struct {
	log      *logging.Logger
	registry *device.Registry
	manager  *smarwi.Manager
	hub      *api.Hub
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	qos      byte
}

// deviceStateDoc is the canonical state document republished to the hub's
// own MQTT namespace and broadcast to WebSocket clients.
type deviceStateDoc struct {
	DeviceID  string `json:"device_id"`
	Available bool   `json:"available"`
	StateCode int    `json:"state_code"`
	State     string `json:"state"`
	Position  *int   `json:"position,omitempty"`
	Closed    *bool  `json:"closed,omitempty"`
	Moving    bool   `json:"moving"`
	RSSI      *int   `json:"rssi,omitempty"`
}

// handleDiscovered persists a newly discovered device and announces it.
func (b *eventBridge) handleDiscovered(deviceID string) {
	ctx := context.Background()

	if err := b.syncMetadata(ctx, deviceID); err != nil {
		b.log.Error("persisting discovered device", "device", deviceID, "error", err)
	}

	event := map[string]any{"device_id": deviceID}
	if payload, err := json.Marshal(event); err == nil {
		topic := mqtt.Topics{}.Event("device_discovered")
		if pubErr := b.mqtt.Publish(topic, payload, b.qos, false); pubErr != nil {
			b.log.Warn("publishing discovery event", "device", deviceID, "error", pubErr)
		}
	}

	b.hub.Broadcast(api.ChannelDeviceDiscovered, map[string]any{"device_id": deviceID})
}

// handlePropertyChanged reacts to a changed-property set from one device.
func (b *eventBridge) handlePropertyChanged(deviceID string, changed smarwi.PropSet) {
	ctx := context.Background()

	dev, ok := b.manager.Device(deviceID)
	if !ok {
		return
	}
	status := dev.Status()

	if changed.Intersects(metadataProps) {
		if err := b.syncMetadata(ctx, deviceID); err != nil {
			b.log.Error("persisting device metadata", "device", deviceID, "error", err)
		}
	}

	if changed.Has(smarwi.PropAvailability) {
		b.handleAvailability(ctx, deviceID, status.Available())
	}

	if b.influx != nil {
		if changed.Has(smarwi.PropRSSI) {
			if rssi := status.RSSI(); rssi != nil {
				b.influx.WriteSignalStrength(deviceID, *rssi)
			}
		}
		if changed.Has(smarwi.PropStateCode) {
			b.influx.WriteStateCode(deviceID, int(status.StateCode()))
		}
	}

	b.republishState(deviceID, changed)
}

// handleAvailability updates liveness in the registry and observability
// sinks. A liveness message can precede discovery; the registry only
// tracks devices it has already seen.
func (b *eventBridge) handleAvailability(ctx context.Context, deviceID string, available bool) {
	if err := b.registry.SetDeviceOnline(ctx, deviceID, available); err != nil {
		b.log.Debug("liveness for unregistered device", "device", deviceID, "error", err)
	}

	if b.influx != nil {
		b.influx.WriteAvailability(deviceID, available)
	}

	payload := []byte("offline")
	if available {
		payload = []byte("online")
	}
	topic := mqtt.Topics{}.DeviceAvailability(deviceID)
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.log.Warn("publishing availability", "device", deviceID, "error", err)
	}

	b.hub.Broadcast(api.ChannelDeviceOnline, map[string]any{
		"device_id": deviceID,
		"available": available,
	})
}

// republishState publishes the canonical state document retained, so new
// subscribers see the last known state, and broadcasts it to WebSocket
// clients along with the names of the changed properties.
func (b *eventBridge) republishState(deviceID string, changed smarwi.PropSet) {
	doc, ok := b.buildStateDoc(deviceID)
	if !ok {
		return
	}

	if payload, err := json.Marshal(doc); err == nil {
		topic := mqtt.Topics{}.DeviceState(deviceID)
		if pubErr := b.mqtt.PublishRetained(topic, payload); pubErr != nil {
			b.log.Warn("republishing device state", "device", deviceID, "error", pubErr)
		}
	}

	props := changed.Props()
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.String())
	}

	b.hub.Broadcast(api.ChannelDeviceChanged, map[string]any{
		"device_id": deviceID,
		"changed":   names,
		"state":     doc,
	})
}

// buildStateDoc assembles the canonical state document for a device.
func (b *eventBridge) buildStateDoc(deviceID string) (*deviceStateDoc, bool) {
	dev, ok := b.manager.Device(deviceID)
	if !ok {
		return nil, false
	}
	cover, ok := b.manager.Cover(deviceID)
	if !ok {
		return nil, false
	}

	status := dev.Status()
	code := status.StateCode()

	doc := &deviceStateDoc{
		DeviceID:  deviceID,
		Available: cover.Available(),
		StateCode: int(code),
		State:     code.String(),
		Closed:    cover.IsClosed(),
		Moving:    cover.IsMoving(),
		RSSI:      status.RSSI(),
	}
	if pos, ok := cover.Position(); ok {
		doc.Position = &pos
	}
	return doc, true
}

// syncMetadata copies the current status metadata of a device into the
// registry, preserving the created timestamp on re-discovery.
func (b *eventBridge) syncMetadata(ctx context.Context, deviceID string) error {
	dev, ok := b.manager.Device(deviceID)
	if !ok {
		return nil
	}
	status := dev.Status()

	entry, err := b.registry.GetDevice(ctx, deviceID)
	if err != nil {
		entry = &device.Device{ID: deviceID}
	}

	if name := status.Name(); name != nil {
		entry.Name = *name
	}
	if fw := status.FWVersion(); fw != nil {
		entry.FirmwareVersion = *fw
	}
	if ip := status.IPAddress(); ip != nil {
		entry.IPAddress = *ip
	}
	entry.Online = status.Available()
	now := time.Now().UTC()
	entry.LastSeenAt = &now

	return b.registry.UpsertDevice(ctx, entry)
}

// runHashPassword reads a password from stdin and prints its Argon2id PHC
// hash for use in the security.users configuration section.
func runHashPassword() error {
	fmt.Fprint(os.Stderr, "Password: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Println(hash)
	return nil
}
