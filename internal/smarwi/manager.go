package smarwi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MQTTClient is the transport interface used by the Manager.
// This is satisfied by *mqtt.Client and allows mocking in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error
}

// DiscoveredFunc is called when a previously unseen device applies its
// first status frame.
type DiscoveredFunc func(deviceID string)

// PropertyChangedFunc is called with the changed-property set after each
// applied frame.
type PropertyChangedFunc func(deviceID string, changed PropSet)

// Manager discovers SMARWI devices under a remote ID and owns their
// lifecycle.
//
// Discovery works by subscribing to the wildcard online topic pattern:
// the first liveness message of an unseen device ID instantiates its core
// and subscribes its status and config topics. Devices are torn down
// together with the manager; there is no per-device removal in the vendor
// protocol.
//
// Callbacks are invoked from transport handler goroutines. Frames for one
// device arrive in order on its topics; distinct devices are independent.
type Manager struct {
	remoteID    string
	qos         byte
	strictRidge bool
	mqtt        MQTTClient
	logger      Logger

	mu      sync.RWMutex
	devices map[string]*Device
	covers  map[string]*Cover

	handlerMu    sync.RWMutex
	onDiscovered []DiscoveredFunc
	onChanged    []PropertyChangedFunc
}

// ManagerConfig holds the configuration for a Manager.
type ManagerConfig struct {
	// RemoteID is the remote identifier configured on the devices; it is
	// the second segment of every device topic.
	RemoteID string

	// QoS is the quality-of-service level for subscriptions and commands.
	QoS byte

	// StrictRidge gates cover availability on a fixed ridge.
	StrictRidge bool
}

// NewManager creates a manager for all devices under cfg.RemoteID.
func NewManager(cfg ManagerConfig, client MQTTClient, logger Logger) *Manager {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Manager{
		remoteID:    cfg.RemoteID,
		qos:         cfg.QoS,
		strictRidge: cfg.StrictRidge,
		mqtt:        client,
		logger:      logger,
		devices:     make(map[string]*Device),
		covers:      make(map[string]*Cover),
	}
}

// OnDiscovered registers a discovery observer. Must be called before Start.
func (m *Manager) OnDiscovered(fn DiscoveredFunc) {
	m.handlerMu.Lock()
	m.onDiscovered = append(m.onDiscovered, fn)
	m.handlerMu.Unlock()
}

// OnPropertyChanged registers a change observer. Must be called before Start.
func (m *Manager) OnPropertyChanged(fn PropertyChangedFunc) {
	m.handlerMu.Lock()
	m.onChanged = append(m.onChanged, fn)
	m.handlerMu.Unlock()
}

// Start subscribes to the discovery pattern. New devices are picked up as
// soon as they announce themselves on their online topic.
func (m *Manager) Start() error {
	pattern := DiscoveryPattern(m.remoteID)
	m.logger.Debug("subscribing to discovery pattern", "pattern", pattern)

	if err := m.mqtt.Subscribe(pattern, m.qos, m.handleOnline); err != nil {
		return fmt.Errorf("smarwi manager: subscribing to %s: %w", pattern, err)
	}
	return nil
}

// Close unsubscribes all topics. Devices and covers remain readable but no
// longer receive frames.
func (m *Manager) Close() error {
	var firstErr error
	if err := m.mqtt.Unsubscribe(DiscoveryPattern(m.remoteID)); err != nil {
		firstErr = err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if err := m.mqtt.Unsubscribe(d.topics.Status()); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := m.mqtt.Unsubscribe(d.topics.ConfigAdvanced()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Device returns the device core for an ID.
func (m *Manager) Device(id string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	return d, ok
}

// Cover returns the cover view for a device ID.
func (m *Manager) Cover(id string) (*Cover, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.covers[id]
	return c, ok
}

// DeviceIDs returns the IDs of all known devices, sorted.
func (m *Manager) DeviceIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// handleOnline processes liveness messages from the wildcard discovery
// subscription. The first sighting of a device ID instantiates its core.
func (m *Manager) handleOnline(topic string, payload []byte) error {
	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	device, err := m.ensureDevice(deviceID)
	if err != nil {
		return err
	}

	device.HandleOnlineMessage(payload)
	return nil
}

// ensureDevice returns the device for an ID, creating and wiring it on
// first sight.
func (m *Manager) ensureDevice(deviceID string) (*Device, error) {
	m.mu.RLock()
	device, known := m.devices[deviceID]
	m.mu.RUnlock()
	if known {
		return device, nil
	}

	m.mu.Lock()
	if device, known = m.devices[deviceID]; known {
		m.mu.Unlock()
		return device, nil
	}

	m.logger.Info("new SMARWI device sighted", "device", deviceID)

	device = NewDevice(deviceID, m.remoteID, m.mqtt, m.qos)
	device.SetLogger(m.logger)

	cover := NewCover(device, m.strictRidge)
	cover.SetLogger(m.logger)

	device.OnDiscovered(func() {
		m.logger.Info("discovered new SMARWI device", "device", deviceID)
		m.handlerMu.RLock()
		handlers := m.onDiscovered
		m.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(deviceID)
		}
	})

	device.OnUpdate(func(changed PropSet) {
		// The cover view reconciles first so observers read consistent
		// derived state.
		cover.HandleUpdate(changed)

		m.handlerMu.RLock()
		handlers := m.onChanged
		m.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(deviceID, changed)
		}
	})

	m.devices[deviceID] = device
	m.covers[deviceID] = cover
	m.mu.Unlock()

	if err := m.mqtt.Subscribe(device.topics.Status(), m.qos, func(_ string, payload []byte) error {
		return device.HandleStatusMessage(payload)
	}); err != nil {
		return nil, fmt.Errorf("smarwi manager: subscribing status of %s: %w", deviceID, err)
	}

	if err := m.mqtt.Subscribe(device.topics.ConfigAdvanced(), m.qos, func(_ string, payload []byte) error {
		return device.HandleConfigMessage(payload)
	}); err != nil {
		return nil, fmt.Errorf("smarwi manager: subscribing config of %s: %w", deviceID, err)
	}

	return device, nil
}

// deviceIDFromTopic extracts the device ID from a topic like
// "ion/{remote_id}/%{device_id}/online".
func deviceIDFromTopic(topic string) (string, error) {
	const deviceSegment = 2

	parts := strings.Split(topic, "/")
	if len(parts) <= deviceSegment || !strings.HasPrefix(parts[deviceSegment], "%") {
		return "", fmt.Errorf("%w: unexpected topic %q", ErrMalformedFrame, topic)
	}

	id := strings.TrimPrefix(parts[deviceSegment], "%")
	if id == "" {
		return "", fmt.Errorf("%w: empty device id in topic %q", ErrMalformedFrame, topic)
	}
	return id, nil
}
