package smarwi

import (
	"fmt"
	"sync"
)

// Publisher is the outbound transport interface used by devices.
// This is satisfied by *mqtt.Client and allows mocking in tests.
type Publisher interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Topics builds the MQTT topics of a single device.
//
// The layout is ion/{remote_id}/%{device_id}/{suffix}; the percent sign is
// part of the vendor protocol, not an encoding artifact.
type Topics struct {
	base string
}

// NewTopics creates a topic builder for one device.
func NewTopics(remoteID, deviceID string) Topics {
	return Topics{base: fmt.Sprintf("ion/%s/%%%s", remoteID, deviceID)}
}

// Status returns the inbound status frame topic.
func (t Topics) Status() string { return t.base + "/status" }

// Online returns the inbound liveness topic.
func (t Topics) Online() string { return t.base + "/online" }

// ConfigAdvanced returns the inbound finetune settings response topic.
func (t Topics) ConfigAdvanced() string { return t.base + "/config/advanced" }

// Command returns the outbound command topic.
func (t Topics) Command() string { return t.base + "/cmd" }

// DiscoveryPattern returns the wildcard pattern matching the online topic of
// every device under a remote ID.
func DiscoveryPattern(remoteID string) string {
	return fmt.Sprintf("ion/%s/+/online", remoteID)
}

// Device is the protocol core for a single SMARWI window opener.
//
// It owns the status model and the finetune cache, decodes inbound frames
// and issues commands. A device is created by the Manager on discovery and
// lives until the manager shuts down.
//
// Commands are fire-and-forget: no acknowledgment is tracked, a dropped
// command is not retried, and the effect of a command is only observed once
// the device reports new status. Command dispatch is serialized per device
// so multi-message sequences keep their order on the wire.
type Device struct {
	id       string
	topics   Topics
	pub      Publisher
	qos      byte
	status   *Status
	finetune *Finetune
	logger   Logger

	// cmdMu serializes outbound command dispatch. The double-stop sequence
	// must reach the broker as an ordered pair.
	cmdMu sync.Mutex

	// onUpdate receives the changed-property set after each applied frame.
	onUpdate func(changed PropSet)

	// onDiscovered fires once, on the first successfully applied status frame.
	onDiscovered func()
}

// NewDevice creates a device core for the given device ID.
// Register callbacks with OnUpdate/OnDiscovered before routing frames to it.
func NewDevice(id, remoteID string, pub Publisher, qos byte) *Device {
	d := &Device{
		id:     id,
		topics: NewTopics(remoteID, id),
		pub:    pub,
		qos:    qos,
		status: NewStatus(),
		logger: noopLogger{},
	}
	d.finetune = newFinetune(d)
	return d
}

// ID returns the device ID (the serial extracted from the topic).
func (d *Device) ID() string { return d.id }

// Status returns the device status model.
func (d *Device) Status() *Status { return d.status }

// Finetune returns the finetune settings cache.
func (d *Device) Finetune() *Finetune { return d.finetune }

// SetLogger sets the logger for the device.
func (d *Device) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// OnUpdate registers the changed-property callback. Must be set before the
// device starts receiving frames.
func (d *Device) OnUpdate(fn func(changed PropSet)) {
	d.onUpdate = fn
}

// OnDiscovered registers the discovery callback, fired exactly once on the
// first successfully applied status frame.
func (d *Device) OnDiscovered(fn func()) {
	d.onDiscovered = fn
}

// HandleStatusMessage ingests a raw status frame.
//
// Malformed frames are rejected wholesale and reported; they never
// partially apply and never stop the device's session. A device-reported
// error state is logged but does not block further commands.
func (d *Device) HandleStatusMessage(payload []byte) error {
	changed, first, err := d.status.Apply(string(payload))
	if err != nil {
		return fmt.Errorf("device %s: %w", d.id, err)
	}

	d.logger.Debug("status frame applied",
		"device", d.id,
		"changed", changed.String(),
	)

	if first && d.onDiscovered != nil {
		d.onDiscovered()
	}

	if changed.Has(PropStateCode) {
		if code := d.status.StateCode(); code.IsError() && code != CodeUnknown {
			d.logger.Error("device reported error state",
				"device", d.id,
				"state_code", code.String(),
			)
		}
	}

	// A fresh IP address means the finetune settings may be readable now
	// (and may have been reconfigured through the device's own UI).
	if changed.Has(PropIPAddress) {
		if err := d.finetune.RequestRefresh(); err != nil {
			d.logger.Warn("finetune refresh after IP change failed",
				"device", d.id,
				"error", err,
			)
		}
	}

	if !changed.IsEmpty() {
		d.notify(changed)
	}
	return nil
}

// HandleOnlineMessage ingests a liveness payload ("1" means online).
// Observers are signaled via PropAvailability only when the flag changes.
func (d *Device) HandleOnlineMessage(payload []byte) {
	available := string(payload) == "1"
	if !d.status.SetAvailability(available) {
		return
	}

	state := "unavailable"
	if available {
		state = "available"
	}
	d.logger.Info("device availability changed", "device", d.id, "state", state)

	d.notify(NewPropSet(PropAvailability))
}

// HandleConfigMessage ingests a finetune settings response frame.
// Observers are signaled via PropFinetuneSettings only on actual change.
func (d *Device) HandleConfigMessage(payload []byte) error {
	changed, err := d.finetune.Apply(string(payload))
	if err != nil {
		return fmt.Errorf("device %s: %w", d.id, err)
	}
	if changed {
		d.notify(NewPropSet(PropFinetuneSettings))
	}
	return nil
}

// Open moves the window to the given position in percent. Positions of 0
// and 1 are semantically "close", not "open to near-zero", and are aliased
// to Close.
func (d *Device) Open(position int) error {
	if position < 0 || position > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidPosition, position)
	}
	if position <= 1 {
		return d.Close()
	}
	d.logger.Info("opening window", "device", d.id, "position", position)
	return d.command(fmt.Sprintf("open;%d", position))
}

// Close closes the window.
func (d *Device) Close() error {
	d.logger.Info("closing window", "device", d.id)
	return d.command("close")
}

// Stop halts the movement if the window is moving.
//
// The stop command is sent twice: the first stop halts the motor and
// releases the ridge lock, the second re-engages it. The pair is dispatched
// under the command mutex so no other command can slip between the two.
func (d *Device) Stop() error {
	if !d.status.StateCode().IsMoving() {
		// When the motor is not moving, "stop" would release the ridge.
		return nil
	}
	d.logger.Info("stopping window movement", "device", d.id)
	return d.command("stop", "stop")
}

// ToggleRidgeFixed fixes (true) or releases (false) the ridge. Both
// transitions use the same underlying "stop" command by device design; a
// request matching the current state is a no-op.
func (d *Device) ToggleRidgeFixed(fixed bool) error {
	switch {
	case fixed && !d.status.RidgeFixed():
		d.logger.Info("fixing ridge", "device", d.id)
		return d.command("stop")
	case !fixed && d.status.RidgeFixed():
		d.logger.Info("releasing ridge", "device", d.id)
		return d.command("stop")
	default:
		return nil
	}
}

// command publishes one or more payloads to the device command topic,
// in order, under the command mutex.
func (d *Device) command(payloads ...string) error {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	for _, payload := range payloads {
		d.logger.Debug("sending command", "device", d.id, "payload", payload)
		if err := d.pub.Publish(d.topics.Command(), []byte(payload), d.qos, false); err != nil {
			return fmt.Errorf("device %s: sending command %q: %w", d.id, payload, err)
		}
	}
	return nil
}

// notify dispatches the changed-property set to the registered observer.
func (d *Device) notify(changed PropSet) {
	if d.onUpdate != nil {
		d.onUpdate(changed)
	}
}
