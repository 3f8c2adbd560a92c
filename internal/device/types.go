package device

import "time"

// Device is the registry record for a SMARWI unit discovered on the MQTT bus.
// It carries identity and metadata only; live motion state (position, state
// code) is owned by the smarwi package and is never persisted.
type Device struct {
	// ID is the device identifier from the MQTT topic (typically the
	// device's MAC address without separators).
	ID string `json:"id"`

	// Name is the human-readable device name reported in status frames.
	Name string `json:"name"`

	// FirmwareVersion is the firmware string reported by the device.
	FirmwareVersion string `json:"firmware_version"`

	// IPAddress is the device's LAN address in dotted-quad form.
	// Empty until the first status frame carrying an address arrives.
	IPAddress string `json:"ip_address"`

	// Online reflects the device's MQTT liveness topic.
	Online bool `json:"online"`

	// LastSeenAt is the time of the most recent status or liveness message.
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns an independent copy of the Device.
// The LastSeenAt pointer is duplicated so modifications to the copy
// do not affect the original. This is essential for cache isolation.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	if d.LastSeenAt != nil {
		t := *d.LastSeenAt
		cpy.LastSeenAt = &t
	}
	return &cpy
}
