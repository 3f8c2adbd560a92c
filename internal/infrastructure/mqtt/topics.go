package mqtt

import "fmt"

// Topic prefixes for hub-published topics.
//
// SMARWI devices publish and subscribe under their own ion/{remote_id}/
// hierarchy, which is owned by the smarwi package. The topics here are the
// hub's OWN namespace: canonical state republished for other consumers
// (dashboards, automation engines) and the hub's liveness status.
const (
	// TopicPrefixHub is the base for all hub-published topics.
	TopicPrefixHub = "smarwihub"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "smarwihub/system"
)

// Topics provides builders for hub MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("aabbccddeeff")
//	// Returns: "smarwihub/device/aabbccddeeff/state"
type Topics struct{}

// DeviceState returns the topic for canonical device state republished
// by the hub. Published retained so new subscribers see the last state.
//
// Example: smarwihub/device/aabbccddeeff/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefixHub, deviceID)
}

// DeviceAvailability returns the topic for device availability updates.
//
// Example: smarwihub/device/aabbccddeeff/availability
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/availability", TopicPrefixHub, deviceID)
}

// Event returns the topic for hub events such as device discovery.
//
// Example: smarwihub/event/device_discovered
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixHub, eventType)
}

// SystemStatus returns the hub status topic used for the online/offline
// lifecycle messages and the Last Will and Testament.
//
// Example: smarwihub/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStates returns a pattern matching all republished device states.
//
// Pattern: smarwihub/device/+/state
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/device/+/state", TopicPrefixHub)
}

// AllEvents returns a pattern matching all hub events.
//
// Pattern: smarwihub/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixHub)
}

// AllTopics returns a pattern matching every hub-published topic.
// Use with caution - this receives ALL hub traffic.
//
// Pattern: smarwihub/#
func (Topics) AllTopics() string {
	return "smarwihub/#"
}
