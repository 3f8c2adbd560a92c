package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSignalStrength records a device's WiFi signal strength reading.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "aabbccddeeff")
//   - rssi: Signal strength in dBm (typically -90 to -30)
//
// Example:
//
//	client.WriteSignalStrength("aabbccddeeff", -67)
func (c *Client) WriteSignalStrength(deviceID string, rssi int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"signal_strength",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"rssi_dbm": rssi,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStateCode records a device's raw motion state code.
//
// Recording every code transition makes it possible to chart movement
// cycles and spot error states (codes below 200) over time.
//
// Parameters:
//   - deviceID: Device identifier
//   - code: Raw state code from the device's status frame
func (c *Client) WriteStateCode(deviceID string, code int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_code",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"code": code,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records a device availability transition.
//
// Parameters:
//   - deviceID: Device identifier
//   - available: Whether the device is currently controllable
func (c *Client) WriteAvailability(deviceID string, available bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if available {
		value = 1
	}

	point := write.NewPoint(
		"availability",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"available": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePosition records an estimated window position.
//
// Positions are recorded only when known; callers should skip writes
// while the estimate is unknown rather than record a sentinel.
//
// Parameters:
//   - deviceID: Device identifier
//   - position: Window position percentage (0 closed, 100 fully open)
func (c *Client) WritePosition(deviceID string, position int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"position",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"percent": position,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("hub_stats",
//	    map[string]string{"host": "hub-01"},
//	    map[string]interface{}{"devices_online": 4})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
