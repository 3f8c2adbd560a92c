// Package mqtt provides MQTT client connectivity for SMARWI Hub.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// SMARWI devices speak MQTT natively: each device publishes status frames
// and listens for commands under its own ion/{remote_id}/ topic tree. The
// hub connects to the same broker, drives the devices through this client,
// and republishes canonical state under its own smarwihub/ namespace.
//
//	SMARWI devices ↔ MQTT Broker ↔ SMARWI Hub ↔ HTTP/WebSocket clients
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to device liveness updates
//	err = client.Subscribe("ion/remotes/+/online", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Republish canonical device state
//	topic := mqtt.Topics{}.DeviceState("aabbccddeeff")
//	client.PublishRetained(topic, []byte(`{"position":40}`))
package mqtt
