// Package smarwi implements the protocol core for Vektiva SMARWI window
// openers controlled over MQTT.
//
// A SMARWI device publishes newline-separated key:value status frames and
// accepts plain-text commands. This package provides:
//
//   - the key:value wire codec (keyval.go)
//   - the state code classifier (statecode.go)
//   - the per-device status model with change detection (status.go)
//   - the command dispatcher with device quirks (device.go)
//   - the cover position reconciliation state machine (cover.go)
//   - the finetune settings cache (finetune.go)
//   - device discovery and event fan-out (manager.go)
//
// # Topic layout
//
// Each device communicates under ion/{remote_id}/%{device_id}:
//
//	.../status           key:value status frames (inbound)
//	.../online           "1" when online (inbound)
//	.../config/advanced  key:value finetune frames (inbound)
//	.../cmd              commands (outbound)
//
// # Concurrency
//
// Frames for a single device are processed serially (MQTT guarantees
// per-topic ordering); distinct devices are fully independent. Command
// dispatch is serialized per device so multi-message sequences such as the
// double stop are never interleaved.
package smarwi
