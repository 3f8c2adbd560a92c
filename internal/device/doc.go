// Package device provides the device registry for SMARWI Hub.
//
// The registry is the catalogue of every SMARWI unit the hub has ever
// seen on the broker. Devices are discovered passively from status
// frames, so the registry only stores identity and metadata (firmware
// version, IP address, online flag, last-seen timestamp). Live motion
// state belongs to the smarwi package and is never persisted.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	// Load known devices into cache on startup.
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Record a device seen on the broker (idempotent).
//	dev := &device.Device{ID: "abc123", FirmwareVersion: "3.4.1"}
//	if err := registry.UpsertDevice(ctx, dev); err != nil {
//	    return err
//	}
//
//	// Mark availability transitions.
//	registry.SetDeviceOnline(ctx, "abc123", true, time.Now().UTC())
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Reads are served from an
// in-memory cache guarded by a read-write mutex; all returned Device
// values are deep copies. The Repository implementation must also be
// thread-safe.
package device
