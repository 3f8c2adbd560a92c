package smarwi

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// FinetuneKey identifies a tunable motor/calibration parameter.
type FinetuneKey string

// Known finetune setting keys.
const (
	SettingMaxOpenPosition    FinetuneKey = "vpct"   // maximum open position
	SettingMoveSpeed          FinetuneKey = "ospd"   // movement speed
	SettingFrameSpeed         FinetuneKey = "ofspd"  // near frame speed
	SettingMovePower          FinetuneKey = "orpwr"  // movement power
	SettingFramePower         FinetuneKey = "ofpwr"  // near frame power
	SettingClosedHoldPower    FinetuneKey = "ohcpwr" // closed holding power
	SettingOpenedHoldPower    FinetuneKey = "ohopwr" // opened holding power
	SettingClosedPosition     FinetuneKey = "hdist"  // window closed position finetune
	SettingLockErrTrigger     FinetuneKey = "lwid"   // "window locked" error trigger
	SettingCalibratedDistance FinetuneKey = "cfdist" // calibrated distance
)

// excludedSettingKey is present on the wire but device-computed and not
// user-settable, so it never enters the cache.
const excludedSettingKey = "cvdist"

// FinetuneKeys lists all known setting keys.
var FinetuneKeys = []FinetuneKey{
	SettingMaxOpenPosition,
	SettingMoveSpeed,
	SettingFrameSpeed,
	SettingMovePower,
	SettingFramePower,
	SettingClosedHoldPower,
	SettingOpenedHoldPower,
	SettingClosedPosition,
	SettingLockErrTrigger,
	SettingCalibratedDistance,
}

// IsValidFinetuneKey reports whether key is a known setting.
func IsValidFinetuneKey(key FinetuneKey) bool {
	for _, k := range FinetuneKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Commands of the finetune request/response exchange.
const (
	finetuneReadCommand   = "lcfa"
	finetuneWriteEnvelope = "scfa01/1|"
)

// Finetune is the settings cache of one device.
//
// The cache is populated entirely from device responses, never defaulted
// locally: a refresh publishes the read command and the response arrives
// asynchronously on the config/advanced topic. A write is always followed
// by a refresh to pick up the authoritative post-write values.
type Finetune struct {
	device *Device

	mu   sync.RWMutex
	data map[FinetuneKey]int
}

func newFinetune(device *Device) *Finetune {
	return &Finetune{device: device}
}

// Get returns the cached value for a setting key.
func (f *Finetune) Get(key FinetuneKey) (int, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.data[key]
	return v, ok
}

// All returns a copy of the cached settings.
func (f *Finetune) All() map[FinetuneKey]int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[FinetuneKey]int, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

// RequestRefresh asks the device to publish its current settings. The
// response arrives on the config/advanced topic and is ingested by Apply.
//
// The device must have reported its IP address first; refreshing an
// unaddressed device is a caller precondition violation, not a transient
// fault.
func (f *Finetune) RequestRefresh() error {
	if f.device.status.IPAddress() == nil {
		return fmt.Errorf("finetune refresh: %w", ErrIPAddressUnknown)
	}
	return f.device.command(finetuneReadCommand)
}

// Apply ingests a settings response frame and reports whether anything
// changed. Values are coerced to integers; the device-computed read-only
// key is excluded from the cache regardless of its presence on the wire.
func (f *Finetune) Apply(raw string) (bool, error) {
	pairs, err := DecodeKeyVal(raw)
	if err != nil {
		return false, fmt.Errorf("applying finetune frame: %w", err)
	}

	next := make(map[FinetuneKey]int, len(pairs))
	for _, p := range pairs {
		if p.Key == excludedSettingKey {
			continue
		}
		n, err := strconv.Atoi(p.Value)
		if err != nil {
			return false, fmt.Errorf("applying finetune frame: value %q of %q is not an integer: %w",
				p.Value, p.Key, ErrMalformedFrame)
		}
		next[FinetuneKey(p.Key)] = n
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if settingsEqual(f.data, next) {
		return false, nil
	}
	f.data = next
	return true, nil
}

// Set writes one setting to the device.
//
// The full cache (with the new value merged in) is encoded as a key:value
// frame and sent inside the device-specific write envelope, then a refresh
// is requested - the write is not assumed to succeed silently.
func (f *Finetune) Set(key FinetuneKey, value int) error {
	if !IsValidFinetuneKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if f.device.status.IPAddress() == nil {
		return fmt.Errorf("finetune write: %w", ErrIPAddressUnknown)
	}

	f.mu.RLock()
	pairs := make([]Pair, 0, len(f.data)+1)
	pairs = append(pairs, Pair{Key: string(key), Value: strconv.Itoa(value)})

	rest := make([]string, 0, len(f.data))
	for k := range f.data {
		if k != key {
			rest = append(rest, string(k))
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		pairs = append(pairs, Pair{Key: k, Value: strconv.Itoa(f.data[FinetuneKey(k)])})
	}
	f.mu.RUnlock()

	payload := finetuneWriteEnvelope + EncodeKeyVal(pairs)
	if err := f.device.command(payload); err != nil {
		return err
	}

	return f.RequestRefresh()
}

func settingsEqual(a, b map[FinetuneKey]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
