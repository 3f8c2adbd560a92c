package smarwi

import (
	"fmt"
	"strconv"
	"sync"
)

// Status holds the last known raw telemetry of a single device and derives
// typed values from it.
//
// The snapshot is replaced wholesale on every status frame; the diff against
// the previous snapshot (by full key comparison, presence included) is the
// changed-property set handed to observers. Getters never fail on missing
// data: they return nil/zero-value defaults matching device semantics.
//
// Thread Safety: all methods are safe for concurrent use. Frames for one
// device arrive in order on a single topic, so Apply calls never race with
// each other in practice, but getters are read from API goroutines.
type Status struct {
	mu        sync.RWMutex
	snapshot  map[Prop]string
	available bool
}

// NewStatus creates an empty status model. The snapshot stays empty until
// the first frame is applied.
func NewStatus() *Status {
	return &Status{}
}

// Apply decodes a status frame, diffs it against the previous snapshot and
// replaces it.
//
// Unknown wire keys are dropped silently. Returns the set of properties
// whose value differs between the previous and the new snapshot, including
// keys present in only one of the two. first reports whether this was the
// first successfully applied frame - the caller must fire discovery exactly
// once on it.
func (s *Status) Apply(raw string) (changed PropSet, first bool, err error) {
	pairs, err := DecodeKeyVal(raw)
	if err != nil {
		return 0, false, fmt.Errorf("applying status frame: %w", err)
	}

	next := make(map[Prop]string, len(pairs))
	for _, p := range pairs {
		if prop, ok := propFromWireKey(p.Key); ok {
			next[prop] = p.Value
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first = s.snapshot == nil
	for p := Prop(0); p < numProps; p++ {
		prev, hadPrev := s.snapshot[p]
		cur, hasCur := next[p]
		if hadPrev != hasCur || prev != cur {
			changed = changed.With(p)
		}
	}
	s.snapshot = next

	return changed, first, nil
}

// SetAvailability updates the liveness flag and reports whether it changed.
// The caller signals PropAvailability to observers only on change.
func (s *Status) SetAvailability(available bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available == available {
		return false
	}
	s.available = available
	return true
}

// Available reports whether the device is online.
func (s *Status) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// get returns the raw snapshot value for a property.
func (s *Status) get(p Prop) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.snapshot[p]
	return v, ok
}

// Closed reports whether the window is closed. The result is tri-state:
// nil when the device has not reported the "pos" key yet.
func (s *Status) Closed() *bool {
	v, ok := s.get(PropClosed)
	if !ok {
		return nil
	}
	closed := v == "c"
	return &closed
}

// RidgeFixed reports whether the ridge is locked, i.e. the window cannot be
// moved by hand. An absent key means "not fixed".
func (s *Status) RidgeFixed() bool {
	v, _ := s.get(PropRidgeFixed)
	return v == "1"
}

// RidgeInside reports whether the ridge is inside the device, i.e. the
// window can be controlled. The wire value "0" means inside.
func (s *Status) RidgeInside() bool {
	v, _ := s.get(PropRidgeInside)
	return v == "0"
}

// Name returns the device name configured in the SMARWI settings, or nil if
// not reported yet.
func (s *Status) Name() *string {
	v, ok := s.get(PropName)
	if !ok {
		return nil
	}
	return &v
}

// FWVersion returns the firmware version, or nil if not reported yet.
func (s *Status) FWVersion() *string {
	v, ok := s.get(PropFWVersion)
	if !ok {
		return nil
	}
	return &v
}

// RSSI returns the WiFi signal strength, or nil if not reported or not
// parsable.
func (s *Status) RSSI() *int {
	v, ok := s.get(PropRSSI)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// IPAddress returns the device IPv4 address in dotted-quad form, or nil if
// not reported or not parsable. The wire encodes the address as a 32-bit
// unsigned integer in little-endian byte order, decimal-encoded as text.
func (s *Status) IPAddress() *string {
	v, ok := s.get(PropIPAddress)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	addr := formatLittleEndianIPv4(uint32(n))
	return &addr
}

// StateCode returns the current state code, CodeUnknown when the key is
// absent from the snapshot.
func (s *Status) StateCode() StateCode {
	v, ok := s.get(PropStateCode)
	if !ok {
		return CodeUnknown
	}
	return ParseStateCode(v)
}

// formatLittleEndianIPv4 renders a little-endian packed IPv4 address as a
// dotted quad. The lowest byte is the first octet.
func formatLittleEndianIPv4(packed uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d",
		packed&0xff,
		packed>>8&0xff,
		packed>>16&0xff,
		packed>>24&0xff,
	)
}
