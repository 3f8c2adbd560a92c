package smarwi

import (
	"errors"
	"testing"
)

func mustApply(t *testing.T, s *Status, raw string) (PropSet, bool) {
	t.Helper()
	changed, first, err := s.Apply(raw)
	if err != nil {
		t.Fatalf("Apply(%q) failed: %v", raw, err)
	}
	return changed, first
}

func TestStatusApplyFirstFrame(t *testing.T) {
	s := NewStatus()

	changed, first := mustApply(t, s, "cid:Kitchen\ns:250")

	if !first {
		t.Error("first frame not flagged as discovery")
	}
	if changed.IsEmpty() {
		t.Error("first frame yielded empty changed set")
	}
	if !changed.Has(PropName) || !changed.Has(PropStateCode) {
		t.Errorf("changed = %v, want name and state_code", changed)
	}

	// The second application of an identical frame must be a no-op, and
	// never a discovery again.
	changed, first = mustApply(t, s, "cid:Kitchen\ns:250")
	if first {
		t.Error("second frame flagged as discovery")
	}
	if !changed.IsEmpty() {
		t.Errorf("identical frame yielded changed = %v, want empty", changed)
	}
}

func TestStatusApplyDiff(t *testing.T) {
	s := NewStatus()
	mustApply(t, s, "pos:o\ns:210")

	// Closing completes: pos flips to closed, state code goes idle.
	changed, _ := mustApply(t, s, "pos:c\ns:250")

	want := NewPropSet(PropClosed, PropStateCode)
	if changed != want {
		t.Errorf("changed = %v, want %v", changed, want)
	}
	if closed := s.Closed(); closed == nil || !*closed {
		t.Errorf("Closed() = %v, want true", closed)
	}
	if got := s.StateCode(); got != CodeIdle {
		t.Errorf("StateCode() = %v, want IDLE", got)
	}
}

func TestStatusApplyKeyDisappears(t *testing.T) {
	s := NewStatus()
	mustApply(t, s, "rssi:-60\ns:250")

	// A key missing from the next frame counts as changed.
	changed, _ := mustApply(t, s, "s:250")
	if !changed.Has(PropRSSI) {
		t.Errorf("changed = %v, want rssi", changed)
	}
	if s.RSSI() != nil {
		t.Errorf("RSSI() = %v, want nil after key disappeared", *s.RSSI())
	}
}

func TestStatusApplyUnknownKeysIgnored(t *testing.T) {
	s := NewStatus()

	changed, _ := mustApply(t, s, "s:250\nnewfield:42")

	if !changed.Has(PropStateCode) {
		t.Error("known key not applied")
	}
	// Only the known key may appear in the diff.
	if changed != NewPropSet(PropStateCode) {
		t.Errorf("changed = %v, want only state_code", changed)
	}
}

func TestStatusApplyMalformed(t *testing.T) {
	s := NewStatus()
	mustApply(t, s, "s:250")

	_, _, err := s.Apply("s:210\nbroken")
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("error = %v, want ErrMalformedFrame", err)
	}

	// The malformed frame must not have been partially applied.
	if got := s.StateCode(); got != CodeIdle {
		t.Errorf("StateCode() = %v after rejected frame, want IDLE", got)
	}
}

func TestStatusGettersOnEmptySnapshot(t *testing.T) {
	s := NewStatus()

	if s.Closed() != nil {
		t.Error("Closed() on empty snapshot should be nil")
	}
	if s.Name() != nil {
		t.Error("Name() on empty snapshot should be nil")
	}
	if s.FWVersion() != nil {
		t.Error("FWVersion() on empty snapshot should be nil")
	}
	if s.IPAddress() != nil {
		t.Error("IPAddress() on empty snapshot should be nil")
	}
	if s.RSSI() != nil {
		t.Error("RSSI() on empty snapshot should be nil")
	}
	if s.RidgeFixed() {
		t.Error("RidgeFixed() on empty snapshot should be false")
	}
	if s.RidgeInside() {
		t.Error("RidgeInside() on empty snapshot should be false")
	}
	if got := s.StateCode(); got != CodeUnknown {
		t.Errorf("StateCode() = %v on empty snapshot, want UNKNOWN", got)
	}
}

func TestStatusDerivedGetters(t *testing.T) {
	s := NewStatus()
	mustApply(t, s, "cid:Bedroom\nfix:1\nfw:2.30\nip:16885952\npos:o\nro:0\nrssi:-58\ns:250")

	if got := s.Name(); got == nil || *got != "Bedroom" {
		t.Errorf("Name() = %v, want Bedroom", got)
	}
	if !s.RidgeFixed() {
		t.Error("RidgeFixed() = false, want true")
	}
	if got := s.FWVersion(); got == nil || *got != "2.30" {
		t.Errorf("FWVersion() = %v, want 2.30", got)
	}
	// 16885952 = 0x0101A8C0; little-endian bytes C0 A8 01 01 = 192.168.1.1.
	if got := s.IPAddress(); got == nil || *got != "192.168.1.1" {
		t.Errorf("IPAddress() = %v, want 192.168.1.1", got)
	}
	if closed := s.Closed(); closed == nil || *closed {
		t.Errorf("Closed() = %v, want false", closed)
	}
	// Wire "0" means the ridge is inside.
	if !s.RidgeInside() {
		t.Error("RidgeInside() = false, want true")
	}
	if got := s.RSSI(); got == nil || *got != -58 {
		t.Errorf("RSSI() = %v, want -58", got)
	}
}

func TestStatusRidgeInsideParity(t *testing.T) {
	s := NewStatus()
	mustApply(t, s, "ro:1\ns:250")

	if s.RidgeInside() {
		t.Error("RidgeInside() = true for wire value 1, want false")
	}
}

func TestFormatLittleEndianIPv4(t *testing.T) {
	tests := []struct {
		packed uint32
		want   string
	}{
		{0x0101A8C0, "192.168.1.1"},
		{0x0100A8C0, "192.168.0.1"},
		{0, "0.0.0.0"},
		{0xFFFFFFFF, "255.255.255.255"},
		{0x0100007F, "127.0.0.1"},
	}

	for _, tt := range tests {
		if got := formatLittleEndianIPv4(tt.packed); got != tt.want {
			t.Errorf("formatLittleEndianIPv4(%#x) = %q, want %q", tt.packed, got, tt.want)
		}
	}
}

func TestStatusSetAvailability(t *testing.T) {
	s := NewStatus()

	if s.Available() {
		t.Error("new status should be unavailable")
	}
	if !s.SetAvailability(true) {
		t.Error("first transition to available should report change")
	}
	if s.SetAvailability(true) {
		t.Error("repeated availability should not report change")
	}
	if !s.SetAvailability(false) {
		t.Error("transition to unavailable should report change")
	}
}
