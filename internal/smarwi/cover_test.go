package smarwi

import "testing"

// coverFixture wires a device, its cover and the update path the manager
// normally provides.
func coverFixture(t *testing.T, strictRidge bool) (*Cover, *Device, *mockPublisher) {
	t.Helper()
	pub := &mockPublisher{}
	device := NewDevice("ABC123", "remote1", pub, 1)
	cover := NewCover(device, strictRidge)
	device.OnUpdate(cover.HandleUpdate)
	return cover, device, pub
}

func feed(t *testing.T, d *Device, raw string) {
	t.Helper()
	if err := d.HandleStatusMessage([]byte(raw)); err != nil {
		t.Fatalf("HandleStatusMessage(%q) failed: %v", raw, err)
	}
}

func TestCoverInitialState(t *testing.T) {
	cover, _, _ := coverFixture(t, false)

	if _, ok := cover.Position(); ok {
		t.Error("initial position should be unknown")
	}
	if cover.IsMoving() {
		t.Error("initial state should not be moving")
	}
	if cover.IsClosed() != nil {
		t.Error("initial closed state should be unknown")
	}
}

// TestCoverCloseCycle verifies that an opening report followed by
// idle+closed settles at position 0 with the request cleared.
func TestCoverCloseCycle(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	feed(t, device, "pos:o\ns:210")
	if !cover.IsMoving() {
		t.Fatal("cover should be moving after state 210")
	}

	feed(t, device, "pos:c\ns:250")

	if cover.IsMoving() {
		t.Error("cover should not be moving after idle")
	}
	pos, ok := cover.Position()
	if !ok || pos != 0 {
		t.Errorf("Position() = %d,%v, want 0,true", pos, ok)
	}
	if closed := cover.IsClosed(); closed == nil || !*closed {
		t.Errorf("IsClosed() = %v, want true", closed)
	}
	// The request slot must be empty again.
	cover.mu.Lock()
	requested := cover.requested
	cover.mu.Unlock()
	if requested != PositionUnknown {
		t.Errorf("requested = %d, want unknown", requested)
	}
}

func TestCoverIdleAfterRequestedMove(t *testing.T) {
	cover, device, pub := coverFixture(t, false)

	if err := cover.OpenTo(50); err != nil {
		t.Fatalf("OpenTo(50) failed: %v", err)
	}
	if got := pub.payloads(); len(got) != 1 || got[0] != "open;50" {
		t.Fatalf("published %v, want [open;50]", got)
	}

	feed(t, device, "pos:o\ns:210")
	if !cover.IsOpening() {
		t.Error("cover should report opening towards requested 50")
	}

	feed(t, device, "pos:o\ns:250")

	pos, ok := cover.Position()
	if !ok || pos != 50 {
		t.Errorf("Position() = %d,%v, want 50,true", pos, ok)
	}
	if cover.IsMoving() {
		t.Error("cover should be settled")
	}
}

// TestCoverExternalMove verifies the documented fallback: when motion was
// not locally requested, the settled position is unknown and direction
// comes from the raw state code.
func TestCoverExternalMove(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	// Movement triggered externally (wall button, vendor app).
	feed(t, device, "pos:o\ns:210")

	if !cover.IsOpening() {
		t.Error("without a local request, the raw opening code decides")
	}
	if cover.IsClosing() {
		t.Error("IsClosing() must be false while the raw code says opening")
	}

	feed(t, device, "pos:o\ns:250")

	if _, ok := cover.Position(); ok {
		t.Error("position after an untracked move must stay unknown")
	}
}

// TestCoverIntentOverridesReportedDirection exercises the direction quirk:
// the device reports an opening-band code during certain closing-to-position
// phases, and local intent must win.
func TestCoverIntentOverridesReportedDirection(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	// Settle at 80 first so the tracked position is known.
	if err := cover.OpenTo(80); err != nil {
		t.Fatalf("OpenTo(80) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:210")
	feed(t, device, "pos:o\ns:250")

	// Now request 20; the device reports an opening-band code (reopen
	// phase) even though the window is actually closing.
	if err := cover.OpenTo(20); err != nil {
		t.Fatalf("OpenTo(20) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:212")

	if cover.IsOpening() {
		t.Error("local intent (20 < 80) must override the reported opening code")
	}
	if !cover.IsClosing() {
		t.Error("cover should report closing")
	}
}

func TestCoverNearFramePosition(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	feed(t, device, "pos:o\ns:230") // CLOSING is a near-frame phase

	pos, ok := cover.Position()
	if !ok || pos != NearFramePosition {
		t.Errorf("Position() = %d,%v, want %d,true", pos, ok, NearFramePosition)
	}
}

func TestCoverErrorResetsState(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	if err := cover.OpenTo(70); err != nil {
		t.Fatalf("OpenTo(70) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:210")
	feed(t, device, "pos:o\ns:10") // ERR_WINDOW_LOCKED

	if cover.IsMoving() {
		t.Error("error state should stop motion tracking")
	}
	if _, ok := cover.Position(); ok {
		t.Error("error state should reset position to unknown")
	}
}

func TestCoverStop(t *testing.T) {
	cover, device, pub := coverFixture(t, false)

	if err := cover.OpenTo(70); err != nil {
		t.Fatalf("OpenTo(70) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:210")
	pub.reset()

	if err := cover.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if got := pub.payloads(); len(got) != 2 {
		t.Errorf("Stop() published %v, want the double stop", got)
	}
	if _, ok := cover.Position(); ok {
		t.Error("Stop() should reset position to unknown")
	}
}

func TestCoverStopWhileIdleIsNoop(t *testing.T) {
	cover, device, pub := coverFixture(t, false)

	feed(t, device, "pos:o\ns:250")
	pub.reset()

	if err := cover.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if got := pub.payloads(); len(got) != 0 {
		t.Errorf("Stop() while idle published %v, want nothing", got)
	}
}

func TestCoverOpenToSkipsWhenAtTarget(t *testing.T) {
	cover, device, pub := coverFixture(t, false)

	if err := cover.OpenTo(50); err != nil {
		t.Fatalf("OpenTo(50) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:210")
	feed(t, device, "pos:o\ns:250")
	pub.reset()

	// Already settled at 50: no redundant motor command.
	if err := cover.OpenTo(50); err != nil {
		t.Fatalf("OpenTo(50) failed: %v", err)
	}
	if got := pub.payloads(); len(got) != 0 {
		t.Errorf("published %v, want nothing when already at target", got)
	}
}

func TestCoverSteadyIdleNoChange(t *testing.T) {
	cover, device, _ := coverFixture(t, false)

	if err := cover.OpenTo(40); err != nil {
		t.Fatalf("OpenTo(40) failed: %v", err)
	}
	feed(t, device, "pos:o\ns:210")
	feed(t, device, "pos:o\ns:250")

	// Idle, not closed, not moving: repeated idle frames with rssi noise
	// must not disturb the settled position.
	feed(t, device, "pos:o\ns:250\nrssi:-70")

	pos, ok := cover.Position()
	if !ok || pos != 40 {
		t.Errorf("Position() = %d,%v, want 40,true", pos, ok)
	}
}

func TestCoverAvailability(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		online bool
		status string
		want   bool
	}{
		{name: "online idle", online: true, status: "s:250\nfix:1", want: true},
		{name: "offline", online: false, status: "s:250\nfix:1", want: false},
		{name: "error state", online: true, status: "s:10\nfix:1", want: false},
		{name: "ridge free tolerated when lax", online: true, status: "s:250\nfix:0", want: true},
		{name: "ridge free rejected when strict", strict: true, online: true, status: "s:250\nfix:0", want: false},
		{name: "ridge fixed accepted when strict", strict: true, online: true, status: "s:250\nfix:1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cover, device, _ := coverFixture(t, tt.strict)
			device.HandleOnlineMessage([]byte(map[bool]string{true: "1", false: "0"}[tt.online]))
			feed(t, device, tt.status)

			if got := cover.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}
