package smarwi

import (
	"errors"
	"sync"
	"testing"
)

// mockPublisher records published messages in order.
type mockPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error // if set, Publish fails with this error
}

type publishedMessage struct {
	topic   string
	payload string
}

func (m *mockPublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, publishedMessage{topic: topic, payload: string(payload)})
	return nil
}

func (m *mockPublisher) payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.payload
	}
	return out
}

func (m *mockPublisher) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

func newTestDevice(t *testing.T) (*Device, *mockPublisher) {
	t.Helper()
	pub := &mockPublisher{}
	return NewDevice("ABC123", "remote1", pub, 1), pub
}

func feedStatus(t *testing.T, d *Device, raw string) {
	t.Helper()
	if err := d.HandleStatusMessage([]byte(raw)); err != nil {
		t.Fatalf("HandleStatusMessage(%q) failed: %v", raw, err)
	}
}

func TestDeviceTopics(t *testing.T) {
	topics := NewTopics("remote1", "ABC123")

	tests := []struct {
		got, want string
	}{
		{topics.Status(), "ion/remote1/%ABC123/status"},
		{topics.Online(), "ion/remote1/%ABC123/online"},
		{topics.ConfigAdvanced(), "ion/remote1/%ABC123/config/advanced"},
		{topics.Command(), "ion/remote1/%ABC123/cmd"},
		{DiscoveryPattern("remote1"), "ion/remote1/+/online"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestDeviceOpen(t *testing.T) {
	tests := []struct {
		name     string
		position int
		want     []string
		wantErr  bool
	}{
		{name: "full open", position: 100, want: []string{"open;100"}},
		{name: "intermediate position", position: 50, want: []string{"open;50"}},
		{name: "position 2 is still open", position: 2, want: []string{"open;2"}},
		{name: "position 1 aliases to close", position: 1, want: []string{"close"}},
		{name: "position 0 aliases to close", position: 0, want: []string{"close"}},
		{name: "negative position rejected", position: -1, wantErr: true},
		{name: "overrange position rejected", position: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pub := newTestDevice(t)
			err := d.Open(tt.position)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Fatalf("error = %v, want ErrInvalidPosition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%d) failed: %v", tt.position, err)
			}
			got := pub.payloads()
			if len(got) != len(tt.want) {
				t.Fatalf("published %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("command[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeviceStopWhileMoving(t *testing.T) {
	d, pub := newTestDevice(t)
	feedStatus(t, d, "s:230") // CLOSING
	pub.reset()

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	// The device quirk: exactly two stops, in order. The first halts the
	// motor and releases the ridge lock, the second re-engages it.
	got := pub.payloads()
	if len(got) != 2 || got[0] != "stop" || got[1] != "stop" {
		t.Fatalf("Stop() published %v, want [stop stop]", got)
	}

	for _, msg := range pub.messages {
		if msg.topic != "ion/remote1/%ABC123/cmd" {
			t.Errorf("command published to %q", msg.topic)
		}
	}
}

func TestDeviceStopWhileIdle(t *testing.T) {
	d, pub := newTestDevice(t)
	feedStatus(t, d, "s:250")
	pub.reset()

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if got := pub.payloads(); len(got) != 0 {
		t.Errorf("Stop() while idle published %v, want nothing", got)
	}
}

func TestDeviceToggleRidgeFixed(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		target  bool
		wantCmd bool
	}{
		{name: "fix when unfixed", status: "fix:0\ns:250", target: true, wantCmd: true},
		{name: "fix when already fixed", status: "fix:1\ns:250", target: true, wantCmd: false},
		{name: "release when fixed", status: "fix:1\ns:250", target: false, wantCmd: true},
		{name: "release when already free", status: "fix:0\ns:250", target: false, wantCmd: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pub := newTestDevice(t)
			feedStatus(t, d, tt.status)
			pub.reset()

			if err := d.ToggleRidgeFixed(tt.target); err != nil {
				t.Fatalf("ToggleRidgeFixed(%v) failed: %v", tt.target, err)
			}

			got := pub.payloads()
			if tt.wantCmd {
				if len(got) != 1 || got[0] != "stop" {
					t.Errorf("published %v, want [stop]", got)
				}
			} else if len(got) != 0 {
				t.Errorf("published %v, want nothing", got)
			}
		})
	}
}

func TestDeviceDiscoveryFiredOnce(t *testing.T) {
	d, _ := newTestDevice(t)

	discovered := 0
	d.OnDiscovered(func() { discovered++ })

	feedStatus(t, d, "s:250")
	feedStatus(t, d, "s:250")
	feedStatus(t, d, "s:210")

	if discovered != 1 {
		t.Errorf("discovery fired %d times, want exactly 1", discovered)
	}
}

func TestDeviceUpdateDispatch(t *testing.T) {
	d, _ := newTestDevice(t)

	var updates []PropSet
	d.OnUpdate(func(changed PropSet) { updates = append(updates, changed) })

	feedStatus(t, d, "s:210\npos:o")
	feedStatus(t, d, "s:210\npos:o") // identical, no dispatch
	feedStatus(t, d, "s:250\npos:c")

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2 (identical frame suppressed)", len(updates))
	}
	want := NewPropSet(PropClosed, PropStateCode)
	if updates[1] != want {
		t.Errorf("second update = %v, want %v", updates[1], want)
	}
}

func TestDeviceAvailabilityDispatch(t *testing.T) {
	d, _ := newTestDevice(t)

	var updates []PropSet
	d.OnUpdate(func(changed PropSet) { updates = append(updates, changed) })

	d.HandleOnlineMessage([]byte("1"))
	d.HandleOnlineMessage([]byte("1")) // unchanged, suppressed
	d.HandleOnlineMessage([]byte("0"))

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	for i, u := range updates {
		if u != NewPropSet(PropAvailability) {
			t.Errorf("update[%d] = %v, want availability only", i, u)
		}
	}
	if d.Status().Available() {
		t.Error("device should be unavailable after payload 0")
	}
}

func TestDeviceMalformedStatusKeepsSession(t *testing.T) {
	d, _ := newTestDevice(t)
	feedStatus(t, d, "s:250")

	if err := d.HandleStatusMessage([]byte("junk")); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("error = %v, want ErrMalformedFrame", err)
	}

	// Session must remain usable after a rejected frame.
	feedStatus(t, d, "s:210")
	if got := d.Status().StateCode(); got != CodeOpening {
		t.Errorf("StateCode() = %v, want OPENING", got)
	}
}

func TestDeviceFinetuneRefreshOnIPChange(t *testing.T) {
	d, pub := newTestDevice(t)

	feedStatus(t, d, "s:250\nip:16885952")

	// The IP change should trigger a settings read command.
	found := false
	for _, p := range pub.payloads() {
		if p == "lcfa" {
			found = true
		}
	}
	if !found {
		t.Errorf("published %v, want lcfa after IP change", pub.payloads())
	}
}

func TestDeviceCommandPublishError(t *testing.T) {
	d, pub := newTestDevice(t)
	pub.err = errors.New("broker gone")

	if err := d.Close(); err == nil {
		t.Error("Close() should propagate publish error")
	}
}
