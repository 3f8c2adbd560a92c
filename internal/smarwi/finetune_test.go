package smarwi

import (
	"errors"
	"testing"
)

// addressedDevice returns a device that has already reported its IP
// address, which is the precondition for finetune exchanges.
func addressedDevice(t *testing.T) (*Device, *mockPublisher) {
	t.Helper()
	d, pub := newTestDevice(t)
	feedStatus(t, d, "s:250\nip:16885952")
	pub.reset()
	return d, pub
}

func TestFinetuneApplyChangeSignal(t *testing.T) {
	d, _ := newTestDevice(t)
	f := d.Finetune()

	changed, err := f.Apply("vpct:100\nospd:30")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !changed {
		t.Error("first application should signal change")
	}

	// Identical frame: no signal.
	changed, err = f.Apply("vpct:100\nospd:30")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if changed {
		t.Error("identical frame should not signal change")
	}

	// One value differs: signal again.
	changed, err = f.Apply("vpct:80\nospd:30")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !changed {
		t.Error("modified frame should signal change")
	}
	if v, ok := f.Get(SettingMaxOpenPosition); !ok || v != 80 {
		t.Errorf("vpct = %d,%v, want 80,true", v, ok)
	}
}

func TestFinetuneApplyExcludesReadOnlyKey(t *testing.T) {
	d, _ := newTestDevice(t)
	f := d.Finetune()

	if _, err := f.Apply("vpct:100\ncvdist:512"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, ok := f.Get("cvdist"); ok {
		t.Error("cvdist must never enter the cache")
	}

	// Flapping cvdist alone must not count as a change either.
	changed, err := f.Apply("vpct:100\ncvdist:513")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if changed {
		t.Error("a change confined to the excluded key must not signal")
	}
}

func TestFinetuneApplyRejectsNonInteger(t *testing.T) {
	d, _ := newTestDevice(t)

	if _, err := d.Finetune().Apply("vpct:abc"); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("error = %v, want ErrMalformedFrame", err)
	}
}

func TestFinetuneRequestRefreshRequiresIP(t *testing.T) {
	d, pub := newTestDevice(t)
	feedStatus(t, d, "s:250") // no ip key
	pub.reset()

	if err := d.Finetune().RequestRefresh(); !errors.Is(err, ErrIPAddressUnknown) {
		t.Fatalf("error = %v, want ErrIPAddressUnknown", err)
	}
	if got := pub.payloads(); len(got) != 0 {
		t.Errorf("published %v, want nothing without an IP address", got)
	}
}

func TestFinetuneRequestRefresh(t *testing.T) {
	d, pub := addressedDevice(t)

	if err := d.Finetune().RequestRefresh(); err != nil {
		t.Fatalf("RequestRefresh failed: %v", err)
	}
	got := pub.payloads()
	if len(got) != 1 || got[0] != "lcfa" {
		t.Errorf("published %v, want [lcfa]", got)
	}
}

func TestFinetuneSet(t *testing.T) {
	d, pub := addressedDevice(t)
	f := d.Finetune()

	if _, err := f.Apply("vpct:100\nospd:30\nhdist:-2"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := f.Set(SettingMoveSpeed, 45); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := pub.payloads()
	if len(got) != 2 {
		t.Fatalf("published %v, want write + refresh", got)
	}
	// The written key leads the frame, the rest of the cache follows.
	want := "scfa01/1|ospd:45\nhdist:-2\nvpct:100"
	if got[0] != want {
		t.Errorf("write payload = %q, want %q", got[0], want)
	}
	if got[1] != "lcfa" {
		t.Errorf("follow-up = %q, want lcfa", got[1])
	}

	// The local cache is not updated by the write itself; the refresh
	// response is authoritative.
	if v, _ := f.Get(SettingMoveSpeed); v != 30 {
		t.Errorf("cache updated optimistically to %d, want 30 until refresh", v)
	}
}

func TestFinetuneSetRequiresIP(t *testing.T) {
	d, _ := newTestDevice(t)

	err := d.Finetune().Set(SettingMoveSpeed, 45)
	if !errors.Is(err, ErrIPAddressUnknown) {
		t.Errorf("error = %v, want ErrIPAddressUnknown", err)
	}
}

func TestFinetuneSetUnknownKey(t *testing.T) {
	d, _ := addressedDevice(t)

	if err := d.Finetune().Set("bogus", 1); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("error = %v, want ErrUnknownSetting", err)
	}
}

func TestFinetuneAll(t *testing.T) {
	d, _ := newTestDevice(t)
	f := d.Finetune()

	if _, err := f.Apply("vpct:100\nospd:30"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	all := f.All()
	if len(all) != 2 || all[SettingMaxOpenPosition] != 100 || all[SettingMoveSpeed] != 30 {
		t.Errorf("All() = %v", all)
	}

	// Mutating the copy must not touch the cache.
	all[SettingMaxOpenPosition] = 1
	if v, _ := f.Get(SettingMaxOpenPosition); v != 100 {
		t.Error("All() leaked internal map")
	}
}
