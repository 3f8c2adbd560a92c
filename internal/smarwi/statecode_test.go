package smarwi

import "testing"

func TestParseStateCode(t *testing.T) {
	tests := []struct {
		input string
		want  StateCode
	}{
		{"250", CodeIdle},
		{"210", CodeOpening},
		{"230", CodeClosing},
		{"-1", CodeCalibration},
		{"10", CodeErrWindowLocked},
		{"0", CodeUnknown},
		{"999", CodeUnknown},  // unrecognized code collapses, not an error
		{"205", CodeUnknown},  // inside the opening band but not a known code
		{"abc", CodeUnknown},  // unparsable
		{"", CodeUnknown},     // absent
		{"250x", CodeUnknown}, // trailing garbage
	}

	for _, tt := range tests {
		if got := ParseStateCode(tt.input); got != tt.want {
			t.Errorf("ParseStateCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStateCodePredicates(t *testing.T) {
	tests := []struct {
		code                                          StateCode
		isError, isIdle, isOpening, isClosing, isNear bool
	}{
		{CodeCalibration, true, false, false, false, false},
		{CodeUnknown, true, false, false, false, false},
		{CodeErrWindowLocked, true, false, false, false, false},
		{CodeErrMoveTimeout, true, false, false, false, false},
		{CodeErrWindowHoriz, true, false, false, false, false},
		{CodeOpeningStart, false, false, true, false, true},
		{CodeOpening, false, false, true, false, false},
		{CodeReopenStart, false, false, true, false, false},
		{CodeReopenPhase, false, false, true, false, true},
		{CodeReopenFinal, false, false, true, false, false},
		{CodeClosingStart, false, false, false, true, false},
		{CodeClosing, false, false, false, true, true},
		{CodeClosingNice, false, false, false, true, true},
		{CodeRecloseStart, false, false, false, true, false},
		{CodeReclosePhase, false, false, false, true, false},
		{CodeIdle, false, true, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.IsError(); got != tt.isError {
				t.Errorf("IsError() = %v, want %v", got, tt.isError)
			}
			if got := tt.code.IsIdle(); got != tt.isIdle {
				t.Errorf("IsIdle() = %v, want %v", got, tt.isIdle)
			}
			if got := tt.code.IsOpening(); got != tt.isOpening {
				t.Errorf("IsOpening() = %v, want %v", got, tt.isOpening)
			}
			if got := tt.code.IsClosing(); got != tt.isClosing {
				t.Errorf("IsClosing() = %v, want %v", got, tt.isClosing)
			}
			if got := tt.code.IsNearFrame(); got != tt.isNear {
				t.Errorf("IsNearFrame() = %v, want %v", got, tt.isNear)
			}
			if got := tt.code.IsMoving(); got != (tt.isOpening || tt.isClosing) {
				t.Errorf("IsMoving() = %v, want %v", got, tt.isOpening || tt.isClosing)
			}
		})
	}
}

// TestStateCodePredicatesTotal sweeps a wide code range and checks the
// structural invariants: opening and closing are mutually exclusive, and
// idle implies neither moving nor error.
func TestStateCodePredicatesTotal(t *testing.T) {
	for code := StateCode(-500); code <= 500; code++ {
		if code.IsOpening() && code.IsClosing() {
			t.Fatalf("code %d is both opening and closing", code)
		}
		if code.IsIdle() && (code.IsMoving() || code.IsError()) {
			t.Fatalf("code %d is idle but also moving or error", code)
		}
		if code.IsMoving() != (code.IsOpening() || code.IsClosing()) {
			t.Fatalf("code %d: IsMoving inconsistent with bands", code)
		}
	}
}

func TestStateCodeString(t *testing.T) {
	if got := CodeIdle.String(); got != "IDLE" {
		t.Errorf("CodeIdle.String() = %q, want IDLE", got)
	}
	if got := StateCode(199).String(); got != "UNKNOWN" {
		t.Errorf("StateCode(199).String() = %q, want UNKNOWN", got)
	}
}
