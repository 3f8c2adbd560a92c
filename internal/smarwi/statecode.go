package smarwi

import "strconv"

// StateCode is the single integer the device reports to encode its current
// motion or error phase (status parameter "s").
type StateCode int

// Known state codes per the vendor protocol.
const (
	// CodeCalibration indicates calibration in progress.
	CodeCalibration StateCode = -1

	// CodeUnknown is the fallback for unrecognized codes. It sits in the
	// error band (<200) and is treated as an error state.
	CodeUnknown StateCode = 0

	// CodeErrWindowLocked indicates the window is locked to the frame.
	CodeErrWindowLocked StateCode = 10

	// CodeErrMoveTimeout indicates a move-to-frame-sensor timeout.
	CodeErrMoveTimeout StateCode = 20

	// CodeErrWindowHoriz indicates the window opened into a horizontal position.
	CodeErrWindowHoriz StateCode = 30

	// CodeOpeningStart: moving to the frame sensor within an opening phase.
	CodeOpeningStart StateCode = 200

	// CodeOpening: opening until the target ventilation position is reached.
	CodeOpening StateCode = 210

	// CodeReopenStart: open was invoked while between frame sensor and
	// ventilation distance.
	CodeReopenStart StateCode = 212

	// CodeReopenPhase: window reached the frame sensor during a reopen.
	CodeReopenPhase StateCode = 214

	// CodeReopenFinal: final phase of a reopen, moving to the target position.
	CodeReopenFinal StateCode = 216

	// CodeClosingStart: moving to the frame sensor within a closing phase.
	CodeClosingStart StateCode = 220

	// CodeClosing: closing until the target closed position is reached.
	CodeClosing StateCode = 230

	// CodeClosingNice: closing step by step until an obstacle is detected.
	CodeClosingNice StateCode = 231

	// CodeRecloseStart: close was invoked while between frame and frame sensor.
	CodeRecloseStart StateCode = 232

	// CodeReclosePhase: window moved past the frame sensor during a reclose.
	CodeReclosePhase StateCode = 234

	// CodeIdle: motor at rest.
	CodeIdle StateCode = 250
)

// Semantic band boundaries. Codes below errorBand are errors, the opening
// band is [openingBand, closingBand), the closing band is
// [closingBand, movingEnd).
const (
	errorBand   = 200
	openingBand = 200
	closingBand = 220
	movingEnd   = 240
)

var knownCodes = map[StateCode]string{
	CodeCalibration:     "CALIBRATION",
	CodeUnknown:         "UNKNOWN",
	CodeErrWindowLocked: "ERR_WINDOW_LOCKED",
	CodeErrMoveTimeout:  "ERR_MOVE_TIMEOUT",
	CodeErrWindowHoriz:  "ERR_WINDOW_HORIZ",
	CodeOpeningStart:    "OPENING_START",
	CodeOpening:         "OPENING",
	CodeReopenStart:     "REOPEN_START",
	CodeReopenPhase:     "REOPEN_PHASE",
	CodeReopenFinal:     "REOPEN_FINAL",
	CodeClosingStart:    "CLOSING_START",
	CodeClosing:         "CLOSING",
	CodeClosingNice:     "CLOSING_NICE",
	CodeRecloseStart:    "RECLOSE_START",
	CodeReclosePhase:    "RECLOSE_PHASE",
	CodeIdle:            "IDLE",
}

// ParseStateCode converts the wire value of parameter "s" into a StateCode.
// Unrecognized or unparsable values collapse to CodeUnknown; an unknown code
// is not a parse failure.
func ParseStateCode(value string) StateCode {
	n, err := strconv.Atoi(value)
	if err != nil {
		return CodeUnknown
	}
	code := StateCode(n)
	if _, ok := knownCodes[code]; !ok {
		return CodeUnknown
	}
	return code
}

// String returns the diagnostic name of the code.
func (c StateCode) String() string {
	if name, ok := knownCodes[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsError reports whether the code indicates an error or calibration state.
// CodeUnknown (0) is inside the error band.
func (c StateCode) IsError() bool {
	return c < errorBand
}

// IsIdle reports whether the motor is at rest.
func (c StateCode) IsIdle() bool {
	return c == CodeIdle
}

// IsOpening reports whether the code is in the opening transition band.
func (c StateCode) IsOpening() bool {
	return c >= openingBand && c < closingBand
}

// IsClosing reports whether the code is in the closing transition band.
func (c StateCode) IsClosing() bool {
	return c >= closingBand && c < movingEnd
}

// IsMoving reports whether the window is in motion.
func (c StateCode) IsMoving() bool {
	return c.IsOpening() || c.IsClosing()
}

// IsNearFrame reports whether the window is between the frame and the frame
// sensor. These phases report a fixed pseudo position instead of a precise
// percentage.
func (c StateCode) IsNearFrame() bool {
	switch c {
	case CodeOpeningStart, CodeReopenPhase, CodeClosing, CodeClosingNice:
		return true
	default:
		return false
	}
}
