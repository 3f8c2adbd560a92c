package smarwi

import "sync"

// Cover position constants.
const (
	// PositionUnknown is the sentinel for an unknown position. No value
	// inside the valid 0-100 range may serve as unknown.
	PositionUnknown = -1

	// NearFramePosition is the pseudo position reported while the window is
	// between the frame and the frame sensor.
	NearFramePosition = 5

	// fullyOpen and fullyClosed are the ends of the position range.
	fullyOpen   = 100
	fullyClosed = 0
)

// Cover reconciles user-requested target positions against asynchronously
// reported device state and derives the opening/closing/closed view of the
// window.
//
// The device reports no absolute position, only a state code and a closed
// sentinel, so the position is tracked optimistically: a command records
// the requested position, and when the device settles into idle the
// requested position becomes the observed one. Positions reset to unknown
// on error, on stop, and when motion ends with no locally tracked request
// (movement triggered externally).
type Cover struct {
	device *Device

	// strictRidge additionally gates availability on a fixed ridge: a
	// free-floating ridge cannot be trusted to report a valid position.
	strictRidge bool

	mu        sync.Mutex
	position  int
	requested int
	moving    bool

	logger Logger
}

// NewCover creates the cover view for a device. Initial state: both
// positions unknown, not moving.
func NewCover(device *Device, strictRidge bool) *Cover {
	return &Cover{
		device:      device,
		strictRidge: strictRidge,
		position:    PositionUnknown,
		requested:   PositionUnknown,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the cover.
func (c *Cover) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// relevantProps are the properties whose change drives a transition.
var relevantProps = NewPropSet(PropClosed, PropRidgeFixed, PropStateCode)

// HandleUpdate runs the transition function when the changed-property set
// touches the closed flag, the ridge fixation or the state code.
func (c *Cover) HandleUpdate(changed PropSet) {
	if !changed.Intersects(relevantProps) {
		return
	}

	state := c.device.Status().StateCode()
	closed := c.device.Status().Closed()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case state.IsError():
		c.moving = false
		c.position = PositionUnknown
		c.requested = PositionUnknown

	case state.IsMoving():
		c.moving = true
		if state.IsNearFrame() {
			c.position = NearFramePosition
		}

	case state.IsIdle():
		switch {
		case closed != nil && *closed:
			c.moving = false
			c.position = fullyClosed
			c.requested = PositionUnknown
		case c.moving:
			c.moving = false
			if c.requested != PositionUnknown {
				c.position = c.requested
				c.requested = PositionUnknown
			} else {
				// Motion we did not request ended somewhere we cannot know.
				c.position = PositionUnknown
			}
		default:
			// Idle, not closed, was not moving: the steady open resting
			// state. Nothing changes.
		}
	}

	c.logger.Debug("cover state reconciled",
		"device", c.device.ID(),
		"state_code", state.String(),
		"moving", c.moving,
		"position", c.position,
		"requested", c.requested,
	)
}

// OpenTo requests the window to move to the given position in percent.
// The request is skipped when the cover is already at the target, avoiding
// redundant motor commands.
func (c *Cover) OpenTo(position int) error {
	if position < 0 || position > 100 {
		return ErrInvalidPosition
	}

	c.mu.Lock()
	if c.position == position && !c.moving {
		c.mu.Unlock()
		return nil
	}
	c.requested = position
	c.mu.Unlock()

	return c.device.Open(position)
}

// Open fully opens the window.
func (c *Cover) Open() error {
	return c.OpenTo(fullyOpen)
}

// Close closes the window.
func (c *Cover) Close() error {
	c.mu.Lock()
	if c.position == fullyClosed && !c.moving {
		c.mu.Unlock()
		return nil
	}
	c.requested = fullyClosed
	c.mu.Unlock()

	return c.device.Close()
}

// Stop halts the movement and resets both positions to unknown. A stop
// while idle is a no-op: sending "stop" to an idle device would release
// the ridge instead.
func (c *Cover) Stop() error {
	if c.device.Status().StateCode().IsIdle() {
		return nil
	}

	c.mu.Lock()
	c.position = PositionUnknown
	c.requested = PositionUnknown
	c.mu.Unlock()

	return c.device.Stop()
}

// Position returns the current tilt position, or ok=false when unknown.
func (c *Cover) Position() (pos int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position == PositionUnknown {
		return 0, false
	}
	return c.position, true
}

// IsMoving reports whether the window is currently in motion.
func (c *Cover) IsMoving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moving
}

// IsClosed reports whether the window is closed; nil when not known yet.
func (c *Cover) IsClosed() *bool {
	return c.device.Status().Closed()
}

// IsOpening reports whether the window is moving towards a more open
// position.
//
// When a locally requested position is known, local intent overrides the
// device-reported direction: the device's own opening/closing code is
// unreliable when closing to an intermediate position (it reports
// "opening" during certain closing-to-position phases). Without a tracked
// request the raw state code is the only signal available.
func (c *Cover) IsOpening() bool {
	c.mu.Lock()
	moving, requested, position := c.moving, c.requested, c.position
	c.mu.Unlock()

	if requested != PositionUnknown {
		return moving && requested > position
	}
	return c.device.Status().StateCode().IsOpening()
}

// IsClosing reports whether the window is moving towards the frame.
func (c *Cover) IsClosing() bool {
	c.mu.Lock()
	moving := c.moving
	c.mu.Unlock()

	return moving && !c.IsOpening()
}

// Available reports whether the cover can be meaningfully displayed and
// controlled: the device must be online and not in an error state. With
// strictRidge the ridge must also be fixed.
func (c *Cover) Available() bool {
	status := c.device.Status()
	if !status.Available() || status.StateCode().IsError() {
		return false
	}
	if c.strictRidge && !status.RidgeFixed() {
		return false
	}
	return true
}
