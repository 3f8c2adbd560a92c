package smarwi

import "errors"

// Domain errors for the smarwi package.
var (
	// ErrMalformedFrame is returned when a key:value frame contains a line
	// without a separator. The whole frame is rejected; a malformed frame is
	// never partially applied.
	ErrMalformedFrame = errors.New("smarwi: malformed key:value frame")

	// ErrIPAddressUnknown is returned when a finetune refresh or write is
	// requested before the device has reported its IP address.
	ErrIPAddressUnknown = errors.New("smarwi: device IP address not known yet")

	// ErrUnknownSetting is returned when a finetune key is not part of the
	// known setting enumeration.
	ErrUnknownSetting = errors.New("smarwi: unknown finetune setting")

	// ErrInvalidPosition is returned when a requested position is outside
	// the 0-100 range.
	ErrInvalidPosition = errors.New("smarwi: position must be between 0 and 100")
)
