package smarwi

// Prop identifies a single updatable property of a device.
//
// Most props map 1:1 to a key of the status frame. PropAvailability and
// PropFinetuneSettings are synthetic: they are derived from the online
// topic and the finetune cache respectively, never from a status frame.
type Prop uint8

const (
	// PropName is the device name configured in the SMARWI settings ("cid").
	PropName Prop = iota

	// PropRidgeFixed reports whether the ridge is locked ("fix").
	PropRidgeFixed

	// PropFWVersion is the device firmware version ("fw").
	PropFWVersion

	// PropIPAddress is the packed IPv4 address ("ip").
	PropIPAddress

	// PropClosed carries the closed sentinel ("pos", value "c" when closed).
	PropClosed

	// PropRidgeInside reports whether the ridge is inside the device ("ro").
	PropRidgeInside

	// PropRSSI is the WiFi signal strength ("rssi").
	PropRSSI

	// PropStateCode is the motion/error state code ("s").
	PropStateCode

	// PropAvailability is synthetic: online/offline from the liveness topic.
	PropAvailability

	// PropFinetuneSettings is synthetic: the finetune cache changed.
	PropFinetuneSettings

	numProps // sentinel, keep last
)

var propNames = [numProps]string{
	PropName:             "name",
	PropRidgeFixed:       "ridge_fixed",
	PropFWVersion:        "fw_version",
	PropIPAddress:        "ip_address",
	PropClosed:           "closed",
	PropRidgeInside:      "ridge_inside",
	PropRSSI:             "rssi",
	PropStateCode:        "state_code",
	PropAvailability:     "availability",
	PropFinetuneSettings: "finetune_settings",
}

// String returns the diagnostic name of the property.
func (p Prop) String() string {
	if p < numProps {
		return propNames[p]
	}
	return "invalid"
}

// propFromWireKey maps a status frame key to its property. Unknown wire keys
// are ignored for forward compatibility with newer firmware.
func propFromWireKey(key string) (Prop, bool) {
	switch key {
	case "cid":
		return PropName, true
	case "fix":
		return PropRidgeFixed, true
	case "fw":
		return PropFWVersion, true
	case "ip":
		return PropIPAddress, true
	case "pos":
		return PropClosed, true
	case "ro":
		return PropRidgeInside, true
	case "rssi":
		return PropRSSI, true
	case "s":
		return PropStateCode, true
	default:
		return 0, false
	}
}

// PropSet is a set of properties, used as the unit of change notification.
// The zero value is the empty set.
type PropSet uint16

// NewPropSet builds a set from the given properties.
func NewPropSet(props ...Prop) PropSet {
	var s PropSet
	for _, p := range props {
		s = s.With(p)
	}
	return s
}

// With returns the set with p added.
func (s PropSet) With(p Prop) PropSet {
	return s | 1<<p
}

// Has reports whether p is in the set.
func (s PropSet) Has(p Prop) bool {
	return s&(1<<p) != 0
}

// Intersects reports whether the two sets share any property.
func (s PropSet) Intersects(other PropSet) bool {
	return s&other != 0
}

// IsEmpty reports whether the set contains no properties.
func (s PropSet) IsEmpty() bool {
	return s == 0
}

// Props returns the members of the set in declaration order.
func (s PropSet) Props() []Prop {
	props := make([]Prop, 0, numProps)
	for p := Prop(0); p < numProps; p++ {
		if s.Has(p) {
			props = append(props, p)
		}
	}
	return props
}

// String renders the set for logging, e.g. "{closed, state_code}".
func (s PropSet) String() string {
	out := "{"
	for i, p := range s.Props() {
		if i > 0 {
			out += ", "
		}
		out += p.String()
	}
	return out + "}"
}
