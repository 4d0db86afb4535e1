package device

import "fmt"

// MaxDescriptorResponseSize bounds a GET_DESCRIPTOR response.
const MaxDescriptorResponseSize = 256

// Device states (USB 2.0 section 9.1).
const (
	StateDefault    State = iota // reset, default address
	StateAddress                 // address assigned
	StateConfigured              // configuration selected
)

// State represents the USB device state.
type State uint8

// String returns a human-readable state description.
func (s State) String() string {
	switch s {
	case StateDefault:
		return "Default"
	case StateAddress:
		return "Address"
	case StateConfigured:
		return "Configured"
	default:
		return fmt.Sprintf("Unknown State (%d)", s)
	}
}
