package device

import "sync"

// Endpoint transfer types (USB 2.0 Table 9-13).
const (
	EndpointTypeControl   = 0x00
	EndpointTypeBulk      = 0x02
	EndpointTypeInterrupt = 0x03
)

// EndpointDirectionIn is set in the address of device-to-host endpoints.
const EndpointDirectionIn = 0x80

// Endpoint is a configured endpoint and its halt state.
type Endpoint struct {
	Address       uint8
	Attributes    uint8
	MaxPacketSize uint16
	Interval      uint8

	stalled bool
	mutex   sync.Mutex
}

// NewEndpoint creates an endpoint from its descriptor.
func NewEndpoint(desc *EndpointDescriptor) *Endpoint {
	return &Endpoint{
		Address:       desc.EndpointAddress,
		Attributes:    desc.Attributes,
		MaxPacketSize: desc.MaxPacketSize,
		Interval:      desc.Interval,
	}
}

// IsStalled reports whether the endpoint is halted.
func (e *Endpoint) IsStalled() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.stalled
}

// SetStall sets or clears the halt condition.
func (e *Endpoint) SetStall(stalled bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.stalled = stalled
}
