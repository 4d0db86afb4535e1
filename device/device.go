package device

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ardnew/softp2io/pkg"
)

// Device is an emulated USB device with a single configuration. It answers
// standard control requests itself and routes data tokens on the
// configured endpoints to its [Function].
type Device struct {
	Descriptor DeviceDescriptor
	Config     Configuration

	function  Function
	endpoints []*Endpoint
	state     State
	address   uint8

	onStateChange func(old, new State)

	responseBuf [MaxDescriptorResponseSize]byte
	mutex       sync.Mutex
}

// New creates a device in the default state.
func New(desc DeviceDescriptor, config Configuration, fn Function) *Device {
	d := &Device{
		Descriptor: desc,
		Config:     config,
		function:   fn,
	}
	for i := range config.Endpoints {
		d.endpoints = append(d.endpoints, NewEndpoint(&config.Endpoints[i]))
	}
	return d
}

// Function returns the device's function.
func (d *Device) Function() Function {
	return d.function
}

// State returns the current device state.
func (d *Device) State() State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state
}

// Address returns the assigned bus address.
func (d *Device) Address() uint8 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.address
}

// IsConfigured reports whether the host has selected the configuration.
func (d *Device) IsConfigured() bool {
	return d.State() == StateConfigured
}

// SetOnStateChange sets the callback invoked on state transitions.
func (d *Device) SetOnStateChange(cb func(old, new State)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.onStateChange = cb
}

// Endpoint returns the endpoint with the given address, or nil.
func (d *Device) Endpoint(address uint8) *Endpoint {
	for _, ep := range d.endpoints {
		if ep.Address == address {
			return ep
		}
	}
	return nil
}

// Reset returns the device to the default state, as after a bus reset.
func (d *Device) Reset() {
	d.mutex.Lock()
	d.address = 0
	for _, ep := range d.endpoints {
		ep.SetStall(false)
	}
	d.mutex.Unlock()
	d.setState(StateDefault)
}

// setState changes the state and notifies the function and callback.
func (d *Device) setState(next State) {
	d.mutex.Lock()
	old := d.state
	d.state = next
	cb := d.onStateChange
	d.mutex.Unlock()

	if old == next {
		return
	}
	pkg.LogDebug(pkg.ComponentDevice, "state change", "old", old.String(), "new", next.String())
	if c, ok := d.function.(Configurable); ok && (old == StateConfigured || next == StateConfigured) {
		c.SetConfigured(next == StateConfigured)
	}
	if cb != nil {
		cb(old, next)
	}
}

// HandleSetup processes a standard control request and returns the data
// stage response, if any. Non-standard requests stall.
func (d *Device) HandleSetup(setup *SetupPacket) ([]byte, error) {
	if !setup.IsStandard() {
		return nil, fmt.Errorf("%s: %w", setup, pkg.ErrStall)
	}
	pkg.LogDebug(pkg.ComponentDevice, "setup", "request", setup.String())

	switch setup.Request {
	case RequestGetDescriptor:
		return d.getDescriptor(setup)
	case RequestSetAddress:
		d.mutex.Lock()
		d.address = uint8(setup.Value & 0x7F)
		d.mutex.Unlock()
		if setup.Value == 0 {
			d.setState(StateDefault)
		} else {
			d.setState(StateAddress)
		}
		return nil, nil
	case RequestGetConfiguration:
		if d.IsConfigured() {
			return []byte{d.Config.Descriptor.ConfigurationValue}, nil
		}
		return []byte{0}, nil
	case RequestSetConfiguration:
		return nil, d.setConfiguration(uint8(setup.Value))
	case RequestGetStatus:
		return d.getStatus(setup)
	case RequestClearFeature, RequestSetFeature:
		return nil, d.setFeature(setup, setup.Request == RequestSetFeature)
	case RequestGetInterface:
		return []byte{0}, nil
	case RequestSetInterface:
		if setup.Value != 0 {
			return nil, fmt.Errorf("alternate setting %d: %w", setup.Value, pkg.ErrStall)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%s: %w", setup, pkg.ErrStall)
}

func (d *Device) getDescriptor(setup *SetupPacket) ([]byte, error) {
	var n int
	switch setup.DescriptorType() {
	case DescriptorTypeDevice:
		n = d.Descriptor.MarshalTo(d.responseBuf[:])
	case DescriptorTypeConfiguration:
		if setup.DescriptorIndex() != 0 {
			return nil, fmt.Errorf("configuration %d: %w", setup.DescriptorIndex(), pkg.ErrStall)
		}
		n = d.Config.MarshalTo(d.responseBuf[:])
	default:
		return nil, fmt.Errorf("descriptor type 0x%02X: %w", setup.DescriptorType(), pkg.ErrStall)
	}
	if n == 0 {
		return nil, pkg.ErrBufferTooSmall
	}
	return d.responseBuf[:min(n, int(setup.Length))], nil
}

func (d *Device) setConfiguration(value uint8) error {
	switch value {
	case 0:
		d.setState(StateAddress)
		return nil
	case d.Config.Descriptor.ConfigurationValue:
		for _, ep := range d.endpoints {
			ep.SetStall(false)
		}
		d.setState(StateConfigured)
		return nil
	}
	return fmt.Errorf("configuration %d: %w", value, pkg.ErrStall)
}

func (d *Device) getStatus(setup *SetupPacket) ([]byte, error) {
	var status uint16
	switch setup.Recipient() {
	case RequestRecipientDevice:
		if d.Config.Descriptor.Attributes&ConfigAttrSelfPowered != 0 {
			status |= 1
		}
	case RequestRecipientEndpoint:
		ep := d.Endpoint(uint8(setup.Index))
		if ep == nil {
			return nil, fmt.Errorf("endpoint 0x%02X: %w", setup.Index, pkg.ErrStall)
		}
		if ep.IsStalled() {
			status |= 1
		}
	}
	binary.LittleEndian.PutUint16(d.responseBuf[:2], status)
	return d.responseBuf[:2], nil
}

func (d *Device) setFeature(setup *SetupPacket, set bool) error {
	if setup.Recipient() != RequestRecipientEndpoint || setup.Value != FeatureEndpointHalt {
		return nil
	}
	ep := d.Endpoint(uint8(setup.Index))
	if ep == nil {
		return fmt.Errorf("endpoint 0x%02X: %w", setup.Index, pkg.ErrStall)
	}
	ep.SetStall(set)
	return nil
}

// dataEndpoint validates a data token on address.
func (d *Device) dataEndpoint(address uint8) (*Endpoint, error) {
	if !d.IsConfigured() {
		return nil, pkg.ErrNotConfigured
	}
	ep := d.Endpoint(address)
	if ep == nil {
		return nil, fmt.Errorf("endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	if ep.IsStalled() {
		return nil, pkg.ErrStall
	}
	return ep, nil
}

// In services an IN token on the endpoint at address, writing at most one
// packet into p.
func (d *Device) In(address uint8, p []byte) (int, error) {
	ep, err := d.dataEndpoint(address | EndpointDirectionIn)
	if err != nil {
		return 0, err
	}
	if limit := int(ep.MaxPacketSize); len(p) > limit {
		p = p[:limit]
	}
	return d.function.HandleIn(ep.Address, p)
}

// Out services an OUT token carrying data on the endpoint at address.
func (d *Device) Out(address uint8, data []byte) error {
	ep, err := d.dataEndpoint(address &^ EndpointDirectionIn)
	if err != nil {
		return err
	}
	return d.function.HandleOut(ep.Address, data)
}
