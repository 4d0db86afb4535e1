package device

import (
	"encoding/binary"

	"github.com/ardnew/softp2io/pkg"
)

// Descriptor types (USB 2.0 Table 9-5).
const (
	DescriptorTypeDevice        = 0x01
	DescriptorTypeConfiguration = 0x02
	DescriptorTypeString        = 0x03
	DescriptorTypeInterface     = 0x04
	DescriptorTypeEndpoint      = 0x05
)

// Class codes used by the board.
const (
	ClassPerInterface = 0x00 // class defined at interface level
	ClassVendor       = 0xFF // vendor specific
)

// Descriptor sizes in bytes.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	InterfaceDescriptorSize     = 9
	EndpointDescriptorSize      = 7
)

// Configuration attributes.
const (
	ConfigAttrBusPowered   = 0x80
	ConfigAttrSelfPowered  = 0x40
	ConfigAttrRemoteWakeup = 0x20
)

// DeviceDescriptor is the standard device descriptor.
type DeviceDescriptor struct {
	USBVersion        uint16 // bcdUSB
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16 // bcdDevice
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialIndex       uint8
	NumConfigurations uint8
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *DeviceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < DeviceDescriptorSize {
		return 0
	}
	buf[0] = DeviceDescriptorSize
	buf[1] = DescriptorTypeDevice
	binary.LittleEndian.PutUint16(buf[2:4], d.USBVersion)
	buf[4] = d.DeviceClass
	buf[5] = d.DeviceSubClass
	buf[6] = d.DeviceProtocol
	buf[7] = d.MaxPacketSize0
	binary.LittleEndian.PutUint16(buf[8:10], d.VendorID)
	binary.LittleEndian.PutUint16(buf[10:12], d.ProductID)
	binary.LittleEndian.PutUint16(buf[12:14], d.DeviceVersion)
	buf[14] = d.ManufacturerIndex
	buf[15] = d.ProductIndex
	buf[16] = d.SerialIndex
	buf[17] = d.NumConfigurations
	return DeviceDescriptorSize
}

// ParseDeviceDescriptor decodes a device descriptor from data into out.
func ParseDeviceDescriptor(data []byte, out *DeviceDescriptor) error {
	if len(data) < DeviceDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeDevice {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.USBVersion = binary.LittleEndian.Uint16(data[2:4])
	out.DeviceClass = data[4]
	out.DeviceSubClass = data[5]
	out.DeviceProtocol = data[6]
	out.MaxPacketSize0 = data[7]
	out.VendorID = binary.LittleEndian.Uint16(data[8:10])
	out.ProductID = binary.LittleEndian.Uint16(data[10:12])
	out.DeviceVersion = binary.LittleEndian.Uint16(data[12:14])
	out.ManufacturerIndex = data[14]
	out.ProductIndex = data[15]
	out.SerialIndex = data[16]
	out.NumConfigurations = data[17]
	return nil
}

// ConfigurationDescriptor is the standard configuration descriptor header.
// TotalLength is computed by [Configuration.MarshalTo].
type ConfigurationDescriptor struct {
	NumInterfaces      uint8
	ConfigurationValue uint8
	ConfigurationIndex uint8
	Attributes         uint8
	MaxPower           uint8 // in 2 mA units
}

// InterfaceDescriptor is the standard interface descriptor.
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	InterfaceIndex    uint8
}

// EndpointDescriptor is the standard endpoint descriptor.
type EndpointDescriptor struct {
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// MarshalTo serializes the endpoint descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (e *EndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = DescriptorTypeEndpoint
	buf[2] = e.EndpointAddress
	buf[3] = e.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], e.MaxPacketSize)
	buf[6] = e.Interval
	return EndpointDescriptorSize
}

// ParseEndpointDescriptor decodes an endpoint descriptor from data into out.
func ParseEndpointDescriptor(data []byte, out *EndpointDescriptor) error {
	if len(data) < EndpointDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeEndpoint {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.EndpointAddress = data[2]
	out.Attributes = data[3]
	out.MaxPacketSize = binary.LittleEndian.Uint16(data[4:6])
	out.Interval = data[6]
	return nil
}

// Configuration is a single-interface configuration with its endpoints.
type Configuration struct {
	Descriptor ConfigurationDescriptor
	Interface  InterfaceDescriptor
	Endpoints  []EndpointDescriptor
}

// TotalLength returns the size of the full configuration descriptor set.
func (c *Configuration) TotalLength() int {
	return ConfigurationDescriptorSize + InterfaceDescriptorSize +
		len(c.Endpoints)*EndpointDescriptorSize
}

// MarshalTo serializes the configuration, interface and endpoint
// descriptors to buf. Returns the number of bytes written, or 0 if buf is
// too small.
func (c *Configuration) MarshalTo(buf []byte) int {
	total := c.TotalLength()
	if len(buf) < total {
		return 0
	}
	d := &c.Descriptor
	buf[0] = ConfigurationDescriptorSize
	buf[1] = DescriptorTypeConfiguration
	binary.LittleEndian.PutUint16(buf[2:4], uint16(total))
	buf[4] = d.NumInterfaces
	buf[5] = d.ConfigurationValue
	buf[6] = d.ConfigurationIndex
	buf[7] = d.Attributes
	buf[8] = d.MaxPower

	i := &c.Interface
	b := buf[ConfigurationDescriptorSize:]
	b[0] = InterfaceDescriptorSize
	b[1] = DescriptorTypeInterface
	b[2] = i.InterfaceNumber
	b[3] = i.AlternateSetting
	b[4] = uint8(len(c.Endpoints))
	b[5] = i.InterfaceClass
	b[6] = i.InterfaceSubClass
	b[7] = i.InterfaceProtocol
	b[8] = i.InterfaceIndex

	n := ConfigurationDescriptorSize + InterfaceDescriptorSize
	for k := range c.Endpoints {
		n += c.Endpoints[k].MarshalTo(buf[n:])
	}
	return n
}
