package device

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softp2io/pkg"
)

// Standard request codes (USB 2.0 Table 9-4).
const (
	RequestGetStatus        = 0x00
	RequestClearFeature     = 0x01
	RequestSetFeature       = 0x03
	RequestSetAddress       = 0x05
	RequestGetDescriptor    = 0x06
	RequestGetConfiguration = 0x08
	RequestSetConfiguration = 0x09
	RequestGetInterface     = 0x0A
	RequestSetInterface     = 0x0B
)

// FeatureEndpointHalt selects the endpoint halt feature.
const FeatureEndpointHalt = 0x00

// Request type fields.
const (
	RequestDirectionDeviceToHost = 0x80
	RequestTypeMask              = 0x60
	RequestTypeStandard          = 0x00
	RequestRecipientMask         = 0x1F
	RequestRecipientDevice       = 0x00
	RequestRecipientInterface    = 0x01
	RequestRecipientEndpoint     = 0x02
)

// SetupPacketSize is the size of a SETUP packet.
const SetupPacketSize = 8

// SetupPacket is a decoded control request.
type SetupPacket struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// ParseSetupPacket decodes a SETUP packet from data into out.
func ParseSetupPacket(data []byte, out *SetupPacket) error {
	if len(data) < SetupPacketSize {
		return pkg.ErrSetupPacketTooShort
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = binary.LittleEndian.Uint16(data[2:4])
	out.Index = binary.LittleEndian.Uint16(data[4:6])
	out.Length = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

// MarshalTo serializes the SETUP packet to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	binary.LittleEndian.PutUint16(buf[2:4], s.Value)
	binary.LittleEndian.PutUint16(buf[4:6], s.Index)
	binary.LittleEndian.PutUint16(buf[6:8], s.Length)
	return SetupPacketSize
}

// IsStandard reports whether this is a standard request.
func (s *SetupPacket) IsStandard() bool {
	return s.RequestType&RequestTypeMask == RequestTypeStandard
}

// Recipient returns the request recipient.
func (s *SetupPacket) Recipient() uint8 {
	return s.RequestType & RequestRecipientMask
}

// DescriptorType returns the descriptor type from the high byte of Value.
func (s *SetupPacket) DescriptorType() uint8 {
	return uint8(s.Value >> 8)
}

// DescriptorIndex returns the descriptor index from the low byte of Value.
func (s *SetupPacket) DescriptorIndex() uint8 {
	return uint8(s.Value)
}

// String returns a human-readable representation of the request.
func (s *SetupPacket) String() string {
	dir := "OUT"
	if s.RequestType&RequestDirectionDeviceToHost != 0 {
		dir = "IN"
	}
	return fmt.Sprintf("SETUP[%s type=0x%02X] Request=0x%02X Value=0x%04X Index=0x%04X Length=%d",
		dir, s.RequestType, s.Request, s.Value, s.Index, s.Length)
}
