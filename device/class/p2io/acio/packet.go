package acio

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softp2io/pkg"
)

// HeaderSize is the size of an ACIO packet header: address, command code
// (big-endian), sequence number and payload length.
const HeaderSize = 5

// ResponseFlag is set in the address byte of every node response.
const ResponseFlag = 0x80

// BroadcastAddr addresses the bus itself rather than a node.
const BroadcastAddr = 0x00

// Command codes understood by every node.
const (
	CodeAssignAddrs = 0x0001 // bus enumeration, answered by the bus
	CodeGetVersion  = 0x0002
	CodeStartUp     = 0x0003
	CodeKeepalive   = 0x0080
)

// Message is a decoded ACIO packet. Payload aliases the packet buffer it
// was parsed from.
type Message struct {
	Addr    uint8
	Code    uint16
	Seq     uint8
	Payload []byte
}

// String returns a short description of the message header.
func (m *Message) String() string {
	return fmt.Sprintf("ACIO[addr=%d code=0x%04X seq=%d len=%d]",
		m.Addr, m.Code, m.Seq, len(m.Payload))
}

// Checksum returns the 8-bit sum of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// trimSync drops leading sync bytes.
func trimSync(packet []byte) []byte {
	for len(packet) > 0 && packet[0] == Sync {
		packet = packet[1:]
	}
	return packet
}

// ParseMessage decodes an unescaped packet into out. Leading sync bytes are
// skipped. The trailing checksum must match the header and payload.
func ParseMessage(packet []byte, out *Message) error {
	body := trimSync(packet)
	if len(body) < HeaderSize+1 {
		return fmt.Errorf("acio header: %w", pkg.ErrShortPacket)
	}
	n := int(body[4])
	if len(body) < HeaderSize+n+1 {
		return fmt.Errorf("acio payload (want %d bytes, have %d): %w",
			n, len(body)-HeaderSize-1, pkg.ErrShortPacket)
	}
	if sum := Checksum(body[:HeaderSize+n]); sum != body[HeaderSize+n] {
		return fmt.Errorf("acio sum 0x%02X, want 0x%02X: %w",
			body[HeaderSize+n], sum, pkg.ErrChecksum)
	}
	out.Addr = body[0]
	out.Code = binary.BigEndian.Uint16(body[1:3])
	out.Seq = body[3]
	out.Payload = body[HeaderSize : HeaderSize+n]
	return nil
}

// AppendMessage appends the unescaped encoding of m (header, payload and
// checksum, without sync) to dst. Payloads longer than 255 bytes are
// truncated.
func AppendMessage(dst []byte, m *Message) []byte {
	payload := m.Payload
	if len(payload) > 0xFF {
		payload = payload[:0xFF]
	}
	start := len(dst)
	dst = append(dst, m.Addr, byte(m.Code>>8), byte(m.Code), m.Seq, byte(len(payload)))
	dst = append(dst, payload...)
	return append(dst, Checksum(dst[start:]))
}

// AppendFrame appends the wire form of m to dst: a sync byte followed by
// the escaped message.
func AppendFrame(dst []byte, m *Message) []byte {
	var raw [HeaderSize + 0xFF + 1]byte
	dst = append(dst, Sync)
	return Escape(dst, AppendMessage(raw[:0], m))
}

// Reply builds the response header for req. The payload is left empty.
func Reply(req *Message) Message {
	return Message{
		Addr: req.Addr | ResponseFlag,
		Code: req.Code,
		Seq:  req.Seq,
	}
}

// VersionSize is the size of a node version block.
const VersionSize = 44

// Version identifies a node in response to [CodeGetVersion].
type Version struct {
	Type     uint32
	Flag     uint8
	Major    uint8
	Minor    uint8
	Revision uint8
	Product  [4]byte
	Date     string
	Time     string
}

// MarshalTo serializes the version block to buf.
// Returns the number of bytes written (always 44 if buf is large enough).
func (v *Version) MarshalTo(buf []byte) int {
	if len(buf) < VersionSize {
		return 0
	}
	clear(buf[:VersionSize])
	binary.BigEndian.PutUint32(buf[0:4], v.Type)
	buf[4] = v.Flag
	buf[5] = v.Major
	buf[6] = v.Minor
	buf[7] = v.Revision
	copy(buf[8:12], v.Product[:])
	copy(buf[12:27], v.Date)
	copy(buf[28:43], v.Time)
	return VersionSize
}
