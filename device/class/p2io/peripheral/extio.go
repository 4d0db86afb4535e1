package peripheral

import (
	"sync"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/pkg"
)

// ExtioPacketSize is the size of an EXTIO light packet.
const ExtioPacketSize = 4

// ExtioAck acknowledges a well-formed EXTIO packet.
const ExtioAck = 0x11

// EXTIO pad light bits, one byte per player.
const (
	ExtioPadUp    = 0x40
	ExtioPadDown  = 0x20
	ExtioPadLeft  = 0x10
	ExtioPadRight = 0x08
)

// ExtioNeon is the neon light bit in the third packet byte.
const ExtioNeon = 0x40

// Lights is the DDR pad light state driven through EXTIO.
type Lights struct {
	P1   uint8
	P2   uint8
	Neon bool
}

// Extio emulates the DDR EXTIO board on the first P2IO port. It controls
// the pad lights and the neon under the cabinet.
type Extio struct {
	lights   Lights
	onLights func(Lights)
	out      acio.Outbox
	mutex    sync.Mutex
}

// NewExtio creates an EXTIO with all lights off.
func NewExtio() *Extio {
	return &Extio{}
}

// SetOnLights sets the callback invoked when the light state changes.
func (e *Extio) SetOnLights(fn func(Lights)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.onLights = fn
}

// Lights returns the current light state.
func (e *Extio) Lights() Lights {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.lights
}

// Open implements [acio.Device].
func (e *Extio) Open() {}

// Close implements [acio.Device].
func (e *Extio) Close() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.out.Reset()
}

// Write implements [acio.Device]. The last byte of a packet is the 7-bit
// sum of the first three.
func (e *Extio) Write(packet []byte) {
	e.mutex.Lock()
	if len(packet) < ExtioPacketSize ||
		(packet[0]+packet[1]+packet[2])&0x7F != packet[3] {
		pkg.LogDebug(pkg.ComponentPeripheral, "extio: malformed packet", "data", pkg.Hex(packet))
		e.out.Push([]byte{0})
		e.mutex.Unlock()
		return
	}

	next := Lights{
		P1:   packet[0] & (ExtioPadUp | ExtioPadDown | ExtioPadLeft | ExtioPadRight),
		P2:   packet[1] & (ExtioPadUp | ExtioPadDown | ExtioPadLeft | ExtioPadRight),
		Neon: packet[2]&ExtioNeon != 0,
	}
	changed := next != e.lights
	e.lights = next
	e.out.Push([]byte{ExtioAck})
	fn := e.onLights
	e.mutex.Unlock()

	if changed && fn != nil {
		fn(next)
	}
}

// Read implements [acio.Device].
func (e *Extio) Read(p []byte) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.out.Read(p)
}

var _ acio.Device = (*Extio)(nil)
