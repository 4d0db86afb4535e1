package peripheral

import (
	"sync"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// DrumCodePoll requests the hits since the previous poll.
const DrumCodePoll = 0x01

// DrumReportSize is the size of a drum pad poll response.
const DrumReportSize = 4

// Drum hit bits, one byte per player.
const (
	DrumHitLeft   = 0x01
	DrumHitRight  = 0x02
	DrumHitCymbal = 0x04
)

var drumKeys = [2][3]struct {
	key input.Key
	bit byte
}{
	{
		{input.KeyToysMarchP1DrumL, DrumHitLeft},
		{input.KeyToysMarchP1DrumR, DrumHitRight},
		{input.KeyToysMarchP1Cymbal, DrumHitCymbal},
	},
	{
		{input.KeyToysMarchP2DrumL, DrumHitLeft},
		{input.KeyToysMarchP2DrumR, DrumHitRight},
		{input.KeyToysMarchP2Cymbal, DrumHitCymbal},
	},
}

// DrumPad emulates the Toy's March drum pad, a raw serial device on the
// first P2IO port. Each poll reports every hit once.
type DrumPad struct {
	in    input.Source
	out   acio.Outbox
	open  bool
	mutex sync.Mutex
}

// NewDrumPad creates a drum pad reading hits from in.
func NewDrumPad(in input.Source) *DrumPad {
	return &DrumPad{in: in}
}

// Open implements [acio.Device].
func (d *DrumPad) Open() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.open = true
}

// IsOpen reports whether the host has opened the drum pad port.
func (d *DrumPad) IsOpen() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.open
}

// Close implements [acio.Device].
func (d *DrumPad) Close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.open = false
	d.out.Reset()
}

// Write implements [acio.Device].
func (d *DrumPad) Write(packet []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(packet) == 0 {
		return
	}
	if packet[0] != DrumCodePoll {
		pkg.LogDebug(pkg.ComponentPeripheral, "drum pad: unknown code", "code", packet[0])
		d.out.Push([]byte{0})
		return
	}

	var report [DrumReportSize]byte
	report[0] = DrumCodePoll
	for player, keys := range drumKeys {
		for _, k := range keys {
			if d.in.OneShot(k.key) {
				report[1+player] |= k.bit
			}
		}
	}
	report[3] = report[0] + report[1] + report[2]
	d.out.Push(report[:])
}

// Read implements [acio.Device].
func (d *DrumPad) Read(p []byte) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.out.Read(p)
}

var _ acio.Device = (*DrumPad)(nil)
