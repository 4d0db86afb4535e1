package p2io

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softp2io/pkg"
)

// stateMagic identifies a board snapshot.
var stateMagic = [4]byte{'P', '2', 'I', 'O'}

// stateVersion is bumped whenever the snapshot layout changes.
const stateVersion = 1

// StateSize is the size of a board snapshot.
const StateSize = 4 + 1 + // magic, version
	1 + 4 + 1 + // game type, JAMMA status, 31 kHz
	2*4 + 2 + // coins, coin buttons held
	4 + // DIP switches
	1 + 2 + 2*DongleSize + // requested dongle, loaded flags, images
	3*2 + 2 + // wheel, accel, brake, knobs
	1 + 2 + // coin blocker, lamps
	4 + 2 + // poll count, one-shot interval
	1 + 2 + MaxReceiveBuffer // unescaper pending, buffer length, buffer

// stateWriter appends big-endian fields to a fixed buffer.
type stateWriter struct {
	buf []byte
}

func (w *stateWriter) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *stateWriter) u16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *stateWriter) u32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *stateWriter) bytes(p []byte) { w.buf = append(w.buf, p...) }

func (w *stateWriter) flag(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// stateReader consumes big-endian fields in the order stateWriter wrote them.
type stateReader struct {
	buf []byte
}

func (r *stateReader) u8() uint8 {
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v
}

func (r *stateReader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.buf)
	r.buf = r.buf[2:]
	return v
}

func (r *stateReader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf)
	r.buf = r.buf[4:]
	return v
}

func (r *stateReader) bytes(p []byte) {
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
}

func (r *stateReader) flag() bool {
	return r.u8() != 0
}

// SaveState writes the board's protocol state into dst and returns
// StateSize. Returns 0 if dst is shorter than StateSize. Sub-device state
// is not included.
func (b *Board) SaveState(dst []byte) int {
	if len(dst) < StateSize {
		return 0
	}
	w := stateWriter{buf: dst[:0]}
	w.bytes(stateMagic[:])
	w.u8(stateVersion)

	w.u8(uint8(b.gameType))
	w.u32(b.jammaIoStatus)
	w.flag(b.force31kHz)
	for i := range b.coinsInserted {
		w.u32(b.coinsInserted[i])
	}
	for i := range b.coinButtonHeld {
		w.flag(b.coinButtonHeld[i])
	}
	w.bytes(b.dipSwitch[:])
	w.u8(uint8(b.requestedDongle))
	for i := range b.dongleLoaded {
		w.flag(b.dongleLoaded[i])
	}
	for i := range b.donglePayload {
		w.bytes(b.donglePayload[i][:])
	}
	w.u16(b.wheel)
	w.u16(b.accel)
	w.u16(b.brake)
	w.bytes(b.knobs[:])
	w.flag(b.coinBlocker)
	w.u16(uint16(b.lamps))
	w.u32(b.pollCount)
	w.u16(b.oneShotInterval)

	w.flag(b.rx.Pending())
	w.u16(uint16(len(b.buf)))
	var rx [MaxReceiveBuffer]byte
	copy(rx[:], b.buf)
	w.bytes(rx[:])

	return len(w.buf)
}

// LoadState restores a snapshot written by SaveState. Every saved field is
// overwritten; the sub-devices are rebuilt when the saved game differs
// from the current one.
func (b *Board) LoadState(src []byte) error {
	if len(src) != StateSize {
		return fmt.Errorf("load state: %d bytes, want %d: %w", len(src), StateSize, pkg.ErrSnapshotSize)
	}
	r := stateReader{buf: src}
	var magic [4]byte
	r.bytes(magic[:])
	if magic != stateMagic {
		return fmt.Errorf("load state: bad magic % x: %w", magic, pkg.ErrInvalidParameter)
	}
	if v := r.u8(); v != stateVersion {
		return fmt.Errorf("load state: version %d: %w", v, pkg.ErrNotSupported)
	}

	game := GameType(r.u8())
	if !game.Valid() {
		return fmt.Errorf("load state: game type %d: %w", game, pkg.ErrUnknownGame)
	}

	// Decode into a scratch board so a rejected snapshot leaves b intact.
	var n Board
	n.gameType = game
	n.jammaIoStatus = r.u32()
	n.force31kHz = r.flag()
	for i := range n.coinsInserted {
		n.coinsInserted[i] = r.u32()
	}
	for i := range n.coinButtonHeld {
		n.coinButtonHeld[i] = r.flag()
	}
	r.bytes(n.dipSwitch[:])
	n.requestedDongle = int8(r.u8())
	for i := range n.dongleLoaded {
		n.dongleLoaded[i] = r.flag()
	}
	for i := range n.donglePayload {
		r.bytes(n.donglePayload[i][:])
	}
	n.wheel = r.u16()
	n.accel = r.u16()
	n.brake = r.u16()
	r.bytes(n.knobs[:])
	n.coinBlocker = r.flag()
	n.lamps = Lamps(r.u16())
	n.pollCount = r.u32()
	n.oneShotInterval = r.u16()
	pending := r.flag()
	size := int(r.u16())
	var rx [MaxReceiveBuffer]byte
	r.bytes(rx[:])

	switch {
	case n.requestedDongle < dongleNone || n.requestedDongle > DallasSelectWire:
		return fmt.Errorf("load state: dongle %d: %w", n.requestedDongle, pkg.ErrInvalidParameter)
	case n.knobs[0] > 3 || n.knobs[1] > 3:
		return fmt.Errorf("load state: knobs %v: %w", n.knobs, pkg.ErrInvalidParameter)
	case n.oneShotInterval == 0:
		return fmt.Errorf("load state: one-shot interval 0: %w", pkg.ErrInvalidParameter)
	case size > MaxReceiveBuffer:
		return fmt.Errorf("load state: buffer length %d: %w", size, pkg.ErrInvalidParameter)
	}

	b.gameType = n.gameType
	b.jammaIoStatus = n.jammaIoStatus
	b.force31kHz = n.force31kHz
	b.coinsInserted = n.coinsInserted
	b.coinButtonHeld = n.coinButtonHeld
	b.dipSwitch = n.dipSwitch
	b.requestedDongle = n.requestedDongle
	b.dongleLoaded = n.dongleLoaded
	b.donglePayload = n.donglePayload
	b.wheel, b.accel, b.brake = n.wheel, n.accel, n.brake
	b.knobs = n.knobs
	b.coinBlocker = n.coinBlocker
	b.lamps = n.lamps
	b.pollCount = n.pollCount
	b.oneShotInterval = n.oneShotInterval
	b.rx.SetPending(pending)
	b.buf = append(b.buf[:0], rx[:size]...)

	b.ensureSlots()
	return nil
}
