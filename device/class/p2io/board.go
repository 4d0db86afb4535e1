package p2io

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/device/class/p2io/peripheral"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// Board is the protocol state of one P2IO board: the command receive
// buffer, the JAMMA status word, coins, dongles and the sub-devices on its
// two serial ports.
//
// Board is not safe for concurrent use. [Driver] serializes access.
type Board struct {
	in input.Source

	gameType   GameType
	slots      [NumSlots]acio.Device
	slotsGame  GameType
	slotsBuilt bool
	cards      [2]*[peripheral.CardIDSize]byte

	jammaIoStatus   uint32
	force31kHz      bool
	coinsInserted   [2]uint32
	coinButtonHeld  [2]bool
	dipSwitch       [4]byte
	dongleLoaded    [2]bool
	donglePayload   [2][DongleSize]byte
	requestedDongle int8
	wheel           uint16
	accel           uint16
	brake           uint16
	knobs           [2]uint8
	coinBlocker     bool
	lamps           Lamps
	pollCount       uint32
	oneShotInterval uint16

	rx  acio.Unescaper
	buf []byte

	onLamps func(old, new Lamps)

	payload [MaxResponsePayload]byte
	scratch [0x100]byte
}

// NewBoard creates a generic board reading sub-device input from in.
func NewBoard(in input.Source) *Board {
	return &Board{
		in:              in,
		jammaIoStatus:   jammaDefault,
		dipSwitch:       [4]byte{'0', '0', '0', '0'},
		requestedDongle: dongleNone,
		wheel:           WheelCenter,
		oneShotInterval: DefaultOneShotInterval,
		buf:             make([]byte, 0, MaxReceiveBuffer),
	}
}

// Open applies cfg, loads the dongle images and builds the sub-devices of
// the configured game. Sub-devices are kept across Open calls unless the
// game type changes. A dongle that cannot be read leaves its slot
// unloaded.
func (b *Board) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("open board: %w", err)
	}

	b.gameType = cfg.GameType
	b.force31kHz = cfg.Force31kHz
	b.dipSwitch = [4]byte{'0', '0', '0', '0'}
	copy(b.dipSwitch[:], cfg.DipSwitch)
	b.oneShotInterval = uint16(cfg.OneShotInterval)
	if b.oneShotInterval == 0 {
		b.oneShotInterval = DefaultOneShotInterval
	}
	b.cards = cfg.Cards

	for i, path := range cfg.DonglePaths {
		b.dongleLoaded[i] = false
		b.donglePayload[i] = [DongleSize]byte{}
		if path == "" {
			continue
		}
		payload, err := LoadDongle(path)
		if err != nil {
			pkg.LogWarn(pkg.ComponentBoard, "dongle not loaded", "slot", i, "error", err)
			continue
		}
		b.donglePayload[i] = payload
		b.dongleLoaded[i] = true
	}

	b.ensureSlots()

	pkg.LogInfo(pkg.ComponentBoard, "board opened",
		"game", b.gameType.String(),
		"dip", string(b.dipSwitch[:]),
		"31khz", b.force31kHz,
		"dongles", b.dongleLoaded)
	return nil
}

// Close closes every sub-device.
func (b *Board) Close() {
	for _, d := range b.slots {
		if d != nil {
			d.Close()
		}
	}
}

// GameType returns the configured game.
func (b *Board) GameType() GameType {
	return b.gameType
}

// Slot returns the sub-device on serial port i, or nil.
func (b *Board) Slot(i int) acio.Device {
	if i < 0 || i >= NumSlots {
		return nil
	}
	return b.slots[i]
}

// SetSlot replaces the sub-device on serial port i until the game type
// changes. A nil device empties the port.
func (b *Board) SetSlot(i int, d acio.Device) error {
	if i < 0 || i >= NumSlots {
		return fmt.Errorf("slot %d: %w", i, pkg.ErrInvalidParameter)
	}
	if old := b.slots[i]; old != nil && old != d {
		old.Close()
	}
	b.slots[i] = d
	return nil
}

// SetOnLamps sets the callback invoked when LAMP_OUT changes the lit lamps.
func (b *Board) SetOnLamps(fn func(old, new Lamps)) {
	b.onLamps = fn
}

// Lamps returns the lamps lit by the last LAMP_OUT.
func (b *Board) Lamps() Lamps {
	return b.lamps
}

// Coins returns the number of coins inserted in slot i since power-on.
func (b *Board) Coins(i int) uint32 {
	return b.coinsInserted[i&1]
}

// Knob returns the effect knob position (0-3) of player i.
func (b *Board) Knob(i int) uint8 {
	return b.knobs[i&1]
}

// JammaStatus returns the active-low JAMMA status word.
func (b *Board) JammaStatus() uint32 {
	return b.jammaIoStatus
}

// Axes returns the wheel, accelerator and brake positions.
func (b *Board) Axes() (wheel, accel, brake uint16) {
	return b.wheel, b.accel, b.brake
}

// RequestedDongle returns the dongle selected by the last DALLAS command:
// -1 for none, 0 or 1 for a stored image, 2 for data supplied on the wire.
func (b *Board) RequestedDongle() int {
	return int(b.requestedDongle)
}

// CoinBlocker reports whether the host closed the coin blocker.
func (b *Board) CoinBlocker() bool {
	return b.coinBlocker
}

// Buffered returns the number of received bytes not yet consumed.
func (b *Board) Buffered() int {
	return len(b.buf)
}

// ensureSlots builds the sub-devices of the current game if they were not
// built for it yet.
func (b *Board) ensureSlots() {
	if b.slotsBuilt && b.slotsGame == b.gameType {
		return
	}
	b.Close()
	b.slots = b.buildSlots()
	b.slotsGame = b.gameType
	b.slotsBuilt = true
	pkg.LogDebug(pkg.ComponentBoard, "sub-devices built", "game", b.gameType.String())
}

func (b *Board) buildSlots() [NumSlots]acio.Device {
	var slots [NumSlots]acio.Device
	switch b.gameType {
	case GameDrumMania:
		slots[1] = b.readerBus(1)
	case GameGuitarFreaks:
		slots[1] = b.readerBus(2)
	case GameDDR:
		slots[0] = peripheral.NewExtio()
		slots[1] = b.readerBus(2)
	case GameThrillDrive:
		bus := acio.NewBus()
		_ = bus.AddDevice(1, acio.NewNode("handle", peripheral.NewHandle()))
		_ = bus.AddDevice(2, acio.NewNode("seatbelt", peripheral.NewSeatbelt(b.in)))
		slots[1] = bus
	case GameToysMarch:
		slots[0] = peripheral.NewDrumPad(b.in)
	}
	return slots
}

// readerBus creates an ACIO bus with a card reader for each player.
func (b *Board) readerBus(players int) *acio.Bus {
	bus := acio.NewBus()
	for p := 0; p < players; p++ {
		r := peripheral.NewICCA(p, b.in)
		if b.cards[p] != nil {
			r.SetCard(*b.cards[p])
		}
		_ = bus.AddDevice(p+1, acio.NewNode(fmt.Sprintf("icca%d", p+1), r))
	}
	return bus
}

// Write unescapes bytes received on the command OUT endpoint into the
// receive buffer. When the buffer would exceed MaxReceiveBuffer the
// oldest bytes are discarded.
func (b *Board) Write(data []byte) {
	b.buf = b.rx.Append(b.buf, data)
	if over := len(b.buf) - MaxReceiveBuffer; over > 0 {
		pkg.LogWarn(pkg.ComponentBoard, "receive buffer overflow", "dropped", over)
		b.consume(over)
	}
}

// consume discards the first n buffered bytes.
func (b *Board) consume(n int) {
	b.buf = append(b.buf[:0], b.buf[n:]...)
}

// ProcessCommand handles at most one complete request frame from the
// receive buffer. It appends the framed response to dst and reports
// whether a frame was handled. Bytes before the first sync byte are
// discarded; an incomplete frame stays buffered.
func (b *Board) ProcessCommand(dst []byte) ([]byte, bool) {
	i := bytes.IndexByte(b.buf, acio.Sync)
	if i < 0 {
		if len(b.buf) > 0 {
			pkg.LogDebug(pkg.ComponentBoard, "discarding bytes without sync", "data", pkg.Hex(b.buf))
			b.buf = b.buf[:0]
		}
		return dst, false
	}
	if i > 0 {
		pkg.LogDebug(pkg.ComponentBoard, "discarding bytes before sync", "data", pkg.Hex(b.buf[:i]))
		b.consume(i)
	}

	if len(b.buf) < FrameHeaderSize {
		return dst, false
	}
	declared := int(b.buf[1])
	if declared < 2 {
		pkg.LogWarn(pkg.ComponentBoard, "invalid frame length", "len", declared)
		b.consume(1)
		return dst, false
	}
	total := declared + frameOverhead
	if len(b.buf) < total {
		return dst, false
	}

	req := frame(b.buf[:total])
	seq := req[2]
	payload := b.dispatch(req, b.payload[:0])
	if len(payload) > MaxResponsePayload {
		pkg.LogWarn(pkg.ComponentBoard, "response truncated", "cmd", req.cmd(), "len", len(payload))
		payload = payload[:MaxResponsePayload]
	}

	raw := b.scratch[:0]
	raw = append(raw, byte(2+len(payload)), seq, StatusOK)
	raw = append(raw, payload...)

	dst = slices.Grow(dst, 1+acio.EscapedLen(raw))
	dst = append(dst, acio.Sync)
	dst = acio.Escape(dst, raw)

	b.consume(total)
	return dst, true
}

// frame is a complete, unescaped request frame.
type frame []byte

func (f frame) cmd() byte {
	return f[3]
}

// param returns parameter i, or zero beyond the end of the frame.
func (f frame) param(i int) byte {
	if j := FrameHeaderSize + i; j < len(f) {
		return f[j]
	}
	return 0
}

// params returns up to n parameters starting at i.
func (f frame) params(i, n int) []byte {
	start := FrameHeaderSize + i
	if start >= len(f) {
		return nil
	}
	return f[start:min(start+n, len(f))]
}
