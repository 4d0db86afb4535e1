package p2io

import (
	"encoding/binary"
	"math"

	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// binding maps a logical key to a JAMMA status bit.
type binding struct {
	key input.Key
	bit uint32
}

// gameBindings is the input mapping of one game.
type gameBindings struct {
	// level bits follow the held state of their key on every poll.
	level []binding
	// gated bits follow the held state of their key on one-shot polls only.
	gated []binding
	// oneShot bits report one queued press per one-shot poll.
	oneShot []binding
}

var systemBindings = []binding{
	{input.KeyTest, JammaTest},
	{input.KeyService, JammaService},
	{input.KeyCoin1, JammaCoin1},
	{input.KeyCoin2, JammaCoin2},
}

var coinBits = [2]uint32{JammaCoin1, JammaCoin2}

var gameTable = [gameTypeCount]gameBindings{
	GameDDR: {
		level: []binding{
			{input.KeyDdrP1Start, JammaP1Start},
			{input.KeyDdrP1SelectL, JammaDDRP1SelectL},
			{input.KeyDdrP1SelectR, JammaDDRP1SelectR},
			{input.KeyDdrP1FootLeft, JammaDDRP1Left},
			{input.KeyDdrP1FootDown, JammaDDRP1Down},
			{input.KeyDdrP1FootUp, JammaDDRP1Up},
			{input.KeyDdrP1FootRight, JammaDDRP1Right},
			{input.KeyDdrP2Start, JammaP2Start},
			{input.KeyDdrP2SelectL, JammaDDRP2SelectL},
			{input.KeyDdrP2SelectR, JammaDDRP2SelectR},
			{input.KeyDdrP2FootLeft, JammaDDRP2Left},
			{input.KeyDdrP2FootDown, JammaDDRP2Down},
			{input.KeyDdrP2FootUp, JammaDDRP2Up},
			{input.KeyDdrP2FootRight, JammaDDRP2Right},
		},
	},
	GameThrillDrive: {
		level: []binding{
			{input.KeyThrillDriveStart, JammaP1Start},
			{input.KeyThrillDriveGearUp, JammaTDGearUp},
			{input.KeyThrillDriveGearDown, JammaTDGearDown},
		},
	},
	GameDrumMania: {
		level: []binding{
			{input.KeyDmSelectL, JammaDMSelectL},
			{input.KeyDmSelectR, JammaDMSelectR},
			{input.KeyDmStart, JammaP1Start},
		},
		oneShot: []binding{
			{input.KeyDmHihat, JammaDMHihat},
			{input.KeyDmSnare, JammaDMSnare},
			{input.KeyDmHighTom, JammaDMHighTom},
			{input.KeyDmLowTom, JammaDMLowTom},
			{input.KeyDmCymbal, JammaDMCymbal},
			{input.KeyDmBassDrum, JammaDMBass},
		},
	},
	GameGuitarFreaks: {
		level: []binding{
			{input.KeyGfP1Start, JammaP1Start},
			{input.KeyGfP1NeckR, JammaGFP1R},
			{input.KeyGfP1NeckG, JammaGFP1G},
			{input.KeyGfP1NeckB, JammaGFP1B},
			{input.KeyGfP1Wail, JammaGFP1Wail},
			{input.KeyGfP2Start, JammaP2Start},
			{input.KeyGfP2NeckR, JammaGFP2R},
			{input.KeyGfP2NeckG, JammaGFP2G},
			{input.KeyGfP2NeckB, JammaGFP2B},
			{input.KeyGfP2Wail, JammaGFP2Wail},
		},
		gated: []binding{
			{input.KeyGfP1Pick, JammaGFP1Pick},
			{input.KeyGfP2Pick, JammaGFP2Pick},
		},
	},
	GameToysMarch: {
		level: []binding{
			{input.KeyToysMarchP1Start, JammaP1Start},
			{input.KeyToysMarchP1SelectL, JammaTMP1SelectL},
			{input.KeyToysMarchP1SelectR, JammaTMP1SelectR},
			{input.KeyToysMarchP2Start, JammaP2Start},
			{input.KeyToysMarchP2SelectL, JammaTMP2SelectL},
			{input.KeyToysMarchP2SelectR, JammaTMP2SelectR},
		},
	},
}

// GuitarFreaks effect knobs. Positions 1, 2 and 3 select EFFECT1, EFFECT2
// and EFFECT3; position 0 leaves all three released.
var knobKeys = [2]struct {
	inc, dec input.Key
	effects  [3]uint32
}{
	{input.KeyGfP1EffectInc, input.KeyGfP1EffectDec, [3]uint32{JammaGFP1Effect1, JammaGFP1Effect2, JammaGFP1Effect3}},
	{input.KeyGfP2EffectInc, input.KeyGfP2EffectDec, [3]uint32{JammaGFP2Effect1, JammaGFP2Effect2, JammaGFP2Effect3}},
}

// setBit drives an active-low status bit.
func (b *Board) setBit(bit uint32, active bool) {
	if active {
		b.jammaIoStatus &^= bit
	} else {
		b.jammaIoStatus |= bit
	}
}

// SampleJamma advances the JAMMA state by one poll using snap and returns
// the interrupt report. One-shot presses consumed from snap are removed
// from its queue.
func (b *Board) SampleJamma(snap *input.Snapshot) [JammaReportSize]byte {
	b.jammaIoStatus ^= JammaWatchdog

	for _, bind := range systemBindings {
		b.setBit(bind.bit, snap.Held(bind.key))
	}
	b.countCoins()

	table := &gameTable[b.gameType]
	for _, bind := range table.level {
		b.setBit(bind.bit, snap.Held(bind.key))
	}

	if b.gameType == GameThrillDrive {
		b.sampleAxes(snap)
	}

	if b.pollCount%uint32(b.oneShotInterval) == 0 {
		for _, bind := range table.gated {
			b.setBit(bind.bit, snap.Held(bind.key))
		}
		for _, bind := range table.oneShot {
			b.setBit(bind.bit, snap.OneShot(bind.key))
		}
		if b.gameType == GameGuitarFreaks {
			b.sampleKnobs(snap)
		}
	}
	b.pollCount = (b.pollCount + 1) % uint32(b.oneShotInterval)

	var report [JammaReportSize]byte
	binary.LittleEndian.PutUint32(report[0:4], b.jammaIoStatus)
	if b.gameType == GameThrillDrive {
		binary.BigEndian.PutUint16(report[4:6], b.wheel)
		binary.BigEndian.PutUint16(report[6:8], b.accel)
		binary.BigEndian.PutUint16(report[8:10], b.brake)
	}
	return report
}

// countCoins counts one coin per press of each coin button.
func (b *Board) countCoins() {
	for i, bit := range coinBits {
		if b.jammaIoStatus&bit == 0 {
			if !b.coinButtonHeld[i] {
				b.coinsInserted[i]++
				b.coinButtonHeld[i] = true
				pkg.LogDebug(pkg.ComponentJamma, "coin inserted", "slot", i, "total", b.coinsInserted[i])
			}
		} else {
			b.coinButtonHeld[i] = false
		}
	}
}

func (b *Board) sampleKnobs(snap *input.Snapshot) {
	for p, k := range knobKeys {
		if snap.OneShot(k.inc) {
			b.knobs[p] = (b.knobs[p] + 1) % 4
		}
		if snap.OneShot(k.dec) {
			b.knobs[p] = (b.knobs[p] + 3) % 4
		}
		for _, bit := range k.effects {
			b.setBit(bit, false)
		}
		switch b.knobs[p] {
		case 1:
			b.setBit(k.effects[0], true)
		case 2:
			b.setBit(k.effects[1], true)
		case 3:
			b.setBit(k.effects[2], true)
		}
	}
}

// sampleAxes updates the wheel and pedal positions. Digital keys override
// the analog sources; with neither the wheel is centered and the pedals
// released.
func (b *Board) sampleAxes(snap *input.Snapshot) {
	braking := snap.Held(input.KeyThrillDriveBrake)
	switch v, ok := snap.Analog(input.KeyThrillDriveBrakeAnalog); {
	case braking:
		b.brake = 0xFFFF
	case ok:
		b.brake = scaleAxis(v)
	default:
		b.brake = 0
	}

	switch v, ok := snap.Analog(input.KeyThrillDriveAccelAnalog); {
	case snap.Held(input.KeyThrillDriveAccel):
		// Braking holds the accelerator at its last position.
		if !braking {
			b.accel = 0xFFFF
		}
	case ok:
		b.accel = scaleAxis(v)
	default:
		b.accel = 0
	}

	switch v, ok := snap.Analog(input.KeyThrillDriveWheelAnalog); {
	case snap.Held(input.KeyThrillDriveWheelLeft):
		b.wheel = 0xFFFF
	case snap.Held(input.KeyThrillDriveWheelRight):
		b.wheel = 0
	case ok:
		b.wheel = 0xFFFF - scaleAxis(v)
	default:
		b.wheel = WheelCenter
	}
}

// scaleAxis maps a position in [0, 1] onto the full axis range.
func scaleAxis(v float64) uint16 {
	return uint16(math.Round(v * 0xFFFF))
}
