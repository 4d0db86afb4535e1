package p2io

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/softp2io/pkg"
)

// GameType selects the sub-devices and input mapping of a board.
type GameType uint8

// Supported game types. The numeric values are the InputType values of the
// configuration file.
const (
	GameGeneric GameType = iota
	GameDrumMania
	GameGuitarFreaks
	GameDDR
	GameThrillDrive
	GameToysMarch

	gameTypeCount
)

var gameNames = [gameTypeCount]string{
	GameGeneric:      "generic",
	GameDrumMania:    "drummania",
	GameGuitarFreaks: "guitarfreaks",
	GameDDR:          "ddr",
	GameThrillDrive:  "thrilldrive",
	GameToysMarch:    "toysmarch",
}

// String returns the lowercase name of the game type.
func (g GameType) String() string {
	if g < gameTypeCount {
		return gameNames[g]
	}
	return fmt.Sprintf("game(%d)", uint8(g))
}

// Valid reports whether g is a known game type.
func (g GameType) Valid() bool {
	return g < gameTypeCount
}

// ParseGameType accepts a game name or its numeric InputType value.
func ParseGameType(s string) (GameType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < int(gameTypeCount) {
			return GameType(n), nil
		}
		return GameGeneric, fmt.Errorf("input type %d: %w", n, pkg.ErrUnknownGame)
	}
	for g, name := range gameNames {
		if strings.EqualFold(name, s) {
			return GameType(g), nil
		}
	}
	return GameGeneric, fmt.Errorf("game %q: %w", s, pkg.ErrUnknownGame)
}

// Command opcodes.
const (
	CmdGetVersion     = 0x01
	CmdFWriteMode     = 0x03
	CmdSetWatchdog    = 0x05
	CmdSetAVMask      = 0x22
	CmdGetAVReport    = 0x23
	CmdLampOut        = 0x24
	CmdDallas         = 0x25
	CmdSendIR         = 0x26
	CmdReadDipSwitch  = 0x27
	CmdGetJammaPOR    = 0x28
	CmdPortRead       = 0x29
	CmdPortReadPOR    = 0x2A
	CmdJammaStart     = 0x2F
	CmdCoinStock      = 0x31
	CmdCoinCounter    = 0x32
	CmdCoinBlocker    = 0x33
	CmdCoinCounterOut = 0x34
	CmdSCISetup       = 0x38
	CmdSCIWrite       = 0x3A
	CmdSCIRead        = 0x3B
)

// StatusOK is the status byte of every response.
const StatusOK = 0x00

// Frame layout.
const (
	// FrameHeaderSize covers sync, length, sequence and opcode.
	FrameHeaderSize = 4

	// frameOverhead is the number of bytes not counted by the length byte.
	frameOverhead = 2

	// MaxResponsePayload keeps the length byte of a response in range.
	MaxResponsePayload = 0xFF - 2

	// MaxReceiveBuffer bounds the bytes held while waiting for a frame.
	MaxReceiveBuffer = 512
)

// Version reported by GET_VERSION.
var firmwareVersion = [...]byte{'D', '4', '4', 0x00, 0x01, 0x06, 0x04}

// AV report modes.
const (
	AVMode15kHz = 0x00
	AVMode31kHz = 0x01
)

// Dallas sub-commands.
const (
	DallasSelectBlack = 0x00 // select and read slot 0
	DallasSelectWhite = 0x01 // select and read slot 1
	DallasSelectWire  = 0x02 // select data supplied on the wire
	DallasWrite       = 0x03
)

// DongleSize is the size of a Dallas dongle image.
const DongleSize = 40

// dongleNone marks that no dongle has been selected yet.
const dongleNone = -1

// COIN_COUNTER flag requesting a merged counter update.
const coinCounterMerge = 0x10

// LAMP_OUT parameter addressing every lamp at once.
const lampAll = 0xFF

// FWRITEMODE parameter that would enter firmware write mode.
const fwriteModeEnter = 0xAA

// SCI_SETUP actions.
const (
	sciOpen  = 0x00
	sciClose = 0xFF
)

// NumSlots is the number of P2IO serial ports.
const NumSlots = 2

// JAMMA status bits. The word is active-low: a clear bit is a pressed
// input.
const (
	JammaWatchdog = 0x00000002

	JammaTest    = 0x10000000
	JammaCoin1   = 0x20000000
	JammaService = 0x40000000
	JammaCoin2   = 0x80000000

	JammaP1Start = 0x00000100
	JammaP2Start = 0x00010000
)

// DDR bits.
const (
	JammaDDRP1SelectL = 0x00000200
	JammaDDRP1SelectR = 0x00000400
	JammaDDRP1Up      = 0x00000800
	JammaDDRP1Down    = 0x00001000
	JammaDDRP1Left    = 0x00002000
	JammaDDRP1Right   = 0x00004000
	JammaDDRP2SelectL = 0x00020000
	JammaDDRP2SelectR = 0x00040000
	JammaDDRP2Up      = 0x00080000
	JammaDDRP2Down    = 0x00100000
	JammaDDRP2Left    = 0x00200000
	JammaDDRP2Right   = 0x00400000
)

// GuitarFreaks bits.
const (
	JammaGFP1Pick    = 0x00000200
	JammaGFP1Wail    = 0x00000400
	JammaGFP1Effect1 = 0x00000800
	JammaGFP1Effect2 = 0x00001000
	JammaGFP1R       = 0x00002000
	JammaGFP1G       = 0x00004000
	JammaGFP1B       = 0x00008000
	JammaGFP1Effect3 = 0x00000080
	JammaGFP2Pick    = 0x00020000
	JammaGFP2Wail    = 0x00040000
	JammaGFP2Effect1 = 0x00080000
	JammaGFP2Effect2 = 0x00100000
	JammaGFP2R       = 0x00200000
	JammaGFP2G       = 0x00400000
	JammaGFP2B       = 0x00800000
	JammaGFP2Effect3 = 0x01000000
)

// DrumMania bits.
const (
	JammaDMSelectL = 0x00000200
	JammaDMSelectR = 0x00000400
	JammaDMHihat   = 0x00000800
	JammaDMSnare   = 0x00001000
	JammaDMHighTom = 0x00002000
	JammaDMLowTom  = 0x00004000
	JammaDMCymbal  = 0x00008000
	JammaDMBass    = 0x00010000
)

// Thrill Drive bits.
const (
	JammaTDGearUp   = 0x00000200
	JammaTDGearDown = 0x00000400
)

// Toy's March bits.
const (
	JammaTMP1SelectL = 0x00000200
	JammaTMP1SelectR = 0x00000400
	JammaTMP2SelectL = 0x00020000
	JammaTMP2SelectR = 0x00040000
)

// jammaDefault is the status word after power-on: every input released.
const jammaDefault = 0xF0FFFF80

// JAMMA report layout.
const (
	JammaReportSize = 12

	// WheelCenter is the wheel position with no input.
	WheelCenter = 0x7FDF
)

// DefaultOneShotInterval is the number of polls between evaluations of
// one-shot inputs.
const DefaultOneShotInterval = 10

// Endpoint addresses.
const (
	EndpointCommandIn  = 0x81
	EndpointCommandOut = 0x02
	EndpointJamma      = 0x83
)

// USB identity.
const (
	VendorID      = 0x0000
	ProductID     = 0x7305
	DeviceVersion = 0x0020
)
