package peripheral

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// Card reader command codes.
const (
	ICCACodeQueueLoopStart = 0x0130
	ICCACodeEngage         = 0x0131
	ICCACodePoll           = 0x0134
	ICCACodeSleep          = 0x0135
	ICCACodeBeginKeypad    = 0x013A
	ICCACodePollFelica     = 0x0161
)

// ICCAStateSize is the size of the card reader state block.
const ICCAStateSize = 16

// Card reader sensor bits.
const (
	ICCASensorFront = 0x10
	ICCASensorBack  = 0x20
)

// Card reader status codes.
const (
	ICCAStatusIdle     = 0x00
	ICCAStatusCardRead = 0x02
)

// Card types reported in the state block.
const (
	CardTypeISO15693 = 0x00
	CardTypeFelica   = 0x01
)

// CardIDSize is the size of a card UID.
const CardIDSize = 8

// keypadCodes maps keypad key codes (index) to the logical key of each
// player. Code 10 is the "00" key.
var keypadCodes = [2][11]input.Key{
	{
		input.KeyKeypadP1_0, input.KeyKeypadP1_1, input.KeyKeypadP1_2,
		input.KeyKeypadP1_3, input.KeyKeypadP1_4, input.KeyKeypadP1_5,
		input.KeyKeypadP1_6, input.KeyKeypadP1_7, input.KeyKeypadP1_8,
		input.KeyKeypadP1_9, input.KeyKeypadP1_00,
	},
	{
		input.KeyKeypadP2_0, input.KeyKeypadP2_1, input.KeyKeypadP2_2,
		input.KeyKeypadP2_3, input.KeyKeypadP2_4, input.KeyKeypadP2_5,
		input.KeyKeypadP2_6, input.KeyKeypadP2_7, input.KeyKeypadP2_8,
		input.KeyKeypadP2_9, input.KeyKeypadP2_00,
	},
}

var insertEjectKeys = [2]input.Key{input.KeyKeypadP1InsertEject, input.KeyKeypadP2InsertEject}

// ParseCardID decodes a card UID written as 16 hex digits. Spaces and
// dashes are ignored.
func ParseCardID(text string) ([CardIDSize]byte, error) {
	var id [CardIDSize]byte
	clean := strings.NewReplacer(" ", "", "-", "", "\n", "", "\r", "").Replace(text)
	if len(clean) != 2*CardIDSize {
		return id, fmt.Errorf("card id %q: want %d hex digits: %w", text, 2*CardIDSize, pkg.ErrInvalidParameter)
	}
	if _, err := hex.Decode(id[:], []byte(clean)); err != nil {
		return id, fmt.Errorf("card id %q: %w", text, err)
	}
	return id, nil
}

// ICCA emulates one player's card reader with keypad.
type ICCA struct {
	player int
	in     input.Source

	card      [CardIDSize]byte
	hasCard   bool
	inserted  bool
	engaged   bool
	keypadOn  bool
	eventSeq  uint8
	events    []byte
	wasHeld   [11]bool
	ejectHeld bool

	mutex sync.Mutex
}

// NewICCA creates the card reader for player (0 or 1).
func NewICCA(player int, in input.Source) *ICCA {
	return &ICCA{player: player & 1, in: in}
}

// SetCard loads the card presented when the player inserts a card.
func (r *ICCA) SetCard(id [CardIDSize]byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.card = id
	r.hasCard = true
}

// Inserted reports whether a card is in the reader.
func (r *ICCA) Inserted() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.inserted
}

// Engaged reports whether the card slot is engaged.
func (r *ICCA) Engaged() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.engaged
}

// Version implements [acio.Versioned].
func (r *ICCA) Version() acio.Version {
	return acio.Version{
		Type:     0x03,
		Major:    1,
		Minor:    6,
		Revision: 0,
		Product:  [4]byte{'I', 'C', 'C', 'A'},
		Date:     "Jun 22 2009",
		Time:     "12:00:00",
	}
}

// HandleMessage implements [acio.Handler].
func (r *ICCA) HandleMessage(msg *acio.Message, resp []byte) ([]byte, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sample()

	switch msg.Code {
	case ICCACodeQueueLoopStart:
		return append(resp, 0), true
	case ICCACodeEngage:
		r.engaged = true
	case ICCACodeSleep:
		r.engaged = false
	case ICCACodeBeginKeypad:
		r.keypadOn = true
	case ICCACodePoll, ICCACodePollFelica:
	default:
		return resp, false
	}
	return r.appendState(resp, msg.Code == ICCACodePollFelica), true
}

// sample latches card insertion and keypad edges.
func (r *ICCA) sample() {
	eject := r.in.Held(insertEjectKeys[r.player])
	if eject && !r.ejectHeld && r.hasCard {
		r.inserted = !r.inserted
		pkg.LogInfo(pkg.ComponentPeripheral, "card reader", "player", r.player+1, "inserted", r.inserted)
	}
	r.ejectHeld = eject

	for code, k := range keypadCodes[r.player] {
		held := r.in.Held(k)
		if held && !r.wasHeld[code] {
			r.eventSeq = (r.eventSeq + 1) & 0x07
			r.events = append(r.events, r.eventSeq<<5|0x10|byte(code))
		}
		r.wasHeld[code] = held
	}
	if over := len(r.events) - 2; over > 0 {
		r.events = r.events[over:]
	}
}

func (r *ICCA) appendState(resp []byte, felica bool) []byte {
	var state [ICCAStateSize]byte
	if r.inserted {
		state[0] = ICCAStatusCardRead
		state[1] = ICCASensorFront | ICCASensorBack
		copy(state[2:10], r.card[:])
		state[10] = CardTypeISO15693
		if felica {
			state[10] = CardTypeFelica
		}
	}
	if r.keypadOn {
		state[11] = 1
	}
	copy(state[12:14], r.events)
	r.events = r.events[:0]

	var keys uint16
	for code, k := range keypadCodes[r.player] {
		if r.in.Held(k) {
			keys |= 1 << code
		}
	}
	state[14] = byte(keys >> 8)
	state[15] = byte(keys)
	return append(resp, state[:]...)
}

var (
	_ acio.Handler   = (*ICCA)(nil)
	_ acio.Versioned = (*ICCA)(nil)
)
