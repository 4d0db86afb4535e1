package peripheral

import (
	"sync"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/input"
)

// Seatbelt command codes.
const (
	BeltCodeFeedback = 0x0102
	BeltCodeStatus   = 0x0113
)

// BeltStatusSize is the size of a seatbelt status report.
const BeltStatusSize = 8

// Belt status values in byte 2 of the status report.
const (
	BeltFastened   = 0x00
	BeltUnfastened = 0xFF
)

// Seatbelt emulates the Thrill Drive seatbelt sensor. The belt key acts as
// a toggle: each press flips between fastened and unfastened.
type Seatbelt struct {
	in       input.Source
	fastened bool
	wasHeld  bool
	mutex    sync.Mutex
}

// NewSeatbelt creates an unfastened seatbelt reading the belt key from in.
func NewSeatbelt(in input.Source) *Seatbelt {
	return &Seatbelt{in: in}
}

// Fastened reports the latched belt state.
func (s *Seatbelt) Fastened() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fastened
}

// HandleMessage implements [acio.Handler].
func (s *Seatbelt) HandleMessage(msg *acio.Message, resp []byte) ([]byte, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	held := s.in.Held(input.KeyThrillDriveSeatbelt)
	if held && !s.wasHeld {
		s.fastened = !s.fastened
	}
	s.wasHeld = held

	switch msg.Code {
	case BeltCodeFeedback:
		return append(resp, 0), true
	case BeltCodeStatus:
		var report [BeltStatusSize]byte
		report[2] = BeltUnfastened
		if s.fastened {
			report[2] = BeltFastened
		}
		return append(resp, report[:]...), true
	}
	return resp, false
}

var _ acio.Handler = (*Seatbelt)(nil)
