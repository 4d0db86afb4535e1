package input

// MaxPendingPresses bounds the number of queued one-shot presses per key.
const MaxPendingPresses = 16

// Source reports logical input state.
type Source interface {
	// Held reports whether k is currently held.
	Held(k Key) bool

	// OneShot reports a single queued press of k and consumes it.
	// Each physical press is reported once.
	OneShot(k Key) bool

	// Analog returns the position of an analog axis in [0, 1] and whether
	// a source is bound to it.
	Analog(k Key) (float64, bool)
}

// Snapshot is the input state handed to the board on each poll. Presses
// not consumed through [Snapshot.OneShot] stay queued for later polls.
// The zero value has every key released and no analog sources.
type Snapshot struct {
	held     [KeyCount]bool
	presses  [KeyCount]uint8
	analog   [KeyCount]float64
	analogOK [KeyCount]bool
}

func (s *Snapshot) valid(k Key) bool {
	return k < KeyCount
}

// Press marks k held. A transition from released queues one press.
func (s *Snapshot) Press(k Key) {
	if !s.valid(k) {
		return
	}
	if !s.held[k] {
		s.queuePress(k, 1)
	}
	s.held[k] = true
}

// Release marks k released.
func (s *Snapshot) Release(k Key) {
	if s.valid(k) {
		s.held[k] = false
	}
}

// Set presses or releases k.
func (s *Snapshot) Set(k Key, down bool) {
	if down {
		s.Press(k)
	} else {
		s.Release(k)
	}
}

// SetAnalog binds k to an analog position, clamped to [0, 1].
func (s *Snapshot) SetAnalog(k Key, v float64) {
	if !s.valid(k) {
		return
	}
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	s.analog[k] = v
	s.analogOK[k] = true
}

// ClearAnalog unbinds the analog source of k.
func (s *Snapshot) ClearAnalog(k Key) {
	if s.valid(k) {
		s.analog[k] = 0
		s.analogOK[k] = false
	}
}

// Held implements [Source].
func (s *Snapshot) Held(k Key) bool {
	return s.valid(k) && s.held[k]
}

// OneShot implements [Source].
func (s *Snapshot) OneShot(k Key) bool {
	if !s.valid(k) || s.presses[k] == 0 {
		return false
	}
	s.presses[k]--
	return true
}

// Pending returns the number of queued presses of k.
func (s *Snapshot) Pending(k Key) int {
	if !s.valid(k) {
		return 0
	}
	return int(s.presses[k])
}

// Analog implements [Source].
func (s *Snapshot) Analog(k Key) (float64, bool) {
	if !s.valid(k) {
		return 0, false
	}
	return s.analog[k], s.analogOK[k]
}

func (s *Snapshot) queuePress(k Key, n int) {
	total := int(s.presses[k]) + n
	if total > MaxPendingPresses {
		total = MaxPendingPresses
	}
	s.presses[k] = uint8(total)
}

var _ Source = (*Snapshot)(nil)
