package input

import "sync"

// State is the live input state written by a backend goroutine and
// captured by the board once per poll.
type State struct {
	cur   Snapshot
	mutex sync.Mutex
}

// NewState creates a State with every key released.
func NewState() *State {
	return &State{}
}

// Press marks k held.
func (s *State) Press(k Key) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cur.Press(k)
}

// Release marks k released.
func (s *State) Release(k Key) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cur.Release(k)
}

// Set presses or releases k.
func (s *State) Set(k Key, down bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cur.Set(k, down)
}

// SetAnalog binds k to an analog position in [0, 1].
func (s *State) SetAnalog(k Key, v float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cur.SetAnalog(k, v)
}

// ClearAnalog unbinds the analog source of k.
func (s *State) ClearAnalog(k Key) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cur.ClearAnalog(k)
}

// Held reports whether k is currently held.
func (s *State) Held(k Key) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cur.Held(k)
}

// Capture copies held keys and analog positions into dst and moves the
// presses queued since the previous capture onto dst's queue.
func (s *State) Capture(dst *Snapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	dst.held = s.cur.held
	dst.analog = s.cur.analog
	dst.analogOK = s.cur.analogOK
	for k, n := range s.cur.presses {
		if n > 0 {
			dst.queuePress(Key(k), int(n))
			s.cur.presses[k] = 0
		}
	}
}
