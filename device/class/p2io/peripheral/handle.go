package peripheral

import (
	"sync"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
)

// HandleCodeFeedback carries force feedback for the steering motor.
const HandleCodeFeedback = 0x0102

// Handle emulates the Thrill Drive steering handle node. Wheel and pedal
// positions travel in the JAMMA report; the node only receives motor
// feedback.
type Handle struct {
	feedback   []byte
	onFeedback func(data []byte)
	mutex      sync.Mutex
}

// NewHandle creates a handle node.
func NewHandle() *Handle {
	return &Handle{}
}

// SetOnFeedback sets the callback invoked with each feedback payload.
func (h *Handle) SetOnFeedback(fn func(data []byte)) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.onFeedback = fn
}

// Feedback returns a copy of the last feedback payload.
func (h *Handle) Feedback() []byte {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]byte(nil), h.feedback...)
}

// HandleMessage implements [acio.Handler].
func (h *Handle) HandleMessage(msg *acio.Message, resp []byte) ([]byte, bool) {
	if msg.Code != HandleCodeFeedback {
		return resp, false
	}

	h.mutex.Lock()
	h.feedback = append(h.feedback[:0], msg.Payload...)
	fn := h.onFeedback
	h.mutex.Unlock()

	if fn != nil {
		fn(msg.Payload)
	}
	return append(resp, 0), true
}

var _ acio.Handler = (*Handle)(nil)
