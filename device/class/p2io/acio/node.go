package acio

import (
	"sync"

	"github.com/ardnew/softp2io/pkg"
)

// MaxPending is the capacity of a device's pending response buffer.
const MaxPending = 512

// Device is a sub-device reachable through a P2IO serial port, either
// directly or as a node behind a [Bus].
type Device interface {
	// Open is called when the host opens the serial port.
	Open()

	// Close is called when the host closes the serial port.
	Close()

	// Write delivers an unescaped packet. The device parses it itself.
	Write(packet []byte)

	// Read moves up to len(p) bytes of pending response into p.
	// Returns 0 when nothing is pending.
	Read(p []byte) int
}

// Handler implements the command set of a single ACIO node.
//
// HandleMessage appends the response payload for msg to resp and reports
// whether it produced one. Returning false falls back to the shared node
// commands and finally to a single zero byte.
type Handler interface {
	HandleMessage(msg *Message, resp []byte) ([]byte, bool)
}

// Versioned is implemented by handlers that answer [CodeGetVersion].
type Versioned interface {
	Version() Version
}

// Lifecycle is implemented by handlers that track port open/close.
type Lifecycle interface {
	Open()
	Close()
}

// Outbox is a bounded byte buffer of pending responses.
type Outbox struct {
	buf []byte
}

// Push appends data, discarding the oldest bytes when the buffer would
// exceed [MaxPending].
func (o *Outbox) Push(data []byte) {
	o.buf = append(o.buf, data...)
	if over := len(o.buf) - MaxPending; over > 0 {
		pkg.LogWarn(pkg.ComponentACIO, "pending response overflow", "dropped", over)
		o.buf = append(o.buf[:0], o.buf[over:]...)
	}
}

// Read moves up to len(p) pending bytes into p.
func (o *Outbox) Read(p []byte) int {
	n := copy(p, o.buf)
	o.buf = append(o.buf[:0], o.buf[n:]...)
	return n
}

// Len returns the number of pending bytes.
func (o *Outbox) Len() int {
	return len(o.buf)
}

// Reset discards all pending bytes.
func (o *Outbox) Reset() {
	o.buf = o.buf[:0]
}

// Node adapts a [Handler] into a [Device] that speaks ACIO framing.
type Node struct {
	name    string
	handler Handler
	out     Outbox
	open    bool

	payload [0xFF]byte
	mutex   sync.Mutex
}

// NewNode creates a node named name (used in logs) backed by h.
func NewNode(name string, h Handler) *Node {
	return &Node{name: name, handler: h}
}

// Handler returns the node's command handler.
func (n *Node) Handler() Handler {
	return n.handler
}

// IsOpen reports whether the node has been opened.
func (n *Node) IsOpen() bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.open
}

// Open implements [Device].
func (n *Node) Open() {
	n.mutex.Lock()
	n.open = true
	n.mutex.Unlock()
	if lc, ok := n.handler.(Lifecycle); ok {
		lc.Open()
	}
}

// Close implements [Device].
func (n *Node) Close() {
	n.mutex.Lock()
	n.open = false
	n.out.Reset()
	n.mutex.Unlock()
	if lc, ok := n.handler.(Lifecycle); ok {
		lc.Close()
	}
}

// Write implements [Device]. Malformed packets are logged and dropped.
func (n *Node) Write(packet []byte) {
	var msg Message
	if err := ParseMessage(packet, &msg); err != nil {
		pkg.LogWarn(pkg.ComponentACIO, "dropping packet", "node", n.name, "error", err)
		return
	}
	pkg.LogDebug(pkg.ComponentACIO, "request", "node", n.name, "msg", msg.String())

	n.mutex.Lock()
	defer n.mutex.Unlock()

	resp, ok := n.handler.HandleMessage(&msg, n.payload[:0])
	if !ok {
		resp, ok = n.handleShared(&msg, n.payload[:0])
	}
	if !ok {
		resp = append(n.payload[:0], 0)
	}

	reply := Reply(&msg)
	reply.Payload = resp
	var frame [1 + 2*(HeaderSize+0xFF+1)]byte
	n.out.Push(AppendFrame(frame[:0], &reply))
}

// handleShared answers the commands common to every node.
func (n *Node) handleShared(msg *Message, resp []byte) ([]byte, bool) {
	switch msg.Code {
	case CodeGetVersion:
		v, ok := n.handler.(Versioned)
		if !ok {
			return resp, false
		}
		var block [VersionSize]byte
		ver := v.Version()
		ver.MarshalTo(block[:])
		return append(resp, block[:]...), true
	case CodeStartUp, CodeKeepalive:
		return append(resp, 0), true
	}
	return resp, false
}

// Read implements [Device].
func (n *Node) Read(p []byte) int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.out.Read(p)
}

var _ Device = (*Node)(nil)
