package acio

import (
	"fmt"

	"github.com/ardnew/softp2io/pkg"
)

// MaxNodes is the highest node address a bus accepts.
const MaxNodes = 8

// Bus multiplexes ACIO nodes behind a single P2IO serial port. Nodes are
// addressed by port number starting at 1.
type Bus struct {
	nodes [MaxNodes + 1]Device
	out   Outbox
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// AddDevice registers d at port, replacing any previous registration.
func (b *Bus) AddDevice(port int, d Device) error {
	if port < 1 || port > MaxNodes {
		return fmt.Errorf("acio port %d: %w", port, pkg.ErrInvalidParameter)
	}
	b.nodes[port] = d
	return nil
}

// Device returns the device registered at port, or nil.
func (b *Bus) Device(port int) Device {
	if port < 1 || port > MaxNodes {
		return nil
	}
	return b.nodes[port]
}

// NodeCount returns the number of registered nodes.
func (b *Bus) NodeCount() int {
	count := 0
	for _, d := range b.nodes[1:] {
		if d != nil {
			count++
		}
	}
	return count
}

// OpenPort forwards Open to the device at port.
func (b *Bus) OpenPort(port int) {
	if d := b.Device(port); d != nil {
		d.Open()
	}
}

// ClosePort forwards Close to the device at port.
func (b *Bus) ClosePort(port int) {
	if d := b.Device(port); d != nil {
		d.Close()
	}
}

// WritePort delivers an unescaped packet to the device at port.
func (b *Bus) WritePort(port int, packet []byte) {
	if d := b.Device(port); d != nil {
		d.Write(packet)
		return
	}
	pkg.LogDebug(pkg.ComponentACIO, "write to unaddressed port", "port", port)
}

// ReadPort moves pending response bytes from the device at port into p.
// Returns 0 for an unaddressed port.
func (b *Bus) ReadPort(port int, p []byte) int {
	if d := b.Device(port); d != nil {
		return d.Read(p)
	}
	return 0
}

// Open implements [Device] by opening every node.
func (b *Bus) Open() {
	for port := 1; port <= MaxNodes; port++ {
		b.OpenPort(port)
	}
}

// Close implements [Device] by closing every node.
func (b *Bus) Close() {
	b.out.Reset()
	for port := 1; port <= MaxNodes; port++ {
		b.ClosePort(port)
	}
}

// Write implements [Device]. The address byte selects the node; the
// broadcast address is answered by the bus itself.
func (b *Bus) Write(packet []byte) {
	body := trimSync(packet)
	if len(body) == 0 {
		return
	}
	addr := body[0]
	if addr != BroadcastAddr {
		b.WritePort(int(addr), body)
		return
	}

	var msg Message
	if err := ParseMessage(body, &msg); err != nil {
		pkg.LogWarn(pkg.ComponentACIO, "dropping broadcast", "error", err)
		return
	}
	if msg.Code != CodeAssignAddrs {
		pkg.LogDebug(pkg.ComponentACIO, "ignoring broadcast", "msg", msg.String())
		return
	}

	count := b.NodeCount()
	pkg.LogInfo(pkg.ComponentACIO, "enumerated bus", "nodes", count)
	reply := Reply(&msg)
	reply.Payload = []byte{byte(count)}
	var frame [1 + 2*(HeaderSize+2)]byte
	b.out.Push(AppendFrame(frame[:0], &reply))
}

// Read implements [Device]. Bus responses drain first, then each node in
// address order.
func (b *Bus) Read(p []byte) int {
	n := b.out.Read(p)
	for port := 1; port <= MaxNodes && n < len(p); port++ {
		n += b.ReadPort(port, p[n:])
	}
	return n
}

var _ Device = (*Bus)(nil)
