package peripheral

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/ardnew/softp2io/device"
	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/pkg"
)

// DefaultSerialBaud is the ACIO bus rate of the cabinet peripherals.
const DefaultSerialBaud = 57600

// serialReadTimeout bounds each read so the reader notices cancellation.
const serialReadTimeout = 50 * time.Millisecond

// SerialNode forwards packets to a physical peripheral on a serial port.
// A reader goroutine moves the peripheral's replies into a bounded FIFO
// that [SerialNode.Read] drains from the polling path.
type SerialNode struct {
	name string
	port io.ReadWriteCloser
	rx   *device.Queue
	done chan struct{}
}

// NewSerialNode wraps an open port. Call [SerialNode.Run] to start
// receiving.
func NewSerialNode(name string, port io.ReadWriteCloser) *SerialNode {
	return &SerialNode{
		name: name,
		port: port,
		rx:   device.NewQueue(acio.MaxPending),
		done: make(chan struct{}),
	}
}

// OpenSerialNode opens the serial port at path in 8N1 mode and starts its
// reader goroutine, which stops when ctx is cancelled.
func OpenSerialNode(ctx context.Context, path string, baud int) (*SerialNode, error) {
	if baud <= 0 {
		baud = DefaultSerialBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("read timeout %s: %w", path, err)
	}
	n := NewSerialNode(path, port)
	go func() {
		if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			pkg.LogError(pkg.ComponentPeripheral, "serial node stopped", "port", path, "error", err)
		}
	}()
	return n, nil
}

// Run copies bytes from the port into the receive FIFO until ctx is
// cancelled or the port fails.
func (n *SerialNode) Run(ctx context.Context) error {
	defer close(n.done)
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c, err := n.port.Read(buf)
		if c > 0 {
			if _, werr := n.rx.Write(buf[:c]); werr != nil {
				pkg.LogWarn(pkg.ComponentPeripheral, "serial node overflow", "port", n.name, "error", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read %s: %w", n.name, err)
		}
	}
}

// Done is closed when Run returns.
func (n *SerialNode) Done() <-chan struct{} {
	return n.done
}

// Open implements [acio.Device].
func (n *SerialNode) Open() {
	pkg.LogDebug(pkg.ComponentPeripheral, "serial node open", "port", n.name)
}

// Close implements [acio.Device]. Pending replies are discarded; the port
// stays open until [SerialNode.Shutdown].
func (n *SerialNode) Close() {
	n.rx.Reset()
}

// Write implements [acio.Device] by re-framing the packet for the wire.
func (n *SerialNode) Write(packet []byte) {
	body := packet
	for len(body) > 0 && body[0] == acio.Sync {
		body = body[1:]
	}
	frame := acio.Escape([]byte{acio.Sync}, body)
	if _, err := n.port.Write(frame); err != nil {
		pkg.LogWarn(pkg.ComponentPeripheral, "serial node write", "port", n.name, "error", err)
	}
}

// Read implements [acio.Device].
func (n *SerialNode) Read(p []byte) int {
	return n.rx.Read(p)
}

// Shutdown closes the port, which also ends Run.
func (n *SerialNode) Shutdown() error {
	return n.port.Close()
}

// SerialPortInfo describes a serial port found on the host.
type SerialPortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// SerialPorts lists the serial ports present on the host.
func SerialPorts() ([]SerialPortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	infos := make([]SerialPortInfo, 0, len(ports))
	for _, p := range ports {
		infos = append(infos, SerialPortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return infos, nil
}

var _ acio.Device = (*SerialNode)(nil)
