package p2io

import (
	"fmt"
	"sync"

	"github.com/ardnew/softp2io/device"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// Passthrough forwards board traffic to a physical P2IO.
type Passthrough interface {
	// ReadIO copies the latest JAMMA report of the physical board into p.
	ReadIO(p []byte) (int, error)

	// ReadPacket reads pending command response bytes into p.
	ReadPacket(p []byte) (int, error)

	// WritePacket sends raw command bytes to the physical board.
	WritePacket(data []byte) error
}

// defaultIOState is reported in passthrough mode until the physical board
// produces its first JAMMA report.
var defaultIOState = [JammaReportSize]byte{0x80, 0xFF, 0xFF, 0xF0}

// DeviceDescriptor returns the P2IO device descriptor.
func DeviceDescriptor() device.DeviceDescriptor {
	return device.DeviceDescriptor{
		USBVersion:        0x0101,
		DeviceClass:       device.ClassPerInterface,
		MaxPacketSize0:    8,
		VendorID:          VendorID,
		ProductID:         ProductID,
		DeviceVersion:     DeviceVersion,
		NumConfigurations: 1,
	}
}

// Configuration returns the P2IO configuration: one vendor interface with
// the JAMMA interrupt endpoint and the command bulk pipe.
func Configuration() device.Configuration {
	return device.Configuration{
		Descriptor: device.ConfigurationDescriptor{
			NumInterfaces:      1,
			ConfigurationValue: 1,
			Attributes:         device.ConfigAttrBusPowered,
			MaxPower:           50, // 100 mA
		},
		Interface: device.InterfaceDescriptor{
			InterfaceClass: device.ClassVendor,
		},
		Endpoints: []device.EndpointDescriptor{
			{EndpointAddress: EndpointJamma, Attributes: device.EndpointTypeInterrupt, MaxPacketSize: 16, Interval: 3},
			{EndpointAddress: EndpointCommandIn, Attributes: device.EndpointTypeBulk, MaxPacketSize: 64, Interval: 10},
			{EndpointAddress: EndpointCommandOut, Attributes: device.EndpointTypeBulk, MaxPacketSize: 64, Interval: 10},
		},
	}
}

// Driver is the USB function of a P2IO board. It routes the command pipe
// to the board's dispatcher and samples input for the JAMMA endpoint.
type Driver struct {
	board *Board
	state *input.State
	snap  input.Snapshot
	pass  Passthrough

	// tx holds the unsent part of the last command response.
	tx []byte

	configured bool
	mutex      sync.Mutex
}

// NewDriver creates a driver reading input from state and opens its board
// with cfg.
func NewDriver(state *input.State, cfg Config) (*Driver, error) {
	if state == nil {
		return nil, fmt.Errorf("new driver: %w", pkg.ErrNoInput)
	}
	d := &Driver{state: state}
	d.board = NewBoard(&d.snap)
	if err := d.board.Open(cfg); err != nil {
		return nil, fmt.Errorf("new driver: %w", err)
	}
	return d, nil
}

// NewDevice creates a USB device presenting the driver.
func (d *Driver) NewDevice() *device.Device {
	return device.New(DeviceDescriptor(), Configuration(), d)
}

// SetPassthrough forwards all endpoint traffic to p instead of the
// emulated board. A nil p returns to emulation.
func (d *Driver) SetPassthrough(p Passthrough) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pass = p
	d.tx = d.tx[:0]
}

// WithBoard calls fn with the board while holding the driver lock.
func (d *Driver) WithBoard(fn func(b *Board)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	fn(d.board)
}

// Reconfigure reopens the board with cfg.
func (d *Driver) Reconfigure(cfg Config) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.tx = d.tx[:0]
	return d.board.Open(cfg)
}

// SaveState writes a board snapshot into dst. See [Board.SaveState].
func (d *Driver) SaveState(dst []byte) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.board.SaveState(dst)
}

// LoadState restores a board snapshot. See [Board.LoadState].
func (d *Driver) LoadState(src []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.tx = d.tx[:0]
	return d.board.LoadState(src)
}

// Close closes the board's sub-devices.
func (d *Driver) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.board.Close()
	return nil
}

// IsConfigured reports whether the host has configured the device.
func (d *Driver) IsConfigured() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.configured
}

// SetConfigured implements [device.Configurable].
func (d *Driver) SetConfigured(configured bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.configured = configured
	if !configured {
		d.tx = d.tx[:0]
	}
	pkg.LogDebug(pkg.ComponentBoard, "configured", "configured", configured)
}

// HandleIn implements [device.Function].
func (d *Driver) HandleIn(ep uint8, p []byte) (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	switch ep {
	case EndpointJamma:
		return d.readJamma(p), nil
	case EndpointCommandIn:
		return d.readCommand(p), nil
	}
	return 0, fmt.Errorf("in endpoint 0x%02x: %w", ep, pkg.ErrInvalidEndpoint)
}

// HandleOut implements [device.Function].
func (d *Driver) HandleOut(ep uint8, data []byte) error {
	if ep != EndpointCommandOut {
		return fmt.Errorf("out endpoint 0x%02x: %w", ep, pkg.ErrInvalidEndpoint)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.pass != nil {
		if err := d.pass.WritePacket(data); err != nil {
			return fmt.Errorf("passthrough write: %w", err)
		}
		return nil
	}
	d.board.Write(data)
	return nil
}

func (d *Driver) readJamma(p []byte) int {
	if d.pass != nil {
		var report [JammaReportSize]byte
		n, err := d.pass.ReadIO(report[:])
		if err != nil || n == 0 {
			if err != nil {
				pkg.LogDebug(pkg.ComponentPassthrough, "io report unavailable", "error", err)
			}
			report, n = defaultIOState, JammaReportSize
		}
		return copy(p, report[:n])
	}

	d.state.Capture(&d.snap)
	report := d.board.SampleJamma(&d.snap)
	return copy(p, report[:])
}

// readCommand returns the next bytes of the pending response, processing
// one buffered request when nothing is pending. An idle pipe answers a
// single zero byte.
func (d *Driver) readCommand(p []byte) int {
	if len(p) == 0 {
		return 0
	}

	if d.pass != nil {
		n, err := d.pass.ReadPacket(p)
		if err != nil {
			pkg.LogWarn(pkg.ComponentPassthrough, "read packet", "error", err)
		}
		if n > 0 {
			return n
		}
		p[0] = 0
		return 1
	}

	if len(d.tx) == 0 {
		d.state.Capture(&d.snap)
		d.tx, _ = d.board.ProcessCommand(d.tx[:0])
	}
	if len(d.tx) == 0 {
		p[0] = 0
		return 1
	}
	n := copy(p, d.tx)
	d.tx = append(d.tx[:0], d.tx[n:]...)
	return n
}

var (
	_ device.Function     = (*Driver)(nil)
	_ device.Configurable = (*Driver)(nil)
)
