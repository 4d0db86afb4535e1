package passthrough

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/ardnew/softp2io/device"
	"github.com/ardnew/softp2io/device/class/p2io"
	"github.com/ardnew/softp2io/pkg"
)

// USB interface and endpoint numbers of the physical board.
const (
	Interface        = 0
	EndpointJamma    = 3
	EndpointBulkIn   = 1
	EndpointBulkOut  = 2
	jammaPacketSize  = 16
	bulkPacketSize   = 64
	responseCapacity = p2io.MaxReceiveBuffer
	retryDelay       = 10 * time.Millisecond
)

// inEndpoint is the read side of a USB endpoint.
type inEndpoint interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// outEndpoint is the write side of a USB endpoint.
type outEndpoint interface {
	Write(p []byte) (int, error)
}

// Board forwards traffic to a physical P2IO attached over USB. Background
// readers keep the latest JAMMA report and queue command responses so
// the emulated endpoints never block on the physical device.
type Board struct {
	jamma   inEndpoint
	bulkIn  inEndpoint
	bulkOut outEndpoint

	io    device.Latest
	resp  *device.Queue
	close func() error

	cancel context.CancelFunc
	wg     sync.WaitGroup
	err    error
	closed bool
	mutex  sync.Mutex
}

var _ p2io.Passthrough = (*Board)(nil)

// Open finds the first P2IO on the host, claims its interface and starts
// the background readers. The readers stop when ctx is cancelled or the
// board is closed.
func Open(ctx context.Context) (*Board, error) {
	usb := gousb.NewContext()

	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == p2io.VendorID && uint16(desc.Product) == p2io.ProductID
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		usb.Close()
		return nil, fmt.Errorf("enumerate usb devices: %w", err)
	}
	if len(devs) == 0 {
		usb.Close()
		return nil, fmt.Errorf("p2io %04x:%04x: %w", p2io.VendorID, p2io.ProductID, pkg.ErrNoDevice)
	}
	dev := devs[0]
	for _, d := range devs[1:] {
		d.Close()
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		usb.Close()
		return nil, fmt.Errorf("get config 1: %w", err)
	}
	intf, err := cfg.Interface(Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		usb.Close()
		return nil, fmt.Errorf("claim interface %d: %w", Interface, err)
	}
	release := func() error {
		intf.Close()
		cfg.Close()
		dev.Close()
		return usb.Close()
	}

	jamma, err := intf.InEndpoint(EndpointJamma)
	if err != nil {
		release()
		return nil, fmt.Errorf("open jamma endpoint: %w", err)
	}
	bulkIn, err := intf.InEndpoint(EndpointBulkIn)
	if err != nil {
		release()
		return nil, fmt.Errorf("open bulk in endpoint: %w", err)
	}
	bulkOut, err := intf.OutEndpoint(EndpointBulkOut)
	if err != nil {
		release()
		return nil, fmt.Errorf("open bulk out endpoint: %w", err)
	}

	pkg.LogInfo(pkg.ComponentPassthrough, "opened physical board",
		"vid", fmt.Sprintf("%04x", p2io.VendorID), "pid", fmt.Sprintf("%04x", p2io.ProductID))
	return start(ctx, jamma, bulkIn, bulkOut, release), nil
}

func start(ctx context.Context, jamma, bulkIn inEndpoint, bulkOut outEndpoint, release func() error) *Board {
	ctx, cancel := context.WithCancel(ctx)
	b := &Board{
		jamma:   jamma,
		bulkIn:  bulkIn,
		bulkOut: bulkOut,
		resp:    device.NewQueue(responseCapacity),
		close:   release,
		cancel:  cancel,
	}
	b.wg.Add(2)
	go b.pollJamma(ctx)
	go b.pollResponses(ctx)
	return b
}

// pollJamma keeps the most recent JAMMA report.
func (b *Board) pollJamma(ctx context.Context) {
	defer b.wg.Done()
	buf := make([]byte, jammaPacketSize)
	for ctx.Err() == nil {
		n, err := b.jamma.ReadContext(ctx, buf)
		if err != nil {
			if b.fail(ctx, "jamma read", err) {
				return
			}
			continue
		}
		if n > 0 {
			b.io.Store(buf[:n])
		}
	}
}

// pollResponses queues command response bytes.
func (b *Board) pollResponses(ctx context.Context) {
	defer b.wg.Done()
	buf := make([]byte, bulkPacketSize)
	for ctx.Err() == nil {
		n, err := b.bulkIn.ReadContext(ctx, buf)
		if err != nil {
			if b.fail(ctx, "bulk read", err) {
				return
			}
			continue
		}
		if n == 0 {
			continue
		}
		if _, err := b.resp.Write(buf[:n]); err != nil {
			pkg.LogWarn(pkg.ComponentPassthrough, "response queue full", "dropped", b.resp.Dropped())
		}
	}
}

// fail records a read error and reports whether the reader should stop.
// Timeouts are retried after a short delay.
func (b *Board) fail(ctx context.Context, op string, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, gousb.ErrorTimeout) || errors.Is(err, gousb.TransferTimedOut) {
		select {
		case <-ctx.Done():
			return true
		case <-time.After(retryDelay):
			return false
		}
	}
	pkg.LogError(pkg.ComponentPassthrough, op, "error", err)
	b.mutex.Lock()
	if b.err == nil {
		b.err = fmt.Errorf("%s: %w", op, err)
	}
	b.mutex.Unlock()
	return true
}

// Err returns the first fatal reader error, or [pkg.ErrClosed] once the
// board is closed.
func (b *Board) Err() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	return b.err
}

// ReadIO copies the latest JAMMA report into p. Returns 0 until the
// physical board has produced a report.
func (b *Board) ReadIO(p []byte) (int, error) {
	if err := b.Err(); err != nil {
		return 0, err
	}
	n, _ := b.io.Load(p)
	return n, nil
}

// ReadPacket moves queued response bytes into p without blocking.
func (b *Board) ReadPacket(p []byte) (int, error) {
	n := b.resp.Read(p)
	if n == 0 {
		return 0, b.Err()
	}
	return n, nil
}

// WritePacket sends raw command bytes to the physical board.
func (b *Board) WritePacket(data []byte) error {
	if err := b.Err(); errors.Is(err, pkg.ErrClosed) {
		return err
	}
	n, err := b.bulkOut.Write(data)
	if err != nil {
		return fmt.Errorf("bulk write: %w", err)
	}
	if n < len(data) {
		return fmt.Errorf("bulk write %d of %d bytes: %w", n, len(data), pkg.ErrShortPacket)
	}
	pkg.LogDebug(pkg.ComponentPassthrough, "forwarded", "data", pkg.Hex(data))
	return nil
}

// Close stops the readers and releases the USB device.
func (b *Board) Close() error {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return nil
	}
	b.closed = true
	b.mutex.Unlock()

	b.cancel()
	b.wg.Wait()
	if b.close != nil {
		return b.close()
	}
	return nil
}
