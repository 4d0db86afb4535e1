package device

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardnew/softp2io/pkg"
)

type recordFunction struct {
	in         []byte
	out        []byte
	lastEP     uint8
	configured bool
}

func (f *recordFunction) HandleIn(ep uint8, p []byte) (int, error) {
	f.lastEP = ep
	if len(f.in) == 0 {
		return 0, pkg.ErrNAK
	}
	return copy(p, f.in), nil
}

func (f *recordFunction) HandleOut(ep uint8, data []byte) error {
	f.lastEP = ep
	f.out = append(f.out, data...)
	return nil
}

func (f *recordFunction) SetConfigured(configured bool) {
	f.configured = configured
}

func testConfig() Configuration {
	return Configuration{
		Descriptor: ConfigurationDescriptor{
			NumInterfaces:      1,
			ConfigurationValue: 1,
			Attributes:         ConfigAttrBusPowered,
			MaxPower:           50,
		},
		Interface: InterfaceDescriptor{InterfaceClass: ClassVendor},
		Endpoints: []EndpointDescriptor{
			{EndpointAddress: 0x81, Attributes: EndpointTypeBulk, MaxPacketSize: 4},
			{EndpointAddress: 0x02, Attributes: EndpointTypeBulk, MaxPacketSize: 64},
		},
	}
}

func newTestDevice() (*Device, *recordFunction) {
	fn := &recordFunction{}
	desc := DeviceDescriptor{USBVersion: 0x0110, MaxPacketSize0: 8, VendorID: 0x1234, ProductID: 0x5678, NumConfigurations: 1}
	return New(desc, testConfig(), fn), fn
}

func configure(t *testing.T, d *Device) {
	t.Helper()
	if _, err := d.HandleSetup(&SetupPacket{Request: RequestSetAddress, Value: 3}); err != nil {
		t.Fatalf("SET_ADDRESS error = %v", err)
	}
	if _, err := d.HandleSetup(&SetupPacket{Request: RequestSetConfiguration, Value: 1}); err != nil {
		t.Fatalf("SET_CONFIGURATION error = %v", err)
	}
}

func TestDeviceDescriptorRoundTrip(t *testing.T) {
	in := DeviceDescriptor{USBVersion: 0x0101, MaxPacketSize0: 8, ProductID: 0x7305, DeviceVersion: 0x0020, NumConfigurations: 1}
	var buf [DeviceDescriptorSize]byte
	if n := in.MarshalTo(buf[:]); n != DeviceDescriptorSize {
		t.Fatalf("MarshalTo() = %d, want %d", n, DeviceDescriptorSize)
	}
	var out DeviceDescriptor
	if err := ParseDeviceDescriptor(buf[:], &out); err != nil {
		t.Fatalf("ParseDeviceDescriptor() error = %v", err)
	}
	if out != in {
		t.Errorf("ParseDeviceDescriptor() = %+v, want %+v", out, in)
	}
	if n := in.MarshalTo(buf[:5]); n != 0 {
		t.Errorf("MarshalTo(short) = %d, want 0", n)
	}
	if err := ParseDeviceDescriptor(buf[:5], &out); !errors.Is(err, pkg.ErrDescriptorTooShort) {
		t.Errorf("ParseDeviceDescriptor(short) error = %v, want ErrDescriptorTooShort", err)
	}
}

func TestConfigurationMarshal(t *testing.T) {
	cfg := testConfig()
	var buf [64]byte
	n := cfg.MarshalTo(buf[:])
	if want := 9 + 9 + 2*7; n != want {
		t.Fatalf("MarshalTo() = %d, want %d", n, want)
	}
	if buf[2] != byte(n) || buf[3] != 0 {
		t.Errorf("wTotalLength = %d, want %d", int(buf[2])|int(buf[3])<<8, n)
	}
	if buf[9+4] != 2 {
		t.Errorf("bNumEndpoints = %d, want 2", buf[9+4])
	}
	var ep EndpointDescriptor
	if err := ParseEndpointDescriptor(buf[18:], &ep); err != nil {
		t.Fatalf("ParseEndpointDescriptor() error = %v", err)
	}
	if ep.EndpointAddress != 0x81 || ep.MaxPacketSize != 4 {
		t.Errorf("endpoint = %+v, want address 0x81 max 4", ep)
	}
	if n := cfg.MarshalTo(buf[:10]); n != 0 {
		t.Errorf("MarshalTo(short) = %d, want 0", n)
	}
}

func TestSetupPacketRoundTrip(t *testing.T) {
	in := SetupPacket{RequestType: 0x80, Request: RequestGetDescriptor, Value: 0x0100, Length: 18}
	var buf [SetupPacketSize]byte
	in.MarshalTo(buf[:])
	var out SetupPacket
	if err := ParseSetupPacket(buf[:], &out); err != nil {
		t.Fatalf("ParseSetupPacket() error = %v", err)
	}
	if out != in {
		t.Errorf("ParseSetupPacket() = %+v, want %+v", out, in)
	}
	if out.DescriptorType() != DescriptorTypeDevice || out.DescriptorIndex() != 0 {
		t.Errorf("descriptor = %d/%d, want device/0", out.DescriptorType(), out.DescriptorIndex())
	}
	if err := ParseSetupPacket(buf[:4], &out); !errors.Is(err, pkg.ErrSetupPacketTooShort) {
		t.Errorf("ParseSetupPacket(short) error = %v", err)
	}
}

func TestDeviceGetDescriptor(t *testing.T) {
	d, _ := newTestDevice()
	tests := []struct {
		name    string
		value   uint16
		length  uint16
		wantLen int
		wantErr error
	}{
		{"device", 0x0100, 64, DeviceDescriptorSize, nil},
		{"device truncated", 0x0100, 8, 8, nil},
		{"configuration", 0x0200, 255, 32, nil},
		{"configuration header", 0x0200, 9, 9, nil},
		{"bad index", 0x0201, 255, 0, pkg.ErrStall},
		{"string", 0x0300, 255, 0, pkg.ErrStall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := d.HandleSetup(&SetupPacket{
				RequestType: RequestDirectionDeviceToHost,
				Request:     RequestGetDescriptor,
				Value:       tt.value,
				Length:      tt.length,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HandleSetup() error = %v, want %v", err, tt.wantErr)
			}
			if len(resp) != tt.wantLen {
				t.Errorf("len(resp) = %d, want %d", len(resp), tt.wantLen)
			}
		})
	}
}

func TestDeviceStates(t *testing.T) {
	d, fn := newTestDevice()
	var transitions []State
	d.SetOnStateChange(func(_, next State) { transitions = append(transitions, next) })

	if _, err := d.In(0x81, make([]byte, 8)); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Errorf("In() before configuration error = %v, want ErrNotConfigured", err)
	}

	configure(t, d)
	if d.Address() != 3 || !d.IsConfigured() || !fn.configured {
		t.Fatalf("after configure: address=%d configured=%v fn=%v", d.Address(), d.IsConfigured(), fn.configured)
	}
	if _, err := d.HandleSetup(&SetupPacket{Request: RequestSetConfiguration, Value: 7}); !errors.Is(err, pkg.ErrStall) {
		t.Errorf("SET_CONFIGURATION(7) error = %v, want ErrStall", err)
	}

	resp, _ := d.HandleSetup(&SetupPacket{RequestType: 0x80, Request: RequestGetConfiguration, Length: 1})
	if !bytes.Equal(resp, []byte{1}) {
		t.Errorf("GET_CONFIGURATION = % X, want 01", resp)
	}

	d.Reset()
	if d.State() != StateDefault || fn.configured {
		t.Errorf("after Reset: state=%v fn.configured=%v", d.State(), fn.configured)
	}
	want := []State{StateAddress, StateConfigured, StateDefault}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestDeviceDataTokens(t *testing.T) {
	d, fn := newTestDevice()
	configure(t, d)

	if _, err := d.In(0x81, make([]byte, 8)); !errors.Is(err, pkg.ErrNAK) {
		t.Errorf("In() with nothing queued error = %v, want ErrNAK", err)
	}

	fn.in = []byte{1, 2, 3, 4, 5, 6}
	buf := make([]byte, 64)
	n, err := d.In(0x01, buf)
	if err != nil || n != 4 {
		t.Errorf("In() = %d, %v, want 4 (max packet), nil", n, err)
	}
	if fn.lastEP != 0x81 {
		t.Errorf("HandleIn ep = 0x%02X, want 0x81", fn.lastEP)
	}

	if err := d.Out(0x02, []byte{0xAA, 0x01}); err != nil {
		t.Fatalf("Out() error = %v", err)
	}
	if !bytes.Equal(fn.out, []byte{0xAA, 0x01}) {
		t.Errorf("HandleOut data = % X, want AA 01", fn.out)
	}
	if _, err := d.In(0x85, buf); !errors.Is(err, pkg.ErrInvalidEndpoint) {
		t.Errorf("In(0x85) error = %v, want ErrInvalidEndpoint", err)
	}
}

func TestDeviceEndpointHalt(t *testing.T) {
	d, fn := newTestDevice()
	configure(t, d)
	fn.in = []byte{1}

	halt := SetupPacket{RequestType: RequestRecipientEndpoint, Request: RequestSetFeature, Value: FeatureEndpointHalt, Index: 0x81}
	if _, err := d.HandleSetup(&halt); err != nil {
		t.Fatalf("SET_FEATURE(halt) error = %v", err)
	}
	if _, err := d.In(0x81, make([]byte, 8)); !errors.Is(err, pkg.ErrStall) {
		t.Errorf("In() on halted endpoint error = %v, want ErrStall", err)
	}

	status, _ := d.HandleSetup(&SetupPacket{RequestType: 0x80 | RequestRecipientEndpoint, Request: RequestGetStatus, Index: 0x81, Length: 2})
	if !bytes.Equal(status, []byte{1, 0}) {
		t.Errorf("GET_STATUS(endpoint) = % X, want 01 00", status)
	}

	halt.Request = RequestClearFeature
	if _, err := d.HandleSetup(&halt); err != nil {
		t.Fatalf("CLEAR_FEATURE(halt) error = %v", err)
	}
	if _, err := d.In(0x81, make([]byte, 8)); err != nil {
		t.Errorf("In() after clear error = %v", err)
	}
}

func TestQueue(t *testing.T) {
	q := NewQueue(4)
	if n, err := q.Write([]byte{1, 2, 3}); n != 3 || err != nil {
		t.Fatalf("Write() = %d, %v, want 3, nil", n, err)
	}
	if n, err := q.Write([]byte{4, 5}); n != 1 || !errors.Is(err, pkg.ErrNoResources) {
		t.Errorf("Write(full) = %d, %v, want 1, ErrNoResources", n, err)
	}
	if got := q.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	buf := make([]byte, 2)
	if n := q.Read(buf); n != 2 || !bytes.Equal(buf, []byte{1, 2}) {
		t.Errorf("Read() = %d % X, want 2 01 02", n, buf)
	}
	if got := q.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	q.Reset()
	if n := q.Read(buf); n != 0 {
		t.Errorf("Read() after Reset = %d, want 0", n)
	}
}

func TestLatest(t *testing.T) {
	var l Latest
	buf := make([]byte, 4)
	if _, ok := l.Load(buf); ok {
		t.Fatal("Load() ok = true before Store")
	}
	l.Store([]byte{1, 2})
	l.Store([]byte{3, 4, 5})
	n, ok := l.Load(buf)
	if !ok || !bytes.Equal(buf[:n], []byte{3, 4, 5}) {
		t.Errorf("Load() = % X, %v, want 03 04 05, true", buf[:n], ok)
	}
}
