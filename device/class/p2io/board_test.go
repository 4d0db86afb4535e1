package p2io

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/device/class/p2io/peripheral"
	"github.com/ardnew/softp2io/input"
)

// requestFrame builds the wire form of a request.
func requestFrame(seq, cmd byte, params ...byte) []byte {
	body := append([]byte{byte(2 + len(params)), seq, cmd}, params...)
	return acio.Escape([]byte{acio.Sync}, body)
}

// decodeResponse checks the framing of a response and returns its
// sequence number and payload.
func decodeResponse(t *testing.T, wire []byte) (byte, []byte) {
	t.Helper()
	if len(wire) == 0 || wire[0] != acio.Sync {
		t.Fatalf("response % x does not start with sync", wire)
	}
	if bytes.IndexByte(wire[1:], acio.Sync) >= 0 {
		t.Fatalf("response % x contains an unescaped sync byte", wire)
	}
	raw := acio.Unescape(nil, wire[1:])
	if len(raw) < 3 {
		t.Fatalf("response % x too short", raw)
	}
	if int(raw[0]) != len(raw)-1 {
		t.Errorf("response length byte = %d, want %d", raw[0], len(raw)-1)
	}
	if raw[2] != StatusOK {
		t.Errorf("response status = 0x%02X, want 0x%02X", raw[2], StatusOK)
	}
	return raw[1], raw[3:]
}

func newTestBoard(t *testing.T, cfg Config) (*Board, *input.Snapshot) {
	t.Helper()
	snap := &input.Snapshot{}
	b := NewBoard(snap)
	if err := b.Open(cfg); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b, snap
}

// exchange sends one request and returns the response payload.
func exchange(t *testing.T, b *Board, seq, cmd byte, params ...byte) []byte {
	t.Helper()
	b.Write(requestFrame(seq, cmd, params...))
	out, ok := b.ProcessCommand(nil)
	if !ok {
		t.Fatalf("ProcessCommand(0x%02X) handled nothing", cmd)
	}
	gotSeq, payload := decodeResponse(t, out)
	if gotSeq != seq {
		t.Errorf("response seq = 0x%02X, want 0x%02X", gotSeq, seq)
	}
	if n := b.Buffered(); n != 0 {
		t.Errorf("Buffered() after 0x%02X = %d, want 0", cmd, n)
	}
	return payload
}

func TestCommandResponses(t *testing.T) {
	tests := []struct {
		name   string
		cmd    byte
		params []byte
		want   []byte
	}{
		{"get version", CmdGetVersion, nil, []byte{'D', '4', '4', 0, 1, 6, 4}},
		{"set av mask", CmdSetAVMask, []byte{0x01}, []byte{0}},
		{"av report 15khz", CmdGetAVReport, nil, []byte{AVMode15kHz}},
		{"jamma por", CmdGetJammaPOR, nil, []byte{0, 0, 0, 0}},
		{"coin stock", CmdCoinStock, nil, []byte{0, 0, 0, 0, 0}},
		{"coin counter", CmdCoinCounter, []byte{0x01, 0x00}, []byte{0}},
		{"coin counter merge", CmdCoinCounter, []byte{0x10, 0x11}, []byte{0}},
		{"coin counter out", CmdCoinCounterOut, []byte{0x01}, []byte{0}},
		{"watchdog", CmdSetWatchdog, []byte{0x01}, []byte{0}},
		{"send ir", CmdSendIR, []byte{0x00}, []byte{0}},
		{"port read", CmdPortRead, []byte{0x00}, []byte{0}},
		{"port read por", CmdPortReadPOR, []byte{0x00}, []byte{0}},
		{"jamma start", CmdJammaStart, nil, []byte{0}},
		{"fwritemode", CmdFWriteMode, []byte{0xAA}, []byte{0}},
		{"fwritemode other", CmdFWriteMode, []byte{0x20}, []byte{}},
		{"dip switch", CmdReadDipSwitch, nil, []byte{0}},
		{"unknown", 0x7E, []byte{1, 2, 3}, []byte{}},
		{"dallas unknown sub", CmdDallas, []byte{0x09}, []byte{}},
	}
	b, _ := newTestBoard(t, DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exchange(t, b, 0x10, tt.cmd, tt.params...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("payload = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestSequenceEcho(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	for cmd := range commands {
		for _, seq := range []byte{0x00, 0x55, acio.Sync, acio.EscapeByte} {
			exchange(t, b, seq, cmd, 0x00, 0x00)
		}
	}
}

func TestFrameSplit(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	wire := requestFrame(acio.Sync, CmdGetVersion)
	for i, c := range wire[:len(wire)-1] {
		b.Write([]byte{c})
		if _, ok := b.ProcessCommand(nil); ok {
			t.Fatalf("ProcessCommand() handled a frame after %d of %d bytes", i+1, len(wire))
		}
	}
	b.Write(wire[len(wire)-1:])
	out, ok := b.ProcessCommand(nil)
	if !ok {
		t.Fatal("ProcessCommand() handled nothing after the full frame")
	}
	if seq, _ := decodeResponse(t, out); seq != acio.Sync {
		t.Errorf("seq = 0x%02X, want 0x%02X", seq, acio.Sync)
	}
}

func TestOneFramePerCall(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	b.Write(append(requestFrame(1, CmdJammaStart), requestFrame(2, CmdGetJammaPOR)...))

	for _, want := range []byte{1, 2} {
		out, ok := b.ProcessCommand(nil)
		if !ok {
			t.Fatalf("ProcessCommand() handled nothing, want seq %d", want)
		}
		if seq, _ := decodeResponse(t, out); seq != want {
			t.Errorf("seq = %d, want %d", seq, want)
		}
	}
	if _, ok := b.ProcessCommand(nil); ok {
		t.Error("ProcessCommand() handled a third frame")
	}
}

func TestResponseAppendsEscaped(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	b.coinsInserted = [2]uint32{0xAAFF, 0}
	b.Write(requestFrame(3, CmdCoinStock))

	prefix := []byte{0x01}
	out, ok := b.ProcessCommand(prefix)
	if !ok {
		t.Fatal("ProcessCommand() handled nothing")
	}
	raw := []byte{7, 3, StatusOK, 0, 0xAA, 0xFF, 0, 0}
	if want := len(prefix) + 1 + acio.EscapedLen(raw); len(out) != want {
		t.Errorf("len(response) = %d, want %d", len(out), want)
	}
	if out[0] != 0x01 {
		t.Errorf("response prefix = %02x, want 01", out[0])
	}
	if _, payload := decodeResponse(t, out[1:]); !bytes.Equal(payload, raw[3:]) {
		t.Errorf("COIN_STOCK = % x, want % x", payload, raw[3:])
	}
}

func TestGarbageRecovery(t *testing.T) {
	t.Run("no sync", func(t *testing.T) {
		b, _ := newTestBoard(t, DefaultConfig())
		b.Write([]byte{0x01, 0x02, 0x03})
		if _, ok := b.ProcessCommand(nil); ok {
			t.Fatal("ProcessCommand() handled garbage")
		}
		if n := b.Buffered(); n != 0 {
			t.Errorf("Buffered() = %d, want 0", n)
		}
	})

	t.Run("leading garbage", func(t *testing.T) {
		b, _ := newTestBoard(t, DefaultConfig())
		b.Write([]byte{0x01, 0x02})
		got := exchange(t, b, 5, CmdGetVersion)
		if !bytes.Equal(got, firmwareVersion[:]) {
			t.Errorf("payload = % x, want % x", got, firmwareVersion)
		}
	})

	t.Run("short length", func(t *testing.T) {
		b, _ := newTestBoard(t, DefaultConfig())
		b.Write([]byte{acio.Sync, 0x01, 0x05})
		b.Write(requestFrame(7, CmdJammaStart))
		if _, ok := b.ProcessCommand(nil); ok {
			t.Fatal("ProcessCommand() handled a frame with length 1")
		}
		out, ok := b.ProcessCommand(nil)
		if !ok {
			t.Fatal("ProcessCommand() did not resynchronize")
		}
		if seq, _ := decodeResponse(t, out); seq != 7 {
			t.Errorf("seq = %d, want 7", seq)
		}
	})
}

func TestReceiveBufferBound(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	b.Write(make([]byte, MaxReceiveBuffer+100))
	if n := b.Buffered(); n != MaxReceiveBuffer {
		t.Errorf("Buffered() = %d, want %d", n, MaxReceiveBuffer)
	}
}

func TestDallas(t *testing.T) {
	dir := t.TempDir()
	var image [DongleSize]byte
	for i := range image {
		image[i] = byte(i + 1)
	}
	black := filepath.Join(dir, "black.bin")
	if err := os.WriteFile(black, image[:], 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.DonglePaths = [2]string{black, filepath.Join(dir, "missing.bin")}
	b, _ := newTestBoard(t, cfg)

	if got := b.RequestedDongle(); got != dongleNone {
		t.Fatalf("RequestedDongle() = %d, want %d", got, dongleNone)
	}

	got := exchange(t, b, 1, CmdDallas, DallasSelectBlack)
	if want := append([]byte{1}, image[:]...); !bytes.Equal(got, want) {
		t.Errorf("black = % x, want % x", got, want)
	}
	if got := b.RequestedDongle(); got != 0 {
		t.Errorf("RequestedDongle() = %d, want 0", got)
	}

	got = exchange(t, b, 2, CmdDallas, DallasSelectWhite)
	if want := make([]byte, 1+DongleSize); !bytes.Equal(got, want) {
		t.Errorf("white = % x, want % x", got, want)
	}

	wire := bytes.Repeat([]byte{0xAA}, DongleSize)
	got = exchange(t, b, 3, CmdDallas, append([]byte{DallasSelectWire}, wire...)...)
	if want := append([]byte{0}, wire...); !bytes.Equal(got, want) {
		t.Errorf("wire = % x, want % x", got, want)
	}
	if got := b.RequestedDongle(); got != DallasSelectWire {
		t.Errorf("RequestedDongle() = %d, want %d", got, DallasSelectWire)
	}

	got = exchange(t, b, 4, CmdDallas, DallasSelectWire, 0x11, 0x22)
	want := make([]byte, 1+DongleSize)
	want[1], want[2] = 0x11, 0x22
	if !bytes.Equal(got, want) {
		t.Errorf("short wire = % x, want % x", got, want)
	}

	got = exchange(t, b, 5, CmdDallas, DallasWrite, 0x33)
	want = make([]byte, 1+DongleSize)
	want[1] = 0x33
	if !bytes.Equal(got, want) {
		t.Errorf("write = % x, want % x", got, want)
	}
	if got := b.RequestedDongle(); got != DallasSelectWire {
		t.Errorf("RequestedDongle() after write = %d, want %d", got, DallasSelectWire)
	}
}

func TestReadDipSwitch(t *testing.T) {
	tests := []struct {
		dip  string
		want byte
	}{
		{"0000", 0x00},
		{"1000", 0x08},
		{"0001", 0x01},
		{"0110", 0x06},
		{"1111", 0x0F},
		{"01", 0x04},
	}
	for _, tt := range tests {
		t.Run(tt.dip, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DipSwitch = tt.dip
			b, _ := newTestBoard(t, cfg)
			got := exchange(t, b, 1, CmdReadDipSwitch)
			if !bytes.Equal(got, []byte{tt.want}) {
				t.Errorf("READ_DIPSWITCH(%q) = % x, want %02x", tt.dip, got, tt.want)
			}
		})
	}
}

func TestAVReport31kHz(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Force31kHz = true
	b, _ := newTestBoard(t, cfg)
	if got := exchange(t, b, 1, CmdGetAVReport); !bytes.Equal(got, []byte{AVMode31kHz}) {
		t.Errorf("GET_AV_REPORT = % x, want %02x", got, AVMode31kHz)
	}
}

func TestCoinStockEncoding(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	b.coinsInserted = [2]uint32{0x0102, 0x10304}
	got := exchange(t, b, 1, CmdCoinStock)
	if want := []byte{0, 0x01, 0x02, 0x03, 0x04}; !bytes.Equal(got, want) {
		t.Errorf("COIN_STOCK = % x, want % x", got, want)
	}
}

func TestCoinBlocker(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	exchange(t, b, 1, CmdCoinBlocker, 0x01)
	if !b.CoinBlocker() {
		t.Error("CoinBlocker() = false after close")
	}
	exchange(t, b, 2, CmdCoinBlocker, 0x00)
	if b.CoinBlocker() {
		t.Error("CoinBlocker() = true after open")
	}
}

func TestLampOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameType = GameDDR
	b, _ := newTestBoard(t, cfg)

	var changes []Lamps
	b.SetOnLamps(func(old, new Lamps) { changes = append(changes, new) })

	steps := []struct {
		params []byte
		want   Lamps
	}{
		{[]byte{0x00, 0x7F}, LampMarqueeUpperLeft},
		{[]byte{0x00, 0x7F}, LampMarqueeUpperLeft},
		{[]byte{0x00, 0xF2}, LampP1Panel},
		{[]byte{0x00, 0xF3}, 0},
		{[]byte{lampAll, 0x00}, allLamps(GameDDR)},
	}
	for i, s := range steps {
		if got := exchange(t, b, byte(i), CmdLampOut, s.params...); !bytes.Equal(got, []byte{0}) {
			t.Errorf("LAMP_OUT % x payload = % x, want 00", s.params, got)
		}
		if got := b.Lamps(); got != s.want {
			t.Errorf("Lamps() after % x = %v, want %v", s.params, got, s.want)
		}
	}

	want := []Lamps{LampMarqueeUpperLeft, LampP1Panel, 0, allLamps(GameDDR)}
	if len(changes) != len(want) {
		t.Fatalf("lamp callbacks = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, changes[i], want[i])
		}
	}
}

func TestLampsString(t *testing.T) {
	tests := []struct {
		lamps Lamps
		want  string
	}{
		{0, "none"},
		{LampP1Panel, "p1-panel"},
		{LampMarqueeUpperLeft | LampP2Panel, "marquee-ul|p2-panel"},
	}
	for _, tt := range tests {
		if got := tt.lamps.String(); got != tt.want {
			t.Errorf("Lamps(%d).String() = %q, want %q", tt.lamps, got, tt.want)
		}
	}
}

func TestSlots(t *testing.T) {
	tests := []struct {
		game  GameType
		slot0 bool
		slot1 int // nodes on the slot 1 bus, -1 for none
	}{
		{GameGeneric, false, -1},
		{GameDrumMania, false, 1},
		{GameGuitarFreaks, false, 2},
		{GameDDR, true, 2},
		{GameThrillDrive, false, 2},
		{GameToysMarch, true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.game.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.GameType = tt.game
			b, _ := newTestBoard(t, cfg)
			if got := b.Slot(0) != nil; got != tt.slot0 {
				t.Errorf("Slot(0) present = %v, want %v", got, tt.slot0)
			}
			bus, _ := b.Slot(1).(*acio.Bus)
			switch {
			case tt.slot1 < 0 && b.Slot(1) != nil:
				t.Errorf("Slot(1) = %T, want nil", b.Slot(1))
			case tt.slot1 >= 0 && bus == nil:
				t.Errorf("Slot(1) = %T, want *acio.Bus", b.Slot(1))
			case bus != nil && bus.NodeCount() != tt.slot1:
				t.Errorf("Slot(1).NodeCount() = %d, want %d", bus.NodeCount(), tt.slot1)
			}
			if b.Slot(NumSlots) != nil || b.Slot(-1) != nil {
				t.Error("out-of-range Slot() returned a device")
			}
		})
	}
}

func TestSlotsKeptAcrossOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameType = GameDDR
	b, _ := newTestBoard(t, cfg)
	extio := b.Slot(0)

	cfg.DipSwitch = "1000"
	if err := b.Open(cfg); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.Slot(0) != extio {
		t.Error("Open() with the same game rebuilt the sub-devices")
	}

	cfg.GameType = GameToysMarch
	if err := b.Open(cfg); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := b.Slot(0).(*peripheral.DrumPad); !ok {
		t.Errorf("Slot(0) = %T after game change, want *peripheral.DrumPad", b.Slot(0))
	}
}

func TestSCIBridge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameType = GameThrillDrive
	b, snap := newTestBoard(t, cfg)

	if got := exchange(t, b, 1, CmdSCISetup, 1, sciOpen, 0); !bytes.Equal(got, []byte{0}) {
		t.Fatalf("SCI_SETUP = % x, want 00", got)
	}

	snap.Press(input.KeyThrillDriveSeatbelt)
	req := acio.Message{Addr: 2, Code: peripheral.BeltCodeStatus, Seq: 9}
	packet := acio.AppendFrame(nil, &req)
	params := append([]byte{1, byte(len(packet))}, packet...)
	if got := exchange(t, b, 2, CmdSCIWrite, params...); !bytes.Equal(got, []byte{byte(len(packet))}) {
		t.Fatalf("SCI_WRITE = % x, want %02x", got, len(packet))
	}

	got := exchange(t, b, 3, CmdSCIRead, 1, 0xFF)
	if len(got) == 0 || int(got[0]) != len(got)-1 {
		t.Fatalf("SCI_READ = % x, want [n][n bytes]", got)
	}
	data := got[1:]
	if len(data) == 0 || data[0] != acio.Sync {
		t.Fatalf("SCI_READ data % x is not a framed reply", data)
	}
	var msg acio.Message
	if err := acio.ParseMessage(acio.Unescape(nil, data[1:]), &msg); err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Addr != 2|acio.ResponseFlag || msg.Seq != 9 {
		t.Errorf("reply = %s, want addr 0x82 seq 9", msg.String())
	}
	if len(msg.Payload) != peripheral.BeltStatusSize || msg.Payload[2] != peripheral.BeltFastened {
		t.Errorf("belt status = % x, want fastened", msg.Payload)
	}

	if got := exchange(t, b, 4, CmdSCIRead, 1, 0xFF); !bytes.Equal(got, []byte{0}) {
		t.Errorf("SCI_READ of drained port = % x, want 00", got)
	}
	if got := exchange(t, b, 5, CmdSCIRead, 0, 0xFF); !bytes.Equal(got, []byte{0}) {
		t.Errorf("SCI_READ of empty port = % x, want 00", got)
	}
	if got := exchange(t, b, 6, CmdSCIWrite, 9, 1, 0x00); !bytes.Equal(got, []byte{1}) {
		t.Errorf("SCI_WRITE to invalid port = % x, want 01", got)
	}
	if got := exchange(t, b, 7, CmdSCISetup, 1, sciClose, 0); !bytes.Equal(got, []byte{0}) {
		t.Errorf("SCI_SETUP close = % x, want 00", got)
	}
}

func TestSCIReadLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameType = GameDDR
	b, _ := newTestBoard(t, cfg)

	light := []byte{0x40, 0x00, 0x40, 0x00}
	exchange(t, b, 1, CmdSCIWrite, append([]byte{0, byte(len(light))}, light...)...)

	if got := exchange(t, b, 2, CmdSCIRead, 0, 0); !bytes.Equal(got, []byte{0}) {
		t.Errorf("SCI_READ with max 0 = % x, want 00", got)
	}
	if got := exchange(t, b, 3, CmdSCIRead, 0, 1); !bytes.Equal(got, []byte{1, peripheral.ExtioAck}) {
		t.Errorf("SCI_READ = % x, want 01 %02x", got, peripheral.ExtioAck)
	}
	extio := b.Slot(0).(*peripheral.Extio)
	if l := extio.Lights(); l.P1 != 0x40 || !l.Neon {
		t.Errorf("Lights() = %+v, want P1 0x40 with neon", l)
	}
}

func TestSetSlot(t *testing.T) {
	b, _ := newTestBoard(t, DefaultConfig())
	extio := peripheral.NewExtio()
	if err := b.SetSlot(0, extio); err != nil {
		t.Fatalf("SetSlot() error = %v", err)
	}
	if b.Slot(0) != extio {
		t.Error("Slot(0) did not return the installed device")
	}
	if err := b.SetSlot(2, extio); err == nil {
		t.Error("SetSlot(2) error = nil, want error")
	}
}

func TestOpenRejectsConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"game", Config{GameType: gameTypeCount}},
		{"dip chars", Config{DipSwitch: "10x0"}},
		{"dip length", Config{DipSwitch: "00000"}},
		{"interval", Config{OneShotInterval: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard(&input.Snapshot{})
			if err := b.Open(tt.cfg); err == nil {
				t.Error("Open() error = nil, want error")
			}
		})
	}
}

func TestParseGameType(t *testing.T) {
	tests := []struct {
		in      string
		want    GameType
		wantErr bool
	}{
		{"ddr", GameDDR, false},
		{"ThrillDrive", GameThrillDrive, false},
		{"5", GameToysMarch, false},
		{" 0 ", GameGeneric, false},
		{"6", GameGeneric, true},
		{"pinball", GameGeneric, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGameType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGameType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGameType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
