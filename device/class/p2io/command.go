package p2io

import (
	"slices"

	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/pkg"
)

// command is one entry of the opcode table. handle appends the response
// payload to resp.
type command struct {
	name   string
	handle func(b *Board, req frame, resp []byte) []byte
}

var commands = map[byte]command{
	CmdGetVersion:     {"GET_VERSION", (*Board).cmdGetVersion},
	CmdFWriteMode:     {"FWRITEMODE", (*Board).cmdFWriteMode},
	CmdSetWatchdog:    {"SET_WATCHDOG", (*Board).cmdAck},
	CmdSetAVMask:      {"SET_AV_MASK", (*Board).cmdAck},
	CmdGetAVReport:    {"GET_AV_REPORT", (*Board).cmdGetAVReport},
	CmdLampOut:        {"LAMP_OUT", (*Board).cmdLampOut},
	CmdDallas:         {"DALLAS", (*Board).cmdDallas},
	CmdSendIR:         {"SEND_IR", (*Board).cmdAck},
	CmdReadDipSwitch:  {"READ_DIPSWITCH", (*Board).cmdReadDipSwitch},
	CmdGetJammaPOR:    {"GET_JAMMA_POR", (*Board).cmdGetJammaPOR},
	CmdPortRead:       {"PORT_READ", (*Board).cmdAck},
	CmdPortReadPOR:    {"PORT_READ_POR", (*Board).cmdAck},
	CmdJammaStart:     {"JAMMA_START", (*Board).cmdAck},
	CmdCoinStock:      {"COIN_STOCK", (*Board).cmdCoinStock},
	CmdCoinCounter:    {"COIN_COUNTER", (*Board).cmdCoinCounter},
	CmdCoinBlocker:    {"COIN_BLOCKER", (*Board).cmdCoinBlocker},
	CmdCoinCounterOut: {"COIN_COUNTER_OUT", (*Board).cmdAck},
	CmdSCISetup:       {"SCI_SETUP", (*Board).cmdSCISetup},
	CmdSCIWrite:       {"SCI_WRITE", (*Board).cmdSCIWrite},
	CmdSCIRead:        {"SCI_READ", (*Board).cmdSCIRead},
}

// CommandName returns the name of opcode cmd, or "" if it is unknown.
func CommandName(cmd byte) string {
	return commands[cmd].name
}

// dispatch runs the handler of the request's opcode. Unknown opcodes
// produce no payload.
func (b *Board) dispatch(req frame, resp []byte) []byte {
	c, ok := commands[req.cmd()]
	if !ok {
		pkg.LogDebug(pkg.ComponentBoard, "unknown command",
			"cmd", req.cmd(), "seq", req[2], "params", pkg.Hex(req[FrameHeaderSize:]))
		return resp
	}
	pkg.LogDebug(pkg.ComponentBoard, "command",
		"cmd", c.name, "seq", req[2], "params", pkg.Hex(req[FrameHeaderSize:]))
	return c.handle(b, req, resp)
}

func (b *Board) cmdAck(req frame, resp []byte) []byte {
	return append(resp, 0)
}

func (b *Board) cmdGetVersion(req frame, resp []byte) []byte {
	return append(resp, firmwareVersion[:]...)
}

func (b *Board) cmdFWriteMode(req frame, resp []byte) []byte {
	if req.param(0) != fwriteModeEnter {
		pkg.LogDebug(pkg.ComponentBoard, "firmware write mode parameter ignored", "param", req.param(0))
		return resp
	}
	pkg.LogWarn(pkg.ComponentBoard, "firmware write mode requested; firmware is not writable")
	return append(resp, 0)
}

func (b *Board) cmdGetAVReport(req frame, resp []byte) []byte {
	if b.force31kHz {
		return append(resp, AVMode31kHz)
	}
	return append(resp, AVMode15kHz)
}

func (b *Board) cmdDallas(req frame, resp []byte) []byte {
	switch sub := req.param(0); sub {
	case DallasSelectBlack, DallasSelectWhite, DallasSelectWire:
		b.requestedDongle = int8(sub)
		return b.appendDongle(req, resp)
	case DallasWrite:
		pkg.LogDebug(pkg.ComponentBoard, "dongle write not stored")
		return appendWireDongle(req, append(resp, 0))
	default:
		pkg.LogDebug(pkg.ComponentBoard, "unknown dallas sub-command", "sub", sub)
		return resp
	}
}

// appendDongle appends the selected dongle: its loaded flag and image for
// a stored slot, or the data supplied in the request.
func (b *Board) appendDongle(req frame, resp []byte) []byte {
	switch slot := b.requestedDongle; slot {
	case DallasSelectBlack, DallasSelectWhite:
		var loaded byte
		if b.dongleLoaded[slot] {
			loaded = 1
		}
		resp = append(resp, loaded)
		return append(resp, b.donglePayload[slot][:]...)
	default:
		return appendWireDongle(req, append(resp, 0))
	}
}

// appendWireDongle appends the DongleSize bytes following the sub-command,
// zero-padded when the request is shorter.
func appendWireDongle(req frame, resp []byte) []byte {
	var wire [DongleSize]byte
	copy(wire[:], req.params(1, DongleSize))
	return append(resp, wire[:]...)
}

func (b *Board) cmdReadDipSwitch(req frame, resp []byte) []byte {
	var v byte
	for i, c := range b.dipSwitch {
		if c == '1' {
			v |= 1 << (3 - i)
		}
	}
	return append(resp, v&0x7F)
}

func (b *Board) cmdGetJammaPOR(req frame, resp []byte) []byte {
	return append(resp, 0, 0, 0, 0)
}

func (b *Board) cmdCoinStock(req frame, resp []byte) []byte {
	c0, c1 := b.coinsInserted[0], b.coinsInserted[1]
	return append(resp, 0, byte(c0>>8), byte(c0), byte(c1>>8), byte(c1))
}

func (b *Board) cmdCoinCounter(req frame, resp []byte) []byte {
	if req.param(0)&coinCounterMerge != 0 {
		pkg.LogDebug(pkg.ComponentBoard, "coin counter merge", "params", pkg.Hex(req.params(0, 2)))
	}
	return append(resp, 0)
}

func (b *Board) cmdCoinBlocker(req frame, resp []byte) []byte {
	if closed := req.param(0) != 0; closed != b.coinBlocker {
		b.coinBlocker = closed
		pkg.LogDebug(pkg.ComponentBoard, "coin blocker", "closed", closed)
	}
	return append(resp, 0)
}

func (b *Board) cmdLampOut(req frame, resp []byte) []byte {
	var lit Lamps
	if req.param(0) == lampAll {
		lit = allLamps(b.gameType)
	} else {
		lit = decodeLamps(b.gameType, req.param(1))
	}
	if lit != b.lamps {
		old := b.lamps
		b.lamps = lit
		pkg.LogDebug(pkg.ComponentBoard, "lamps", "lit", lit.String())
		if b.onLamps != nil {
			b.onLamps(old, lit)
		}
	}
	return append(resp, 0)
}

func (b *Board) cmdSCISetup(req frame, resp []byte) []byte {
	port, action := int(req.param(0)), req.param(1)
	d := b.Slot(port)
	if d == nil {
		pkg.LogDebug(pkg.ComponentBoard, "setup of empty serial port", "port", port)
		return append(resp, 0)
	}
	switch action {
	case sciOpen:
		d.Open()
	case sciClose:
		d.Close()
	}
	return append(resp, 0)
}

func (b *Board) cmdSCIWrite(req frame, resp []byte) []byte {
	port, n := int(req.param(0)), int(req.param(1))
	if d := b.Slot(port); d != nil {
		var packet [0x100]byte
		d.Write(acio.Unescape(packet[:0], req.params(2, n)))
	}
	return append(resp, byte(n))
}

func (b *Board) cmdSCIRead(req frame, resp []byte) []byte {
	port, limit := int(req.param(0)), int(req.param(1))
	limit = min(limit, MaxResponsePayload-1)

	off := len(resp)
	resp = append(resp, 0)
	d := b.Slot(port)
	if d == nil || limit == 0 {
		return resp
	}
	resp = slices.Grow(resp, limit)[:off+1+limit]
	n := d.Read(resp[off+1:])
	resp[off] = byte(n)
	return resp[:off+1+n]
}
