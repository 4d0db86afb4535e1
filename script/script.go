package script

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ardnew/softp2io/device/class/p2io"
	"github.com/ardnew/softp2io/device/class/p2io/acio"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// ModuleName is the name of the global table holding the board functions.
const ModuleName = "p2io"

// maxReads bounds the bulk IN polls spent waiting for one response.
const maxReads = 16

// Runner executes Lua scripts against a driver. Scripts press keys on the
// input state and exchange command frames through the driver's endpoints,
// exactly as a host would.
type Runner struct {
	L     *lua.LState
	drv   *p2io.Driver
	state *input.State
	seq   byte
}

// New creates a runner bound to drv and state.
func New(drv *p2io.Driver, state *input.State) *Runner {
	r := &Runner{
		L:     lua.NewState(),
		drv:   drv,
		state: state,
	}
	r.L.PreloadModule(ModuleName, r.loader)
	r.L.SetGlobal(ModuleName, r.module(r.L))
	return r
}

func (r *Runner) module(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"press":   r.press,
		"release": r.release,
		"analog":  r.analog,
		"request": r.request,
		"jamma":   r.jamma,
		"lamps":   r.lamps,
		"coins":   r.coins,
		"sleep":   r.sleep,
		"log":     r.log,
	})
}

func (r *Runner) loader(L *lua.LState) int {
	L.Push(r.module(L))
	return 1
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.L.Close()
}

// DoString runs a Lua chunk. Cancelling ctx aborts the script.
func (r *Runner) DoString(ctx context.Context, src string) error {
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

// DoFile runs the Lua file at path. Cancelling ctx aborts the script.
func (r *Runner) DoFile(ctx context.Context, path string) error {
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	pkg.LogInfo(pkg.ComponentScript, "running", "path", path)
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("run script %s: %w", path, err)
	}
	return nil
}

func checkKey(L *lua.LState, n int) input.Key {
	name := L.CheckString(n)
	k, ok := input.ParseKey(name)
	if !ok {
		L.ArgError(n, "unknown key "+name)
	}
	return k
}

// press(key)
func (r *Runner) press(L *lua.LState) int {
	r.state.Press(checkKey(L, 1))
	return 0
}

// release(key)
func (r *Runner) release(L *lua.LState) int {
	r.state.Release(checkKey(L, 1))
	return 0
}

// analog(key, value) sets an axis in 0..1; analog(key) clears it.
func (r *Runner) analog(L *lua.LState) int {
	k := checkKey(L, 1)
	if !k.IsAnalog() {
		L.ArgError(1, k.String()+" is not an analog key")
	}
	if L.GetTop() < 2 || L.Get(2) == lua.LNil {
		r.state.ClearAnalog(k)
		return 0
	}
	r.state.SetAnalog(k, float64(L.CheckNumber(2)))
	return 0
}

// request(cmd, params...) sends one command frame and returns the response
// payload as a hex string.
func (r *Runner) request(L *lua.LState) int {
	cmd := byte(L.CheckInt(1))
	params := make([]byte, 0, L.GetTop())
	for i := 2; i <= L.GetTop(); i++ {
		params = append(params, byte(L.CheckInt(i)))
	}

	r.seq++
	body := append([]byte{byte(2 + len(params)), r.seq, cmd}, params...)
	frame := acio.Escape([]byte{acio.Sync}, body)
	if err := r.drv.HandleOut(p2io.EndpointCommandOut, frame); err != nil {
		L.RaiseError("request 0x%02x: %v", cmd, err)
	}

	payload, err := r.readResponse()
	if err != nil {
		L.RaiseError("request 0x%02x: %v", cmd, err)
	}
	pkg.LogDebug(pkg.ComponentScript, "response", "cmd", p2io.CommandName(cmd), "payload", pkg.Hex(payload))
	L.Push(lua.LString(hex.EncodeToString(payload)))
	return 1
}

// readResponse polls the command IN endpoint until one full response has
// arrived and returns its payload.
func (r *Runner) readResponse() ([]byte, error) {
	var (
		u      acio.Unescaper
		raw    []byte
		synced bool
		chunk  [64]byte
	)
	for i := 0; i < maxReads; i++ {
		n, err := r.drv.HandleIn(p2io.EndpointCommandIn, chunk[:])
		if err != nil {
			return nil, err
		}
		data := chunk[:n]
		if !synced {
			i := indexSync(data)
			if i < 0 {
				continue
			}
			synced, data = true, data[i+1:]
		}
		raw = u.Append(raw, data)
		if len(raw) > 0 && len(raw) >= int(raw[0])+1 {
			if raw[0] < 2 {
				return nil, fmt.Errorf("response length %d: %w", raw[0], pkg.ErrShortPacket)
			}
			if raw[2] != p2io.StatusOK {
				return nil, fmt.Errorf("response status 0x%02x: %w", raw[2], pkg.ErrInvalidRequest)
			}
			return raw[3 : int(raw[0])+1], nil
		}
	}
	return nil, fmt.Errorf("no response: %w", pkg.ErrTimeout)
}

func indexSync(p []byte) int {
	for i, b := range p {
		if b == acio.Sync {
			return i
		}
	}
	return -1
}

// jamma() returns the next JAMMA report as a hex string.
func (r *Runner) jamma(L *lua.LState) int {
	var report [p2io.JammaReportSize]byte
	n, err := r.drv.HandleIn(p2io.EndpointJamma, report[:])
	if err != nil {
		L.RaiseError("jamma: %v", err)
	}
	L.Push(lua.LString(hex.EncodeToString(report[:n])))
	return 1
}

// lamps() returns the lit cabinet lamps, e.g. "marquee-ul|p1-panel".
func (r *Runner) lamps(L *lua.LState) int {
	var lamps p2io.Lamps
	r.drv.WithBoard(func(b *p2io.Board) { lamps = b.Lamps() })
	L.Push(lua.LString(lamps.String()))
	return 1
}

// coins(slot) returns the coin count of slot 1 or 2.
func (r *Runner) coins(L *lua.LState) int {
	slot := L.CheckInt(1)
	if slot < 1 || slot > 2 {
		L.ArgError(1, "coin slot must be 1 or 2")
	}
	var n uint32
	r.drv.WithBoard(func(b *p2io.Board) { n = b.Coins(slot - 1) })
	L.Push(lua.LNumber(n))
	return 1
}

// sleep(ms)
func (r *Runner) sleep(L *lua.LState) int {
	d := time.Duration(L.CheckInt(1)) * time.Millisecond
	ctx := L.Context()
	if ctx == nil {
		time.Sleep(d)
		return 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		L.RaiseError("sleep: %v", ctx.Err())
	case <-t.C:
	}
	return 0
}

// log(msg, ...)
func (r *Runner) log(L *lua.LState) int {
	msg := L.CheckString(1)
	args := make([]any, 0, L.GetTop())
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, L.Get(i).String())
	}
	pkg.LogInfo(pkg.ComponentScript, msg, args...)
	return 0
}
