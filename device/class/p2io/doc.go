// Package p2io emulates the P2IO arcade I/O board as a USB function for
// the softp2io device stack.
//
// # Architecture
//
// The board exposes one vendor interface with three endpoints:
//
//   - [EndpointCommandOut] (bulk OUT) carries escaped request frames
//   - [EndpointCommandIn] (bulk IN) returns one framed response per request
//   - [EndpointJamma] (interrupt IN) returns the 12-byte JAMMA input report
//
// [Driver] implements [device.Function] and serializes all access to the
// [Board], which holds the protocol state: the receive buffer, the
// active-low JAMMA status word, coin counters, dongle images and the
// sub-devices on the board's two serial ports.
//
// # Command Frames
//
// A request is
//
//	[0xAA][len][seq][cmd][params...]
//
// where len counts the bytes after itself. The response echoes seq with a
// zero status byte and is escaped with the codec from package acio:
//
//	0xAA, Escape([len][seq][0x00][payload...])
//
// Each IN poll on the command pipe handles at most one request. An idle
// pipe answers a single zero byte.
//
// # Input
//
// Each JAMMA poll captures an [input.Snapshot] from the driver's
// [input.State] and maps it through the game's key table. Level inputs
// follow the held state on every poll; drum hits and effect knobs are
// evaluated every [Config.OneShotInterval] polls so short presses stay
// visible to the game for several reports.
//
// # Usage
//
//	state := input.NewState()
//	cfg := p2io.DefaultConfig()
//	cfg.GameType = p2io.GameDDR
//
//	drv, err := p2io.NewDriver(state, cfg)
//	if err != nil {
//	    return err
//	}
//	dev := drv.NewDevice()
//
//	// Host side: configure, send a request, poll for the response.
//	dev.Out(p2io.EndpointCommandOut, []byte{0xAA, 0x02, 0x01, p2io.CmdGetVersion})
//	n, _ := dev.In(p2io.EndpointCommandIn, buf)
//
// # Save States
//
// [Board.SaveState] writes a fixed [StateSize] snapshot of the protocol
// state. Sub-devices are rebuilt from the game type when a snapshot of a
// different game is loaded.
package p2io
