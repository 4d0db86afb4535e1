// Package acio implements the byte-stuffed framing codec shared by the
// P2IO command channel and the ACIO serial sub-bus, plus the sub-bus
// itself.
//
// # Framing
//
// Frames begin with [Sync] (0xAA). Inside a frame the bytes 0xAA and 0xFF
// are replaced by 0xFF followed by the complement of the byte, so a sync
// byte never appears in escaped data:
//
//	wire := acio.Escape([]byte{acio.Sync}, body)
//	body = acio.Unescape(nil, wire[1:])
//
// [Unescaper] decodes a stream that arrives in arbitrary pieces, holding an
// escape byte that ends one piece until the next arrives.
//
// # Packets
//
// An ACIO packet is
//
//	[0xAA][addr][code hi][code lo][seq][n][payload n bytes][sum]
//
// where sum is the 8-bit sum of addr through the payload. Responses echo
// the code and sequence number with [ResponseFlag] set in the address.
//
// # Bus
//
// A [Bus] owns up to [MaxNodes] devices addressed from 1. It satisfies
// [Device] itself, so a P2IO serial port can hold either a single device
// or a whole bus. Writes to unaddressed ports are ignored and reads from
// them return nothing.
//
// [Node] wraps a [Handler] that implements a node's command set. Codes the
// handler does not claim fall back to the shared commands
// ([CodeGetVersion], [CodeStartUp], [CodeKeepalive]) and finally to a
// single zero byte.
package acio
