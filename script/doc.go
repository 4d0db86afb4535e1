// Package script drives an emulated board from Lua.
//
// A [Runner] exposes a p2io table to scripts, available as a global and
// through require("p2io"):
//
//	press(key)             hold a logical key, e.g. "DdrP1FootLeft"
//	release(key)           release a logical key
//	analog(key [, value])  set an analog axis in 0..1, or clear it
//	request(cmd, ...)      send a command frame, returns the payload as hex
//	jamma()                poll the JAMMA endpoint, returns the report as hex
//	lamps()                lit cabinet lamps, e.g. "marquee-ul|p1-panel"
//	coins(slot)            coins counted in slot 1 or 2
//	sleep(ms)              pause, aborted when the run context is cancelled
//	log(msg, ...)          log key/value pairs
//
// Requests travel through the driver's endpoints with the same framing a
// game uses, so scripts exercise the full command path:
//
//	p2io.press("Coin1")
//	p2io.jamma()
//	p2io.release("Coin1")
//	assert(p2io.request(0x31) == "0000010000")
package script
