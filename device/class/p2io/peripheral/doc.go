// Package peripheral implements the sub-devices reachable through the
// P2IO serial ports.
//
// ACIO nodes implement [acio.Handler] and are wrapped with [acio.NewNode]
// before being added to an [acio.Bus]:
//
//   - [ICCA]: card reader with keypad, one per player
//   - [Handle]: Thrill Drive steering handle (force feedback only)
//   - [Seatbelt]: Thrill Drive seatbelt sensor with toggle semantics
//
// Raw devices implement [acio.Device] directly and occupy a port alone:
//
//   - [Extio]: DDR pad and neon light controller
//   - [DrumPad]: Toy's March drum pad
//   - [SerialNode]: a physical peripheral on a host serial port
//
// Every sub-device answers a command code it does not recognize with a
// single zero byte.
package peripheral
