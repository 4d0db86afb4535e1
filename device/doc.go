// Package device is the emulated USB function layer the board sits behind.
//
// A [Device] holds a device descriptor and a single [Configuration], answers
// the standard control requests (descriptors, address, configuration,
// endpoint halt) and routes IN and OUT tokens on its endpoints to a
// [Function]. The emulator's transport calls [Device.HandleSetup],
// [Device.In] and [Device.Out] from its polling path:
//
//	dev := device.New(desc, config, fn)
//	resp, err := dev.HandleSetup(&setup)
//	n, err := dev.In(0x81, buf)
//	err = dev.Out(0x02, data)
//
// # Hand-off Buffers
//
// Goroutines that talk to real hardware never touch board state directly.
// They feed the polling path through a bounded FIFO ([Queue]) for ordered
// protocol bytes, or through [Latest] for periodic reports where only the
// newest value matters.
package device
