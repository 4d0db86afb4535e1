// Package passthrough connects the emulated board to a physical P2IO over
// USB.
//
// [Open] claims the first attached board and starts two readers: one keeps
// the latest JAMMA report from the interrupt endpoint, the other queues
// command responses from the bulk IN endpoint. [Board] implements
// [p2io.Passthrough], so a [p2io.Driver] given one forwards every command
// unchanged and reports the physical inputs.
//
//	pt, err := passthrough.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer pt.Close()
//	drv.SetPassthrough(pt)
package passthrough
