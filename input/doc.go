// Package input defines the logical cabinet inputs of the board and the
// state handed to it on every poll.
//
// A backend (terminal, HID, scripted test) writes into a [State] from its
// own goroutine. The board owns a [Snapshot] and refreshes it once per
// JAMMA poll with [State.Capture]:
//
//	state := input.NewState()
//	go backend.Run(ctx) // calls state.Press / state.Release
//
//	var snap input.Snapshot
//	state.Capture(&snap)
//	report := board.SampleJamma(&snap)
//
// Level keys are read with [Snapshot.Held]. Every released-to-held
// transition also queues one press that [Snapshot.OneShot] reports exactly
// once, so a fast tap between two captures is never lost and a key that
// stays down is never reported twice.
package input
