package device

// Function is the class-specific behavior behind a device's non-control
// endpoints. Calls arrive from the device's polling path one at a time.
type Function interface {
	// HandleIn fills p with data for an IN token on endpoint address ep.
	// Returns the number of bytes written. A [pkg.ErrNAK] error means there
	// is nothing to send.
	HandleIn(ep uint8, p []byte) (int, error)

	// HandleOut consumes the data of an OUT token on endpoint address ep.
	HandleOut(ep uint8, data []byte) error
}

// Configurable is implemented by functions that track the configuration
// state of their device.
type Configurable interface {
	SetConfigured(configured bool)
}
