package pkg

import "errors"

// Transport errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrNAK indicates a NAK response (no data ready).
	ErrNAK = errors.New("NAK")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrNotConfigured indicates the device is not configured.
	ErrNotConfigured = errors.New("device not configured")

	// ErrInvalidEndpoint indicates an invalid endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidRequest indicates an invalid or unsupported request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoResources indicates a bounded queue or buffer is full.
	ErrNoResources = errors.New("no resources available")

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("closed")
)

// Board errors.
var (
	// ErrUnknownGame indicates an unrecognized game type.
	ErrUnknownGame = errors.New("unknown game type")

	// ErrSnapshotSize indicates a state blob of the wrong size.
	ErrSnapshotSize = errors.New("state snapshot size mismatch")

	// ErrChecksum indicates a sub-bus packet with a bad checksum.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrShortPacket indicates a packet shorter than its header declares.
	ErrShortPacket = errors.New("short packet")

	// ErrNoInput indicates no input source was supplied to the board.
	ErrNoInput = errors.New("no input source")
)
