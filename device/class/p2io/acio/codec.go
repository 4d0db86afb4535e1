package acio

// Framing bytes shared by the P2IO command channel and the ACIO sub-bus.
const (
	// Sync marks the start of a frame. Escaped output never contains it.
	Sync = 0xAA

	// EscapeByte introduces a two-byte escape sequence. The byte that
	// follows is the bitwise complement of the original value.
	EscapeByte = 0xFF
)

// needsEscape reports whether b must be stuffed on the wire.
func needsEscape(b byte) bool {
	return b == Sync || b == EscapeByte
}

// EscapedLen returns the length of src after escaping.
func EscapedLen(src []byte) int {
	n := len(src)
	for _, b := range src {
		if needsEscape(b) {
			n++
		}
	}
	return n
}

// Escape appends the byte-stuffed form of src to dst and returns the
// extended slice.
func Escape(dst, src []byte) []byte {
	for _, b := range src {
		if needsEscape(b) {
			dst = append(dst, EscapeByte, ^b)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// Unescape appends the decoded form of src to dst and returns the
// extended slice. A trailing escape byte with no successor is dropped.
func Unescape(dst, src []byte) []byte {
	var u Unescaper
	return u.Append(dst, src)
}

// Unescaper decodes a byte-stuffed stream that may be split at arbitrary
// points, including between an escape byte and its successor.
// The zero value is ready to use.
type Unescaper struct {
	pending bool
}

// Append decodes src, appending the result to dst. An escape byte at the
// end of src is held until the next call.
func (u *Unescaper) Append(dst, src []byte) []byte {
	for _, b := range src {
		if u.pending {
			u.pending = false
			dst = append(dst, ^b)
			continue
		}
		if b == EscapeByte {
			u.pending = true
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// Pending reports whether an escape byte is waiting for its successor.
func (u *Unescaper) Pending() bool {
	return u.pending
}

// SetPending restores the pending escape flag, used when reloading state.
func (u *Unescaper) SetPending(pending bool) {
	u.pending = pending
}

// Reset discards any pending escape byte.
func (u *Unescaper) Reset() {
	u.pending = false
}
