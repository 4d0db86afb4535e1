//go:build !unix

package term

import (
	"context"
	"time"

	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// DefaultHold is how long a key stays held after its last keystroke.
const DefaultHold = 120 * time.Millisecond

// Backend is unavailable on this platform.
type Backend struct{}

// Open returns [pkg.ErrNotSupported].
func Open(fd int, state *input.State, keymap Keymap, hold time.Duration) (*Backend, error) {
	return nil, pkg.ErrNotSupported
}

// OpenStdin returns [pkg.ErrNotSupported].
func OpenStdin(state *input.State, keymap Keymap, hold time.Duration) (*Backend, error) {
	return nil, pkg.ErrNotSupported
}

// Run returns [pkg.ErrNotSupported].
func (b *Backend) Run(ctx context.Context) error {
	return pkg.ErrNotSupported
}

// Close does nothing.
func (b *Backend) Close() error {
	return nil
}
