//go:build unix

package term

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// DefaultHold is how long a key stays held after its last keystroke.
// Terminals report key presses (and auto-repeat) but never releases.
const DefaultHold = 120 * time.Millisecond

// pollInterval is the sleep between reads of an idle stdin.
const pollInterval = 5 * time.Millisecond

// Backend feeds keystrokes from a raw-mode terminal into an [input.State].
type Backend struct {
	state  *input.State
	keymap Keymap
	hold   time.Duration

	fd       int
	oldState *term.State
	deadline [input.KeyCount]time.Time
}

// Open puts the terminal on fd into raw non-blocking mode.
// Returns [pkg.ErrNotSupported] if fd is not a terminal.
func Open(fd int, state *input.State, keymap Keymap, hold time.Duration) (*Backend, error) {
	if state == nil {
		return nil, pkg.ErrNoInput
	}
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("fd %d is not a terminal: %w", fd, pkg.ErrNotSupported)
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, old)
		return nil, fmt.Errorf("nonblocking stdin: %w", err)
	}
	return &Backend{
		state:    state,
		keymap:   keymap,
		hold:     hold,
		fd:       fd,
		oldState: old,
	}, nil
}

// OpenStdin opens the backend on the process's standard input.
func OpenStdin(state *input.State, keymap Keymap, hold time.Duration) (*Backend, error) {
	return Open(int(os.Stdin.Fd()), state, keymap, hold)
}

// Run reads keystrokes until ctx is cancelled or ctrl-C is typed.
func (b *Backend) Run(ctx context.Context) error {
	buf := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now()
		n, err := syscall.Read(b.fd, buf)
		for _, c := range buf[:max(n, 0)] {
			if c == 0x03 {
				return context.Canceled
			}
			b.keystroke(c, now)
		}
		b.expire(now)

		switch {
		case err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0:
			time.Sleep(pollInterval)
		case err != nil:
			return fmt.Errorf("read terminal: %w", err)
		}
	}
}

func (b *Backend) keystroke(c byte, now time.Time) {
	k, ok := b.keymap[c]
	if !ok {
		pkg.LogDebug(pkg.ComponentInput, "unbound key", "byte", c)
		return
	}
	if b.deadline[k].IsZero() {
		b.state.Press(k)
	}
	b.deadline[k] = now.Add(b.hold)
}

func (b *Backend) expire(now time.Time) {
	for k, d := range b.deadline {
		if !d.IsZero() && now.After(d) {
			b.state.Release(input.Key(k))
			b.deadline[k] = time.Time{}
		}
	}
}

// Close releases all held keys and restores the terminal.
func (b *Backend) Close() error {
	for k, d := range b.deadline {
		if !d.IsZero() {
			b.state.Release(input.Key(k))
			b.deadline[k] = time.Time{}
		}
	}
	_ = syscall.SetNonblock(b.fd, false)
	return term.Restore(b.fd, b.oldState)
}
