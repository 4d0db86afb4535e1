package term

import (
	"fmt"

	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

// Keymap binds terminal bytes to logical keys.
type Keymap map[byte]input.Key

// DefaultKeymap returns bindings for the system keys and the DDR pads.
func DefaultKeymap() Keymap {
	return Keymap{
		'1': input.KeyTest,
		'2': input.KeyService,
		'5': input.KeyCoin1,
		'6': input.KeyCoin2,

		'\r': input.KeyDdrP1Start,
		'q':  input.KeyDdrP1SelectL,
		'e':  input.KeyDdrP1SelectR,
		'a':  input.KeyDdrP1FootLeft,
		's':  input.KeyDdrP1FootDown,
		'w':  input.KeyDdrP1FootUp,
		'd':  input.KeyDdrP1FootRight,

		'p': input.KeyDdrP2Start,
		'u': input.KeyDdrP2SelectL,
		'o': input.KeyDdrP2SelectR,
		'j': input.KeyDdrP2FootLeft,
		'k': input.KeyDdrP2FootDown,
		'i': input.KeyDdrP2FootUp,
		'l': input.KeyDdrP2FootRight,
	}
}

// ParseKeymap builds a keymap from binding name to terminal key text. Each
// value must be a single byte, or one of "enter", "space" and "tab".
func ParseKeymap(bindings map[string]string) (Keymap, error) {
	km := make(Keymap, len(bindings))
	for name, text := range bindings {
		k, ok := input.ParseKey(name)
		if !ok {
			return nil, fmt.Errorf("binding %q: unknown key: %w", name, pkg.ErrInvalidParameter)
		}
		b, err := keyByte(text)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		if prev, dup := km[b]; dup {
			return nil, fmt.Errorf("binding %q: %q already bound to %v: %w",
				name, text, prev, pkg.ErrInvalidParameter)
		}
		km[b] = k
	}
	return km, nil
}

func keyByte(text string) (byte, error) {
	switch text {
	case "enter":
		return '\r', nil
	case "space":
		return ' ', nil
	case "tab":
		return '\t', nil
	}
	if len(text) != 1 {
		return 0, fmt.Errorf("key %q: %w", text, pkg.ErrInvalidParameter)
	}
	return text[0], nil
}
