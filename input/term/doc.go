// Package term is a keyboard input backend that reads a raw-mode terminal.
//
// Terminals deliver keystrokes and auto-repeat but no key releases, so a
// key is held from its first keystroke until [DefaultHold] (or the
// configured hold time) passes without another one.
package term
