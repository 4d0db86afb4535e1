package acio

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"empty", nil, nil},
		{"plain", []byte{0x01, 0x02, 0x7f}, []byte{0x01, 0x02, 0x7f}},
		{"sync", []byte{0xAA}, []byte{0xFF, 0x55}},
		{"escape", []byte{0xFF}, []byte{0xFF, 0x00}},
		{"mixed", []byte{0x10, 0xAA, 0xFF, 0x20}, []byte{0x10, 0xFF, 0x55, 0xFF, 0x00, 0x20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(nil, tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Escape(% X) = % X, want % X", tt.in, got, tt.want)
			}
			if n := EscapedLen(tt.in); n != len(tt.want) {
				t.Errorf("EscapedLen(% X) = %d, want %d", tt.in, n, len(tt.want))
			}
			if bytes.IndexByte(got, Sync) >= 0 {
				t.Errorf("Escape(% X) contains sync byte", tt.in)
			}
		})
	}
}

func TestUnescapeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7305))
	for i := 0; i < 500; i++ {
		in := make([]byte, rng.Intn(96))
		for j := range in {
			// Bias towards the reserved values.
			switch rng.Intn(4) {
			case 0:
				in[j] = Sync
			case 1:
				in[j] = EscapeByte
			default:
				in[j] = byte(rng.Intn(256))
			}
		}
		got := Unescape(nil, Escape(nil, in))
		if !bytes.Equal(got, in) {
			t.Fatalf("Unescape(Escape(% X)) = % X", in, got)
		}
	}
}

func TestUnescapeTruncated(t *testing.T) {
	got := Unescape(nil, []byte{0x01, 0xFF})
	if want := []byte{0x01}; !bytes.Equal(got, want) {
		t.Errorf("Unescape(truncated) = % X, want % X", got, want)
	}
}

func TestUnescaperSplit(t *testing.T) {
	in := []byte{0x05, 0xAA, 0x01, 0xFF, 0xFF, 0x30}
	wire := Escape(nil, in)

	for split := 0; split <= len(wire); split++ {
		var u Unescaper
		got := u.Append(nil, wire[:split])
		got = u.Append(got, wire[split:])
		if !bytes.Equal(got, in) {
			t.Errorf("split at %d: got % X, want % X", split, got, in)
		}
		if u.Pending() {
			t.Errorf("split at %d: Pending() = true after complete input", split)
		}
	}
}

func TestUnescaperPending(t *testing.T) {
	var u Unescaper
	if got := u.Append(nil, []byte{0x01, EscapeByte}); !bytes.Equal(got, []byte{0x01}) {
		t.Fatalf("Append() = % X, want 01", got)
	}
	if !u.Pending() {
		t.Fatal("Pending() = false, want true")
	}
	u.Reset()
	if u.Pending() {
		t.Error("Pending() after Reset = true, want false")
	}
	u.SetPending(true)
	if got := u.Append(nil, []byte{0x55}); !bytes.Equal(got, []byte{0xAA}) {
		t.Errorf("Append() after SetPending = % X, want AA", got)
	}
}
