package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/softp2io/device/class/p2io"
	"github.com/ardnew/softp2io/input"
	"github.com/ardnew/softp2io/pkg"
)

const sample = `
[ddr-extreme]
Name = DDR Extreme
InputType = ddr
DipSwitch = 0100
Force31kHz = true
DongleBlackPath = black.bin
OneShotInterval = 4

[gf]
InputType = 2
DongleWhitePath = /abs/white.bin

[notes]
Comment = not a game

[Keybinds]
DdrP1FootLeft = a
Coin1 = space
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestGames(t *testing.T) {
	f, err := Parse([]byte(sample), "/cfg")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := f.Games()
	want := []string{"DDR Extreme", "gf"}
	if !slices.Equal(got, want) {
		t.Errorf("Games() = %v, want %v", got, want)
	}
}

func TestGame(t *testing.T) {
	f, err := Parse([]byte(sample), "/cfg")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name     string
		game     p2io.GameType
		dip      string
		force    bool
		interval int
		dongles  [2]string
	}{
		{"ddr extreme", p2io.GameDDR, "0100", true, 4, [2]string{filepath.Join("/cfg", "black.bin"), ""}},
		{"ddr-extreme", p2io.GameDDR, "0100", true, 4, [2]string{filepath.Join("/cfg", "black.bin"), ""}},
		{"gf", p2io.GameGuitarFreaks, "0000", false, p2io.DefaultOneShotInterval, [2]string{"", "/abs/white.bin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := f.Game(tt.name)
			if err != nil {
				t.Fatalf("Game() error = %v", err)
			}
			if cfg.GameType != tt.game {
				t.Errorf("GameType = %v, want %v", cfg.GameType, tt.game)
			}
			if cfg.DipSwitch != tt.dip {
				t.Errorf("DipSwitch = %q, want %q", cfg.DipSwitch, tt.dip)
			}
			if cfg.Force31kHz != tt.force {
				t.Errorf("Force31kHz = %v, want %v", cfg.Force31kHz, tt.force)
			}
			if cfg.OneShotInterval != tt.interval {
				t.Errorf("OneShotInterval = %d, want %d", cfg.OneShotInterval, tt.interval)
			}
			if cfg.DonglePaths != tt.dongles {
				t.Errorf("DonglePaths = %q, want %q", cfg.DonglePaths, tt.dongles)
			}
		})
	}
}

func TestGameErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		game string
		want error
	}{
		{"missing", sample, "popn", ErrNoGame},
		{"not a game", sample, "notes", ErrNoGame},
		{"unknown type", "[x]\nInputType = pinball\n", "x", pkg.ErrUnknownGame},
		{"bad dip", "[x]\nInputType = ddr\nDipSwitch = 0120\n", "x", pkg.ErrInvalidParameter},
		{"bad bool", "[x]\nInputType = ddr\nForce31kHz = maybe\n", "x", pkg.ErrInvalidParameter},
		{"bad interval", "[x]\nInputType = ddr\nOneShotInterval = fast\n", "x", pkg.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.text), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := f.Game(tt.game); !errors.Is(err, tt.want) {
				t.Errorf("Game() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadCards(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.txt", "E004010203040506\n")
	path := writeFile(t, dir, "game.ini", "[tm]\nInputType = toysmarch\n\n[CardReader]\nPlayer1Card = p1.txt\n")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg, err := f.Game("tm")
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}
	if cfg.Cards[0] == nil {
		t.Fatal("Cards[0] = nil, want card")
	}
	want := [8]byte{0xE0, 0x04, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	if *cfg.Cards[0] != want {
		t.Errorf("Cards[0] = % X, want % X", *cfg.Cards[0], want)
	}
	if cfg.Cards[1] != nil {
		t.Errorf("Cards[1] = % X, want nil", *cfg.Cards[1])
	}
}

func TestLoadCardErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", "xyz")
	path := writeFile(t, dir, "game.ini", "[CardReader]\nPlayer2Card = bad.txt\n")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := f.Cards(); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Cards() error = %v, want %v", err, pkg.ErrInvalidParameter)
	}

	path = writeFile(t, dir, "missing.ini", "[CardReader]\nPlayer1Card = nope.txt\n")
	if f, err = Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := f.Cards(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Cards() error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.ini")); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestKeymap(t *testing.T) {
	f, err := Parse([]byte(sample), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	km, err := f.Keymap()
	if err != nil {
		t.Fatalf("Keymap() error = %v", err)
	}
	if got := km['a']; got != input.KeyDdrP1FootLeft {
		t.Errorf("Keymap()['a'] = %v, want %v", got, input.KeyDdrP1FootLeft)
	}
	if got := km[' ']; got != input.KeyCoin1 {
		t.Errorf("Keymap()[' '] = %v, want %v", got, input.KeyCoin1)
	}

	f, _ = Parse([]byte("[x]\nInputType = ddr\n"), "")
	if km, err = f.Keymap(); err != nil || len(km) == 0 {
		t.Errorf("Keymap() = %d bindings, %v, want defaults", len(km), err)
	}

	f, _ = Parse([]byte("[Keybinds]\nNoSuchKey = a\n"), "")
	if _, err := f.Keymap(); err == nil {
		t.Error("Keymap() error = nil, want error")
	}
}
