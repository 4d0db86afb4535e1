package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/ardnew/softp2io/device/class/p2io"
	"github.com/ardnew/softp2io/device/class/p2io/peripheral"
	"github.com/ardnew/softp2io/input/term"
	"github.com/ardnew/softp2io/pkg"
)

// Reserved section names.
const (
	SectionCardReader = "CardReader"
	SectionKeybinds   = "Keybinds"
)

// Game section keys.
const (
	KeyName            = "Name"
	KeyInputType       = "InputType"
	KeyDipSwitch       = "DipSwitch"
	KeyForce31kHz      = "Force31kHz"
	KeyDongleBlackPath = "DongleBlackPath"
	KeyDongleWhitePath = "DongleWhitePath"
	KeyOneShotInterval = "OneShotInterval"
)

// Card reader keys.
var cardKeys = [2]string{"Player1Card", "Player2Card"}

// ErrNoGame is returned when a game entry does not exist.
var ErrNoGame = errors.New("config: no such game")

// File is a parsed board configuration file.
type File struct {
	ini *ini.File
	dir string
}

// Load reads and parses the configuration file at path. Relative paths in
// the file are resolved against its directory.
func Load(path string) (*File, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pkg.LogDebug(pkg.ComponentConfig, "loaded", "path", path, "sections", len(f.Sections()))
	return &File{ini: f, dir: filepath.Dir(path)}, nil
}

// Parse parses configuration text. Relative paths resolve against dir.
func Parse(data []byte, dir string) (*File, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &File{ini: f, dir: dir}, nil
}

// isGame reports whether sec describes a game entry.
func isGame(sec *ini.Section) bool {
	switch sec.Name() {
	case ini.DefaultSection, SectionCardReader, SectionKeybinds:
		return false
	}
	return sec.HasKey(KeyInputType)
}

// gameName returns the display name of a game section.
func gameName(sec *ini.Section) string {
	if name := sec.Key(KeyName).String(); name != "" {
		return name
	}
	return sec.Name()
}

// Games lists the names of the game entries in file order.
func (f *File) Games() []string {
	var names []string
	for _, sec := range f.ini.Sections() {
		if isGame(sec) {
			names = append(names, gameName(sec))
		}
	}
	return names
}

// Game returns the board configuration of the game entry whose section or
// Name matches name, ignoring case. Card IDs come from the CardReader
// section.
func (f *File) Game(name string) (p2io.Config, error) {
	for _, sec := range f.ini.Sections() {
		if !isGame(sec) {
			continue
		}
		if strings.EqualFold(sec.Name(), name) || strings.EqualFold(gameName(sec), name) {
			return f.gameConfig(sec)
		}
	}
	return p2io.Config{}, fmt.Errorf("game %q: %w", name, ErrNoGame)
}

func (f *File) gameConfig(sec *ini.Section) (p2io.Config, error) {
	cfg := p2io.DefaultConfig()

	game, err := p2io.ParseGameType(sec.Key(KeyInputType).String())
	if err != nil {
		return cfg, fmt.Errorf("[%s] %s: %w", sec.Name(), KeyInputType, err)
	}
	cfg.GameType = game

	if sec.HasKey(KeyDipSwitch) {
		cfg.DipSwitch = sec.Key(KeyDipSwitch).String()
	}
	if sec.HasKey(KeyForce31kHz) {
		if cfg.Force31kHz, err = sec.Key(KeyForce31kHz).Bool(); err != nil {
			return cfg, fmt.Errorf("[%s] %s: %w", sec.Name(), KeyForce31kHz, pkg.ErrInvalidParameter)
		}
	}
	if sec.HasKey(KeyOneShotInterval) {
		if cfg.OneShotInterval, err = sec.Key(KeyOneShotInterval).Int(); err != nil {
			return cfg, fmt.Errorf("[%s] %s: %w", sec.Name(), KeyOneShotInterval, pkg.ErrInvalidParameter)
		}
	}
	cfg.DonglePaths[0] = f.path(sec.Key(KeyDongleBlackPath).String())
	cfg.DonglePaths[1] = f.path(sec.Key(KeyDongleWhitePath).String())

	if cfg.Cards, err = f.Cards(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("[%s]: %w", sec.Name(), err)
	}
	return cfg, nil
}

// path resolves a path from the file against the file's directory.
func (f *File) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.dir, p)
}

// Cards reads the card ID files named in the CardReader section. A player
// without a card file gets a nil entry.
func (f *File) Cards() ([2]*[peripheral.CardIDSize]byte, error) {
	var cards [2]*[peripheral.CardIDSize]byte
	sec, err := f.ini.GetSection(SectionCardReader)
	if err != nil {
		return cards, nil
	}
	for i, key := range cardKeys {
		p := f.path(sec.Key(key).String())
		if p == "" {
			continue
		}
		text, err := os.ReadFile(p)
		if err != nil {
			return cards, fmt.Errorf("[%s] %s: %w", SectionCardReader, key, err)
		}
		id, err := peripheral.ParseCardID(string(text))
		if err != nil {
			return cards, fmt.Errorf("[%s] %s: %w", SectionCardReader, key, err)
		}
		cards[i] = &id
	}
	return cards, nil
}

// Keymap returns the terminal bindings of the Keybinds section, or the
// default keymap when the section is absent.
func (f *File) Keymap() (term.Keymap, error) {
	sec, err := f.ini.GetSection(SectionKeybinds)
	if err != nil {
		return term.DefaultKeymap(), nil
	}
	km, err := term.ParseKeymap(sec.KeysHash())
	if err != nil {
		return nil, fmt.Errorf("[%s]: %w", SectionKeybinds, err)
	}
	return km, nil
}
