package p2io

import (
	"fmt"
	"os"

	"github.com/ardnew/softp2io/device/class/p2io/peripheral"
	"github.com/ardnew/softp2io/pkg"
)

// Config holds the per-game board configuration.
type Config struct {
	// GameType selects the sub-devices and the input mapping.
	GameType GameType

	// DipSwitch is four ASCII '0'/'1' characters, switch 1 first.
	DipSwitch string

	// Force31kHz reports a 31 kHz monitor to GET_AV_REPORT.
	Force31kHz bool

	// DonglePaths are the black (slot 0) and white (slot 1) dongle images.
	// An empty path leaves the slot unloaded.
	DonglePaths [2]string

	// Cards are the card IDs presented by each player's card reader.
	// A nil entry leaves the reader empty.
	Cards [2]*[peripheral.CardIDSize]byte

	// OneShotInterval is the number of JAMMA polls between evaluations of
	// one-shot inputs. Zero selects DefaultOneShotInterval.
	OneShotInterval int
}

// DefaultConfig returns the configuration of a generic board with every
// DIP switch off.
func DefaultConfig() Config {
	return Config{
		GameType:        GameGeneric,
		DipSwitch:       "0000",
		OneShotInterval: DefaultOneShotInterval,
	}
}

// Validate checks the configuration for values the board cannot represent.
func (c *Config) Validate() error {
	if !c.GameType.Valid() {
		return fmt.Errorf("game type %d: %w", c.GameType, pkg.ErrUnknownGame)
	}
	if len(c.DipSwitch) > 4 {
		return fmt.Errorf("dip switch %q: %w", c.DipSwitch, pkg.ErrInvalidParameter)
	}
	for _, r := range c.DipSwitch {
		if r != '0' && r != '1' {
			return fmt.Errorf("dip switch %q: %w", c.DipSwitch, pkg.ErrInvalidParameter)
		}
	}
	if c.OneShotInterval < 0 || c.OneShotInterval > 0xFFFF {
		return fmt.Errorf("one-shot interval %d: %w", c.OneShotInterval, pkg.ErrInvalidParameter)
	}
	return nil
}

// LoadDongle reads a raw dongle image. Files shorter than DongleSize are
// zero-padded; longer files are truncated.
func LoadDongle(path string) ([DongleSize]byte, error) {
	var payload [DongleSize]byte
	data, err := os.ReadFile(path)
	if err != nil {
		return payload, fmt.Errorf("read dongle: %w", err)
	}
	if len(data) > DongleSize {
		pkg.LogWarn(pkg.ComponentBoard, "dongle image truncated", "path", path, "size", len(data))
	}
	copy(payload[:], data)
	return payload, nil
}
