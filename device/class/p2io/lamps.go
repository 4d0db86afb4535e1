package p2io

import "strings"

// Lamps is a set of cabinet lamps driven through LAMP_OUT.
type Lamps uint16

// Cabinet lamps.
const (
	LampMarqueeUpperLeft Lamps = 1 << iota
	LampMarqueeLowerLeft
	LampMarqueeUpperRight
	LampMarqueeLowerRight
	LampP1Panel
	LampP2Panel

	lampCount = iota
)

var lampNames = [lampCount]string{
	"marquee-ul", "marquee-ll", "marquee-ur", "marquee-lr", "p1-panel", "p2-panel",
}

// String lists the lit lamps separated by '|', or "none".
func (l Lamps) String() string {
	var names []string
	for i, name := range lampNames {
		if l&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// lampBit maps one lamp to its bit in the LAMP_OUT pattern byte. The
// pattern is active-low: the lamp is lit when the bit is clear.
type lampBit struct {
	lamp Lamps
	mask byte
}

// lampTables holds the LAMP_OUT decoding of each game. Games without an
// entry acknowledge LAMP_OUT without driving any lamp.
var lampTables = map[GameType][]lampBit{
	GameDDR: {
		{LampMarqueeUpperLeft, 0x80},
		{LampMarqueeLowerLeft, 0x40},
		{LampMarqueeUpperRight, 0x20},
		{LampMarqueeLowerRight, 0x10},
		{LampP1Panel, 0x01},
		{LampP2Panel, 0x02},
	},
}

// decodeLamps returns the lamps lit by pattern for game.
func decodeLamps(game GameType, pattern byte) Lamps {
	var lit Lamps
	for _, lb := range lampTables[game] {
		if pattern&lb.mask == 0 {
			lit |= lb.lamp
		}
	}
	return lit
}

// allLamps returns every lamp driven by game.
func allLamps(game GameType) Lamps {
	var all Lamps
	for _, lb := range lampTables[game] {
		all |= lb.lamp
	}
	return all
}
