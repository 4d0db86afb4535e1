// Package config reads board configuration files.
//
// A configuration file is an INI file with one section per game entry and
// two reserved sections:
//
//	[ddr-extreme]
//	Name = DDR Extreme
//	InputType = ddr
//	DipSwitch = 0000
//	Force31kHz = false
//	DongleBlackPath = dongles/black.bin
//	DongleWhitePath = dongles/white.bin
//	OneShotInterval = 10
//
//	[CardReader]
//	Player1Card = cards/p1.txt
//
//	[Keybinds]
//	DdrP1FootLeft = a
//	DdrP1Start = enter
//
// InputType accepts a game name or its number. Relative paths resolve
// against the directory of the configuration file.
package config
