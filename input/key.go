package input

import "strings"

// Key identifies a logical cabinet input.
type Key uint8

// Logical keys. The names returned by [Key.String] are the binding names
// used in configuration files.
const (
	KeyTest Key = iota
	KeyService
	KeyCoin1
	KeyCoin2

	KeyGfP1Start
	KeyGfP1NeckR
	KeyGfP1NeckG
	KeyGfP1NeckB
	KeyGfP1Pick
	KeyGfP1Wail
	KeyGfP1EffectInc
	KeyGfP1EffectDec
	KeyGfP2Start
	KeyGfP2NeckR
	KeyGfP2NeckG
	KeyGfP2NeckB
	KeyGfP2Pick
	KeyGfP2Wail
	KeyGfP2EffectInc
	KeyGfP2EffectDec

	KeyDmStart
	KeyDmSelectL
	KeyDmSelectR
	KeyDmHihat
	KeyDmSnare
	KeyDmHighTom
	KeyDmLowTom
	KeyDmCymbal
	KeyDmBassDrum

	KeyDdrP1Start
	KeyDdrP1SelectL
	KeyDdrP1SelectR
	KeyDdrP1FootLeft
	KeyDdrP1FootDown
	KeyDdrP1FootUp
	KeyDdrP1FootRight
	KeyDdrP2Start
	KeyDdrP2SelectL
	KeyDdrP2SelectR
	KeyDdrP2FootLeft
	KeyDdrP2FootDown
	KeyDdrP2FootUp
	KeyDdrP2FootRight

	KeyThrillDriveStart
	KeyThrillDriveGearUp
	KeyThrillDriveGearDown
	KeyThrillDriveWheelLeft
	KeyThrillDriveWheelRight
	KeyThrillDriveWheelAnalog
	KeyThrillDriveAccel
	KeyThrillDriveAccelAnalog
	KeyThrillDriveBrake
	KeyThrillDriveBrakeAnalog
	KeyThrillDriveSeatbelt

	KeyToysMarchP1Start
	KeyToysMarchP1SelectL
	KeyToysMarchP1SelectR
	KeyToysMarchP1DrumL
	KeyToysMarchP1DrumR
	KeyToysMarchP1Cymbal
	KeyToysMarchP2Start
	KeyToysMarchP2SelectL
	KeyToysMarchP2SelectR
	KeyToysMarchP2DrumL
	KeyToysMarchP2DrumR
	KeyToysMarchP2Cymbal

	KeyKeypadP1_0
	KeyKeypadP1_1
	KeyKeypadP1_2
	KeyKeypadP1_3
	KeyKeypadP1_4
	KeyKeypadP1_5
	KeyKeypadP1_6
	KeyKeypadP1_7
	KeyKeypadP1_8
	KeyKeypadP1_9
	KeyKeypadP1_00
	KeyKeypadP1InsertEject
	KeyKeypadP2_0
	KeyKeypadP2_1
	KeyKeypadP2_2
	KeyKeypadP2_3
	KeyKeypadP2_4
	KeyKeypadP2_5
	KeyKeypadP2_6
	KeyKeypadP2_7
	KeyKeypadP2_8
	KeyKeypadP2_9
	KeyKeypadP2_00
	KeyKeypadP2InsertEject

	// KeyCount is the number of logical keys.
	KeyCount
)

var keyNames = [KeyCount]string{
	KeyTest:    "Test",
	KeyService: "Service",
	KeyCoin1:   "Coin1",
	KeyCoin2:   "Coin2",

	KeyGfP1Start:     "GfP1Start",
	KeyGfP1NeckR:     "GfP1NeckR",
	KeyGfP1NeckG:     "GfP1NeckG",
	KeyGfP1NeckB:     "GfP1NeckB",
	KeyGfP1Pick:      "GfP1Pick",
	KeyGfP1Wail:      "GfP1Wail",
	KeyGfP1EffectInc: "GfP1EffectInc",
	KeyGfP1EffectDec: "GfP1EffectDec",
	KeyGfP2Start:     "GfP2Start",
	KeyGfP2NeckR:     "GfP2NeckR",
	KeyGfP2NeckG:     "GfP2NeckG",
	KeyGfP2NeckB:     "GfP2NeckB",
	KeyGfP2Pick:      "GfP2Pick",
	KeyGfP2Wail:      "GfP2Wail",
	KeyGfP2EffectInc: "GfP2EffectInc",
	KeyGfP2EffectDec: "GfP2EffectDec",

	KeyDmStart:    "DmStart",
	KeyDmSelectL:  "DmSelectL",
	KeyDmSelectR:  "DmSelectR",
	KeyDmHihat:    "DmHihat",
	KeyDmSnare:    "DmSnare",
	KeyDmHighTom:  "DmHighTom",
	KeyDmLowTom:   "DmLowTom",
	KeyDmCymbal:   "DmCymbal",
	KeyDmBassDrum: "DmBassDrum",

	KeyDdrP1Start:     "DdrP1Start",
	KeyDdrP1SelectL:   "DdrP1SelectL",
	KeyDdrP1SelectR:   "DdrP1SelectR",
	KeyDdrP1FootLeft:  "DdrP1FootLeft",
	KeyDdrP1FootDown:  "DdrP1FootDown",
	KeyDdrP1FootUp:    "DdrP1FootUp",
	KeyDdrP1FootRight: "DdrP1FootRight",
	KeyDdrP2Start:     "DdrP2Start",
	KeyDdrP2SelectL:   "DdrP2SelectL",
	KeyDdrP2SelectR:   "DdrP2SelectR",
	KeyDdrP2FootLeft:  "DdrP2FootLeft",
	KeyDdrP2FootDown:  "DdrP2FootDown",
	KeyDdrP2FootUp:    "DdrP2FootUp",
	KeyDdrP2FootRight: "DdrP2FootRight",

	KeyThrillDriveStart:       "ThrillDriveStart",
	KeyThrillDriveGearUp:      "ThrillDriveGearUp",
	KeyThrillDriveGearDown:    "ThrillDriveGearDown",
	KeyThrillDriveWheelLeft:   "ThrillDriveWheelLeft",
	KeyThrillDriveWheelRight:  "ThrillDriveWheelRight",
	KeyThrillDriveWheelAnalog: "ThrillDriveWheelAnalog",
	KeyThrillDriveAccel:       "ThrillDriveAccel",
	KeyThrillDriveAccelAnalog: "ThrillDriveAccelAnalog",
	KeyThrillDriveBrake:       "ThrillDriveBrake",
	KeyThrillDriveBrakeAnalog: "ThrillDriveBrakeAnalog",
	KeyThrillDriveSeatbelt:    "ThrillDriveSeatbelt",

	KeyToysMarchP1Start:   "ToysMarchP1Start",
	KeyToysMarchP1SelectL: "ToysMarchP1SelectL",
	KeyToysMarchP1SelectR: "ToysMarchP1SelectR",
	KeyToysMarchP1DrumL:   "ToysMarchP1DrumL",
	KeyToysMarchP1DrumR:   "ToysMarchP1DrumR",
	KeyToysMarchP1Cymbal:  "ToysMarchP1Cymbal",
	KeyToysMarchP2Start:   "ToysMarchP2Start",
	KeyToysMarchP2SelectL: "ToysMarchP2SelectL",
	KeyToysMarchP2SelectR: "ToysMarchP2SelectR",
	KeyToysMarchP2DrumL:   "ToysMarchP2DrumL",
	KeyToysMarchP2DrumR:   "ToysMarchP2DrumR",
	KeyToysMarchP2Cymbal:  "ToysMarchP2Cymbal",

	KeyKeypadP1_0:          "KeypadP1_0",
	KeyKeypadP1_1:          "KeypadP1_1",
	KeyKeypadP1_2:          "KeypadP1_2",
	KeyKeypadP1_3:          "KeypadP1_3",
	KeyKeypadP1_4:          "KeypadP1_4",
	KeyKeypadP1_5:          "KeypadP1_5",
	KeyKeypadP1_6:          "KeypadP1_6",
	KeyKeypadP1_7:          "KeypadP1_7",
	KeyKeypadP1_8:          "KeypadP1_8",
	KeyKeypadP1_9:          "KeypadP1_9",
	KeyKeypadP1_00:         "KeypadP1_00",
	KeyKeypadP1InsertEject: "KeypadP1InsertEject",
	KeyKeypadP2_0:          "KeypadP2_0",
	KeyKeypadP2_1:          "KeypadP2_1",
	KeyKeypadP2_2:          "KeypadP2_2",
	KeyKeypadP2_3:          "KeypadP2_3",
	KeyKeypadP2_4:          "KeypadP2_4",
	KeyKeypadP2_5:          "KeypadP2_5",
	KeyKeypadP2_6:          "KeypadP2_6",
	KeyKeypadP2_7:          "KeypadP2_7",
	KeyKeypadP2_8:          "KeypadP2_8",
	KeyKeypadP2_9:          "KeypadP2_9",
	KeyKeypadP2_00:         "KeypadP2_00",
	KeyKeypadP2InsertEject: "KeypadP2InsertEject",
}

// String returns the binding name of k.
func (k Key) String() string {
	if k < KeyCount {
		return keyNames[k]
	}
	return "Unknown"
}

// IsAnalog reports whether k names an analog axis rather than a button.
func (k Key) IsAnalog() bool {
	switch k {
	case KeyThrillDriveWheelAnalog, KeyThrillDriveAccelAnalog, KeyThrillDriveBrakeAnalog:
		return true
	}
	return false
}

// ParseKey returns the key whose binding name matches name,
// ignoring case.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if strings.EqualFold(n, name) {
			return Key(k), true
		}
	}
	return KeyCount, false
}
