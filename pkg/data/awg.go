package data

import (
	"fmt"

	"github.com/RMahshie/hdscope/pkg/units"
)

// AwgMode is the generator waveform shape. Several variants are accepted by
// the firmware on write but never reported back: the readout collapses
// everything past AmpALT into AmpALT. They stay in the table so configs
// using them survive a round trip through the command encoder.
type AwgMode int

const (
	AwgSine AwgMode = iota
	AwgSquare
	AwgRamp
	AwgPulse
	AwgAmpAlt
	AwgAttAlt
	AwgStairDown
	AwgStairUpDown
	AwgStairUp
	AwgBesselJ
	AwgBesselY
	AwgSinc
)

var awgModeNames = [...]string{
	AwgSine:        "SINE",
	AwgSquare:      "SQUare",
	AwgRamp:        "RAMP",
	AwgPulse:       "PULSe",
	AwgAmpAlt:      "AmpALT",
	AwgAttAlt:      "AttALT",
	AwgStairDown:   "StairDn",
	AwgStairUpDown: "StairUD",
	AwgStairUp:     "StairUp",
	AwgBesselJ:     "Besselj",
	AwgBesselY:     "Bessely",
	AwgSinc:        "Sinc",
}

// AwgModes lists every mode in wire order.
var AwgModes = [...]AwgMode{
	AwgSine, AwgSquare, AwgRamp, AwgPulse, AwgAmpAlt, AwgAttAlt,
	AwgStairDown, AwgStairUpDown, AwgStairUp, AwgBesselJ, AwgBesselY, AwgSinc,
}

func (m AwgMode) String() string {
	if m < 0 || int(m) >= len(awgModeNames) {
		return "SINE"
	}
	return awgModeNames[m]
}

// ParseAwgMode maps a wire string to its mode. Unknown strings are errors.
func ParseAwgMode(s string) (AwgMode, error) {
	for i, name := range awgModeNames {
		if s == name {
			return AwgMode(i), nil
		}
	}
	return 0, fmt.Errorf("data: unknown AWG mode %q", s)
}

// ParseAwgDisplay maps the generator channel state ("ON"/"OFF") to a bool.
func ParseAwgDisplay(s string) (bool, error) {
	switch s {
	case "ON":
		return true, nil
	case "OFF":
		return false, nil
	}
	return false, fmt.Errorf("data: unknown AWG channel state %q", s)
}

// FormatAwgDisplay is the inverse of ParseAwgDisplay.
func FormatAwgDisplay(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

// AwgConfig is a snapshot of the arbitrary waveform generator.
type AwgConfig struct {
	Enabled   bool
	Mode      AwgMode
	Frequency units.Frequency
	Amplitude units.Voltage
	Offset    units.Voltage
}

// DefaultAwgConfig mirrors the generator's power-on state.
func DefaultAwgConfig() AwgConfig {
	return AwgConfig{
		Mode:      AwgSine,
		Frequency: 1_000_000,
		Amplitude: 1,
	}
}
