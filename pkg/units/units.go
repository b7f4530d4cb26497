// Package units defines the typed quantities exchanged with the instrument.
// Every parse requires the exact unit suffix the firmware emits; a missing
// suffix is an error, never a default.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/hdscope/pkg/scaled"
)

// Frequency is a frequency in hertz.
type Frequency float64

// ParseFrequency parses a value with a trailing "Hz" suffix.
func ParseFrequency(s string) (Frequency, error) {
	num, ok := strings.CutSuffix(s, "Hz")
	if !ok {
		return 0, fmt.Errorf("units: %q is not a frequency", s)
	}
	v, err := scaled.ParseScaled(num)
	if err != nil {
		return 0, fmt.Errorf("units: invalid frequency %q: %w", s, err)
	}
	return Frequency(v), nil
}

func (f Frequency) String() string {
	return scaled.Format(float64(f)) + "Hz"
}

// UnmarshalText implements encoding.TextUnmarshaler for header decoding.
func (f *Frequency) UnmarshalText(b []byte) error {
	v, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// SamplingRate is a sampling rate in samples per second.
type SamplingRate float64

// ParseSamplingRate parses a value with a trailing "Sa/s" suffix.
func ParseSamplingRate(s string) (SamplingRate, error) {
	num, ok := strings.CutSuffix(s, "Sa/s")
	if !ok {
		return 0, fmt.Errorf("units: %q is not a sampling rate", s)
	}
	v, err := scaled.ParseScaled(num)
	if err != nil {
		return 0, fmt.Errorf("units: invalid sampling rate %q: %w", s, err)
	}
	return SamplingRate(v), nil
}

func (r SamplingRate) String() string {
	return scaled.Format(float64(r)) + "Sa/s"
}

func (r *SamplingRate) UnmarshalText(b []byte) error {
	v, err := ParseSamplingRate(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Time is a duration in seconds, typically one of the fixed time bases.
type Time float64

// ParseTime parses a value with a trailing "s" suffix.
func ParseTime(s string) (Time, error) {
	num, ok := strings.CutSuffix(s, "s")
	if !ok {
		return 0, fmt.Errorf("units: %q is not a time value", s)
	}
	v, err := scaled.ParseScaled(num)
	if err != nil {
		return 0, fmt.Errorf("units: invalid time value %q: %w", s, err)
	}
	return Time(v), nil
}

// String renders the time base the way the firmware prints it: values of a
// second or more stay unscaled with no decimals, smaller values switch to SI
// notation, and mantissas below ten are padded to one decimal.
func (t Time) String() string {
	return t.format(false)
}

// ASCII is String with "u" instead of "µ", for use in commands.
func (t Time) ASCII() string {
	return t.format(true)
}

func (t Time) format(ascii bool) string {
	val := float64(t)
	sc := scaled.None
	if math.Abs(val) < 1 {
		val, sc = scaled.Unscale(val)
	}

	out := strconv.FormatFloat(val, 'f', 0, 64)
	if math.Abs(val) < 10 {
		out += ".0"
	}

	if ascii {
		return out + sc.ASCII() + "s"
	}
	return out + sc.String() + "s"
}

func (t *Time) UnmarshalText(b []byte) error {
	v, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Voltage is a voltage in volts.
type Voltage float64

// ParseVoltage parses a value with a trailing "V" or "v" suffix. Whitespace
// between the number and the suffix is tolerated; some firmware revisions
// (HDS272S among them) pad the value.
func ParseVoltage(s string) (Voltage, error) {
	num, ok := strings.CutSuffix(s, "V")
	if !ok {
		num, ok = strings.CutSuffix(s, "v")
	}
	if !ok {
		return 0, fmt.Errorf("units: %q is not a voltage", s)
	}
	v, err := scaled.ParseScaled(strings.TrimSpace(num))
	if err != nil {
		return 0, fmt.Errorf("units: invalid voltage %q: %w", s, err)
	}
	return Voltage(v), nil
}

func (v Voltage) String() string {
	return scaled.Format(float64(v)) + "V"
}

func (v *Voltage) UnmarshalText(b []byte) error {
	parsed, err := ParseVoltage(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ProbeAttenuation is the probe's attenuation multiplier (1X, 10X, ...).
type ProbeAttenuation uint32

// DefaultProbeAttenuation matches the instrument's power-on setting.
const DefaultProbeAttenuation ProbeAttenuation = 10

// ParseProbeAttenuation parses a positive integer with a trailing "X" or "x".
func ParseProbeAttenuation(s string) (ProbeAttenuation, error) {
	num, ok := strings.CutSuffix(s, "X")
	if !ok {
		num, ok = strings.CutSuffix(s, "x")
	}
	if !ok {
		return 0, fmt.Errorf("units: %q is not an attenuation factor", s)
	}
	v, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("units: invalid attenuation factor %q", s)
	}
	return ProbeAttenuation(v), nil
}

func (p ProbeAttenuation) String() string {
	return strconv.FormatUint(uint64(p), 10) + "X"
}

func (p *ProbeAttenuation) UnmarshalText(b []byte) error {
	v, err := ParseProbeAttenuation(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
