// Package scaled converts between raw floats and SI-prefixed engineering
// notation as used in the instrument's command dialect (e.g. "500u", "2.5k").
package scaled

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SiScale is an SI magnitude prefix, stored as its power-of-ten exponent.
// Only multiples of three between pico and giga exist.
type SiScale int8

const (
	Pico  SiScale = -12
	Nano  SiScale = -9
	Micro SiScale = -6
	Milli SiScale = -3
	None  SiScale = 0
	Kilo  SiScale = 3
	Mega  SiScale = 6
	Giga  SiScale = 9
)

// SiScaleForRune maps an SI suffix character to its scale. Both 'k' and 'K'
// are accepted; mega and giga are case sensitive on the wire.
func SiScaleForRune(r rune) (SiScale, bool) {
	switch r {
	case 'p':
		return Pico, true
	case 'n':
		return Nano, true
	case 'u':
		return Micro, true
	case 'm':
		return Milli, true
	case 'k', 'K':
		return Kilo, true
	case 'M':
		return Mega, true
	case 'G':
		return Giga, true
	}
	return None, false
}

// String renders the prefix with the typographic micro sign. None renders
// as the empty string.
func (s SiScale) String() string {
	if s == Micro {
		return "µ"
	}
	return s.ASCII()
}

// ASCII renders the prefix using "u" for micro, as required on the wire.
func (s SiScale) ASCII() string {
	switch s {
	case Pico:
		return "p"
	case Nano:
		return "n"
	case Micro:
		return "u"
	case Milli:
		return "m"
	case None:
		return ""
	case Kilo:
		return "k"
	case Mega:
		return "M"
	case Giga:
		return "G"
	}
	return ""
}

// Apply multiplies an unscaled mantissa back up to its raw value.
func (s SiScale) Apply(unscaled float64) float64 {
	return unscaled * math.Pow(10, float64(s))
}

// Unscale splits x into a mantissa in [1, 1000) and the matching SI scale.
// Zero maps to (0, None).
func Unscale(x float64) (float64, SiScale) {
	if x == 0 {
		return 0, None
	}

	sign := math.Copysign(1, x)
	abs := math.Abs(x)

	exp := int(math.Floor(math.Log10(abs)/3) * 3)
	if exp < int(Pico) {
		exp = int(Pico)
	}
	if exp > int(Giga) {
		exp = int(Giga)
	}
	return sign * abs * math.Pow(10, -float64(exp)), SiScale(exp)
}

// ParseScaled parses a mantissa with an optional trailing SI suffix. A final
// digit means the value is unscaled; any other final character must be a
// known suffix.
func ParseScaled(s string) (float64, error) {
	last, size := utf8.DecodeLastRuneInString(s)
	if last == utf8.RuneError && size <= 1 {
		return 0, fmt.Errorf("scaled: empty or invalid input %q", s)
	}

	if unicode.IsDigit(last) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("scaled: invalid number %q", s)
		}
		return v, nil
	}

	scale, ok := SiScaleForRune(last)
	if !ok {
		return 0, fmt.Errorf("scaled: unknown SI suffix %q in %q", last, s)
	}

	mantissa := strings.TrimRight(s[:len(s)-size], " \t")
	v, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		return 0, fmt.Errorf("scaled: invalid mantissa %q in %q", mantissa, s)
	}
	return scale.Apply(v), nil
}

// Options controls Format output.
type Options struct {
	// Decimals is the decimal budget for a one-digit mantissa; larger
	// mantissas spend fewer decimals so the digit count stays constant.
	Decimals int
	// ASCII selects "u" over "µ" for micro.
	ASCII bool
	// Sign forces an explicit leading + on positive values.
	Sign bool
}

// Format renders x as a scaled number with roughly three significant
// decimals, e.g. 0.00372 -> "3.720m".
func Format(x float64) string {
	return FormatWith(x, Options{Decimals: 3})
}

// FormatWith renders x as a scaled number under the given options.
func FormatWith(x float64, o Options) string {
	mantissa, scale := Unscale(x)

	out := FormatDynamic(mantissa, o.Decimals, o.Sign)
	if o.ASCII {
		return out + scale.ASCII()
	}
	return out + scale.String()
}

// FormatDynamic formats x with decimals decreasing as the integer part
// grows, keeping the overall digit count steady.
func FormatDynamic(x float64, decimals int, sign bool) string {
	abs := math.Abs(x)

	prec := decimals
	if abs != 0 {
		if mag := int(math.Max(math.Floor(math.Log10(abs)), 0)); mag < decimals {
			prec = decimals - mag
		} else {
			prec = 0
		}
	}

	if sign {
		return fmt.Sprintf("%+.*f", prec, x)
	}
	return strconv.FormatFloat(x, 'f', prec, 64)
}
