package scaled

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnscaleMantissaRange(t *testing.T) {
	values := []float64{
		1e-12, 4.7e-11, 2.2e-9, 1e-6, 0.00372, 0.02, 0.999,
		1, 3.3, 47, 999, 1000, 250_000, 1e6, 2.4e9, 9.99e11,
	}

	for _, v := range values {
		mantissa, scale := Unscale(v)
		assert.GreaterOrEqual(t, math.Abs(mantissa), 1.0, "value %g", v)
		assert.Less(t, math.Abs(mantissa), 1000.0, "value %g", v)
		assert.InEpsilon(t, v, scale.Apply(mantissa), 1e-12, "value %g", v)

		mantissa, _ = Unscale(-v)
		assert.Negative(t, mantissa, "value %g", -v)
	}
}

func TestUnscaleZero(t *testing.T) {
	mantissa, scale := Unscale(0)
	assert.Zero(t, mantissa)
	assert.Equal(t, None, scale)
}

func TestUnscaleScales(t *testing.T) {
	tests := []struct {
		in       float64
		mantissa float64
		scale    SiScale
	}{
		{3.3e-12, 3.3, Pico},
		{4.7e-9, 4.7, Nano},
		{500e-6, 500, Micro},
		{0.0201, 20.1, Milli},
		{2.5, 2.5, None},
		{1500, 1.5, Kilo},
		{250e6, 250, Mega},
		{1e9, 1, Giga},
	}

	for _, tt := range tests {
		mantissa, scale := Unscale(tt.in)
		assert.Equal(t, tt.scale, scale, "value %g", tt.in)
		assert.InEpsilon(t, tt.mantissa, mantissa, 1e-9, "value %g", tt.in)
	}
}

func TestParseScaled(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3.3", 3.3},
		{"-42", -42},
		{"500u", 500e-6},
		{"2.5k", 2500},
		{"2.5K", 2500},
		{"100m", 0.1},
		{"4.7n", 4.7e-9},
		{"12p", 12e-12},
		{"1M", 1e6},
		{"2G", 2e9},
		{"1.5 k", 1500},
	}

	for _, tt := range tests {
		got, err := ParseScaled(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.InEpsilon(t, tt.want, got, 1e-12, "input %q", tt.in)
	}
}

func TestParseScaledRejects(t *testing.T) {
	for _, in := range []string{"", "x", "3.3q", "k", "abc", "3..3k"} {
		_, err := ParseScaled(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	// format keeps roughly three significant decimals; the round trip must
	// stay within that precision across the supported magnitude range
	for _, v := range []float64{
		1e-12, 3.72e-3, 0.02, 1, 3.3, 47.1, 999, 1000, 2.5e6, 9.9e11,
	} {
		s := FormatWith(v, Options{Decimals: 3, ASCII: true})
		got, err := ParseScaled(s)
		require.NoError(t, err, "formatted %q", s)
		assert.InDelta(t, v, got, math.Abs(v)*1e-3+1e-15, "formatted %q", s)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.000"},
		{3.72e-3, "3.720m"},
		{0.02, "20.00m"},
		{1, "1.000"},
		{20.1, "20.10"},
		{372, "372.0"},
		{1500, "1.500k"},
		{-3.3, "-3.300"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWith(tt.in, Options{Decimals: 3, ASCII: true}), "value %g", tt.in)
	}
}

func TestFormatMicroModes(t *testing.T) {
	assert.Equal(t, "500.0µ", Format(500e-6))
	assert.Equal(t, "500.0u", FormatWith(500e-6, Options{Decimals: 3, ASCII: true}))
}

func TestFormatSign(t *testing.T) {
	assert.Equal(t, "+1.000", FormatWith(1, Options{Decimals: 3, Sign: true}))
	assert.Equal(t, "-1.000", FormatWith(-1, Options{Decimals: 3, Sign: true}))
}

func TestSiScaleForRune(t *testing.T) {
	for r, want := range map[rune]SiScale{
		'p': Pico, 'n': Nano, 'u': Micro, 'm': Milli,
		'k': Kilo, 'K': Kilo, 'M': Mega, 'G': Giga,
	} {
		got, ok := SiScaleForRune(r)
		require.True(t, ok, "rune %q", r)
		assert.Equal(t, want, got, "rune %q", r)
	}

	_, ok := SiScaleForRune('q')
	assert.False(t, ok)
}
