package data

import (
	"fmt"
	"strings"

	"github.com/RMahshie/hdscope/pkg/scaled"
)

// Measurements is one channel's worth of automatic measurement readings.
// Nil means the instrument had no reading (it answered "?" or "OFF").
// Frequency and trough width are never transmitted; they derive from period
// and peak width.
type Measurements struct {
	PeakToPeak *float64
	Amplitude  *float64
	Average    *float64
	Period     *float64
	RiseTime   *float64
	PeakWidth  *float64
}

// Frequency derives 1/period; absent when period is absent.
func (m *Measurements) Frequency() *float64 {
	if m.Period == nil {
		return nil
	}
	f := 1 / *m.Period
	return &f
}

// TroughWidth derives period minus peak width; absent when either is.
func (m *Measurements) TroughWidth() *float64 {
	if m.Period == nil || m.PeakWidth == nil {
		return nil
	}
	w := *m.Period - *m.PeakWidth
	return &w
}

type measurementField struct {
	prefix string
	unit   string
	slot   func(*Measurements) **float64
}

// Response lines look like "Vpp=3.720V\n". The average-voltage prefix is a
// bare "V", which is unambiguous because the prefix includes the '='.
var measurementFields = []measurementField{
	{"Vpp=", "V", func(m *Measurements) **float64 { return &m.PeakToPeak }},
	{"Va=", "V", func(m *Measurements) **float64 { return &m.Amplitude }},
	{"V=", "V", func(m *Measurements) **float64 { return &m.Average }},
	{"T=", "s", func(m *Measurements) **float64 { return &m.Period }},
	{"RT=", "s", func(m *Measurements) **float64 { return &m.RiseTime }},
	{"PW=", "s", func(m *Measurements) **float64 { return &m.PeakWidth }},
}

// ApplyLine feeds one measurement response line into the field parsers. A
// line matches at most one field; lines matching none are ignored. "?" and
// "OFF" values clear the field. A matching line with an unparseable value
// is an error.
func (m *Measurements) ApplyLine(line string) error {
	for _, f := range measurementFields {
		rest, ok := strings.CutPrefix(line, f.prefix)
		if !ok {
			continue
		}

		slot := f.slot(m)
		if strings.HasSuffix(rest, "?\n") || strings.HasSuffix(rest, "OFF\n") {
			*slot = nil
			return nil
		}

		num, ok := strings.CutSuffix(rest, f.unit+"\n")
		if !ok {
			return fmt.Errorf("data: measurement %q missing %q suffix", line, f.unit)
		}
		v, err := scaled.ParseScaled(num)
		if err != nil {
			return fmt.Errorf("data: measurement %q: %w", line, err)
		}
		*slot = &v
		return nil
	}
	return nil
}

// String renders the readings compactly for logs, derived values included.
func (m *Measurements) String() string {
	var b strings.Builder
	field := func(name, unit string, v *float64) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		if v != nil {
			b.WriteString(scaled.Format(*v))
			b.WriteString(unit)
		}
	}

	field("Vpp", "V", m.PeakToPeak)
	field("Va", "V", m.Amplitude)
	field("F", "Hz", m.Frequency())
	field("T", "s", m.Period)
	field("RT", "s", m.RiseTime)
	field("PW", "s", m.PeakWidth)
	field("NW", "s", m.TroughWidth())
	field("Vavg", "V", m.Average)
	return b.String()
}

// MeasurementQueries returns the fixed set of measurement queries for one
// channel, in the order they are issued.
func MeasurementQueries(ch Channel) [][]byte {
	if ch == Ch2 {
		return [][]byte{
			[]byte(":MEAS:CH2:PKPK?"),
			[]byte(":MEAS:CH2:VAMP?"),
			[]byte(":MEAS:CH2:AVER?"),
			[]byte(":MEAS:CH2:PER?"),
			[]byte(":MEAS:CH2:RT?"),
			[]byte(":MEAS:CH2:PWID?"),
		}
	}
	return [][]byte{
		[]byte(":MEAS:CH1:PKPK?"),
		[]byte(":MEAS:CH1:VAMP?"),
		[]byte(":MEAS:CH1:AVER?"),
		[]byte(":MEAS:CH1:PER?"),
		[]byte(":MEAS:CH1:RT?"),
		[]byte(":MEAS:CH1:PWID?"),
	}
}
