package data

import "github.com/RMahshie/hdscope/pkg/units"

// Grid geometry. One grid division spans 25 vertical sample units; the
// visible screen is 12 divisions wide.
const (
	GridDivSizeInt            = 25
	GridDivSize               = 25.0
	GridDivCountHorizontal    = 12.0
	// ScreenSamples is the column count of one screen's worth of waveform.
	ScreenSamples = 300
)

// TimeBases lists every horizontal scale the instrument accepts, in order.
var TimeBases = [36]units.Time{
	2e-9, 5e-9, 10e-9, 20e-9, 50e-9, 100e-9, 200e-9, 500e-9,
	1e-6, 2e-6, 5e-6, 10e-6, 20e-6, 50e-6, 100e-6, 200e-6, 500e-6,
	1e-3, 2e-3, 5e-3, 10e-3, 20e-3, 50e-3, 100e-3, 200e-3, 500e-3,
	1, 2, 5, 10, 20, 50, 100, 200, 500, 1000,
}

// VerticalScales lists the supported per-division scales at 1X attenuation.
var VerticalScales = [10]units.Voltage{
	0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10,
}

// ProbeAttenuations lists the selectable probe multipliers.
var ProbeAttenuations = [5]units.ProbeAttenuation{1, 10, 100, 1000, 10000}
