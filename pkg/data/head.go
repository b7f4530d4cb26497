// Package data holds the immutable snapshots decoded from instrument
// responses: the signal header, measurements, AWG configuration and raw
// waveform buffers. Everything here is a value type rebuilt on every decode.
package data

import (
	"encoding/json"
	"fmt"

	"github.com/RMahshie/hdscope/pkg/units"
)

// Wire enums use explicit lookup tables instead of case folding: the
// firmware's casing is irregular (RISE vs RISe, AUTo vs AUTO) and must not
// be widened. Unknown strings are decode errors.

func lookup[T any](table map[string]T, kind string, b []byte) (T, error) {
	v, ok := table[string(b)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("data: unknown %s %q", kind, b)
	}
	return v, nil
}

// Channel identifies one of the two scope channels. The numeric values
// index Header.Channels and are fixed.
type Channel int

const (
	Ch1 Channel = 0
	Ch2 Channel = 1
)

var channelNames = map[string]Channel{"CH1": Ch1, "CH2": Ch2}

func (c Channel) String() string {
	if c == Ch2 {
		return "CH2"
	}
	return "CH1"
}

func (c *Channel) UnmarshalText(b []byte) error {
	v, err := lookup(channelNames, "channel", b)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ChannelDisplay is a channel's on-screen visibility.
type ChannelDisplay int

const (
	DisplayOn ChannelDisplay = iota
	DisplayOff
)

var channelDisplays = map[string]ChannelDisplay{"ON": DisplayOn, "OFF": DisplayOff}

func (d ChannelDisplay) String() string {
	if d == DisplayOff {
		return "OFF"
	}
	return "ON"
}

func (d *ChannelDisplay) UnmarshalText(b []byte) error {
	v, err := lookup(channelDisplays, "channel display", b)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ChannelCoupling is the input coupling of a scope channel.
type ChannelCoupling int

const (
	CouplingDC ChannelCoupling = iota
	CouplingAC
	CouplingGND
)

var channelCouplings = map[string]ChannelCoupling{
	"DC":  CouplingDC,
	"AC":  CouplingAC,
	"GND": CouplingGND,
}

func (c ChannelCoupling) String() string {
	switch c {
	case CouplingAC:
		return "AC"
	case CouplingGND:
		return "GND"
	}
	return "DC"
}

func (c *ChannelCoupling) UnmarshalText(b []byte) error {
	v, err := lookup(channelCouplings, "channel coupling", b)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// TriggerCoupling is the trigger path coupling; GND does not exist here.
type TriggerCoupling int

const (
	TriggerCouplingDC TriggerCoupling = iota
	TriggerCouplingAC
)

var triggerCouplings = map[string]TriggerCoupling{
	"DC": TriggerCouplingDC,
	"AC": TriggerCouplingAC,
}

func (c TriggerCoupling) String() string {
	if c == TriggerCouplingAC {
		return "AC"
	}
	return "DC"
}

func (c *TriggerCoupling) UnmarshalText(b []byte) error {
	v, err := lookup(triggerCouplings, "trigger coupling", b)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// TriggerEdge is the trigger slope. The firmware emits both RISE and RISe
// depending on revision.
type TriggerEdge int

const (
	EdgeRising TriggerEdge = iota
	EdgeFalling
)

var triggerEdges = map[string]TriggerEdge{
	"RISE": EdgeRising,
	"RISe": EdgeRising,
	"FALL": EdgeFalling,
	"FALl": EdgeFalling,
}

func (e TriggerEdge) String() string {
	if e == EdgeFalling {
		return "FALL"
	}
	return "RISE"
}

func (e *TriggerEdge) UnmarshalText(b []byte) error {
	v, err := lookup(triggerEdges, "trigger edge", b)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// TriggerSweep is the trigger sweep mode.
type TriggerSweep int

const (
	SweepAuto TriggerSweep = iota
	SweepNormal
	SweepSingle
)

var triggerSweeps = map[string]TriggerSweep{
	"AUTo":   SweepAuto,
	"AUTO":   SweepAuto,
	"NORMal": SweepNormal,
	"SINGlE": SweepSingle,
}

func (s TriggerSweep) String() string {
	switch s {
	case SweepNormal:
		return "NORMal"
	case SweepSingle:
		return "SINGlE"
	}
	return "AUTo"
}

func (s *TriggerSweep) UnmarshalText(b []byte) error {
	v, err := lookup(triggerSweeps, "trigger sweep", b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TriggerMode is the trigger subsystem mode; only single-trigger exists on
// this hardware.
type TriggerMode int

const ModeSingle TriggerMode = 0

var triggerModes = map[string]TriggerMode{"SINGle": ModeSingle}

func (m TriggerMode) String() string { return "SINGle" }

func (m *TriggerMode) UnmarshalText(b []byte) error {
	v, err := lookup(triggerModes, "trigger mode", b)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// TriggerType is the trigger kind; only edge triggering exists.
type TriggerType int

const TypeEdge TriggerType = 0

var triggerTypes = map[string]TriggerType{"Edge": TypeEdge}

func (t TriggerType) String() string { return "Edge" }

func (t *TriggerType) UnmarshalText(b []byte) error {
	v, err := lookup(triggerTypes, "trigger type", b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// SampleType is the acquisition mode.
type SampleType int

const (
	SampleNormal SampleType = iota
	SamplePeak
)

var sampleTypes = map[string]SampleType{
	"SAMPle": SampleNormal,
	"PEAK":   SamplePeak,
}

func (t SampleType) String() string {
	if t == SamplePeak {
		return "PEAK"
	}
	return "SAMPle"
}

func (t *SampleType) UnmarshalText(b []byte) error {
	v, err := lookup(sampleTypes, "sample type", b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MemoryDepth is the acquisition memory depth.
type MemoryDepth int

const (
	Depth4K MemoryDepth = iota
	Depth8K
)

var memoryDepths = map[string]MemoryDepth{"4K": Depth4K, "8K": Depth8K}

func (d MemoryDepth) String() string {
	if d == Depth4K {
		return "4K"
	}
	return "8K"
}

func (d *MemoryDepth) UnmarshalText(b []byte) error {
	v, err := lookup(memoryDepths, "memory depth", b)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// RunStatus is the device-reported trigger/acquisition state.
type RunStatus int

const (
	// StatusScanning: free-running, trigger disabled (time bases >= 100 ms).
	StatusScanning RunStatus = iota
	// StatusReady: trigger armed in normal/single mode.
	StatusReady
	// StatusStopped: triggered and halted in normal/single mode.
	StatusStopped
	// StatusAuto: armed/scanning in auto mode.
	StatusAuto
	// StatusTriggering: triggered in auto mode.
	StatusTriggering
)

// "end" shows up from some firmware revisions where READy is expected;
// treated as a synonym until proven otherwise.
var runStatuses = map[string]RunStatus{
	"SCAN":  StatusScanning,
	"READy": StatusReady,
	"end":   StatusReady,
	"STOP":  StatusStopped,
	"AUTo":  StatusAuto,
	"TRIG":  StatusTriggering,
}

func (s RunStatus) String() string {
	switch s {
	case StatusScanning:
		return "SCAN"
	case StatusStopped:
		return "STOP"
	case StatusAuto:
		return "AUTo"
	case StatusTriggering:
		return "TRIG"
	}
	return "READy"
}

func (s *RunStatus) UnmarshalText(b []byte) error {
	v, err := lookup(runStatuses, "run status", b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DataType tags what kind of buffer the header describes; only screen data
// is ever produced.
type DataType int

const DataScreen DataType = 0

var dataTypes = map[string]DataType{"SCREEN": DataScreen}

func (t DataType) String() string { return "SCREEN" }

func (t *DataType) UnmarshalText(b []byte) error {
	v, err := lookup(dataTypes, "data type", b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeBase is the horizontal configuration.
type TimeBase struct {
	Scale units.Time `json:"SCALE"`
	// HOffset is the horizontal offset, in samples.
	HOffset int64 `json:"HOFFSET"`
}

// HOffsetGridDivs converts the horizontal offset to grid divisions.
func (t TimeBase) HOffsetGridDivs() float64 {
	return float64(t.HOffset) / GridDivSize
}

// SampleInfo is the acquisition configuration block.
type SampleInfo struct {
	Fullscreen   int32              `json:"FULLSCREEN"`
	SlowMove     int32              `json:"SLOWMOVE"`
	DataLen      int32              `json:"DATALEN"`
	SamplingRate units.SamplingRate `json:"SAMPLERATE"`
	Type         SampleType         `json:"TYPE"`
	DepMem       MemoryDepth        `json:"DEPMEM"`
}

// ChannelInfo is the per-channel configuration snapshot.
type ChannelInfo struct {
	Name     Channel                `json:"NAME"`
	Display  ChannelDisplay         `json:"DISPLAY"`
	Coupling ChannelCoupling        `json:"COUPLING"`
	Probe    units.ProbeAttenuation `json:"PROBE"`
	// Scale is volts per grid division, unattenuated.
	Scale units.Voltage `json:"SCALE"`
	// Offset is the vertical offset in sample units.
	Offset int64 `json:"OFFSET"`
	// Frequency is the firmware's frequency estimate. Yes, FREQUENCE.
	Frequency float64 `json:"FREQUENCE"`
}

// ScalePerUnit is the voltage represented by one vertical sample unit, with
// probe attenuation applied.
func (c ChannelInfo) ScalePerUnit() float64 {
	return float64(c.Scale) * float64(c.Probe) / GridDivSize
}

// ScaleAttenuated is the per-division scale with probe attenuation applied.
func (c ChannelInfo) ScaleAttenuated() units.Voltage {
	return units.Voltage(float64(c.Scale) * float64(c.Probe))
}

// OffsetGridDivs converts the vertical offset to grid divisions.
func (c ChannelInfo) OffsetGridDivs() float64 {
	return float64(c.Offset) / GridDivSize
}

// Trigger is the trigger configuration block.
type Trigger struct {
	Mode  TriggerMode  `json:"Mode"`
	Type  TriggerType  `json:"Type"`
	Items TriggerItems `json:"Items"`
}

// TriggerItems carries the edge trigger settings.
type TriggerItems struct {
	Channel  Channel         `json:"Channel"`
	Level    units.Voltage   `json:"Level"`
	Edge     TriggerEdge     `json:"Edge"`
	Coupling TriggerCoupling `json:"Coupling"`
	Sweep    TriggerSweep    `json:"Sweep"`
}

// Header is the signal header the instrument returns alongside waveform
// data. The JSON keys are the firmware's, casing included ("Trig" is spelled
// exactly that way on the wire).
type Header struct {
	TimeBase  TimeBase       `json:"TIMEBASE"`
	Sample    SampleInfo     `json:"SAMPLE"`
	Channels  [2]ChannelInfo `json:"CHANNEL"`
	DataType  DataType       `json:"DATATYPE"`
	RunStatus RunStatus      `json:"RUNSTATUS"`
	Trigger   Trigger        `json:"Trig"`
}

// Channel returns the info block for ch. The array order is fixed: index 0
// is CH1, index 1 is CH2.
func (h *Header) Channel(ch Channel) *ChannelInfo {
	return &h.Channels[ch]
}

// ChannelEnabled reports whether ch is displayed.
func (h *Header) ChannelEnabled(ch Channel) bool {
	return h.Channel(ch).Display == DisplayOn
}

// PrefixLen is the length of the opaque prefix on every response buffer.
// It is stripped, never interpreted.
const PrefixLen = 4

// DecodeHeader parses a raw header response buffer: a 4-byte prefix
// followed by the firmware's JSON document.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < PrefixLen {
		return h, fmt.Errorf("data: header buffer too short (%d bytes)", len(buf))
	}
	if err := json.Unmarshal(buf[PrefixLen:], &h); err != nil {
		return h, fmt.Errorf("data: header decode: %w", err)
	}
	return h, nil
}
