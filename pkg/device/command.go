package device

import (
	"context"
	"fmt"
	"math"

	"github.com/RMahshie/hdscope/pkg/data"
	"github.com/RMahshie/hdscope/pkg/units"
)

// Command is a one-shot device command. The set is closed; each value maps
// to one or more wire requests in encodeAndSend.
type Command interface {
	RunCommand
	isCommand()
}

type command struct{}

func (command) isCommand()    {}
func (command) isRunCommand() {}

// SetHorizontalOffset moves the horizontal offset, in grid divisions.
type SetHorizontalOffset struct {
	command
	Offset float64
}

// SetChannelDisplay switches a channel on or off screen.
type SetChannelDisplay struct {
	command
	Channel data.Channel
	Display data.ChannelDisplay
}

// SetChannelVOffset moves a channel's vertical offset, in grid divisions.
type SetChannelVOffset struct {
	command
	Channel data.Channel
	Offset  float64
}

// SetChannelVScale sets a channel's per-division scale. The device answers
// slowly; a verify query is issued and consumed so the caller knows the
// value took.
type SetChannelVScale struct {
	command
	Channel data.Channel
	Scale   units.Voltage
}

// SetChannelCoupling sets a channel's input coupling.
type SetChannelCoupling struct {
	command
	Channel  data.Channel
	Coupling data.ChannelCoupling
}

// SetChannelAttenuation sets a channel's probe attenuation multiplier.
type SetChannelAttenuation struct {
	command
	Channel     data.Channel
	Attenuation units.ProbeAttenuation
}

// SetTimeScale sets the time base. Verified like SetChannelVScale.
type SetTimeScale struct {
	command
	Scale units.Time
}

// SetTriggerSource selects the trigger source channel.
type SetTriggerSource struct {
	command
	Channel data.Channel
}

// SetTriggerEdge selects the trigger slope.
type SetTriggerEdge struct {
	command
	Edge data.TriggerEdge
}

// SetTriggerLevel sets the trigger level, in volts.
type SetTriggerLevel struct {
	command
	Level units.Voltage
}

// SetTriggerSweep selects the sweep mode.
type SetTriggerSweep struct {
	command
	Sweep data.TriggerSweep
}

// SetTriggerCoupling selects the trigger path coupling.
type SetTriggerCoupling struct {
	command
	Coupling data.TriggerCoupling
}

// SetAcquisitionMode selects normal or peak-detect sampling.
type SetAcquisitionMode struct {
	command
	Mode data.SampleType
}

// SetAcquisitionDepth selects the memory depth.
type SetAcquisitionDepth struct {
	command
	Depth data.MemoryDepth
}

// AutoSet triggers the instrument's autoset routine.
type AutoSet struct {
	command
}

// nudge compensates for the device's own float rounding: values are pushed
// 0.0001 away from zero so they land on the intended setting after the
// firmware rounds. This is a protocol contract, not a workaround to remove.
func nudge(x float64) float64 {
	return x + math.Copysign(0.0001, x)
}

// encodeAndSend maps cmd to its wire requests and performs them, including
// the verify round trips for scale changes.
func encodeAndSend(ctx context.Context, io *IO, cmd Command) error {
	scratch := make([]byte, 8*1024)

	switch c := cmd.(type) {
	case SetHorizontalOffset:
		req := fmt.Sprintf(":HORIzontal:OFFSet %.4f", nudge(c.Offset))
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set horizontal offset", err)
		}
	case SetChannelDisplay:
		req := fmt.Sprintf(":%s:DISPlay %s", c.Channel, c.Display)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set channel display", err)
		}
	case SetChannelVOffset:
		req := fmt.Sprintf(":%s:OFFSet %.4f", c.Channel, nudge(c.Offset))
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set channel voffset", err)
		}
	case SetChannelVScale:
		req := fmt.Sprintf(":%s:SCALe %.2f", c.Channel, float64(c.Scale))
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set channel vscale: send set", err)
		}
		verify := fmt.Sprintf(":%s:SCALe?", c.Channel)
		if err := io.Send(ctx, []byte(verify)); err != nil {
			return ioErr("set channel vscale: send verify", err)
		}
		if _, err := io.Recv(ctx, scratch); err != nil {
			return ioErr("set channel vscale: recv verify", err)
		}
	case SetChannelCoupling:
		req := fmt.Sprintf(":%s:COUPling %s", c.Channel, c.Coupling)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set channel coupling", err)
		}
	case SetChannelAttenuation:
		req := fmt.Sprintf(":%s:PROBe %s", c.Channel, c.Attenuation)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set channel attenuation", err)
		}
	case SetTimeScale:
		req := ":HORIzontal:SCALe " + c.Scale.ASCII()
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set time scale: send set", err)
		}
		if _, err := io.RoundTrip(ctx, []byte(":HORIzontal:SCALe?"), scratch); err != nil {
			return ioErr("set time scale: verify", err)
		}
	case SetTriggerSource:
		req := fmt.Sprintf(":TRIGger:SINGle:SOURce %s", c.Channel)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set trigger source", err)
		}
	case SetTriggerEdge:
		req := fmt.Sprintf(":TRIGger:SINGle:EDGe %s", c.Edge)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set trigger edge", err)
		}
	case SetTriggerLevel:
		req := fmt.Sprintf(":TRIGger:SINGle:EDGe:LEVel %.4f", nudge(float64(c.Level)))
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set trigger level", err)
		}
	case SetTriggerSweep:
		req := fmt.Sprintf(":TRIGger:SINGle:SWEep %s", c.Sweep)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set trigger sweep", err)
		}
	case SetTriggerCoupling:
		req := fmt.Sprintf(":TRIGger:SINGle:COUPling %s", c.Coupling)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set trigger coupling", err)
		}
	case SetAcquisitionMode:
		req := fmt.Sprintf(":ACQuire:MODe %s", c.Mode)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set acquisition mode", err)
		}
	case SetAcquisitionDepth:
		req := fmt.Sprintf(":ACQuire:DEPMem %s", c.Depth)
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set acquisition depth", err)
		}
	case AutoSet:
		if err := io.Send(ctx, []byte(":AUToset .")); err != nil {
			return ioErr("autoset", err)
		}
	default:
		return fmt.Errorf("device: unhandled command %T", cmd)
	}

	return nil
}
