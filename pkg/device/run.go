package device

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/hdscope/pkg/data"
)

// QueueCapacity is the intended capacity of both run-loop channels.
const QueueCapacity = 32

// RunCommand is anything the run loop consumes: every Command, plus the
// loop settings below.
type RunCommand interface {
	isRunCommand()
}

type setting struct{}

func (setting) isRunCommand() {}

// SetMeasurementsEnabled toggles measurement polling. Loop-local; nothing
// is sent to the device.
type SetMeasurementsEnabled struct {
	setting
	Enabled bool
}

// ReadAwgConfig reads the generator state and publishes it as an
// AwgMessage.
type ReadAwgConfig struct {
	setting
}

// SetAwgConfig writes the generator state, then reads it back and
// publishes the result so the caller sees what actually took.
type SetAwgConfig struct {
	setting
	Config data.AwgConfig
}

// Message is what the run loop publishes on the outbound queue.
type Message interface {
	isMessage()
}

// DataMessage packages one acquisition cycle: header, waveform payloads,
// optional per-channel measurements, and the cycle's wall-clock duration.
type DataMessage struct {
	Signal SignalData
	// Measurements is nil when polling is off; index matches data.Channel.
	Measurements *[2]data.Measurements
	// AcquisitionDuration covers acquire through measurement polling.
	AcquisitionDuration time.Duration
}

func (DataMessage) isMessage() {}

// AwgMessage carries a freshly read generator configuration.
type AwgMessage struct {
	Config data.AwgConfig
}

func (AwgMessage) isMessage() {}

// Config seeds the run loop's worker-local settings.
type Config struct {
	MeasurementsEnabled bool
}

// Run drives the acquisition loop until the command channel is closed, the
// context is canceled, or an I/O or decode failure occurs. The first two
// are clean (nil) exits, observed only at the drain and publish yield
// points; failures are terminal and propagated as-is.
//
// Run owns the transport for its whole lifetime. Channel-enabled flags are
// worker-local, rebuilt each cycle from the latest header and shaping the
// next cycle's requests.
func Run(ctx context.Context, t Transport, commands <-chan RunCommand, messages chan<- Message, cfg Config) error {
	io := NewIO(t)
	logger := log.With().Str("session", uuid.NewString()).Logger()
	logger.Info().Bool("measurements", cfg.MeasurementsEnabled).Msg("run loop starting")

	ch1Enabled := true
	ch2Enabled := true
	measurementsEnabled := cfg.MeasurementsEnabled

	for {
	drain:
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("run loop canceled")
				return nil
			case cmd, ok := <-commands:
				if !ok {
					logger.Info().Msg("command queue closed, run loop done")
					return nil
				}
				switch c := cmd.(type) {
				case Command:
					if err := encodeAndSend(ctx, io, c); err != nil {
						return err
					}
				case SetMeasurementsEnabled:
					measurementsEnabled = c.Enabled
				case ReadAwgConfig:
					awg, err := readAwgConfig(ctx, io)
					if err != nil {
						return err
					}
					if !publish(ctx, messages, AwgMessage{Config: awg}) {
						return nil
					}
				case SetAwgConfig:
					if err := setAwgConfig(ctx, io, c.Config); err != nil {
						return err
					}
					awg, err := readAwgConfig(ctx, io)
					if err != nil {
						return err
					}
					if !publish(ctx, messages, AwgMessage{Config: awg}) {
						return nil
					}
				}
			default:
				break drain
			}
		}

		start := time.Now()

		signal, err := getSignal(ctx, io, ch1Enabled, ch2Enabled)
		if err != nil {
			return err
		}
		ch1Enabled = signal.Header.ChannelEnabled(data.Ch1)
		ch2Enabled = signal.Header.ChannelEnabled(data.Ch2)

		var measurements *[2]data.Measurements
		if measurementsEnabled {
			var pair [2]data.Measurements
			if ch1Enabled {
				if pair[data.Ch1], err = getMeasurements(ctx, io, data.Ch1); err != nil {
					return err
				}
			}
			if ch2Enabled {
				if pair[data.Ch2], err = getMeasurements(ctx, io, data.Ch2); err != nil {
					return err
				}
			}
			measurements = &pair
		}

		elapsed := time.Since(start)
		logger.Debug().
			Stringer("status", signal.Header.RunStatus).
			Bool("ch1", ch1Enabled).
			Bool("ch2", ch2Enabled).
			Dur("acquisition", elapsed).
			Msg("acquisition cycle")

		msg := DataMessage{
			Signal:              signal,
			Measurements:        measurements,
			AcquisitionDuration: elapsed,
		}
		if !publish(ctx, messages, msg) {
			logger.Info().Msg("run loop canceled")
			return nil
		}
	}
}

// publish blocks until the outbound queue has room; messages are never
// dropped. False means the context ended first.
func publish(ctx context.Context, messages chan<- Message, msg Message) bool {
	select {
	case messages <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
