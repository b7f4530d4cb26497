package device

import (
	"context"
	"strconv"
	"strings"

	"github.com/RMahshie/hdscope/pkg/data"
	"github.com/RMahshie/hdscope/pkg/units"
)

// readAwgConfig reads the generator state, one query per field. Two fields
// carry firmware unit bugs corrected here and nowhere else: frequency reads
// back in micro-hertz and amplitude/offset in millivolts. The divisions are
// protocol contracts; do not "fix" them.
func readAwgConfig(ctx context.Context, io *IO) (data.AwgConfig, error) {
	buf := make([]byte, 1024)
	var cfg data.AwgConfig

	n, err := io.RoundTrip(ctx, []byte(":CHAN?"), buf)
	if err != nil {
		return cfg, ioErr("read awg channel", err)
	}
	cfg.Enabled, err = data.ParseAwgDisplay(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return cfg, decodeErr("awg channel", err)
	}

	n, err = io.RoundTrip(ctx, []byte(":FUNC?"), buf)
	if err != nil {
		return cfg, ioErr("read awg mode", err)
	}
	cfg.Mode, err = data.ParseAwgMode(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return cfg, decodeErr("awg mode", err)
	}

	n, err = io.RoundTrip(ctx, []byte(":FUNC:FREQ?"), buf)
	if err != nil {
		return cfg, ioErr("read awg frequency", err)
	}
	freq, err := strconv.ParseFloat(strings.TrimSpace(string(buf[:n])), 64)
	if err != nil {
		return cfg, decodeErr("awg frequency", err)
	}
	cfg.Frequency = units.Frequency(freq / 1e6)

	n, err = io.RoundTrip(ctx, []byte(":FUNC:AMPL?"), buf)
	if err != nil {
		return cfg, ioErr("read awg amplitude", err)
	}
	ampl, err := strconv.ParseFloat(strings.TrimSpace(string(buf[:n])), 64)
	if err != nil {
		return cfg, decodeErr("awg amplitude", err)
	}
	cfg.Amplitude = units.Voltage(ampl / 1e3)

	n, err = io.RoundTrip(ctx, []byte(":FUNC:OFFS?"), buf)
	if err != nil {
		return cfg, ioErr("read awg offset", err)
	}
	offs, err := strconv.ParseFloat(strings.TrimSpace(string(buf[:n])), 64)
	if err != nil {
		return cfg, decodeErr("awg offset", err)
	}
	cfg.Offset = units.Voltage(offs / 1e3)

	return cfg, nil
}

// setAwgConfig writes the generator state in fixed order, unverified.
func setAwgConfig(ctx context.Context, io *IO, cfg data.AwgConfig) error {
	reqs := []string{
		":FUNC " + cfg.Mode.String(),
		":FUNC:FREQ " + strconv.FormatFloat(float64(cfg.Frequency), 'f', -1, 64),
		":FUNC:AMPL " + strconv.FormatFloat(float64(cfg.Amplitude), 'f', -1, 64),
		":FUNC:OFFS " + strconv.FormatFloat(float64(cfg.Offset), 'f', -1, 64),
		":CHAN " + data.FormatAwgDisplay(cfg.Enabled),
	}
	for _, req := range reqs {
		if err := io.Send(ctx, []byte(req)); err != nil {
			return ioErr("set awg config", err)
		}
	}
	return nil
}
