// hdsctl talks to an OWON HDS-series scope/AWG combo over USB.
//
// With no arguments it is a raw command REPL: each stdin line is sent to
// the instrument verbatim, query responses are hex-dumped, and an empty
// line exits. "hdsctl monitor" runs the acquisition loop instead and logs
// every decoded message until interrupted.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gousb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/hdscope/internal/config"
	"github.com/RMahshie/hdscope/pkg/data"
	"github.com/RMahshie/hdscope/pkg/device"
	"github.com/RMahshie/hdscope/pkg/usb"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	dev, err := usb.Open(gousb.ID(cfg.Device.VendorID), gousb.ID(cfg.Device.ProductID))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open instrument")
	}
	defer dev.Close()

	if len(os.Args) > 1 && os.Args[1] == "monitor" {
		monitor(dev, cfg)
		return
	}

	repl(dev)
}

// repl sends raw command lines and hex-dumps query responses.
func repl(dev *usb.Device) {
	ctx := context.Background()
	io := device.NewIO(dev)
	buf := make([]byte, 10240)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}

		start := time.Now()

		if err := io.Send(ctx, []byte(line)); err != nil {
			log.Fatal().Err(err).Msg("Send failed")
		}

		if strings.HasSuffix(line, "?") {
			n, err := io.Recv(ctx, buf)
			if err != nil {
				log.Fatal().Err(err).Msg("Receive failed")
			}
			fmt.Print(hex.Dump(buf[:n]))
		}

		fmt.Printf("%d ms\n", time.Since(start).Milliseconds())
	}
}

// monitor runs the acquisition loop and logs decoded messages.
func monitor(dev *usb.Device, cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commands := make(chan device.RunCommand, device.QueueCapacity)
	messages := make(chan device.Message, device.QueueCapacity)

	runErr := make(chan error, 1)
	go func() {
		runErr <- device.Run(ctx, dev, commands, messages, device.Config{
			MeasurementsEnabled: cfg.Run.MeasurementsEnabled,
		})
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			log.Info().Msg("Shutting down monitor...")
			close(commands)
			cancel()
			if err := <-runErr; err != nil {
				log.Fatal().Err(err).Msg("Run loop failed")
			}
			return
		case err := <-runErr:
			if err != nil {
				log.Fatal().Err(err).Msg("Run loop failed")
			}
			return
		case msg := <-messages:
			logMessage(msg)
		}
	}
}

func logMessage(msg device.Message) {
	switch m := msg.(type) {
	case device.DataMessage:
		ev := log.Info().
			Stringer("status", m.Signal.Header.RunStatus).
			Stringer("timebase", m.Signal.Header.TimeBase.Scale).
			Stringer("rate", m.Signal.Header.Sample.SamplingRate).
			Int("ch1_samples", len(data.Samples(m.Signal.Ch1Data))).
			Int("ch2_samples", len(data.Samples(m.Signal.Ch2Data))).
			Dur("acquisition", m.AcquisitionDuration)
		if m.Measurements != nil {
			ev = ev.
				Stringer("ch1_meas", &m.Measurements[data.Ch1]).
				Stringer("ch2_meas", &m.Measurements[data.Ch2])
		}
		ev.Msg("acquisition")
	case device.AwgMessage:
		log.Info().
			Bool("enabled", m.Config.Enabled).
			Stringer("mode", m.Config.Mode).
			Stringer("frequency", m.Config.Frequency).
			Stringer("amplitude", m.Config.Amplitude).
			Stringer("offset", m.Config.Offset).
			Msg("awg config")
	}
}
