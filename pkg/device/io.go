// Package device is the protocol engine for OWON HDS-series handheld
// scope/AWG combos. It encodes commands into the instrument's SCPI-like
// dialect, decodes its mixed JSON/binary telemetry, and drives the
// acquisition run loop over an abstract half-duplex transport.
package device

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// IOTimeout bounds every send and receive. The transport itself has no
	// timeout semantics; the bound lives here.
	IOTimeout = 2 * time.Second
	// MinPause is the minimum spacing between writes. The firmware drops or
	// garbles commands that arrive faster.
	MinPause = 10 * time.Millisecond
)

// Transport is the duplex byte channel to the instrument. Implementations
// carry no timeout or pacing of their own; both are added here. The pipe is
// half duplex, so calls are never overlapped.
type Transport interface {
	Send(ctx context.Context, p []byte) error
	Recv(ctx context.Context, buf []byte) (int, error)
}

// IO wraps a Transport with the protocol's timing rules: a 2 s bound on
// every operation and a 10 ms minimum gap between consecutive writes.
type IO struct {
	t         Transport
	lastWrite time.Time
}

// NewIO wraps t. One IO must own the transport exclusively.
func NewIO(t Transport) *IO {
	return &IO{t: t}
}

// Send paces and writes one command, bounded by IOTimeout.
func (io *IO) Send(ctx context.Context, cmd []byte) error {
	if wait := MinPause - time.Since(io.lastWrite); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, IOTimeout)
	defer cancel()

	log.Trace().Bytes("cmd", cmd).Msg("device send")
	io.lastWrite = time.Now()
	return io.t.Send(ctx, cmd)
}

// Recv reads one response buffer, bounded by IOTimeout.
func (io *IO) Recv(ctx context.Context, buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, IOTimeout)
	defer cancel()

	n, err := io.t.Recv(ctx, buf)
	if err != nil {
		return n, err
	}
	log.Trace().Int("len", n).Msg("device recv")
	return n, nil
}

// RoundTrip sends a query and reads its response into buf, returning the
// response length.
func (io *IO) RoundTrip(ctx context.Context, cmd, buf []byte) (int, error) {
	if err := io.Send(ctx, cmd); err != nil {
		return 0, err
	}
	return io.Recv(ctx, buf)
}
