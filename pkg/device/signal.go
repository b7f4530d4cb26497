package device

import (
	"context"

	"github.com/RMahshie/hdscope/pkg/data"
)

// signal buffers are one screen of samples (or byte pairs) plus the 4-byte
// response prefix
const signalBufSize = 1024 + data.PrefixLen

// SignalData is one acquisition cycle's decoded result. Channel payloads
// have the response prefix stripped; nil means the channel was off.
type SignalData struct {
	Header  data.Header
	Ch1Data []byte
	Ch2Data []byte
}

var (
	reqDataCh1 = []byte(":DATa:WAVe:SCReen:CH1?")
	reqDataCh2 = []byte(":DATa:WAVe:SCReen:CH2?")
	reqHead    = []byte(":DATa:WAVe:SCReen:HEAD?")
)

// getSignal performs one acquisition: it fires the data request for the
// first enabled channel plus the header request, reads both responses, and
// disambiguates them; the device does not guarantee which comes back first.
// A second channel-2 request follows when both channels are on.
func getSignal(ctx context.Context, io *IO, ch1Enabled, ch2Enabled bool) (SignalData, error) {
	shouldReadData := ch1Enabled || ch2Enabled

	if shouldReadData {
		req, phase := reqDataCh1, "send signal request CH1"
		if !ch1Enabled {
			req, phase = reqDataCh2, "send signal request CH2"
		}
		if err := io.Send(ctx, req); err != nil {
			return SignalData{}, ioErr(phase, err)
		}
	}
	if err := io.Send(ctx, reqHead); err != nil {
		return SignalData{}, ioErr("send signal request header", err)
	}

	buf1 := make([]byte, signalBufSize)
	n1, err := io.Recv(ctx, buf1)
	if err != nil {
		return SignalData{}, ioErr("recv signal 1", err)
	}
	read1 := buf1[:n1]

	var header data.Header
	var payload []byte
	if shouldReadData {
		buf2 := make([]byte, signalBufSize)
		n2, err := io.Recv(ctx, buf2)
		if err != nil {
			return SignalData{}, ioErr("recv signal 2", err)
		}

		header, payload, err = data.ResolveHeadData(read1, buf2[:n2])
		if err != nil {
			return SignalData{}, decodeErr("signal header", err)
		}
	} else {
		header, err = data.DecodeHeader(read1)
		if err != nil {
			return SignalData{}, decodeErr("signal header", err)
		}
	}

	var payload2 []byte
	if shouldReadData && ch2Enabled {
		if err := io.Send(ctx, reqDataCh2); err != nil {
			return SignalData{}, ioErr("send signal request CH2", err)
		}
		buf3 := make([]byte, signalBufSize)
		n3, err := io.Recv(ctx, buf3)
		if err != nil {
			return SignalData{}, ioErr("recv signal 3", err)
		}
		if n3 >= data.PrefixLen {
			payload2 = buf3[data.PrefixLen:n3]
		}
	}

	out := SignalData{Header: header}
	switch {
	case ch1Enabled && ch2Enabled:
		out.Ch1Data, out.Ch2Data = payload, payload2
	case ch1Enabled:
		out.Ch1Data = payload
	case ch2Enabled:
		out.Ch2Data = payload
	}
	return out, nil
}
