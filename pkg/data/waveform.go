package data

import "fmt"

// Samples converts a waveform payload (prefix already stripped) to sample
// values. A payload of exactly one screen's worth holds one signed byte per
// column; anything else holds adjacent byte pairs that are averaged into one
// sample each. A trailing odd byte is dropped.
func Samples(payload []byte) []float64 {
	if len(payload) == ScreenSamples {
		out := make([]float64, len(payload))
		for i, b := range payload {
			out[i] = float64(int8(b))
		}
		return out
	}

	out := make([]float64, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		out = append(out, (float64(int8(payload[i]))+float64(int8(payload[i+1])))/2)
	}
	return out
}

// HeadDecodeError reports that neither acquisition buffer parsed as a
// header. Both underlying parse failures are preserved.
type HeadDecodeError struct {
	First  error
	Second error
}

func (e *HeadDecodeError) Error() string {
	return fmt.Sprintf("data: no header in either buffer (first: %v; second: %v)", e.First, e.Second)
}

func (e *HeadDecodeError) Unwrap() error { return e.First }

// ResolveHeadData disambiguates the two buffers read during acquisition.
// The device does not guarantee whether the header or the channel-1 data
// arrives first, so the second buffer is tried as a header first; if that
// parses, the first buffer is waveform data, and vice versa. The returned
// payload has its 4-byte prefix stripped.
func ResolveHeadData(first, second []byte) (Header, []byte, error) {
	h, err2 := DecodeHeader(second)
	if err2 == nil {
		return h, stripPrefix(first), nil
	}

	h, err1 := DecodeHeader(first)
	if err1 == nil {
		return h, stripPrefix(second), nil
	}

	return Header{}, nil, &HeadDecodeError{First: err1, Second: err2}
}

func stripPrefix(buf []byte) []byte {
	if len(buf) < PrefixLen {
		return nil
	}
	return buf[PrefixLen:]
}
