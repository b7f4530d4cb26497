package device

import (
	"context"
	"fmt"

	"github.com/RMahshie/hdscope/pkg/data"
)

// getMeasurements runs the channel's fixed measurement queries, each a
// send-then-read round trip, and folds the response lines into one
// Measurements value. Lines the field parsers don't recognize are ignored.
func getMeasurements(ctx context.Context, io *IO, ch data.Channel) (data.Measurements, error) {
	var m data.Measurements
	buf := make([]byte, 64)

	for _, query := range data.MeasurementQueries(ch) {
		n, err := io.RoundTrip(ctx, query, buf)
		if err != nil {
			return m, ioErr(fmt.Sprintf("measurement %s %s", ch, query), err)
		}
		if err := m.ApplyLine(string(buf[:n])); err != nil {
			return m, decodeErr(fmt.Sprintf("measurement %s", ch), err)
		}
	}

	return m, nil
}
