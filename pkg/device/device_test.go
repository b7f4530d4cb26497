package device

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/hdscope/pkg/data"
	"github.com/RMahshie/hdscope/pkg/units"
)

// scriptTransport answers queries from a fixed table. Every Send is
// recorded; a send matching a table entry queues that response, and Recv
// pops the queue. Recv on an empty queue fails like a timed-out read.
type scriptTransport struct {
	sent    []string
	pending [][]byte
	respond map[string]string
}

func (t *scriptTransport) Send(_ context.Context, p []byte) error {
	cmd := string(p)
	t.sent = append(t.sent, cmd)
	if r, ok := t.respond[cmd]; ok {
		t.pending = append(t.pending, []byte(r))
	}
	return nil
}

func (t *scriptTransport) Recv(_ context.Context, buf []byte) (int, error) {
	if len(t.pending) == 0 {
		return 0, errors.New("no response pending")
	}
	r := t.pending[0]
	t.pending = t.pending[1:]
	return copy(buf, r), nil
}

func headerResponse(ch1, ch2 string) string {
	doc := fmt.Sprintf(`{
		"TIMEBASE": {"SCALE": "500us", "HOFFSET": 0},
		"SAMPLE": {"FULLSCREEN": 300, "SLOWMOVE": -1, "DATALEN": 300,
			"SAMPLERATE": "250kSa/s", "TYPE": "SAMPle", "DEPMEM": "8K"},
		"CHANNEL": [
			{"NAME": "CH1", "DISPLAY": "%s", "COUPLING": "DC", "PROBE": "10X",
				"SCALE": "1.00v", "OFFSET": 0, "FREQUENCE": 0},
			{"NAME": "CH2", "DISPLAY": "%s", "COUPLING": "DC", "PROBE": "10X",
				"SCALE": "1.00v", "OFFSET": 0, "FREQUENCE": 0}
		],
		"DATATYPE": "SCREEN", "RUNSTATUS": "TRIG",
		"Trig": {"Mode": "SINGle", "Type": "Edge", "Items": {
			"Channel": "CH1", "Level": "1.00v", "Edge": "RISe",
			"Coupling": "DC", "Sweep": "AUTo"}}
	}`, ch1, ch2)
	return "\x00\x00\x00\x00" + doc
}

func waveResponse() string {
	return "\x00\x00\x00\x00" + string(make([]byte, data.ScreenSamples))
}

func TestEncodeAndSendWireStrings(t *testing.T) {
	tests := []struct {
		cmd  Command
		want []string
	}{
		{SetHorizontalOffset{Offset: 1}, []string{":HORIzontal:OFFSet 1.0001"}},
		{SetHorizontalOffset{Offset: -0.5}, []string{":HORIzontal:OFFSet -0.5001"}},
		{SetHorizontalOffset{Offset: 0}, []string{":HORIzontal:OFFSet 0.0001"}},
		{SetChannelDisplay{Channel: data.Ch2, Display: data.DisplayOff}, []string{":CH2:DISPlay OFF"}},
		{SetChannelVOffset{Channel: data.Ch1, Offset: 2}, []string{":CH1:OFFSet 2.0001"}},
		{SetChannelCoupling{Channel: data.Ch2, Coupling: data.CouplingGND}, []string{":CH2:COUPling GND"}},
		{SetChannelAttenuation{Channel: data.Ch1, Attenuation: 10}, []string{":CH1:PROBe 10X"}},
		{SetTriggerSource{Channel: data.Ch2}, []string{":TRIGger:SINGle:SOURce CH2"}},
		{SetTriggerEdge{Edge: data.EdgeFalling}, []string{":TRIGger:SINGle:EDGe FALL"}},
		{SetTriggerLevel{Level: -0.5}, []string{":TRIGger:SINGle:EDGe:LEVel -0.5001"}},
		{SetTriggerSweep{Sweep: data.SweepNormal}, []string{":TRIGger:SINGle:SWEep NORMal"}},
		{SetTriggerCoupling{Coupling: data.TriggerCouplingAC}, []string{":TRIGger:SINGle:COUPling AC"}},
		{SetAcquisitionMode{Mode: data.SamplePeak}, []string{":ACQuire:MODe PEAK"}},
		{SetAcquisitionDepth{Depth: data.Depth4K}, []string{":ACQuire:DEPMem 4K"}},
		{AutoSet{}, []string{":AUToset ."}},
	}

	for _, tt := range tests {
		tr := &scriptTransport{}
		err := encodeAndSend(context.Background(), NewIO(tr), tt.cmd)
		require.NoError(t, err, "%T", tt.cmd)
		assert.Equal(t, tt.want, tr.sent, "%T", tt.cmd)
	}
}

func TestEncodeAndSendVerifiedScales(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":CH1:SCALe?":        "1.00V\n",
		":HORIzontal:SCALe?": "500us\n",
	}}
	io := NewIO(tr)

	require.NoError(t, encodeAndSend(context.Background(), io, SetChannelVScale{Channel: data.Ch1, Scale: 1}))
	require.NoError(t, encodeAndSend(context.Background(), io, SetTimeScale{Scale: 500e-6}))

	assert.Equal(t, []string{
		":CH1:SCALe 1.00",
		":CH1:SCALe?",
		":HORIzontal:SCALe 500us",
		":HORIzontal:SCALe?",
	}, tr.sent)
	assert.Empty(t, tr.pending, "verify responses must be consumed")
}

func TestSendPacing(t *testing.T) {
	io := NewIO(&scriptTransport{})
	ctx := context.Background()

	require.NoError(t, io.Send(ctx, []byte(":AUToset .")))
	start := time.Now()
	require.NoError(t, io.Send(ctx, []byte(":AUToset .")))
	assert.GreaterOrEqual(t, time.Since(start), MinPause)
}

func TestGetSignalEitherOrder(t *testing.T) {
	// header arrives second
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "OFF"),
	}}
	sig, err := getSignal(context.Background(), NewIO(tr), true, false)
	require.NoError(t, err)
	assert.Equal(t, data.StatusTriggering, sig.Header.RunStatus)
	assert.Len(t, sig.Ch1Data, data.ScreenSamples)
	assert.Nil(t, sig.Ch2Data)

	// header arrives first
	tr = &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  headerResponse("ON", "OFF"),
		":DATa:WAVe:SCReen:HEAD?": waveResponse(),
	}}
	sig, err = getSignal(context.Background(), NewIO(tr), true, false)
	require.NoError(t, err)
	assert.Equal(t, data.StatusTriggering, sig.Header.RunStatus)
	assert.Len(t, sig.Ch1Data, data.ScreenSamples)
}

func TestGetSignalBothChannels(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:CH2?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "ON"),
	}}

	sig, err := getSignal(context.Background(), NewIO(tr), true, true)
	require.NoError(t, err)
	assert.Len(t, sig.Ch1Data, data.ScreenSamples)
	assert.Len(t, sig.Ch2Data, data.ScreenSamples)
	assert.Equal(t, []string{
		":DATa:WAVe:SCReen:CH1?",
		":DATa:WAVe:SCReen:HEAD?",
		":DATa:WAVe:SCReen:CH2?",
	}, tr.sent)
}

func TestGetSignalHeaderOnly(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:HEAD?": headerResponse("OFF", "OFF"),
	}}

	sig, err := getSignal(context.Background(), NewIO(tr), false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{":DATa:WAVe:SCReen:HEAD?"}, tr.sent)
	assert.Nil(t, sig.Ch1Data)
	assert.Nil(t, sig.Ch2Data)
}

func TestGetSignalNeitherBufferParses(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": waveResponse(),
	}}

	_, err := getSignal(context.Background(), NewIO(tr), true, false)
	require.Error(t, err)

	var dec *DecodeError
	require.True(t, errors.As(err, &dec))
	var head *data.HeadDecodeError
	assert.True(t, errors.As(err, &head))
}

func TestGetMeasurements(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":MEAS:CH1:PKPK?": "Vpp=3.720V\n",
		":MEAS:CH1:VAMP?": "Va=1.800V\n",
		":MEAS:CH1:AVER?": "V=?\n",
		":MEAS:CH1:PER?":  "T=1.000ms\n",
		":MEAS:CH1:RT?":   "RT=OFF\n",
		":MEAS:CH1:PWID?": "PW=400.0us\n",
	}}

	m, err := getMeasurements(context.Background(), NewIO(tr), data.Ch1)
	require.NoError(t, err)

	require.NotNil(t, m.PeakToPeak)
	assert.InDelta(t, 3.72, *m.PeakToPeak, 1e-12)
	require.NotNil(t, m.Amplitude)
	assert.InDelta(t, 1.8, *m.Amplitude, 1e-12)
	assert.Nil(t, m.Average)
	require.NotNil(t, m.Period)
	assert.InDelta(t, 1e-3, *m.Period, 1e-15)
	assert.Nil(t, m.RiseTime)
	require.NotNil(t, m.PeakWidth)
	assert.InDelta(t, 400e-6, *m.PeakWidth, 1e-15)
}

func TestReadAwgConfigUnitCorrections(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":CHAN?":      "ON\n",
		":FUNC?":      "SQUare\n",
		":FUNC:FREQ?": "1000000\n", // micro-hertz on the wire
		":FUNC:AMPL?": "2500\n",    // millivolts on the wire
		":FUNC:OFFS?": "-500\n",
	}}

	cfg, err := readAwgConfig(context.Background(), NewIO(tr))
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, data.AwgSquare, cfg.Mode)
	assert.InDelta(t, 1.0, float64(cfg.Frequency), 1e-9)
	assert.InDelta(t, 2.5, float64(cfg.Amplitude), 1e-12)
	assert.InDelta(t, -0.5, float64(cfg.Offset), 1e-12)
}

func TestSetAwgConfigWireStrings(t *testing.T) {
	tr := &scriptTransport{}
	cfg := data.AwgConfig{
		Enabled:   true,
		Mode:      data.AwgSine,
		Frequency: 1000,
		Amplitude: 2.5,
		Offset:    -0.1,
	}

	require.NoError(t, setAwgConfig(context.Background(), NewIO(tr), cfg))
	assert.Equal(t, []string{
		":FUNC SINE",
		":FUNC:FREQ 1000",
		":FUNC:AMPL 2.5",
		":FUNC:OFFS -0.1",
		":CHAN ON",
	}, tr.sent)
}

func TestRunOneCycle(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:CH2?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "ON"),
	}}

	commands := make(chan RunCommand)
	messages := make(chan Message, QueueCapacity)
	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(context.Background(), tr, commands, messages, Config{})
	}()

	msg := <-messages
	close(commands)
	require.NoError(t, <-runErr)

	dm, ok := msg.(DataMessage)
	require.True(t, ok)
	assert.Equal(t, data.StatusTriggering, dm.Signal.Header.RunStatus)
	assert.Len(t, dm.Signal.Ch1Data, data.ScreenSamples)
	assert.Len(t, dm.Signal.Ch2Data, data.ScreenSamples)
	assert.Nil(t, dm.Measurements)
	assert.Positive(t, dm.AcquisitionDuration)
}

func TestRunMeasurementsFollowHeader(t *testing.T) {
	respond := map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:CH2?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "OFF"),
		":MEAS:CH1:PKPK?":         "Vpp=3.720V\n",
		":MEAS:CH1:VAMP?":         "Va=?\n",
		":MEAS:CH1:AVER?":         "V=?\n",
		":MEAS:CH1:PER?":          "T=?\n",
		":MEAS:CH1:RT?":           "RT=?\n",
		":MEAS:CH1:PWID?":         "PW=?\n",
	}
	tr := &scriptTransport{respond: respond}

	commands := make(chan RunCommand)
	messages := make(chan Message, QueueCapacity)
	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(context.Background(), tr, commands, messages, Config{MeasurementsEnabled: true})
	}()

	msg := <-messages
	close(commands)
	require.NoError(t, <-runErr)

	dm, ok := msg.(DataMessage)
	require.True(t, ok)
	require.NotNil(t, dm.Measurements)
	// header says CH2 is off, so only CH1 was polled
	require.NotNil(t, dm.Measurements[data.Ch1].PeakToPeak)
	assert.InDelta(t, 3.72, *dm.Measurements[data.Ch1].PeakToPeak, 1e-12)
	assert.Equal(t, data.Measurements{}, dm.Measurements[data.Ch2])
}

func TestRunAwgCommand(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:CH2?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "ON"),
		":CHAN?":                  "OFF\n",
		":FUNC?":                  "SINE\n",
		":FUNC:FREQ?":             "1000000000000\n",
		":FUNC:AMPL?":             "1000\n",
		":FUNC:OFFS?":             "0\n",
	}}

	commands := make(chan RunCommand, 1)
	commands <- ReadAwgConfig{}
	messages := make(chan Message, QueueCapacity)
	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(context.Background(), tr, commands, messages, Config{})
	}()

	// the queued command drains before the first acquisition
	msg := <-messages
	close(commands)
	require.NoError(t, <-runErr)

	am, ok := msg.(AwgMessage)
	require.True(t, ok)
	assert.False(t, am.Config.Enabled)
	assert.Equal(t, data.AwgSine, am.Config.Mode)
	assert.InDelta(t, 1e6, float64(am.Config.Frequency), 1e-3)
	assert.InDelta(t, 1.0, float64(am.Config.Amplitude), 1e-12)
	assert.Equal(t, units.Voltage(0), am.Config.Offset)
}

func TestRunBlocksOnFullOutboundQueue(t *testing.T) {
	tr := &scriptTransport{respond: map[string]string{
		":DATa:WAVe:SCReen:CH1?":  waveResponse(),
		":DATa:WAVe:SCReen:CH2?":  waveResponse(),
		":DATa:WAVe:SCReen:HEAD?": headerResponse("ON", "ON"),
	}}

	commands := make(chan RunCommand)
	// unbuffered: every publish must rendezvous with the consumer
	messages := make(chan Message)
	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(context.Background(), tr, commands, messages, Config{})
	}()

	// let the worker finish a cycle and sit blocked on the full queue
	time.Sleep(20 * MinPause)

	var received []Message
	msg := <-messages
	received = append(received, msg)

	dm, ok := msg.(DataMessage)
	require.True(t, ok)
	assert.Equal(t, data.StatusTriggering, dm.Signal.Header.RunStatus)
	assert.Len(t, dm.Signal.Ch1Data, data.ScreenSamples)
	assert.Len(t, dm.Signal.Ch2Data, data.ScreenSamples)

	close(commands)
drain:
	for {
		select {
		case m := <-messages:
			received = append(received, m)
		case err := <-runErr:
			require.NoError(t, err)
			break drain
		}
	}

	// every acquisition cycle produced exactly one delivered message
	cycles := 0
	for _, cmd := range tr.sent {
		if cmd == ":DATa:WAVe:SCReen:HEAD?" {
			cycles++
		}
	}
	require.Equal(t, cycles, len(received))

	for _, m := range received {
		dm, ok := m.(DataMessage)
		require.True(t, ok)
		assert.Len(t, dm.Signal.Ch1Data, data.ScreenSamples)
		assert.Len(t, dm.Signal.Ch2Data, data.ScreenSamples)
	}
}

func TestRunClosedCommandsExitsClean(t *testing.T) {
	commands := make(chan RunCommand)
	close(commands)

	err := Run(context.Background(), &scriptTransport{}, commands, make(chan Message), Config{})
	assert.NoError(t, err)
}

func TestRunCanceledContextExitsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, &scriptTransport{}, make(chan RunCommand), make(chan Message), Config{})
	assert.NoError(t, err)
}

func TestRunIOErrorPropagates(t *testing.T) {
	// no scripted responses: the first acquisition read fails
	err := Run(context.Background(), &scriptTransport{}, make(chan RunCommand), make(chan Message), Config{})
	require.Error(t, err)

	var ioe *IOError
	assert.True(t, errors.As(err, &ioe))
}
