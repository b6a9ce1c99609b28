package adapter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/engine/metronome"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

func channels(count, frames int, value float32) [][]float32 {
	chans := make([][]float32, count)
	for c := range chans {
		chans[c] = make([]float32, frames)
		for i := range chans[c] {
			chans[c][i] = value
		}
	}
	return chans
}

func allEqual(chans [][]float32, frames int, want float32) bool {
	for _, ch := range chans {
		for i := 0; i < frames && i < len(ch); i++ {
			if ch[i] != want {
				return false
			}
		}
	}
	return true
}

// fill makes the engine write value to every output sample.
func fill(value float32) func(engine.AudioStream) {
	return func(s engine.AudioStream) {
		_, out := s.InterruptBuffers(0, 0)
		for i := range out {
			out[i] = value
		}
	}
}

func TestValidate(t *testing.T) {
	opts := testOptions(nil)
	opts.MaxFrames = 256
	a := newTestAdapter(t, newFakeEngine(), opts)

	tests := []struct {
		name    string
		in, out int
		frames  int
		want    error
	}{
		{"ok", 2, 2, 256, nil},
		{"fewer channels", 1, 0, 16, nil},
		{"zero frames", 2, 2, 0, ErrZeroFrames},
		{"negative frames", 2, 2, -1, ErrZeroFrames},
		{"too large", 2, 2, 257, ErrBufferTooLarge},
		{"too many inputs", 3, 2, 16, ErrPortRange},
		{"too many outputs", 2, 4, 16, ErrPortRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Validate(channels(tt.in, 8, 0), channels(tt.out, 8, 0), tt.frames)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRenderRejects(t *testing.T) {
	tests := []struct {
		name    string
		frames  int
		outputs int
		want    Error
	}{
		{"zero frames", 0, 2, ErrZeroFrames},
		{"oversized", 513, 2, ErrBufferTooLarge},
		{"port range", 64, 6, ErrPortRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			host := &fakeHost{known: true}
			opts := testOptions(host)
			opts.MaxFrames = 512
			a := resumed(t, eng, opts)

			out := channels(tt.outputs, 1024, 0.25)
			for i := 0; i < 3; i++ {
				a.Render(channels(2, 1024, 1), out, tt.frames, true)
			}

			if eng.processed != 0 {
				t.Errorf("Expected engine not invoked, got %d cycles", eng.processed)
			}
			if host.queries != 0 {
				t.Errorf("Expected no transport queries, got %d", host.queries)
			}
			if !allEqual(out, 1024, 0.25) {
				t.Error("Expected output untouched")
			}
			if got := testutil.ToFloat64(a.metrics.rejected[tt.want]); got != 3 {
				t.Errorf("Expected 3 rejections, got %v", got)
			}
			if !a.once.Seen(int(tt.want)) {
				t.Error("Expected rejection to be logged")
			}
			if got := testutil.ToFloat64(a.metrics.cycles); got != 0 {
				t.Errorf("Expected 0 cycles, got %v", got)
			}
		})
	}
}

func TestRenderOrder(t *testing.T) {
	eng := newFakeEngine()
	host := &fakeHost{log: eng.log, known: true}
	eng.process = func(s engine.AudioStream) {
		eng.values[1] = 5
		s.SendMIDI(midi.NoteOn(0, 60, 100))
	}
	a := resumed(t, eng, testOptions(host))

	a.Render(channels(2, 64, 0), channels(2, 64, 0), 64, true)

	want := []string{"transport", "process", "automate", "midi"}
	if !reflect.DeepEqual(*eng.log, want) {
		t.Errorf("Expected order %v, got %v", want, *eng.log)
	}
	if got := testutil.ToFloat64(a.metrics.cycles); got != 1 {
		t.Errorf("Expected 1 cycle, got %v", got)
	}
}

func TestReplaceAndMix(t *testing.T) {
	tests := []struct {
		name    string
		replace bool
		want    float32
	}{
		{"replace", true, 0.5},
		{"mix", false, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.process = fill(0.5)
			a := resumed(t, eng, testOptions(nil))

			out := channels(2, 128, 1)
			a.Render(channels(2, 128, 0), out, 128, tt.replace)
			if !allEqual(out, 128, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, out[0][0])
			}
		})
	}
}

func TestUntouchedPort(t *testing.T) {
	eng := newFakeEngine()
	a := resumed(t, eng, testOptions(nil))

	out := channels(2, 64, 1)
	a.Render(nil, out, 64, false)
	if !allEqual(out, 64, 1) {
		t.Error("Expected mix output left alone when the engine writes nothing")
	}

	a.Render(nil, out, 64, true)
	if !allEqual(out, 64, 0) {
		t.Error("Expected replace output zeroed when the engine writes nothing")
	}
}

func TestNilHostChannels(t *testing.T) {
	eng := newFakeEngine()
	var input []float32
	eng.process = func(s engine.AudioStream) {
		in, _ := s.InterruptBuffers(0, 0)
		input = append(input[:0], in...)
	}
	a := resumed(t, eng, testOptions(nil))

	in := [][]float32{nil, make([]float32, 32)}
	for i := range in[1] {
		in[1][i] = 0.75
	}
	out := [][]float32{make([]float32, 32), nil}
	a.Render(in, out, 32, true)

	for i := 0; i < 32; i++ {
		if input[i*2] != 0 || input[i*2+1] != 0.75 {
			t.Fatalf("Expected frame %d to be (0, 0.75), got (%v, %v)", i, input[i*2], input[i*2+1])
		}
	}
}

func TestBypass(t *testing.T) {
	eng := newFakeEngine()
	eng.process = fill(0.5)
	a := resumed(t, eng, testOptions(nil))
	a.SetBypass(true)
	if !a.Bypassed() {
		t.Fatal("Expected bypassed")
	}

	out := channels(2, 64, 0)
	a.Render(channels(2, 64, 0.3), out, 64, true)
	if eng.processed != 0 {
		t.Errorf("Expected engine skipped in bypass, got %d cycles", eng.processed)
	}
	if !allEqual(out, 64, 0.3) {
		t.Errorf("Expected input passed through, got %v", out[0][0])
	}

	a.SetBypass(false)
	a.Render(channels(2, 64, 0.3), out, 64, true)
	if !allEqual(out, 64, 0.5) {
		t.Errorf("Expected engine output after bypass, got %v", out[0][0])
	}
}

func TestSuspendedPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  SuspendedPolicy
		replace bool
		want    float32
	}{
		{"silence replace", SuspendedSilence, true, 0},
		{"silence mix", SuspendedSilence, false, 1},
		{"passthrough replace", SuspendedPassthrough, true, 0.25},
		{"passthrough mix", SuspendedPassthrough, false, 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.process = fill(0.5)
			opts := testOptions(nil)
			opts.Suspended = tt.policy
			a := newTestAdapter(t, eng, opts)

			// before Initialize and while suspended
			for _, step := range []func() error{
				func() error { return nil },
				func() error { return a.Initialize(48000, 64) },
				a.Suspend,
			} {
				if err := step(); err != nil {
					t.Fatalf("setup failed: %v", err)
				}
				out := channels(2, 64, 1)
				a.Render(channels(2, 64, 0.25), out, 64, tt.replace)
				if !allEqual(out, 64, tt.want) {
					t.Errorf("In %v expected %v, got %v", a.Lifecycle(), tt.want, out[0][0])
				}
			}
			if eng.processed != 0 {
				t.Errorf("Expected engine not invoked, got %d cycles", eng.processed)
			}
		})
	}
}

func TestRenderAfterClose(t *testing.T) {
	eng := newFakeEngine()
	eng.process = fill(0.5)
	a := resumed(t, eng, testOptions(nil))
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := channels(2, 64, 1)
	a.Render(channels(2, 64, 0.3), out, 64, true)
	if eng.processed != 0 || !allEqual(out, 64, 0) {
		t.Error("Expected silence without the engine after close")
	}
}

func TestTempoThrottle(t *testing.T) {
	tests := []struct {
		name  string
		tempo float64
		known bool
		want  int
	}{
		{"throttled", 120, true, 3},
		{"no tempo", 0, true, 25},
		{"no time info", 120, false, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &fakeHost{known: tt.known}
			host.sample = hostsync.Sample{SampleRate: 48000, Tempo: tt.tempo, Numerator: 4, Denominator: 4}
			a := resumed(t, newFakeEngine(), testOptions(host))

			for i := 0; i < 25; i++ {
				a.Render(nil, channels(2, 64, 0), 64, true)
			}
			if host.queries != 25 {
				t.Errorf("Expected 25 transport queries, got %d", host.queries)
			}
			if host.tempoQueries != tt.want {
				t.Errorf("Expected %d tempo queries, got %d", tt.want, host.tempoQueries)
			}
		})
	}
}

func TestMIDIDrain(t *testing.T) {
	eng := newFakeEngine()
	host := &fakeHost{}
	eng.process = func(s engine.AudioStream) {
		on := midi.NoteOn(0, 60, 100)
		on.Offset = 7
		s.SendMIDI(on)
		s.SendMIDI(midi.ControlChange(1, 7, 64))
		s.SendMIDI(midi.Realtime(midi.EventTypeClock))
	}
	a := resumed(t, eng, testOptions(host))

	a.Render(nil, channels(2, 64, 0), 64, true)

	want := []sentMIDI{
		{[]byte{0x90, 60, 100}, 7},
		{[]byte{0xB1, 7, 64}, 0},
		{[]byte{0xF8}, 0},
	}
	if !reflect.DeepEqual(host.midi, want) {
		t.Errorf("Expected %v, got %v", want, host.midi)
	}
	if a.queue.Len() != 0 {
		t.Errorf("Expected queue drained, got %d", a.queue.Len())
	}
	if got := testutil.ToFloat64(a.metrics.midi); got != 3 {
		t.Errorf("Expected 3 MIDI events counted, got %v", got)
	}
}

func TestMIDIDrainSkipsUnknownType(t *testing.T) {
	eng := newFakeEngine()
	host := &fakeHost{}
	eng.process = func(s engine.AudioStream) {
		s.SendMIDI(midi.Event{Type: midi.EventType(200), Data1: 1})
		s.SendMIDI(midi.NoteOff(0, 60, 0))
	}
	a := resumed(t, eng, testOptions(host))

	a.Render(nil, channels(2, 64, 0), 64, true)

	want := []sentMIDI{{[]byte{0x80, 60, 0}, 0}}
	if !reflect.DeepEqual(host.midi, want) {
		t.Errorf("Expected %v, got %v", want, host.midi)
	}
	if got := testutil.ToFloat64(a.metrics.midi); got != 1 {
		t.Errorf("Expected 1 MIDI event counted, got %v", got)
	}
	if !a.once.Seen(onceInvalidMIDI) {
		t.Error("Expected unknown event type to be reported")
	}
}

func TestMetronomeSync(t *testing.T) {
	// 100 Hz at 60 bpm: 0.01 beats per frame, half a beat per cycle
	host := &fakeHost{known: true, advance: 0.5}
	host.sample = hostsync.Sample{
		SampleRate:       100,
		Tempo:            60,
		Numerator:        4,
		Denominator:      4,
		TransportChanged: true,
		TransportPlaying: true,
	}
	eng := metronome.New()
	a := newTestAdapter(t, eng, testOptions(host))
	if err := a.Initialize(100, 50); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := a.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	in, out := channels(2, 50, 0), channels(2, 50, 0)
	beats := 0
	for i := 0; i < 20; i++ {
		a.Render(in, out, 50, true)
		if tm := a.Time(); tm.BeatBoundary {
			if tm.Beat != beats {
				t.Errorf("Cycle %d: expected beat %d, got %d", i, beats, tm.Beat)
			}
			beats++
		}
	}

	if beats != 10 {
		t.Errorf("Expected 10 beats, got %d", beats)
	}
	if got := testutil.ToFloat64(a.metrics.beats); got != 10 {
		t.Errorf("Expected 10 beats counted, got %v", got)
	}
	if got := testutil.ToFloat64(a.metrics.bars); got != 3 {
		t.Errorf("Expected 3 bars counted, got %v", got)
	}
	if eng.Bars() != 3 {
		t.Errorf("Expected metronome to count 3 bars, got %d", eng.Bars())
	}
	// a note on per beat, each released on the next cycle
	if len(host.midi) != 20 {
		t.Errorf("Expected 20 MIDI events, got %d", len(host.midi))
	}
}

func TestResumeWaitsForRewind(t *testing.T) {
	// 100 Hz at 60 bpm with 50 frame buffers, host stuck at the old position
	host := &fakeHost{known: true}
	host.sample = hostsync.Sample{
		SampleRate:       100,
		Tempo:            60,
		Numerator:        4,
		Denominator:      4,
		BeatPosition:     4.0,
		TransportChanged: true,
		TransportPlaying: true,
	}
	opts := testOptions(host)
	opts.Sync = hostsync.Config{RewindsOnResume: true}
	a := newTestAdapter(t, newFakeEngine(), opts)
	if err := a.Initialize(100, 50); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := a.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	in, out := channels(2, 50, 0), channels(2, 50, 0)
	for i := 0; i < 2; i++ {
		a.Render(in, out, 50, true)
		if a.Time().BeatBoundary {
			t.Errorf("Cycle %d: expected no boundary at the stale position", i)
		}
	}

	host.sample.BeatPosition = 2.0
	a.Render(in, out, 50, true)
	if tm := a.Time(); !tm.BeatBoundary || tm.Beat != 2 {
		t.Errorf("Expected boundary at beat 2 after the rewind, got boundary=%v beat=%d", tm.BeatBoundary, tm.Beat)
	}
	if got := a.sync.Recalculations(); got != 1 {
		t.Errorf("Expected exactly one recalculation, got %d", got)
	}
	if got := testutil.ToFloat64(a.metrics.beats); got != 1 {
		t.Errorf("Expected 1 beat counted, got %v", got)
	}
}

func TestMultiPortLayout(t *testing.T) {
	eng := newFakeEngine()
	eng.process = func(s engine.AudioStream) {
		for p := 0; p < 3; p++ {
			in, out := s.InterruptBuffers(p, p)
			for i := range out {
				out[i] = in[i] + float32(p)
			}
		}
	}
	opts := testOptions(nil)
	opts.Layout = bus.NewMultiPort(3)
	a := resumed(t, eng, opts)

	out := channels(6, 32, 0)
	a.Render(channels(6, 32, 0.5), out, 32, true)
	for c, ch := range out {
		want := 0.5 + float32(c/2)
		if ch[0] != want || ch[31] != want {
			t.Errorf("Channel %d: expected %v, got %v", c, want, ch[0])
		}
	}
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	var adapters []*Adapter
	for _, instance := range []string{"one", "two"} {
		opts := testOptions(nil)
		opts.Registerer = reg
		opts.Instance = instance
		adapters = append(adapters, resumed(t, newFakeEngine(), opts))
	}

	adapters[0].Render(nil, channels(2, 16, 0), 16, true)
	adapters[0].Render(nil, channels(2, 16, 0), 16, true)
	adapters[1].Render(nil, channels(2, 16, 0), 16, true)

	if got := testutil.ToFloat64(adapters[0].metrics.cycles); got != 2 {
		t.Errorf("Expected 2 cycles for first instance, got %v", got)
	}
	if got := testutil.ToFloat64(adapters[1].metrics.cycles); got != 1 {
		t.Errorf("Expected 1 cycle for second instance, got %v", got)
	}
}

func TestRegistryConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	other := prometheus.NewCounterVec(beatsOpts, []string{"host"})
	if err := reg.Register(other); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	opts := testOptions(nil)
	opts.Registerer = reg
	a, err := New(func() (engine.Engine, error) { return newFakeEngine(), nil }, opts)
	if err == nil {
		t.Fatal("Expected error for conflicting label names")
	}
	if a != nil {
		t.Error("Expected no adapter on error")
	}
}

func TestRenderAllocations(t *testing.T) {
	a := resumed(t, metronome.New(), testOptions(NopHost{}))
	in, out := channels(2, 256, 0.1), channels(2, 256, 0)

	allocs := testing.AllocsPerRun(100, func() {
		a.Render(in, out, 256, true)
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations per render, got %v", allocs)
	}
}
