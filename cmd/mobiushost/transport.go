package main

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter/au"
	"github.com/mobius-looper/mobius-sub008/pkg/adapter/vst"
)

// transport is the scripted host clock. It answers both the vst and au
// callback sets.
type transport struct {
	product    string
	sampleRate int

	samplePos float64
	beat      float64
	tempo     float64
	num, den  int
	playing   bool
	changed   bool

	info vst.TimeInfo

	midi      int
	automated int
}

func newTransport(product string, sampleRate int) *transport {
	return &transport{product: product, sampleRate: sampleRate, tempo: 120, num: 4, den: 4}
}

// begin applies a segment before its first block.
func (t *transport) begin(seg Segment) {
	t.tempo = seg.Tempo
	t.num, t.den = seg.Numerator, seg.Denominator
	if seg.playing() != t.playing {
		t.playing = seg.playing()
		t.changed = true
	}
	if seg.Locate != nil {
		t.beat = *seg.Locate
		t.samplePos = t.beat * 60 / t.tempo * float64(t.sampleRate)
		t.changed = true
	}
}

// advance moves the clock past one rendered block.
func (t *transport) advance(frames int) {
	t.changed = false
	if !t.playing || t.sampleRate <= 0 {
		return
	}
	t.samplePos += float64(frames)
	t.beat += float64(frames) * t.tempo / 60 / float64(t.sampleRate)
}

func (t *transport) TimeInfo(flags int32) *vst.TimeInfo {
	t.info = vst.TimeInfo{
		SamplePos:          t.samplePos,
		SampleRate:         float64(t.sampleRate),
		PPQPos:             t.beat,
		Tempo:              t.tempo,
		TimeSigNumerator:   int32(t.num),
		TimeSigDenominator: int32(t.den),
		Flags:              vst.PPQPosValid | vst.TempoValid | vst.TimeSigValid,
	}
	if t.playing {
		t.info.Flags |= vst.TransportPlaying
	}
	if t.changed {
		t.info.Flags |= vst.TransportChanged
	}
	return &t.info
}

func (t *transport) ProcessEvents(events []vst.MIDIEvent) {
	t.midi += len(events)
}

func (t *transport) AutomateParameter(int32, float32) { t.automated++ }

func (t *transport) ProductString() string { return t.product }

func (t *transport) BeatAndTempo() (au.BeatAndTempo, bool) {
	return au.BeatAndTempo{CurrentBeat: t.beat, CurrentTempo: t.tempo}, true
}

func (t *transport) MusicalTimeLocation() (au.MusicalTimeLocation, bool) {
	return au.MusicalTimeLocation{
		TimeSigNumerator:   float32(t.num),
		TimeSigDenominator: uint32(t.den),
	}, true
}

func (t *transport) TransportState() (au.TransportState, bool) {
	return au.TransportState{
		IsPlaying:               t.playing,
		TransportStateChanged:   t.changed,
		CurrentSampleInTimeLine: t.samplePos,
	}, true
}

func (t *transport) MIDIOutput(gomidi.Message, int32) { t.midi++ }

func (t *transport) ParameterChanged(uint32, float32) { t.automated++ }
