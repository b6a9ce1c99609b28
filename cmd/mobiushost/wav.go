package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// recording collects the first output port, interleaved.
type recording struct {
	channels int
	samples  []float32
}

func newRecording(channels, frames int) *recording {
	return &recording{channels: channels, samples: make([]float32, 0, channels*frames)}
}

func (r *recording) append(out [][]float32, frames int) {
	for i := 0; i < frames; i++ {
		for ch := 0; ch < r.channels; ch++ {
			r.samples = append(r.samples, out[ch][i])
		}
	}
}

// Frames returns the number of recorded frames.
func (r *recording) Frames() int {
	if r.channels == 0 {
		return 0
	}
	return len(r.samples) / r.channels
}

// writeWAV stores the recording as 16 bit PCM.
func (r *recording) writeWAV(path string, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, r.channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(r.samples)),
		SourceBitDepth: wavBitDepth,
	}
	for i, v := range r.samples {
		buf.Data[i] = int(clip(v) * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
