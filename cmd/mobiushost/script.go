package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultScript []byte

// Flavors the harness can drive.
const (
	FlavorVST = "vst"
	FlavorAU  = "au"
)

// Script describes one scripted host session.
type Script struct {
	Flavor     string `toml:"flavor"`
	Host       string `toml:"host"`
	SampleRate int    `toml:"sample_rate"`
	Frames     int    `toml:"frames"`

	// Params are display strings keyed by parameter name, applied before
	// the first render.
	Params map[string]string `toml:"params"`

	Segments []Segment `toml:"segment"`
}

// Segment is a run of blocks with a fixed transport.
type Segment struct {
	Blocks      int     `toml:"blocks"`
	Tempo       float64 `toml:"tempo"`
	Numerator   int     `toml:"numerator"`
	Denominator int     `toml:"denominator"`
	// Playing defaults to true.
	Playing *bool `toml:"playing"`
	// Locate moves the transport to a beat at the start of the segment.
	Locate *float64 `toml:"locate"`
	Bypass bool     `toml:"bypass"`
}

// DefaultScript returns the built in session.
func DefaultScript() *Script {
	s, err := ParseScript(defaultScript)
	if err != nil {
		panic(fmt.Sprintf("mobiushost: embedded script: %v", err))
	}
	return s
}

// ParseScript decodes and validates a script. Unknown keys are errors.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	s.fill()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

func (s *Script) fill() {
	if s.Flavor == "" {
		s.Flavor = FlavorVST
	}
	if s.SampleRate == 0 {
		s.SampleRate = 44100
	}
	if s.Frames == 0 {
		s.Frames = 512
	}
	// segments inherit the previous tempo and meter
	tempo, num, den := 120.0, 4, 4
	for i := range s.Segments {
		seg := &s.Segments[i]
		if seg.Tempo == 0 {
			seg.Tempo = tempo
		}
		if seg.Numerator == 0 {
			seg.Numerator = num
		}
		if seg.Denominator == 0 {
			seg.Denominator = den
		}
		tempo, num, den = seg.Tempo, seg.Numerator, seg.Denominator
	}
}

func (s *Script) validate() error {
	var errs []error
	switch s.Flavor {
	case FlavorVST, FlavorAU:
	default:
		errs = append(errs, fmt.Errorf("unknown flavor %q", s.Flavor))
	}
	if s.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d", s.SampleRate))
	}
	if s.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames %d", s.Frames))
	}
	if len(s.Segments) == 0 {
		errs = append(errs, errors.New("no segments"))
	}
	for i, seg := range s.Segments {
		if seg.Blocks <= 0 {
			errs = append(errs, fmt.Errorf("segment %d: blocks %d", i+1, seg.Blocks))
		}
		if seg.Tempo < 0 {
			errs = append(errs, fmt.Errorf("segment %d: tempo %g", i+1, seg.Tempo))
		}
		if seg.Numerator < 0 || seg.Denominator < 0 {
			errs = append(errs, fmt.Errorf("segment %d: meter %d/%d", i+1, seg.Numerator, seg.Denominator))
		}
	}
	return errors.Join(errs...)
}

// Blocks returns the total number of blocks in the script.
func (s *Script) Blocks() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Blocks
	}
	return n
}

func (seg Segment) playing() bool {
	return seg.Playing == nil || *seg.Playing
}
