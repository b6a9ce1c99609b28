package adapter

import (
	"time"

	"github.com/kelindar/event"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/plugin"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

const (
	// DefaultMaxFrames is the largest host buffer accepted by default.
	DefaultMaxFrames = 4096
	// DefaultTempoCheckInterval is the number of cycles between tempo
	// queries.
	DefaultTempoCheckInterval = 10
	// DefaultCloseDelay is how long Close waits for an in-flight render.
	DefaultCloseDelay = 100 * time.Millisecond
)

// SuspendedPolicy selects what a render cycle outside the Resumed state
// writes to the host.
type SuspendedPolicy int

const (
	// SuspendedSilence writes silence in replace mode and leaves the
	// output alone when mixing.
	SuspendedSilence SuspendedPolicy = iota
	// SuspendedPassthrough copies input to output.
	SuspendedPassthrough
)

// Options configures an adapter. The zero value is usable: one stereo port,
// normalized parameters, no host callbacks.
type Options struct {
	Info   plugin.Info
	Layout *bus.Configuration

	MaxFrames          int
	TempoCheckInterval int
	// CloseDelay defaults to DefaultCloseDelay; a negative value disables
	// the wait.
	CloseDelay    time.Duration
	MIDIQueueSize int

	// Sync holds the compatibility flags of the host, usually from a
	// host profile.
	Sync      hostsync.Config
	Suspended SuspendedPolicy
	Scaler    param.Scaler

	Host     Host
	HostName string

	Logger     *debug.Logger
	Registerer prometheus.Registerer
	Dispatcher *event.Dispatcher
	// Instance labels this adapter's metrics.
	Instance string
}

func (o Options) withDefaults() Options {
	if o.Layout == nil {
		o.Layout = bus.NewStereo()
	}
	if o.MaxFrames <= 0 {
		o.MaxFrames = DefaultMaxFrames
	}
	if o.TempoCheckInterval <= 0 {
		o.TempoCheckInterval = DefaultTempoCheckInterval
	}
	if o.CloseDelay < 0 {
		o.CloseDelay = 0
	} else if o.CloseDelay == 0 {
		o.CloseDelay = DefaultCloseDelay
	}
	if o.Scaler == nil {
		o.Scaler = param.Normalized{}
	}
	if o.Host == nil {
		o.Host = NopHost{}
	}
	if o.Logger == nil {
		o.Logger = debug.Default()
	}
	if o.Registerer == nil {
		o.Registerer = prometheus.NewRegistry()
	}
	if o.Dispatcher == nil {
		o.Dispatcher = event.NewDispatcher()
	}
	if o.Instance == "" {
		o.Instance = o.Info.Code
	}
	if o.Instance == "" {
		o.Instance = "default"
	}
	return o
}
