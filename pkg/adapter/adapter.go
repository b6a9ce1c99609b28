// Package adapter drives an audio engine from a plugin host. It owns the
// lifecycle, host transport synchronization, the per-port scratch buffers,
// parameter exchange and MIDI delivery; plugin flavors translate their
// host protocol to its methods.
package adapter

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelindar/event"

	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/plugin"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/port"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/process"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/state"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

// Adapter is one plugin instance. Render is called from the host's render
// thread; everything else from host control threads.
type Adapter struct {
	opts   Options
	logger *debug.Logger
	once   *debug.Once

	engine engine.Engine
	host   Host
	scaler param.Scaler
	layout *bus.Configuration

	sync    *hostsync.State
	router  *port.Router
	stream  *process.Stream
	queue   *midi.Queue
	metrics *metrics
	events  *event.Dispatcher
	audio   audioInterface
	env     environment

	mu         sync.Mutex
	lifecycle  atomic.Int32
	bypass     atomic.Bool
	sampleRate atomic.Int64
	blockSize  int
	started    bool

	table  atomic.Pointer[param.Table]
	states *state.Manager

	// render thread only
	sample         hostsync.Sample
	time           hostsync.AudioTime
	tempoCountdown int
	midiBuf        [3]byte

	editor     Editor
	handle     *EditorHandle
	detachOnce sync.Once
}

// New creates an adapter around the engine made by factory. The engine is
// not started until Initialize.
func New(factory engine.Factory, opts Options) (*Adapter, error) {
	if factory == nil {
		return nil, ErrNilEngine
	}
	eng, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	if eng == nil {
		return nil, ErrNilEngine
	}

	opts = opts.withDefaults()
	m, err := newMetrics(opts.Registerer, opts.Instance)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	prefix := opts.Info.Name
	if prefix == "" {
		prefix = "adapter"
	}
	logger := opts.Logger.With(prefix)

	queueSize := opts.MIDIQueueSize
	if queueSize <= 0 {
		queueSize = midi.DefaultQueueSize
	}

	a := &Adapter{
		opts:    opts,
		logger:  logger,
		once:    debug.NewOnce(logger, int(errorCount)),
		engine:  eng,
		host:    opts.Host,
		scaler:  opts.Scaler,
		layout:  opts.Layout,
		sync:    hostsync.New(opts.Sync),
		router:  port.NewRouter(opts.Layout.Ports(), opts.Layout.ChannelsPerPort(), opts.MaxFrames),
		queue:   midi.NewQueue(queueSize),
		metrics: m,
		events:  opts.Dispatcher,
	}
	a.sync.SetLogger(logger.With(prefix + "/sync"))
	a.stream = process.NewStream(a.router, a.layout, a.queue)
	a.audio = audioInterface{a: a}
	a.env = environment{a: a}

	logger.Debug("created for host %q: %d ports of %d channels, %d frames max",
		opts.HostName, a.router.Ports(), a.router.ChannelsPerPort(), opts.MaxFrames)
	return a, nil
}

// Initialize starts the engine and reads its parameters. Calling it again
// only updates the sample rate and block size.
func (a *Adapter) Initialize(sampleRate, blockSize int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	lc := a.Lifecycle()
	if lc == Closed {
		a.logger.Warn("initialize after close")
		return ErrClosed
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	a.sampleRate.Store(int64(sampleRate))
	a.blockSize = blockSize
	if blockSize > a.router.MaxFrames() {
		a.logger.Warn("host block size %d exceeds %d frames; larger buffers will be rejected",
			blockSize, a.router.MaxFrames())
	}
	if lc != Constructed {
		a.logger.Debug("sample rate %d, block size %d", sampleRate, blockSize)
		return nil
	}

	if err := a.engine.Start(a.env); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	a.started = true

	table, err := param.NewTable(a.engine.Parameters())
	if err != nil {
		return fmt.Errorf("engine parameters: %w", err)
	}
	for _, p := range table.All() {
		v := a.engine.ParameterValue(p.ID)
		p.SetValue(v)
		p.SetEngineValue(v)
	}
	a.table.Store(table)
	a.states = state.NewManager(table)

	a.setLifecycle(Initialized)
	return nil
}

// Resume starts delivering render cycles to the engine.
func (a *Adapter) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.Lifecycle() {
	case Resumed:
		return nil
	case Closed:
		a.logger.Warn("resume after close")
		return ErrClosed
	case Constructed:
		a.logger.Warn("resume before initialize")
		return ErrNotInitialized
	}
	a.sync.Reset()
	a.tempoCountdown = 0
	a.engine.Resume()
	a.setLifecycle(Resumed)
	return nil
}

// Suspend stops delivering render cycles. Renders while suspended follow
// the suspended policy.
func (a *Adapter) Suspend() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.Lifecycle() {
	case Suspended:
		return nil
	case Closed:
		a.logger.Warn("suspend after close")
		return ErrClosed
	case Constructed:
		a.logger.Warn("suspend before initialize")
		return ErrNotInitialized
	case Resumed:
		a.engine.Suspend()
	}
	// values staged for a cycle that will not come
	a.applyStaged()
	a.setLifecycle(Suspended)
	return nil
}

// Close stops the engine and releases the editor. It may be called more
// than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	prev := a.Lifecycle()
	if prev == Closed {
		a.mu.Unlock()
		return nil
	}
	a.setLifecycle(Closed)
	a.mu.Unlock()

	if prev == Resumed {
		// give a render already past its state check time to finish
		time.Sleep(a.opts.CloseDelay)
	}
	if a.started {
		a.engine.Stop()
	}
	a.detachEditor()
	return nil
}

// SetBypass switches between engine output and input passthrough.
func (a *Adapter) SetBypass(bypass bool) {
	if a.bypass.Swap(bypass) != bypass {
		a.logger.Debug("bypass %v", bypass)
	}
}

// Bypassed reports the bypass switch.
func (a *Adapter) Bypassed() bool {
	return a.bypass.Load()
}

// Lifecycle returns the current state.
func (a *Adapter) Lifecycle() Lifecycle {
	return Lifecycle(a.lifecycle.Load())
}

func (a *Adapter) setLifecycle(to Lifecycle) {
	from := Lifecycle(a.lifecycle.Swap(int32(to)))
	if from == to {
		return
	}
	a.logger.Debug("%v -> %v", from, to)
	event.Publish(a.events, StateChangedEvent{Instance: a.opts.Instance, From: from, To: to})
}

// Info returns the plugin identity.
func (a *Adapter) Info() plugin.Info { return a.opts.Info }

// Layout returns the port layout presented to the host.
func (a *Adapter) Layout() *bus.Configuration { return a.layout }

// Engine returns the hosted engine.
func (a *Adapter) Engine() engine.Engine { return a.engine }

// Logger returns the instance logger.
func (a *Adapter) Logger() *debug.Logger { return a.logger }

// SampleRate returns the rate passed to Initialize.
func (a *Adapter) SampleRate() int { return int(a.sampleRate.Load()) }

// MaxFrames returns the largest buffer Render accepts.
func (a *Adapter) MaxFrames() int { return a.router.MaxFrames() }

// HostName returns the host product name given at construction.
func (a *Adapter) HostName() string { return a.opts.HostName }

// Time returns a copy of the last cycle's sync snapshot. Off the render
// thread the copy may be torn.
func (a *Adapter) Time() hostsync.AudioTime { return a.time }

// SetSync replaces the host compatibility flags, e.g. after the host
// reports its product name.
func (a *Adapter) SetSync(cfg hostsync.Config) {
	a.mu.Lock()
	a.sync.SetHost(cfg)
	a.mu.Unlock()
}

// SyncConfig returns the host compatibility flags in use.
func (a *Adapter) SyncConfig() hostsync.Config {
	return a.sync.Config()
}
