package adapter

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "render_cycles_total",
		Help:      "Render cycles that reached the engine.",
	}
	rejectedOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "render_rejected_total",
		Help:      "Render cycles refused before reaching the engine.",
	}
	beatsOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "beats_total",
		Help:      "Beat boundaries detected in the host transport.",
	}
	barsOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "bars_total",
		Help:      "Bar boundaries detected in the host transport.",
	}
	midiOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "midi_events_total",
		Help:      "MIDI events delivered to the host.",
	}
	exportsOpts = prometheus.CounterOpts{
		Namespace: "mobius",
		Subsystem: "adapter",
		Name:      "parameter_exports_total",
		Help:      "Engine parameter changes reported to the host.",
	}
)

// metrics holds counters resolved for one instance so the render thread
// never does a label lookup.
type metrics struct {
	cycles   prometheus.Counter
	beats    prometheus.Counter
	bars     prometheus.Counter
	midi     prometheus.Counter
	exports  prometheus.Counter
	rejected [errorCount]prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, instance string) (*metrics, error) {
	vecs := make([]*prometheus.CounterVec, 0, 5)
	for _, opts := range []prometheus.CounterOpts{cyclesOpts, beatsOpts, barsOpts, midiOpts, exportsOpts} {
		vec, err := counterVec(reg, opts, "instance")
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, vec)
	}
	rejected, err := counterVec(reg, rejectedOpts, "instance", "reason")
	if err != nil {
		return nil, err
	}

	m := &metrics{
		cycles:  vecs[0].WithLabelValues(instance),
		beats:   vecs[1].WithLabelValues(instance),
		bars:    vecs[2].WithLabelValues(instance),
		midi:    vecs[3].WithLabelValues(instance),
		exports: vecs[4].WithLabelValues(instance),
	}
	for _, e := range []Error{ErrZeroFrames, ErrBufferTooLarge, ErrPortRange} {
		m.rejected[e] = rejected.WithLabelValues(instance, e.reason())
	}
	return m, nil
}

func (m *metrics) reject(e Error) {
	if c := m.rejected[e]; c != nil {
		c.Inc()
	}
}

// counterVec registers a vector on reg, sharing an existing one when
// several adapters use the same registry.
func counterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	vec := prometheus.NewCounterVec(opts, labels)
	err := reg.Register(vec)
	if err == nil {
		return vec, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("register %s: %w", prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name), err)
}
