// Package metrics counts relocation traffic for one stage.
//
// Every Recorder owns its own prometheus registry so that independent stages
// never share counters. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stageport"

// Recorder holds the counters of one stage
type Recorder struct {
	registry *prometheus.Registry

	commands   *prometheus.CounterVec
	flushes    prometheus.Counter
	flushed    prometheus.Counter
	duplicates prometheus.Counter
	stale      *prometheus.CounterVec
	renders    *prometheus.CounterVec
}

// NewRecorder creates a recorder whose counters carry the given stage id
func NewRecorder(stageID string) *Recorder {
	labels := prometheus.Labels{"stage": stageID}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "commands_total",
			Help:        "Relocation commands by kind and whether they were applied or queued.",
			ConstLabels: labels,
		}, []string{"kind", "path"}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "flushes_total",
			Help:        "Pending queue flushes triggered by manager registration.",
			ConstLabels: labels,
		}),
		flushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "flushed_commands_total",
			Help:        "Commands replayed from pending queues.",
			ConstLabels: labels,
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "duplicate_registrations_total",
			Help:        "Manager registrations that replaced a live manager.",
			ConstLabels: labels,
		}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stale_commands_total",
			Help:        "Updates and unmounts that referenced a key no longer in the table.",
			ConstLabels: labels,
		}, []string{"kind"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "renders_total",
			Help:        "Visible refreshes committed by container managers.",
			ConstLabels: labels,
		}, []string{"container"}),
	}
	r.registry.MustRegister(r.commands, r.flushes, r.flushed, r.duplicates, r.stale, r.renders)
	return r
}

// Registry exposes the underlying prometheus registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Applied counts a command applied directly to a live manager
func (r *Recorder) Applied(kind string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(kind, "applied").Inc()
}

// Queued counts a command parked in a pending queue
func (r *Recorder) Queued(kind string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(kind, "queued").Inc()
}

// Flushed counts one queue flush that replayed n commands
func (r *Recorder) Flushed(n int) {
	if r == nil {
		return
	}
	r.flushes.Inc()
	r.flushed.Add(float64(n))
}

// Duplicate counts a duplicate registration
func (r *Recorder) Duplicate() {
	if r == nil {
		return
	}
	r.duplicates.Inc()
}

// Stale counts a command that referenced an absent key
func (r *Recorder) Stale(kind string) {
	if r == nil {
		return
	}
	r.stale.WithLabelValues(kind).Inc()
}

// Rendered counts a committed refresh of a container
func (r *Recorder) Rendered(container string) {
	if r == nil {
		return
	}
	r.renders.WithLabelValues(container).Inc()
}

// Snapshot returns every non-zero series as sorted "name{labels} value" lines
func (r *Recorder) Snapshot() ([]string, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "stage" {
					continue
				}
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	return lines, nil
}
