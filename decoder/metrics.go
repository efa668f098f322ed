package decoder

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "hiero"
	metricsSubsystem = "decoder"
)

// Sentence outcomes recorded by Metrics.
const (
	OutcomeComplete = "complete"
	OutcomeFallback = "fallback"
	OutcomeBlank    = "blank"
	OutcomeFailed   = "failed"
)

// Metrics exports decoding counters. A nil *Metrics records nothing.
type Metrics struct {
	Sentences   *prometheus.CounterVec
	NodesAdded  prometheus.Counter
	NodesMerged prometheus.Counter
	Pruned      prometheus.Counter
	Duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sentences_total",
			Help:      "Sentences decoded, by outcome.",
		}, []string{"outcome"}),
		NodesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "nodes_added_total",
			Help:      "Chart nodes created.",
		}),
		NodesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "nodes_merged_total",
			Help:      "Derivations recombined into existing chart nodes.",
		}),
		Pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "candidates_pruned_total",
			Help:      "Candidates discarded by cube pruning or the beam.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sentence_duration_seconds",
			Help:      "Time spent decoding one sentence.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.Sentences, m.NodesAdded, m.NodesMerged, m.Pruned, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(t *Translation, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeComplete
	switch {
	case err != nil || t == nil:
		outcome = OutcomeFailed
	case t.Blank:
		outcome = OutcomeBlank
	case t.FellBack:
		outcome = OutcomeFallback
	}
	m.Sentences.WithLabelValues(outcome).Inc()
	m.Duration.Observe(d.Seconds())
	if t != nil {
		m.NodesAdded.Add(float64(t.Stats.Added))
		m.NodesMerged.Add(float64(t.Stats.Merged))
		m.Pruned.Add(float64(t.Stats.Pruned + t.Stats.PrePruned))
	}
}
