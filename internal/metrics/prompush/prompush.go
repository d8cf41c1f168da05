// Package prompush pushes catalog metrics to a Prometheus Pushgateway.
//
// A batch job has no scrape endpoint, so collectors live in a private
// registry that Flush pushes under the job grouping key (plus run_id when
// set).
package prompush

import (
	"catalogetl/internal/metrics"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Config selects the gateway and grouping.
type Config struct {
	// GatewayURL is the Pushgateway base URL, e.g. http://pushgateway:9091.
	GatewayURL string
	// Job is the Pushgateway "job" grouping key. Empty means "catalogetl".
	Job string
	// RunID, when set, is added as a "run_id" grouping key.
	RunID string
}

// Backend implements metrics.Backend.
type Backend struct {
	cfg Config
	reg *prometheus.Registry

	stageCounter  *prometheus.CounterVec
	stageDuration *prometheus.SummaryVec
	records       *prometheus.CounterVec
	batches       prometheus.Counter
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend registers the collectors for a push to cfg.GatewayURL.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.GatewayURL == "" {
		return nil, errors.New("prompush: gateway URL is required")
	}
	if cfg.Job == "" {
		cfg.Job = "catalogetl"
	}

	b := &Backend{
		cfg: cfg,
		reg: prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Pipeline stage duration in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"stage", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts by kind (read, upserted, row_errors, links_inserted, ...).",
		}, []string{"kind", "relation"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Committed loader batches.",
		}),
	}
	for _, c := range []prometheus.Collector{b.stageCounter, b.stageDuration, b.records, b.batches} {
		if err := b.reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "prompush: register collector")
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.records.WithLabelValues(labels["kind"], labels["relation"]).Add(delta)
	case metrics.BatchesTotal:
		b.batches.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the registry, replacing the previous push for the same
// grouping key.
func (b *Backend) Flush() error {
	p := push.New(b.cfg.GatewayURL, b.cfg.Job).Gatherer(b.reg)
	if b.cfg.RunID != "" {
		p = p.Grouping("run_id", b.cfg.RunID)
	}
	return errors.Wrap(p.Push(), "prompush: push")
}
