// Package datadog sends catalog metrics to a DogStatsD agent.
package datadog

import (
	"sort"

	"catalogetl/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/pkg/errors"
)

// Config holds DogStatsD client settings.
type Config struct {
	// Addr is the agent address, e.g. "127.0.0.1:8125" or "unix:///var/run/datadog/dsd.socket".
	Addr string
	// Namespace prefixes every metric name, e.g. "catalogetl.".
	Namespace string
	// GlobalTags are added to every metric, e.g. "env:prod".
	GlobalTags []string
}

// Backend implements metrics.Backend over a statsd client.
type Backend struct {
	client *statsd.Client
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend opens a DogStatsD client on cfg.Addr.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: Addr is required")
	}
	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "datadog: create client")
	}
	return &Backend{client: c}, nil
}

// IncCounter sends a Count; fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	_ = b.client.Count(name, int64(delta), tags(labels), 1)
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	_ = b.client.Histogram(name, value, tags(labels), 1)
}

// Flush sends buffered metrics without closing the client.
func (b *Backend) Flush() error {
	return errors.Wrap(b.client.Flush(), "datadog: flush")
}

// Close flushes and releases the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

// tags renders labels as sorted "key:value" tags.
func tags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
