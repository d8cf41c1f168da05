// Package metrics records operational counters for a catalog run behind a
// small backend-agnostic interface.
//
// Concrete systems live in subpackages (prompush for a Prometheus
// Pushgateway, datadog for DogStatsD). The core packages only see Recorder,
// whose zero backend is a no-op, so instrumentation is always safe to call.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StageTotal    = "catalog_stage_total"
	StageDuration = "catalog_stage_duration_seconds"
	RecordsTotal  = "catalog_records_total"
	BatchesTotal  = "catalog_batches_total"
)

// Record kinds reported under RecordsTotal.
const (
	KindRead           = "read"
	KindParseErrors    = "parse_errors"
	KindUpserted       = "upserted"
	KindRowErrors      = "row_errors"
	KindLookupInserted = "lookup_inserted"
	KindLookupPresent  = "lookup_present"
	KindLinksInserted  = "links_inserted"
	KindLinksPresent   = "links_present"
	KindLinksFailed    = "links_failed"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

// Nop returns a Backend that discards everything.
func Nop() Backend { return nopBackend{} }

// Recorder binds a backend to one job.
type Recorder struct {
	b   Backend
	job string
}

// New returns a Recorder for job. A nil backend records nothing.
func New(b Backend, job string) *Recorder {
	if b == nil {
		b = nopBackend{}
	}
	return &Recorder{b: b, job: job}
}

// Stage counts one pipeline stage and observes its duration.
func (r *Recorder) Stage(stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": r.job, "stage": stage, "status": status}
	r.b.IncCounter(StageTotal, 1, lbls)
	r.b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// Records adds n to the counter for kind. Non-positive n is ignored.
func (r *Recorder) Records(kind string, n int) {
	r.RecordsFor(kind, "", n)
}

// RecordsFor is Records with a relation label, for normalizer counters.
func (r *Recorder) RecordsFor(kind, relation string, n int) {
	if n <= 0 {
		return
	}
	lbls := Labels{"job": r.job, "kind": kind}
	if relation != "" {
		lbls["relation"] = relation
	}
	r.b.IncCounter(RecordsTotal, float64(n), lbls)
}

// Batches adds n committed batches.
func (r *Recorder) Batches(n int) {
	if n <= 0 {
		return
	}
	r.b.IncCounter(BatchesTotal, float64(n), Labels{"job": r.job})
}

// Flush delegates to the backend.
func (r *Recorder) Flush() error { return r.b.Flush() }
