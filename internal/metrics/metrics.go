// Package metrics provides a small, backend-agnostic abstraction for recording
// run metrics from the sales report.
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Concrete systems live in subpackages: prompush (Prometheus Pushgateway)
// and datadog (DogStatsD).
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "salesreport_step_total"
	StepDurationSeconds = "salesreport_step_duration_seconds"
	RowsTotal           = "salesreport_rows_total"
	FilesTotal          = "salesreport_files_total"
)

// Row kinds used with RecordRows. They mirror the summary log fields.
const (
	RowsRead        = "read"
	RowsParseErrors = "parse_errors"
	RowsKept        = "kept"
	RowsDropped     = "dropped"
	RowsInserted    = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep records latency plus success/failure for one pipeline stage
// (read, resolve, clean, report, output, sink).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments the row counter for kind. Non-positive deltas are
// ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFiles counts committed output files.
func RecordFiles(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(FilesTotal, float64(delta), Labels{
		"job": job,
	})
}
