// Package report aggregates per-worker accounting into a single run report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/user/gridlock/internal/worker"
)

// WorkerResult is one worker's contribution to a run.
type WorkerResult struct {
	Worker     int             `json:"worker"`
	Mode       string          `json:"mode"`
	Suppressed bool            `json:"suppressed"`
	Counters   worker.Counters `json:"counters"`
}

// Report is the aggregated outcome of one run.
type Report struct {
	StartedAt   time.Time      `json:"started_at"`
	Elapsed     time.Duration  `json:"elapsed"`
	WorkerCount int            `json:"worker_count"`
	PoolSize    int            `json:"pool_size"`
	Workers     []WorkerResult `json:"workers"`
	Totals      worker.Counters `json:"totals"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// Build assembles a report, summing totals and running the end-of-run
// consistency check. A category/issued mismatch is a warning, never an
// error: worker counters are only validated once aggregated.
func Build(startedAt time.Time, elapsed time.Duration, poolSize int, results []WorkerResult) *Report {
	r := &Report{
		StartedAt:   startedAt,
		Elapsed:     elapsed,
		WorkerCount: len(results),
		PoolSize:    poolSize,
		Workers:     results,
	}
	for _, wr := range results {
		r.Totals = r.Totals.Add(wr.Counters)
		if !wr.Counters.Consistent() {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"worker %d: categories sum to %d but %d requests were issued",
				wr.Worker, wr.Counters.CategoryTotal(), wr.Counters.Issued))
		}
	}
	return r
}

// RequestsPerSecond is the issued-request rate over the whole run, including
// noop cycles.
func (r *Report) RequestsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Totals.Issued) / r.Elapsed.Seconds()
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Print writes the human-readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Run Summary ===\n")
	fmt.Fprintf(w, "  elapsed:    %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  workers:    %d\n", r.WorkerCount)
	fmt.Fprintf(w, "  pool:       %d\n", r.PoolSize)
	fmt.Fprintf(w, "  req/sec:    %.1f\n", r.RequestsPerSecond())
	fmt.Fprintf(w, "  issued:     %d\n", r.Totals.Issued)
	fmt.Fprintf(w, "  executed:   %d\n", r.Totals.Executed)
	fmt.Fprintf(w, "  backoff:    %d\n", r.Totals.Backoff)
	fmt.Fprintf(w, "  suppressed: %d\n", r.Totals.Suppressed)
	fmt.Fprintf(w, "  fallback:   %d\n", r.Totals.Fallback)
	fmt.Fprintf(w, "  retries ok: %d\n", r.Totals.SuccessfulRetries)
	fmt.Fprintf(w, "  exhausted:  %d\n", r.Totals.ExhaustedRetries)
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
