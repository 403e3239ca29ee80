package target

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

type metrics struct {
	reads     atomic.Uint64
	applied   atomic.Uint64
	conflicts atomic.Uint64
	injected  atomic.Uint64
	invalid   atomic.Uint64
	notFound  atomic.Uint64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (s *Server) handlePrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	m := s.metrics
	fmt.Fprintln(w, "# HELP gridlock_target_reads_total Resource state reads served.")
	fmt.Fprintln(w, "# TYPE gridlock_target_reads_total counter")
	fmt.Fprintf(w, "gridlock_target_reads_total %d\n", m.reads.Load())
	fmt.Fprintln(w, "# HELP gridlock_target_updates_applied_total Updates accepted and applied.")
	fmt.Fprintln(w, "# TYPE gridlock_target_updates_applied_total counter")
	fmt.Fprintf(w, "gridlock_target_updates_applied_total %d\n", m.applied.Load())
	fmt.Fprintln(w, "# HELP gridlock_target_conflicts_total Updates rejected with a version conflict.")
	fmt.Fprintln(w, "# TYPE gridlock_target_conflicts_total counter")
	fmt.Fprintf(w, "gridlock_target_conflicts_total %d\n", m.conflicts.Load())
	fmt.Fprintln(w, "# HELP gridlock_target_injected_conflicts_total Conflicts forced by the injection knob.")
	fmt.Fprintln(w, "# TYPE gridlock_target_injected_conflicts_total counter")
	fmt.Fprintf(w, "gridlock_target_injected_conflicts_total %d\n", m.injected.Load())
	fmt.Fprintln(w, "# HELP gridlock_target_invalid_transitions_total Status updates rejected by the transition table.")
	fmt.Fprintln(w, "# TYPE gridlock_target_invalid_transitions_total counter")
	fmt.Fprintf(w, "gridlock_target_invalid_transitions_total %d\n", m.invalid.Load())
	fmt.Fprintln(w, "# HELP gridlock_target_not_found_total Requests for unknown resource ids.")
	fmt.Fprintln(w, "# TYPE gridlock_target_not_found_total counter")
	fmt.Fprintf(w, "gridlock_target_not_found_total %d\n", m.notFound.Load())
}
