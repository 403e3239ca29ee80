// Package engine drives a load run: it partitions the pool across workers,
// runs each worker's state machine against the target, and aggregates the
// per-worker accounting into a report.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/gridlock/internal/config"
	"github.com/user/gridlock/internal/partition"
	"github.com/user/gridlock/internal/pool"
	"github.com/user/gridlock/internal/report"
	"github.com/user/gridlock/internal/worker"
)

// Transport issues one request and reports the status code and body.
// Transport failures surface as an error and are handed to the machine as a
// status-0 response.
type Transport interface {
	Do(ctx context.Context, method, path string, body []byte) (int, []byte, error)
}

// Engine runs one load generation run.
type Engine struct {
	cfg       config.Config
	transport Transport
	tracer    trace.Tracer
}

// New creates an Engine.
func New(cfg config.Config, transport Transport) *Engine {
	return &Engine{
		cfg:       cfg,
		transport: transport,
		tracer:    otel.Tracer("gridlock/engine"),
	}
}

// Run executes the configured run and blocks until the wall-clock bound is
// reached or ctx is cancelled. Workers are strictly sequential: each has at
// most one request in flight, and observes the response for cycle k before
// planning cycle k+1.
func (e *Engine) Run(ctx context.Context) *report.Report {
	store := pool.NewStore(e.cfg.PoolSize, e.cfg.IDPrefix)
	store.ResetAll()

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Duration)
		defer cancel()
	}

	runCtx, span := e.tracer.Start(runCtx, "run",
		trace.WithAttributes(
			attribute.Int("workers", e.cfg.Workers),
			attribute.Int("pool_size", e.cfg.PoolSize),
			attribute.Int("retry_count", e.cfg.RetryCount),
			attribute.String("backoff_policy", e.cfg.BackoffPolicy),
		))
	defer span.End()

	slog.Info("run starting",
		"workers", e.cfg.Workers,
		"pool_size", e.cfg.PoolSize,
		"duration", e.cfg.Duration,
		"update_types", e.cfg.UpdateTypes,
	)

	machines := make([]*worker.Machine, e.cfg.Workers)
	modes := make([]string, e.cfg.Workers)
	parts := make([]partition.Partition, e.cfg.Workers)
	started := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		mode := e.cfg.UpdateTypes[i%len(e.cfg.UpdateTypes)]
		part := partition.Plan(e.cfg.PoolSize, e.cfg.Workers, i)
		m := worker.NewMachine(i, worker.Config{
			Mode:          mode,
			RetryCount:    e.cfg.RetryCount,
			BackoffBase:   e.cfg.BackoffBase,
			BackoffMax:    e.cfg.BackoffMax,
			BackoffPolicy: e.cfg.BackoffPolicy,
		}, part, store, started.UnixNano()+int64(i))

		machines[i] = m
		modes[i] = mode
		parts[i] = part

		wg.Add(1)
		go func(id int, m *worker.Machine) {
			defer wg.Done()
			e.runWorker(runCtx, id, m)
		}(i, m)
	}
	wg.Wait()
	elapsed := time.Since(started)

	results := make([]report.WorkerResult, e.cfg.Workers)
	for i, m := range machines {
		results[i] = report.WorkerResult{
			Worker:     i,
			Mode:       modes[i],
			Suppressed: parts[i].Suppressed,
			Counters:   m.Counters(),
		}
	}
	rep := report.Build(started, elapsed, e.cfg.PoolSize, results)
	for _, warn := range rep.Warnings {
		slog.Warn("accounting mismatch", "detail", warn)
	}
	slog.Info("run finished", "elapsed", elapsed.Round(time.Millisecond), "issued", rep.Totals.Issued)
	return rep
}

func (e *Engine) runWorker(ctx context.Context, id int, m *worker.Machine) {
	ctx, span := e.tracer.Start(ctx, "worker",
		trace.WithAttributes(attribute.Int("worker", id)))
	defer span.End()

	var pace *time.Timer
	defer func() {
		if pace != nil {
			pace.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req := m.Plan()
		status, body, err := e.transport.Do(ctx, req.Method, req.Path, req.Body)
		if err != nil {
			if ctx.Err() != nil {
				// The run ended mid-request; the cycle stays classified but
				// its response is never observed.
				return
			}
			status, body = 0, nil
		}
		m.Observe(req, worker.Response{StatusCode: status, Body: body})

		// Noop cycles optionally ride for free so backoff does not deflate
		// the genuine request rate.
		if e.cfg.Interval <= 0 {
			continue
		}
		if !e.cfg.CountNoops && req.Kind == worker.KindNoop {
			continue
		}
		if pace == nil {
			pace = time.NewTimer(e.cfg.Interval)
		} else {
			pace.Reset(e.cfg.Interval)
		}
		select {
		case <-ctx.Done():
			return
		case <-pace.C:
		}
	}
}
