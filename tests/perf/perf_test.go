//go:build perf

package perf_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/gridlock/internal/config"
	"github.com/user/gridlock/internal/engine"
	"github.com/user/gridlock/internal/target"
	"github.com/user/gridlock/pkg/client"
)

func startTarget(t *testing.T, conflictRate float64, poolSize int) string {
	t.Helper()
	srv := target.New(target.Config{
		PoolSize:     poolSize,
		IDPrefix:     "task",
		ConflictRate: conflictRate,
		Seed:         1,
	}, ":0")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func TestPerfRawUpdateHTTP(t *testing.T) {
	baseURL := startTarget(t, 0, 1000)
	c := client.New(baseURL)

	total := envInt("GRIDLOCK_PERF_UPD_TOTAL", 4000)
	concurrency := envInt("GRIDLOCK_PERF_UPD_CONCURRENCY", 10)
	minOps := envFloat("GRIDLOCK_PERF_UPD_MIN_OPS", 100.0)

	start := time.Now()
	var wg sync.WaitGroup
	var failures atomic.Int64
	per := total / concurrency
	rem := total % concurrency
	for i := 0; i < concurrency; i++ {
		n := per
		if i < rem {
			n++
		}
		id := "task-" + strconv.Itoa(i+1)
		wg.Add(1)
		go func(count int, id string) {
			defer wg.Done()
			ctx := context.Background()
			for j := 0; j < count; j++ {
				st, err := c.GetResource(ctx, id)
				if err != nil {
					failures.Add(1)
					continue
				}
				body := []byte(`{"version":` + strconv.FormatInt(st.Version, 10) + `,"field":"perf"}`)
				code, _, err := c.Do(ctx, http.MethodPut, "/resources/"+id, body)
				if err != nil || code != http.StatusOK {
					failures.Add(1)
				}
			}
		}(n, id)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		t.Fatalf("update failures=%d", n)
	}
	elapsed := time.Since(start)
	ops := float64(total) / elapsed.Seconds()
	t.Logf("raw update http: total=%d concurrency=%d elapsed=%s ops/sec=%.1f", total, concurrency, elapsed.Round(time.Millisecond), ops)
	if ops < minOps {
		t.Fatalf("ops/sec=%.1f below floor %.1f", ops, minOps)
	}
}

func TestPerfEngineThroughput(t *testing.T) {
	baseURL := startTarget(t, 0, 1000)

	workers := envInt("GRIDLOCK_PERF_ENGINE_WORKERS", 16)
	duration := time.Duration(envInt("GRIDLOCK_PERF_ENGINE_SECONDS", 2)) * time.Second
	minOps := envFloat("GRIDLOCK_PERF_ENGINE_MIN_OPS", 200.0)

	cfg := config.Config{
		TargetURL:     baseURL,
		Workers:       workers,
		PoolSize:      1000,
		IDPrefix:      "task",
		UpdateTypes:   []string{"field"},
		RetryCount:    2,
		BackoffBase:   2,
		BackoffMax:    8,
		BackoffPolicy: "fixed",
		Duration:      duration,
	}

	rep := engine.New(cfg, client.New(baseURL)).Run(context.Background())
	if rep.Totals.Issued == 0 {
		t.Fatal("engine issued no requests")
	}
	ops := rep.RequestsPerSecond()
	t.Logf("engine: workers=%d duration=%s issued=%d executed=%d ops/sec=%.1f",
		workers, duration, rep.Totals.Issued, rep.Totals.Executed, ops)
	if ops < minOps {
		t.Fatalf("ops/sec=%.1f below floor %.1f", ops, minOps)
	}
}

func TestPerfEngineUnderConflict(t *testing.T) {
	baseURL := startTarget(t, 0.5, 1000)

	workers := envInt("GRIDLOCK_PERF_CONFLICT_WORKERS", 16)
	duration := time.Duration(envInt("GRIDLOCK_PERF_CONFLICT_SECONDS", 2)) * time.Second

	cfg := config.Config{
		TargetURL:     baseURL,
		Workers:       workers,
		PoolSize:      1000,
		IDPrefix:      "task",
		UpdateTypes:   []string{"field"},
		RetryCount:    3,
		BackoffBase:   2,
		BackoffMax:    8,
		BackoffPolicy: "full_jitter",
		Duration:      duration,
	}

	rep := engine.New(cfg, client.New(baseURL)).Run(context.Background())
	if rep.Totals.Issued == 0 {
		t.Fatal("engine issued no requests")
	}
	if got := rep.Totals.CategoryTotal(); got != rep.Totals.Issued {
		t.Fatalf("category total %d != issued %d", got, rep.Totals.Issued)
	}
	t.Logf("conflict: issued=%d executed=%d backoff=%d retried=%d exhausted=%d",
		rep.Totals.Issued, rep.Totals.Executed, rep.Totals.Backoff,
		rep.Totals.SuccessfulRetries, rep.Totals.ExhaustedRetries)
}
