// Package partition assigns each worker a contiguous, non-overlapping slice
// of the resource id space.
package partition

import "log/slog"

// Partition is one worker's slice of the pool. Indices are 1-based: the
// worker targets ids Start+1 .. Start+Size. A suppressed worker stays in the
// request loop but only ever issues the no-op fallback request.
type Partition struct {
	Start      int
	Size       int
	Suppressed bool
}

// Plan computes the partition for workerIndex in [0, workerCount).
//
// When the pool is smaller than the worker count, the effective worker count
// is clamped to the pool size and trailing workers come back suppressed.
// When poolSize is not an exact multiple of the worker count, the trailing
// remainder ids are never targeted; that is intentional, not a bug.
func Plan(poolSize, workerCount, workerIndex int) Partition {
	if poolSize < 1 || workerCount < 1 || workerIndex < 0 || workerIndex >= workerCount {
		slog.Warn("invalid partition inputs, suppressing worker",
			"pool_size", poolSize, "worker_count", workerCount, "worker_index", workerIndex)
		return Partition{Suppressed: true}
	}

	effective := workerCount
	if poolSize < workerCount {
		effective = poolSize
		slog.Warn("pool smaller than worker count, clamping",
			"pool_size", poolSize, "worker_count", workerCount, "active_workers", effective)
	}
	if workerIndex >= effective {
		return Partition{Suppressed: true}
	}

	rangeSize := poolSize / effective
	return Partition{
		Start: workerIndex * rangeSize,
		Size:  rangeSize,
	}
}
