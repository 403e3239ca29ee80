package worker

import "math/rand"

// Backoff policies. Backoff is measured in skipped request cycles, not
// wall-clock time: a skip cycle still issues the noop fallback request so the
// load engine's fixed-rate scheduling is preserved.
const (
	BackoffFixed      = "fixed"
	BackoffFullJitter = "full_jitter"
)

// CalculateSkip returns how many cycles to skip before the next retry
// attempt: min(base^attempt, max), drawn uniformly from [0, that] under the
// full-jitter policy. Full jitter is the preferred policy; it breaks retry
// synchronization across workers.
func CalculateSkip(policy string, attempt, base, max int, rng *rand.Rand) int {
	if base < 1 {
		base = 2
	}
	if max < 0 {
		max = 0
	}

	target := 1
	for i := 0; i < attempt; i++ {
		target *= base
		if target >= max {
			target = max
			break
		}
	}
	if target > max {
		target = max
	}

	if policy == BackoffFixed {
		return target
	}
	return rng.Intn(target + 1)
}
