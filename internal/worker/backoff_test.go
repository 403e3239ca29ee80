package worker_test

import (
	"math/rand"
	"testing"

	"github.com/user/gridlock/internal/worker"
)

func TestCalculateSkipFixed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		attempt, base, max int
		want               int
	}{
		{0, 2, 16, 1},
		{1, 2, 16, 2},
		{2, 2, 16, 4},
		{3, 2, 16, 8},
		{4, 2, 16, 16},
		{10, 2, 16, 16}, // capped
		{2, 3, 16, 9},
		{3, 3, 16, 16}, // 27 capped
		{5, 2, 0, 0},   // max 0 means no skip
	}
	for _, tt := range tests {
		got := worker.CalculateSkip(worker.BackoffFixed, tt.attempt, tt.base, tt.max, rng)
		if got != tt.want {
			t.Errorf("CalculateSkip(fixed, %d, %d, %d) = %d, want %d",
				tt.attempt, tt.base, tt.max, got, tt.want)
		}
	}
}

func TestCalculateSkipFullJitterRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// attempt=2, base=2, max=16: draws come uniformly from [0, 4].
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		got := worker.CalculateSkip(worker.BackoffFullJitter, 2, 2, 16, rng)
		if got < 0 || got > 4 {
			t.Fatalf("draw %d out of [0,4]: %d", i, got)
		}
		seen[got] = true
	}
	if len(seen) < 3 {
		t.Errorf("only %d distinct draws in 200 tries, expected spread over [0,4]", len(seen))
	}
}

func TestCalculateSkipDegenerateInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if got := worker.CalculateSkip(worker.BackoffFixed, 0, 0, 16, rng); got != 1 {
		t.Errorf("base 0 defaults to 2: skip = %d, want 1", got)
	}
	if got := worker.CalculateSkip(worker.BackoffFixed, 3, 2, -1, rng); got != 0 {
		t.Errorf("negative max clamps to 0: skip = %d, want 0", got)
	}
	if got := worker.CalculateSkip(worker.BackoffFullJitter, 0, 2, 0, rng); got != 0 {
		t.Errorf("jitter with max 0: skip = %d, want 0", got)
	}
}
