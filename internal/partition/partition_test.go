package partition_test

import (
	"testing"

	"github.com/user/gridlock/internal/partition"
)

func TestPlanEvenSplit(t *testing.T) {
	for i := 0; i < 4; i++ {
		p := partition.Plan(100, 4, i)
		if p.Suppressed {
			t.Fatalf("worker %d suppressed", i)
		}
		if p.Size != 25 {
			t.Errorf("worker %d size = %d, want 25", i, p.Size)
		}
		if p.Start != i*25 {
			t.Errorf("worker %d start = %d, want %d", i, p.Start, i*25)
		}
	}
}

func TestPlanRemainderIdsUntargeted(t *testing.T) {
	// 10 ids over 3 workers: range 3 each, id 10 never targeted.
	covered := map[int]bool{}
	for i := 0; i < 3; i++ {
		p := partition.Plan(10, 3, i)
		if p.Size != 3 {
			t.Fatalf("worker %d size = %d, want 3", i, p.Size)
		}
		for j := 1; j <= p.Size; j++ {
			id := p.Start + j
			if covered[id] {
				t.Fatalf("id %d covered twice", id)
			}
			covered[id] = true
		}
	}
	if len(covered) != 9 {
		t.Errorf("covered %d ids, want 9", len(covered))
	}
	if covered[10] {
		t.Error("trailing id 10 should be untargeted")
	}
}

func TestPlanPoolSmallerThanWorkers(t *testing.T) {
	// poolSize=10, workerCount=20: 10 active workers of range 1, 10 suppressed.
	active, suppressed := 0, 0
	for i := 0; i < 20; i++ {
		p := partition.Plan(10, 20, i)
		if p.Suppressed {
			suppressed++
			continue
		}
		active++
		if p.Size != 1 {
			t.Errorf("worker %d size = %d, want 1", i, p.Size)
		}
		if p.Start != i {
			t.Errorf("worker %d start = %d, want %d", i, p.Start, i)
		}
	}
	if active != 10 || suppressed != 10 {
		t.Errorf("active = %d suppressed = %d, want 10/10", active, suppressed)
	}
}

func TestPlanInvalidInputs(t *testing.T) {
	tests := []struct {
		name                       string
		pool, workers, workerIndex int
	}{
		{"zero pool", 0, 4, 0},
		{"negative pool", -1, 4, 0},
		{"zero workers", 10, 0, 0},
		{"index out of range", 10, 4, 4},
		{"negative index", 10, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := partition.Plan(tt.pool, tt.workers, tt.workerIndex)
			if !p.Suppressed {
				t.Errorf("Plan(%d,%d,%d) = %+v, want suppressed",
					tt.pool, tt.workers, tt.workerIndex, p)
			}
		})
	}
}
