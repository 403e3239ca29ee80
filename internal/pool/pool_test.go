package pool_test

import (
	"testing"

	"github.com/user/gridlock/internal/pool"
)

func TestNewStoreInitialState(t *testing.T) {
	s := pool.NewStore(5, "task")

	if s.Size() != 5 {
		t.Fatalf("size = %d, want 5", s.Size())
	}
	for i := 1; i <= 5; i++ {
		r, err := s.State(i)
		if err != nil {
			t.Fatalf("State(%d): %v", i, err)
		}
		if r.Version != 1 {
			t.Errorf("resource %d version = %d, want 1", i, r.Version)
		}
		if r.Status != pool.StatusPending {
			t.Errorf("resource %d status = %q, want pending", i, r.Status)
		}
	}
	r, _ := s.State(3)
	if r.ID != "task-3" {
		t.Errorf("id = %q, want task-3", r.ID)
	}
}

func TestStateWrapAround(t *testing.T) {
	s := pool.NewStore(4, "task")

	// getState(i) == getState(i+N) for any integer i
	for _, i := range []int{-7, -4, -1, 0, 1, 2, 4, 5, 9} {
		a, err := s.State(i)
		if err != nil {
			t.Fatalf("State(%d): %v", i, err)
		}
		b, err := s.State(i + 4)
		if err != nil {
			t.Fatalf("State(%d): %v", i+4, err)
		}
		if a.ID != b.ID {
			t.Errorf("State(%d).ID = %q, State(%d).ID = %q, want equal", i, a.ID, i+4, b.ID)
		}
	}

	a, _ := s.State(0)
	b, _ := s.State(4)
	if a.ID != b.ID {
		t.Errorf("State(0) = %q, want State(4) = %q", a.ID, b.ID)
	}
}

func TestEmptyPool(t *testing.T) {
	s := pool.NewStore(0, "task")
	_, err := s.State(1)
	if !pool.IsIndexError(err) {
		t.Fatalf("State on empty pool: err = %v, want index error", err)
	}
	if _, err := s.IncrementVersion(1); !pool.IsIndexError(err) {
		t.Fatalf("IncrementVersion on empty pool: err = %v, want index error", err)
	}
}

func TestIncrementVersion(t *testing.T) {
	s := pool.NewStore(3, "task")

	v, err := s.IncrementVersion(2)
	if err != nil {
		t.Fatalf("IncrementVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("new version = %d, want 2", v)
	}
	r, _ := s.State(2)
	if r.Version != 2 {
		t.Errorf("stored version = %d, want 2", r.Version)
	}
	r, _ = s.State(1)
	if r.Version != 1 {
		t.Errorf("neighbor version = %d, want 1", r.Version)
	}
}

func TestSetVersionAndStatus(t *testing.T) {
	s := pool.NewStore(3, "task")

	if err := s.SetVersionAndStatus(1, 7, pool.StatusInProgress); err != nil {
		t.Fatalf("SetVersionAndStatus: %v", err)
	}
	r, _ := s.State(1)
	if r.Version != 7 || r.Status != pool.StatusInProgress {
		t.Errorf("resource = %+v, want version 7 in_progress", r)
	}

	if err := s.SetVersionAndStatus(1, 0, pool.StatusPending); !pool.IsValidationError(err) {
		t.Errorf("version 0: err = %v, want validation error", err)
	}
	if err := s.SetVersionAndStatus(1, -3, pool.StatusPending); !pool.IsValidationError(err) {
		t.Errorf("negative version: err = %v, want validation error", err)
	}
	if err := s.SetVersionAndStatus(1, 2, "archived"); !pool.IsValidationError(err) {
		t.Errorf("unknown status: err = %v, want validation error", err)
	}

	// Failed sets must not partially apply.
	r, _ = s.State(1)
	if r.Version != 7 || r.Status != pool.StatusInProgress {
		t.Errorf("resource mutated by failed set: %+v", r)
	}
}

func TestResetAllIdempotent(t *testing.T) {
	s := pool.NewStore(4, "task")
	s.IncrementVersion(1)
	s.IncrementVersion(1)
	s.SetVersionAndStatus(3, 9, pool.StatusCancelled)

	s.ResetAll()
	first := s.Snapshot()
	s.ResetAll()
	second := s.Snapshot()

	for i, r := range first {
		if r.Version != 1 || r.Status != pool.StatusPending {
			t.Errorf("after reset, resource %d = %+v", i, r)
		}
		if second[i] != r {
			t.Errorf("second reset diverged at %d: %+v vs %+v", i, second[i], r)
		}
	}
}

func TestVersionNeverBelowOne(t *testing.T) {
	s := pool.NewStore(2, "task")
	for i := 0; i < 10; i++ {
		s.IncrementVersion(i)
	}
	s.ResetAll()
	for i := 1; i <= 2; i++ {
		r, _ := s.State(i)
		if r.Version < 1 {
			t.Fatalf("version = %d, want >= 1", r.Version)
		}
		if r.Version != 1 {
			t.Errorf("after reset version = %d, want exactly 1", r.Version)
		}
	}
}
