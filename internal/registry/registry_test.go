package registry

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestIDForAssignsDenseIDsStartingAtOne(t *testing.T) {
	r := New(4)
	a, err := r.IDFor("task-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != 1 {
		t.Fatalf("expected first assigned id 1 (0 is reserved), got %d", a)
	}
	b, err := r.IDFor("task-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != 2 {
		t.Fatalf("expected second assigned id 2, got %d", b)
	}
}

func TestIDForIsStableAcrossRepeatedCalls(t *testing.T) {
	r := New(4)
	first, _ := r.IDFor("task-a")
	second, _ := r.IDFor("task-a")
	if first != second {
		t.Fatalf("expected the same handle to map to the same id, got %d then %d", first, second)
	}
}

func TestIDForReturnsErrTooManyTasks(t *testing.T) {
	r := New(2)
	if _, err := r.IDFor("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.IDFor("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.IDFor("c"); !errors.Is(err, ErrTooManyTasks) {
		t.Fatalf("expected ErrTooManyTasks once the registry is full, got %v", err)
	}
}

func TestNameResolvesReservedAndAssignedIDs(t *testing.T) {
	r := New(4)
	if r.Name(NoTask) != "irq" {
		t.Fatalf(`expected NoTask to resolve to "irq", got %q`, r.Name(NoTask))
	}
	id, _ := r.IDFor("worker")
	if r.Name(id) != "worker" {
		t.Fatalf("expected string handle to resolve to itself, got %q", r.Name(id))
	}
	if r.Name(99) != "unknown" {
		t.Fatalf(`expected out-of-range id to resolve to "unknown", got %q`, r.Name(99))
	}
}

func TestIDForConcurrentRegistrationStaysUnderLimit(t *testing.T) {
	r := New(16)
	var g errgroup.Group
	var mu sync.Mutex
	seen := map[int]bool{}

	for i := 0; i < 16; i++ {
		handle := i
		g.Go(func() error {
			id, err := r.IDFor(handle)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 distinct ids, got %d", len(seen))
	}
	if r.Count() != 16 {
		t.Fatalf("expected Count() == 16, got %d", r.Count())
	}
}
