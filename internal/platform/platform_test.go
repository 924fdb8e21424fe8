package platform

import (
	"context"
	"testing"
)

func TestStubDefaultsWithEmptyContext(t *testing.T) {
	s := NewStub()
	ctx := context.Background()

	if s.InISR(ctx) {
		t.Fatal("expected InISR false for a bare context")
	}
	if s.CurrentTask(ctx) != s.DefaultTask {
		t.Fatalf("expected DefaultTask, got %v", s.CurrentTask(ctx))
	}
	if s.CurrentCPU(ctx) != 0 {
		t.Fatalf("expected cpu 0, got %d", s.CurrentCPU(ctx))
	}
}

func TestWithTaskWithCPUWithISR(t *testing.T) {
	s := NewStub()
	ctx := context.Background()
	ctx = WithTask(ctx, "worker-1")
	ctx = WithCPU(ctx, 1)
	ctx = WithISR(ctx)

	if s.CurrentTask(ctx) != "worker-1" {
		t.Fatalf("expected worker-1, got %v", s.CurrentTask(ctx))
	}
	if s.CurrentCPU(ctx) != 1 {
		t.Fatalf("expected cpu 1, got %d", s.CurrentCPU(ctx))
	}
	if !s.InISR(ctx) {
		t.Fatal("expected InISR true after WithISR")
	}
}

func TestWithTaskDoesNotLeakAcrossContexts(t *testing.T) {
	s := NewStub()
	base := context.Background()
	a := WithTask(base, "task-a")
	b := WithTask(base, "task-b")

	if s.CurrentTask(a) == s.CurrentTask(b) {
		t.Fatal("expected independently derived contexts to carry independent task handles")
	}
}
