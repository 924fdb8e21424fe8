// Package platform declares the collaborators the specification marks out
// of scope to implement (§1 "external collaborators, specified only by
// interface in §6"): the platform task handle, ISR-context probe, and
// current-CPU probe. tracecore depends only on these interfaces; a host
// process wires in the Stub implementation, a real executive port would
// supply its own.
package platform

import "context"

// TaskHandle is an opaque identifier for a schedulable unit of execution
// on the target executive. tracecore never inspects it beyond using it as
// a map key in the task registry.
type TaskHandle interface{}

// Probe answers the three questions the writer core needs about the
// calling context before it can stamp a record (spec §4.6
// get_current_task_id, §3 cpu_id field). Go has no goroutine-local
// storage, so unlike the target executive's ambient "current task"
// register, callers thread identity through ctx; WithTask/WithCPU below
// attach it.
type Probe interface {
	// InISR reports whether ctx represents an interrupt handler context.
	// Per spec §4.6 step 1, an ISR context always maps to task id 0.
	InISR(ctx context.Context) bool

	// CurrentTask returns the platform handle carried by ctx. Only
	// called when InISR is false.
	CurrentTask(ctx context.Context) TaskHandle

	// CurrentCPU returns the index of the CPU core executing the call,
	// in [0, maxCPUs).
	CurrentCPU(ctx context.Context) int
}

type ctxKey int

const (
	taskKey ctxKey = iota
	isrKey
	cpuKey
)

// WithTask attaches a task handle to ctx, simulating the target
// executive's "current task" register for a host-process goroutine.
func WithTask(ctx context.Context, h TaskHandle) context.Context {
	return context.WithValue(ctx, taskKey, h)
}

// WithISR marks ctx as running in simulated interrupt context.
func WithISR(ctx context.Context) context.Context {
	return context.WithValue(ctx, isrKey, true)
}

// WithCPU pins ctx to a simulated CPU index.
func WithCPU(ctx context.Context, cpu int) context.Context {
	return context.WithValue(ctx, cpuKey, cpu)
}

// Stub is a host-process Probe grounded in the teacher's NewStubRunner
// pattern: a host-testable substitute for a collaborator that, on the
// real target, talks to hardware. Identity is read back out of ctx rather
// than ambient goroutine state.
type Stub struct {
	// DefaultTask is returned when ctx carries no task handle, so code
	// exercising the writer surface outside a WithTask scope still gets
	// a stable, non-nil identity.
	DefaultTask TaskHandle
}

// NewStub builds a Stub Probe.
func NewStub() *Stub {
	return &Stub{DefaultTask: "default"}
}

// InISR reports whatever WithISR attached to ctx.
func (s *Stub) InISR(ctx context.Context) bool {
	v, _ := ctx.Value(isrKey).(bool)
	return v
}

// CurrentTask returns the handle WithTask attached to ctx, or DefaultTask.
func (s *Stub) CurrentTask(ctx context.Context) TaskHandle {
	if v := ctx.Value(taskKey); v != nil {
		return v
	}
	return s.DefaultTask
}

// CurrentCPU returns the index WithCPU attached to ctx, or 0.
func (s *Stub) CurrentCPU(ctx context.Context) int {
	if v, ok := ctx.Value(cpuKey).(int); ok {
		return v
	}
	return 0
}
