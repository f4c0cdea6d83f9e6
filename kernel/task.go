package kernel

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/Dukiyaaa/MyOSForCm3/internal/tlist"
)

// taskState is a bitfield over {DELAYED, WAITING-FOR-EVENT, SUSPENDED}.
// A task with no bits set is READY (or actually running).
type taskState uint8

const (
	stateDelayed taskState = 1 << iota
	stateWaitingEvent
	stateSuspended
)

// Task is a long-lived schedulable entity. On real hardware it owns a
// stack and the switch primitive saves/restores registers onto it;
// here the "stack" is a goroutine parked on its wake channel until the
// scheduler grants it the virtual CPU, which is the host rendering of
// SPEC_FULL.md §4.3's Platform abstraction.
type Task struct {
	id   uint32
	name string
	prio int

	state        taskState
	delayTicks   int
	sliceTicks   int
	suspendCount int

	readyNode tlist.Node // ready-queue OR event-wait-queue link (never both)
	delayNode tlist.Node

	waitEvent  *Event
	waitMsg    any
	waitResult Result

	// flagWaitType/flagWaitMask/flagConsume hold a FlagGroup wait's
	// predicate while the task is parked on the group's event, the
	// same "generic wait-field reused per object type" shape the
	// original tTask struct uses for whatever the current wait object
	// needs (original_source/tEvent.h's waitEventMsg plays the
	// equivalent role for mailboxes and memory pools).
	flagWaitType FlagWaitType
	flagWaitMask uint32
	flagConsume  bool

	cleanupFn  func(arg any)
	cleanupArg any

	requestDelete bool

	entry func(ctx context.Context, tc *TaskContext)
	arg   any

	// running and wake are the cooperative preemption primitive: a
	// task body calls TaskContext.Checkpoint() at its own safe points
	// (loop iterations, after a blocking call returns) to find out
	// whether it still holds the virtual CPU. Go has no portable way
	// to suspend an arbitrary goroutine at an arbitrary instruction
	// the way a hardware interrupt suspends a real CPU core, so
	// rotation and preemption take effect at the next Checkpoint call
	// rather than at an arbitrary point — documented host limitation,
	// not a semantic change to the scheduling decisions themselves,
	// which are still made eagerly and exactly as specified.
	running int32
	wake    chan struct{}

	started chan struct{}
	done    chan struct{}

	stackBudget    int
	stackHighWater int32 // bytes, see sampleStack
	stackSampleBuf []byte
}

// TaskContext is what a task's entry function receives: the
// cooperative yield point plus accessors a running task needs to
// identify itself.
type TaskContext struct {
	k    *Kernel
	task *Task
}

// Checkpoint blocks until the scheduler grants tc's task the virtual
// CPU. Call it at loop iterations and other safe points in long-running
// task bodies; without it, time-slice rotation and priority preemption
// are decided by the scheduler but never observed by the task body.
func (tc *TaskContext) Checkpoint() {
	t := tc.task
	t.sampleStack()
	if atomic.LoadInt32(&t.running) == 1 {
		return
	}
	<-t.wake
}

// sampleStack updates t's stack-usage high-water mark from the calling
// goroutine's own runtime.Stack trace. Only the task's own goroutine
// ever calls this (from Checkpoint), so no synchronization is needed on
// stackSampleBuf itself; stackHighWater is read from Stats on another
// goroutine, so it is updated atomically. The trace byte count is a
// proxy for stack depth, not the original's literal sentinel-byte scan
// of a fixed C stack array — Go goroutine stacks grow and move, so
// there is no fixed buffer to scan.
func (t *Task) sampleStack() {
	if t.stackSampleBuf == nil {
		t.stackSampleBuf = make([]byte, 4096)
	}
	n := runtime.Stack(t.stackSampleBuf, false)
	if int32(n) > atomic.LoadInt32(&t.stackHighWater) {
		atomic.StoreInt32(&t.stackHighWater, int32(n))
	}
}

// Task returns the underlying Task, e.g. to pass to a blocking
// primitive's Wait/Lock/Alloc.
func (tc *TaskContext) Task() *Task { return tc.task }

// ID returns the task's identifier.
func (t *Task) ID() uint32 { return t.id }

// Name returns the task's configured name.
func (t *Task) Name() string { return t.name }

// Priority returns the task's current (possibly inheritance-boosted)
// priority.
func (t *Task) Priority() int { return t.prio }

func (t *Task) ready() bool {
	return t.state == 0
}

// markRunning flips the cooperative-preemption flag and, when granting
// the CPU, signals wake so a task parked in Checkpoint or in a
// blocking kernel call resumes.
func (t *Task) markRunning(running bool) {
	if running {
		atomic.StoreInt32(&t.running, 1)
		select {
		case t.wake <- struct{}{}:
		default:
		}
	} else {
		atomic.StoreInt32(&t.running, 0)
	}
}

// TaskStats is the host rendering of the original tTaskGetInfo
// introspection call (original_source/tTask.c): priority, state, and a
// stack headroom estimate. StackBudget is the static stack size given
// to CreateTask, unchanged since construction. StackHighWaterBytes is
// the live measurement: the largest runtime.Stack trace sampled from
// the task's own goroutine at its Checkpoint calls, a proxy for actual
// stack depth since Go goroutine stacks grow and move and cannot be
// scanned for a sentinel byte the way the original's fixed C array is.
type TaskStats struct {
	ID                  uint32
	Name                string
	Priority            int
	Delayed             bool
	WaitingEvent        bool
	Suspended           bool
	SuspendCount        int
	StackBudget         int
	StackHighWaterBytes int
	RequestDelete       bool
}

// Stats returns a snapshot of t's introspection data.
func (t *Task) Stats() TaskStats {
	return TaskStats{
		ID:                  t.id,
		Name:                t.name,
		Priority:            t.prio,
		Delayed:             t.state&stateDelayed != 0,
		WaitingEvent:        t.state&stateWaitingEvent != 0,
		Suspended:           t.state&stateSuspended != 0,
		SuspendCount:        t.suspendCount,
		StackBudget:         t.stackBudget,
		StackHighWaterBytes: int(atomic.LoadInt32(&t.stackHighWater)),
		RequestDelete:       t.requestDelete,
	}
}

// SetCleanup installs the cooperative self-termination cleanup hook
// the original kernel calls tTaskSetCleanCallFunc for: fn runs once,
// with arg, when the task is deleted (forced or self-requested).
func (t *Task) SetCleanup(fn func(arg any), arg any) {
	t.cleanupFn = fn
	t.cleanupArg = arg
}

// Suspend increments t's suspend count, as tTaskSuspend does in
// original_source/tTask.c. Only the 0->1 transition actually removes t
// from the ready queue; a suspend count above one just accumulates,
// requiring a matching number of Resume calls to undo. A delayed task
// cannot be suspended, matching the original's guard. Suspending the
// task that is currently running parks the calling goroutine until a
// later Resume hands the virtual CPU back.
func (k *Kernel) Suspend(t *Task) {
	k.enter()
	if t.state&stateDelayed != 0 {
		k.exit()
		return
	}
	t.suspendCount++
	if t.suspendCount > 1 {
		k.exit()
		return
	}
	t.state |= stateSuspended
	k.schedUnRdyLocked(t)
	self := t == k.curTask
	k.schedLocked()
	k.exit()
	if self {
		<-t.wake
	}
}

// Resume decrements t's suspend count and, on the transition back to
// zero, clears stateSuspended, makes t ready again, and triggers a
// reschedule — the host counterpart of tTaskWakeUp.
func (k *Kernel) Resume(t *Task) {
	k.enter()
	if t.state&stateSuspended == 0 {
		k.exit()
		return
	}
	t.suspendCount--
	if t.suspendCount > 0 {
		k.exit()
		return
	}
	t.state &^= stateSuspended
	k.schedRdyLocked(t)
	k.schedLocked()
	k.exit()
}

// ForceDelete removes t from whichever queue currently holds it (the
// delay list, the ready list, or neither if t is already suspended)
// and runs its cleanup hook, mirroring tTaskForceDelete. Unlike the
// original, the cleanup hook runs after the kernel lock is released —
// Go's sync.Mutex is not reentrant, so a cleanup that itself calls back
// into the kernel (e.g. Destroy on an object t owned) would deadlock
// otherwise, the same reasoning behind critical.go's Locked-suffix
// convention. Deleting the task currently running parks its goroutine
// forever; nothing ever makes a deleted task ready again.
func (k *Kernel) ForceDelete(t *Task) {
	k.enter()
	if t.state&stateDelayed != 0 {
		k.delayedList.Remove(&t.delayNode)
		t.state &^= stateDelayed
	}
	if t.state&stateSuspended == 0 {
		// schedRemoveLocked unlinks readyNode from wherever it
		// currently lives — the ready list, or an event's wait queue
		// if t was blocked on a semaphore/mutex/mailbox/flag
		// group/pool — the tlist.Node.Remove operation is self-
		// contained and needs no knowledge of which list owns it.
		k.schedRemoveLocked(t)
	}
	t.state &^= (stateWaitingEvent | stateSuspended)
	t.waitEvent = nil
	t.suspendCount = 0
	cleanup, arg := t.cleanupFn, t.cleanupArg
	self := t == k.curTask
	k.schedLocked()
	k.exit()

	if cleanup != nil {
		cleanup(arg)
	}
	if self {
		<-t.wake
	}
}

// DeleteSelf removes the calling task from the scheduler, runs its
// cleanup hook, and yields the virtual CPU permanently — the host
// rendering of tTaskDeleteSelf, which never returns to its caller
// because the task's own stack ceases to exist. Call it as a task
// body's last action.
func (tc *TaskContext) DeleteSelf() {
	tc.k.ForceDelete(tc.task)
}

// RequestDelete sets the cooperative delete flag a task checks on its
// own (via IsDeleteRequested) to unwind and call TaskContext.DeleteSelf.
func (t *Task) RequestDelete() {
	t.requestDelete = true
}

// IsDeleteRequested reports whether RequestDelete was called on t.
func (t *Task) IsDeleteRequested() bool {
	return t.requestDelete
}
