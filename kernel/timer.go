package kernel

import (
	"context"

	"github.com/Dukiyaaa/MyOSForCm3/internal/tlist"
)

// TimerState is a timer's lifecycle state, as specified in
// SPEC_FULL.md §4.12.
type TimerState uint8

const (
	TimerCreated TimerState = iota
	TimerStarted
	TimerRunning
	TimerStopped
	TimerDestroyed
)

// Timer is a periodic or one-shot callback, dispatched either from
// inside the tick handler's critical section (hard) or from the
// soft-timer worker task (soft). Grounded on original_source/tTimer.c.
type Timer struct {
	node tlist.Node
	k    *Kernel

	Name string

	initialDelay int
	period       int
	delayTicks   int

	fn  func(arg any)
	arg any

	hard  bool
	state TimerState
}

// NewTimer creates a timer in the Created state. If initialDelay is 0
// the first firing happens after period ticks, matching the original's
// tTimerInit convention.
func (k *Kernel) NewTimer(name string, initialDelay, period int, fn func(arg any), arg any, hard bool) *Timer {
	tm := &Timer{k: k, Name: name, initialDelay: initialDelay, period: period, fn: fn, arg: arg, hard: hard, state: TimerCreated}
	tm.node.Init()
	tm.node.Owner = tm
	tm.resetCountdown()
	return tm
}

func (tm *Timer) resetCountdown() {
	if tm.initialDelay == 0 {
		tm.delayTicks = tm.period
	} else {
		tm.delayTicks = tm.initialDelay
	}
}

// Start arms the timer. Valid only from Created or Stopped; any other
// state is a contract violation (ErrTimerBadState), not a Result —
// timer misuse is not one of the wait outcomes in SPEC_FULL.md §7.
func (tm *Timer) Start(t *Task) error {
	k := tm.k
	if tm.hard {
		k.enter()
		defer k.exit()
		return tm.startLocked(&k.hardTimers)
	}
	if res := k.timerProtect.Wait(t, 0); res != NoError {
		return res.Err()
	}
	defer k.timerProtect.Notify()
	return tm.startLocked(&k.softTimers)
}

func (tm *Timer) startLocked(list *tlist.List) error {
	if tm.state != TimerCreated && tm.state != TimerStopped {
		return ErrTimerBadState
	}
	tm.resetCountdown()
	tm.state = TimerStarted
	list.InsertLast(&tm.node)
	return nil
}

// Stop disarms the timer. Valid only from Started or Running.
func (tm *Timer) Stop(t *Task) error {
	k := tm.k
	if tm.hard {
		k.enter()
		defer k.exit()
		return tm.stopLocked(&k.hardTimers)
	}
	if res := k.timerProtect.Wait(t, 0); res != NoError {
		return res.Err()
	}
	defer k.timerProtect.Notify()
	return tm.stopLocked(&k.softTimers)
}

func (tm *Timer) stopLocked(list *tlist.List) error {
	if tm.state != TimerStarted && tm.state != TimerRunning {
		return ErrTimerBadState
	}
	list.Remove(&tm.node)
	tm.state = TimerStopped
	return nil
}

// TimerInfo is the host rendering of tTimerGetInfo.
type TimerInfo struct {
	Name       string
	State      TimerState
	Period     int
	DelayTicks int
	Hard       bool
}

// Info returns a snapshot of the timer's state. For a soft timer this
// is read without taking the protect semaphore — a diagnostic best-
// effort snapshot rather than a point-in-time guarantee, since taking
// the semaphore would require a calling *Task to potentially block on.
func (tm *Timer) Info() TimerInfo {
	k := tm.k
	if tm.hard {
		k.enter()
		defer k.exit()
	}
	return TimerInfo{Name: tm.Name, State: tm.state, Period: tm.period, DelayTicks: tm.delayTicks, Hard: tm.hard}
}

// scanHardTimersLocked is called once per tick from TickHandler, with
// the kernel critical section already held. Hard timer callbacks must
// be short and non-blocking since they run in this context.
func (k *Kernel) scanHardTimersLocked() {
	n := k.hardTimers.First()
	for n != nil {
		next := k.hardTimers.Next(n)
		tm := tlist.Owner[*Timer](n)
		tm.fireIfDue(&k.hardTimers)
		k.logTimerDispatch(tm.Name, true)
		n = next
	}
}

// scanSoftTimers is called by the timer worker task with the soft
// timer protect semaphore held (not the kernel lock): soft callbacks
// may use any blocking kernel primitive.
func (k *Kernel) scanSoftTimers() {
	n := k.softTimers.First()
	for n != nil {
		next := k.softTimers.Next(n)
		tm := tlist.Owner[*Timer](n)
		tm.fireIfDue(&k.softTimers)
		k.logTimerDispatch(tm.Name, false)
		n = next
	}
}

// fireIfDue decrements the countdown and, on expiry, invokes the
// callback and either reloads (periodic) or stops (one-shot) the
// timer, matching tTimerCallFuncList.
func (tm *Timer) fireIfDue(list *tlist.List) {
	tm.delayTicks--
	if tm.delayTicks > 0 {
		return
	}
	tm.state = TimerRunning
	if tm.fn != nil {
		tm.fn(tm.arg)
	}
	if tm.period > 0 {
		tm.delayTicks = tm.period
		tm.state = TimerStarted
	} else {
		list.Remove(&tm.node)
		tm.state = TimerStopped
	}
}

// createTimerTask spawns the soft-timer worker: it blocks on the tick
// semaphore posted once per tick by TickHandler, then scans the soft
// list under the protect semaphore.
func (k *Kernel) createTimerTask() (*Task, error) {
	return k.CreateTask("tTmr", k.cfg.TimerTaskPrio, k.cfg.TimerStackSize, func(ctx context.Context, tc *TaskContext) {
		self := tc.Task()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			tc.Checkpoint()
			if res := k.timerTick.Wait(self, 0); res != NoError {
				continue
			}
			if res := k.timerProtect.Wait(self, 0); res != NoError {
				continue
			}
			k.scanSoftTimers()
			k.timerProtect.Notify()
		}
	})
}
