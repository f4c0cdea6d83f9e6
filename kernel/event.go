package kernel

import "github.com/Dukiyaaa/MyOSForCm3/internal/tlist"

// eventType tags what kind of synchronization object owns an Event,
// matching the discriminator in original_source/tEvent.h.
type eventType uint8

const (
	eventUnknown eventType = iota
	eventSem
	eventMutex
	eventMbox
	eventMemPool
	eventFlagGroup
)

// Event is the generic wait-queue every synchronization primitive
// embeds: a FIFO of blocked tasks and nothing else. Derived objects
// (Semaphore, Mutex, Mailbox, FlagGroup, MemPool) carry their own state
// alongside an Event.
type Event struct {
	typ      eventType
	waitList tlist.List
}

func (e *Event) init(typ eventType) {
	e.typ = typ
	e.waitList.Init()
}

func (e *Event) count() int {
	return e.waitList.Count()
}

func (e *Event) empty() bool {
	return e.waitList.Empty()
}

// eventWaitLocked blocks t on e: removes it from the ready set, marks
// it WAITING-FOR-EVENT, enqueues it on e's FIFO, and — if timeout > 0 —
// on the delay list as well. The caller must follow this with a
// reschedule (via blockSelf) once it has finished mutating whatever
// else needs mutating.
func (k *Kernel) eventWaitLocked(e *Event, t *Task, msg any, timeout int) {
	t.waitEvent = e
	t.waitMsg = msg
	t.state |= stateWaitingEvent
	k.schedUnRdyLocked(t)
	e.waitList.InsertLast(&t.readyNode)
	if timeout > 0 {
		t.delayTicks = timeout
		t.state |= stateDelayed
		k.delayedList.InsertLast(&t.delayNode)
	}
}

// eventWakeUpLocked pops the head waiter off e, if any, delivers msg
// and result, removes it from the delay list if it was timed-waiting,
// and makes it ready. Returns the woken task, or nil if e had no
// waiters. The caller decides whether to reschedule.
func (k *Kernel) eventWakeUpLocked(e *Event, msg any, result Result) *Task {
	n := e.waitList.RemoveFirst()
	if n == nil {
		return nil
	}
	t := tlist.Owner[*Task](n)
	k.finishWaitLocked(t, msg, result)
	return t
}

// eventRemoveTaskLocked removes t from whatever event queue it is on
// (used by the tick handler on timeout, and by destroy paths) and
// marks it ready with the given result.
func (k *Kernel) eventRemoveTaskLocked(t *Task, msg any, result Result) {
	if t.waitEvent != nil {
		t.waitEvent.waitList.Remove(&t.readyNode)
	}
	k.finishWaitLocked(t, msg, result)
}

// eventRemoveAllLocked drains every waiter on e, used by destroy. It
// returns the number of tasks woken.
func (k *Kernel) eventRemoveAllLocked(e *Event, msg any, result Result) int {
	n := 0
	for {
		if k.eventWakeUpLocked(e, msg, result) == nil {
			break
		}
		n++
	}
	return n
}

// finishWaitLocked is the shared tail of eventWakeUpLocked and
// eventRemoveTaskLocked: clear the waiting bits, detach from the delay
// list if present, deliver the result, and make the task ready.
func (k *Kernel) finishWaitLocked(t *Task, msg any, result Result) {
	if t.state&stateDelayed != 0 {
		k.delayedList.Remove(&t.delayNode)
		t.state &^= stateDelayed
	}
	t.state &^= stateWaitingEvent
	t.waitEvent = nil
	t.waitMsg = msg
	t.waitResult = result
	k.schedRdyLocked(t)

	if k.metrics != nil {
		switch result {
		case Timeout:
			k.metrics.timeouts.Inc()
		case Deleted:
			k.metrics.deletes.Inc()
		}
	}
}
