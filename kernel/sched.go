package kernel

import "github.com/Dukiyaaa/MyOSForCm3/internal/tlist"

// schedRdyLocked adds t to the head of its priority's ready list and
// marks the priority bit set. Caller holds the kernel lock.
func (k *Kernel) schedRdyLocked(t *Task) {
	k.taskTable[t.prio].InsertFirst(&t.readyNode)
	k.bitmap.Set(t.prio)
}

// schedUnRdyLocked removes t from its priority's ready list and clears
// the priority bit if the list becomes empty.
func (k *Kernel) schedUnRdyLocked(t *Task) {
	k.taskTable[t.prio].Remove(&t.readyNode)
	if k.taskTable[t.prio].Empty() {
		k.bitmap.Clear(t.prio)
	}
}

// schedRemoveLocked is schedUnRdyLocked under another name, matching
// the distilled spec's separate entry point used by destroy/force-delete
// paths for readability at the call site.
func (k *Kernel) schedRemoveLocked(t *Task) {
	k.schedUnRdyLocked(t)
}

// highestReadyLocked returns the head of the highest-priority non-empty
// ready list, or nil if no task is ready.
func (k *Kernel) highestReadyLocked() *Task {
	p := k.bitmap.FirstSet()
	if p < 0 {
		return nil
	}
	n := k.taskTable[p].First()
	if n == nil {
		return nil
	}
	return tlist.Owner[*Task](n)
}

// schedLocked is sched() from SPEC_FULL.md §4.4: if the scheduler is
// locked, do nothing; otherwise select the highest-ready task and, if
// it differs from the current task, switch to it.
func (k *Kernel) schedLocked() {
	if k.schedLockCounter > 0 {
		return
	}
	next := k.highestReadyLocked()
	if next == nil || next == k.curTask {
		return
	}
	prev := k.curTask
	k.curTask = next
	k.platform.Switch(prev, next)
}

// SchedulerDisable increments the nested scheduler-lock counter,
// inhibiting reschedule decisions until a matching SchedulerEnable
// brings it back to zero. Saturates at 255 as the distilled spec
// requires.
func (k *Kernel) SchedulerDisable() {
	k.enter()
	defer k.exit()
	if k.schedLockCounter < 255 {
		k.schedLockCounter++
	}
}

// SchedulerEnable decrements the lock counter and, on transition to
// zero, triggers a reschedule.
func (k *Kernel) SchedulerEnable() {
	k.enter()
	defer k.exit()
	k.schedulerEnableLocked()
}

// schedulerEnableLocked is SchedulerEnable's body for callers that
// already hold the kernel lock (updateCPUUsageLocked, at the end of
// calibration).
func (k *Kernel) schedulerEnableLocked() {
	if k.schedLockCounter == 0 {
		return
	}
	k.schedLockCounter--
	if k.schedLockCounter == 0 {
		k.schedLocked()
	}
}

// tickSliceLocked implements §4.4's time-slicing: decrement the
// current task's remaining slice; on exhaustion, rotate its priority's
// ready list to the tail if more than one task shares that priority.
func (k *Kernel) tickSliceLocked() {
	cur := k.curTask
	if cur == nil {
		return
	}
	cur.sliceTicks--
	if cur.sliceTicks > 0 {
		return
	}
	cur.sliceTicks = k.cfg.SliceMax
	if k.taskTable[cur.prio].Count() >= 2 {
		k.taskTable[cur.prio].MoveToLast(&cur.readyNode)
	}
}
