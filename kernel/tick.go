package kernel

import "github.com/Dukiyaaa/MyOSForCm3/internal/tlist"

// TickHandler is the periodic tick ISR from SPEC_FULL.md §4.5. In this
// host it runs on the dedicated tick-source goroutine rather than a
// real hardware interrupt, but it performs the same seven steps inside
// the same single critical section, including the inline hard-timer
// scan — hard timer callbacks must not block, exactly as on real
// hardware, since they run with the kernel lock held.
func (k *Kernel) TickHandler() {
	k.enter()

	k.scanDelayedListLocked()
	k.tickSliceLocked()
	k.tickCount++
	k.updateCPUUsageLocked()
	k.scanHardTimersLocked()
	k.reportReadyQueueDepthLocked()

	k.schedLocked()
	k.exit()

	if k.timerTick != nil {
		k.timerTick.Notify()
	}
}

// scanDelayedListLocked walks every delayed task, decrementing its
// countdown; a task that reaches zero is removed from whatever event
// it was waiting on (with result Timeout) and made ready.
func (k *Kernel) scanDelayedListLocked() {
	n := k.delayedList.First()
	for n != nil {
		next := k.delayedList.Next(n)
		t := tlist.Owner[*Task](n)
		t.delayTicks--
		if t.delayTicks <= 0 {
			if t.waitEvent != nil {
				k.eventRemoveTaskLocked(t, nil, Timeout)
			} else {
				k.delayedList.Remove(&t.delayNode)
				t.state &^= stateDelayed
				k.schedRdyLocked(t)
			}
		}
		n = next
	}
}
