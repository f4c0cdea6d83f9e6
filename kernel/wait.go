package kernel

// blockSelf is the shared "a task blocks on its own call" sequence
// used by Semaphore.Wait, Mutex.Lock, Mailbox.Wait, FlagGroup.Wait and
// MemPool.Alloc: queue t on e (and the delay list, if timeout > 0),
// trigger a reschedule, then have t's own goroutine park until it is
// granted the virtual CPU again. Callers must hold the kernel lock on
// entry; blockSelf releases it before parking and re-acquires it
// before returning, so callers can read the result and exit exactly as
// if no blocking had occurred.
func (k *Kernel) blockSelf(e *Event, t *Task, msg any, timeout int) (Result, any) {
	k.eventWaitLocked(e, t, msg, timeout)
	// t is no longer ready, so any token already in t.wake is left over
	// from an earlier grant; drop it so the park below waits for the
	// grant that follows this wait's wake-up.
	select {
	case <-t.wake:
	default:
	}
	k.schedLocked()
	k.exit()

	<-t.wake

	k.enter()
	result := t.waitResult
	delivered := t.waitMsg
	return result, delivered
}
