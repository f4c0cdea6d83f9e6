package kernel

// Semaphore is a counting semaphore with an optional maximum value, as
// specified in SPEC_FULL.md §4.7. max == 0 means unbounded.
type Semaphore struct {
	event Event
	k     *Kernel
	count int
	max   int
}

// NewSemaphore creates and registers a semaphore. initial is clamped
// to max when max > 0.
func (k *Kernel) NewSemaphore(initial, max int) *Semaphore {
	k.enter()
	defer k.exit()
	return k.newSemaphoreLocked(initial, max)
}

func (k *Kernel) newSemaphoreLocked(initial, max int) *Semaphore {
	if max > 0 && initial > max {
		initial = max
	}
	s := &Semaphore{k: k, count: initial, max: max}
	s.event.init(eventSem)
	return s
}

// Wait blocks until the semaphore's count is positive (decrementing it
// on success), the timeout elapses, or the semaphore is destroyed.
// timeout == 0 blocks indefinitely.
func (s *Semaphore) Wait(t *Task, timeout int) Result {
	k := s.k
	k.enter()
	if s.count > 0 {
		s.count--
		k.exit()
		return NoError
	}
	result, _ := k.blockSelf(&s.event, t, nil, timeout)
	k.exit()
	return result
}

// Notify wakes the longest-waiting (FIFO head) waiter if any, otherwise
// increments the count (unless max is already reached, in which case
// it reports ResourceFull).
func (s *Semaphore) Notify() Result {
	k := s.k
	k.enter()
	if woken := k.eventWakeUpLocked(&s.event, nil, NoError); woken != nil {
		k.schedLocked()
		k.exit()
		return NoError
	}
	if s.max == 0 || s.count < s.max {
		s.count++
		k.exit()
		return NoError
	}
	k.exit()
	if k.metrics != nil {
		k.metrics.semResourceFull.Inc()
	}
	return ResourceFull
}

// Count returns the current count.
func (s *Semaphore) Count() int {
	k := s.k
	k.enter()
	defer k.exit()
	return s.count
}

// Destroy wakes every waiter with Deleted and clears the count,
// returning the number of tasks woken.
func (s *Semaphore) Destroy() int {
	k := s.k
	k.enter()
	n := k.eventRemoveAllLocked(&s.event, nil, Deleted)
	s.count = 0
	k.schedLocked()
	k.exit()
	k.logDestroyUnblocked("semaphore", n)
	return n
}
