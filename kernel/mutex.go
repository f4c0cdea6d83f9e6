package kernel

import "github.com/Dukiyaaa/MyOSForCm3/internal/tlist"

// Mutex is a recursive mutex with single-level priority inheritance,
// as specified in SPEC_FULL.md §4.8. Chained inheritance — boosting
// the owner of a mutex that is itself blocked on a second mutex — is
// not implemented, matching the original firmware's own limitation
// (documented as an Open Question in DESIGN.md): Lock only ever boosts
// the direct owner to the direct contender's priority, walking no
// further.
type Mutex struct {
	event Event
	k     *Kernel

	owner             *Task
	recursion         int
	ownerOriginalPrio int
}

// NewMutex creates and registers an unowned mutex.
func (k *Kernel) NewMutex() *Mutex {
	m := &Mutex{k: k}
	m.event.init(eventMutex)
	return m
}

// setTaskPriorityLocked changes t's effective priority, keeping ready
// or wait-queue membership consistent. A task waiting on an event,
// delayed, or merely suspended needs no queue move since it is on no
// ready list; a ready task must be relinked into its new priority's
// ready list.
func (k *Kernel) setTaskPriorityLocked(t *Task, newPrio int) {
	if t.prio == newPrio {
		return
	}
	if t.state&(stateWaitingEvent|stateDelayed|stateSuspended) != 0 {
		t.prio = newPrio
		return
	}
	k.schedUnRdyLocked(t)
	t.prio = newPrio
	k.schedRdyLocked(t)
}

// Lock acquires m, recursively if the caller already owns it, blocking
// if another task owns it. If the caller is of higher urgency
// (numerically smaller priority) than the current owner, the owner is
// boosted to the caller's priority for the duration of ownership.
func (m *Mutex) Lock(t *Task, timeout int) Result {
	k := m.k
	k.enter()

	if m.owner == nil {
		m.owner = t
		m.recursion = 1
		m.ownerOriginalPrio = t.prio
		k.exit()
		return NoError
	}
	if m.owner == t {
		m.recursion++
		k.exit()
		return NoError
	}
	if t.prio < m.owner.prio {
		from := m.owner.prio
		k.setTaskPriorityLocked(m.owner, t.prio)
		k.logPriorityBoost(m.owner, from, t.prio)
	}
	result, _ := k.blockSelf(&m.event, t, nil, timeout)
	k.exit()
	return result
}

// Unlock releases one level of recursion. When recursion reaches zero
// it restores the owner's original priority (if boosted) and either
// transfers ownership to the head waiter or marks the mutex unowned.
// Returns NotOwner if called by a task that does not hold m.
func (m *Mutex) Unlock(t *Task) Result {
	k := m.k
	k.enter()
	if m.owner != t {
		k.exit()
		return NotOwner
	}
	m.recursion--
	if m.recursion > 0 {
		k.exit()
		return NoError
	}

	if m.owner.prio != m.ownerOriginalPrio {
		k.setTaskPriorityLocked(m.owner, m.ownerOriginalPrio)
		k.logPriorityRestore(m.owner, m.ownerOriginalPrio)
	}

	if next := m.event.waitList.First(); next != nil {
		waiter := tlist.Owner[*Task](next)
		m.owner = waiter
		m.recursion = 1
		m.ownerOriginalPrio = waiter.prio
		k.eventWakeUpLocked(&m.event, nil, NoError)
		k.schedLocked()
	} else {
		m.owner = nil
		m.recursion = 0
	}
	k.exit()
	return NoError
}

// Destroy restores the owner's original priority (if boosted) and
// wakes every waiter with Deleted, returning the count woken.
func (m *Mutex) Destroy() int {
	k := m.k
	k.enter()
	if m.owner != nil && m.owner.prio != m.ownerOriginalPrio {
		k.setTaskPriorityLocked(m.owner, m.ownerOriginalPrio)
	}
	m.owner = nil
	m.recursion = 0
	n := k.eventRemoveAllLocked(&m.event, nil, Deleted)
	k.schedLocked()
	k.exit()
	k.logDestroyUnblocked("mutex", n)
	return n
}

// Owner returns the current owner, or nil if unowned. For diagnostics.
func (m *Mutex) Owner() *Task {
	k := m.k
	k.enter()
	defer k.exit()
	return m.owner
}
