package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutexRecursiveLockUnlock(t *testing.T) {
	k := newTestKernel(t)
	m := k.NewMutex()
	owner := k.newTestTask("owner", 3)

	require.Equal(t, NoError, m.Lock(owner, 0))
	require.Equal(t, NoError, m.Lock(owner, 0)) // recursive
	require.Equal(t, owner, m.Owner())

	require.Equal(t, NoError, m.Unlock(owner))
	require.Equal(t, owner, m.Owner()) // recursion still > 0
	require.Equal(t, NoError, m.Unlock(owner))
	require.Nil(t, m.Owner())
}

func TestMutexUnlockByNonOwner(t *testing.T) {
	k := newTestKernel(t)
	m := k.NewMutex()
	owner := k.newTestTask("owner", 3)
	other := k.newTestTask("other", 3)

	require.Equal(t, NoError, m.Lock(owner, 0))
	require.Equal(t, NotOwner, m.Unlock(other))
}

// TestMutexPriorityInheritance is the mutex half of the distilled
// spec's scenario 1: a low-urgency owner (prio 5) holding the mutex is
// boosted to a higher-urgency contender's priority (prio 2) while the
// contender is blocked, and reverts once the owner releases it.
func TestMutexPriorityInheritance(t *testing.T) {
	k := newTestKernel(t)
	m := k.NewMutex()

	owner := k.newTestTask("owner", 5)
	require.Equal(t, NoError, m.Lock(owner, 0))

	contender := &Task{
		id:         2,
		name:       "contender",
		prio:       2,
		sliceTicks: k.cfg.SliceMax,
		wake:       make(chan struct{}, 1),
	}
	contender.readyNode.Init()
	contender.readyNode.Owner = contender
	contender.delayNode.Init()
	contender.delayNode.Owner = contender
	k.enter()
	k.schedRdyLocked(contender)
	k.exit()

	result := make(chan Result, 1)
	go func() { result <- m.Lock(contender, 0) }()
	time.Sleep(10 * time.Millisecond)

	require.Equal(t, 2, owner.Priority(), "owner must be boosted to contender's priority")

	require.Equal(t, NoError, m.Unlock(owner))
	require.Equal(t, 5, owner.Priority(), "owner must revert once released")

	select {
	case r := <-result:
		require.Equal(t, NoError, r)
		require.Equal(t, contender, m.Owner())
	case <-time.After(time.Second):
		t.Fatal("contender never acquired the mutex")
	}
}

func TestMutexDestroyUnblocksWaiters(t *testing.T) {
	k := newTestKernel(t)
	m := k.NewMutex()
	owner := k.newTestTask("owner", 3)
	require.Equal(t, NoError, m.Lock(owner, 0))

	waiter := k.newTestTask("waiter", 3)
	waiter.id = 2
	result := make(chan Result, 1)
	go func() { result <- m.Lock(waiter, 0) }()
	time.Sleep(10 * time.Millisecond)

	n := m.Destroy()
	require.Equal(t, 1, n)

	select {
	case r := <-result:
		require.Equal(t, Deleted, r)
	case <-time.After(time.Second):
		t.Fatal("waiter never resumed after Destroy")
	}
}
