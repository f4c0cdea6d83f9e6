package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	cfg := DefaultConfig()
	k, err := New(cfg)
	require.NoError(t, err)
	return k
}

// newTestTask registers a bare Task directly on k's ready queue,
// without spawning the goroutine/context machinery CreateTask wires up
// for a full entry function. Unit tests that only need something to
// hand to a blocking primitive's Wait/Lock/Alloc (and a separate
// goroutine to exercise the block/wake handshake) use this instead of
// standing up a whole Kernel via Start.
func (k *Kernel) newTestTask(name string, prio int) *Task {
	tsk := &Task{
		id:         1,
		name:       name,
		prio:       prio,
		sliceTicks: k.cfg.SliceMax,
		wake:       make(chan struct{}, 1),
	}
	tsk.readyNode.Init()
	tsk.readyNode.Owner = tsk
	tsk.delayNode.Init()
	tsk.delayNode.Owner = tsk

	k.enter()
	k.schedRdyLocked(tsk)
	k.exit()
	return tsk
}

func TestSemaphoreCountRoundTrip(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(2, 5)
	require.Equal(t, 2, sem.Count())

	require.Equal(t, NoError, sem.Notify())
	require.Equal(t, 3, sem.Count())
}

func TestSemaphoreWaitDecrementsWhenAvailable(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(1, 1)
	self := k.newTestTask("t1", 0)

	require.Equal(t, NoError, sem.Wait(self, 0))
	require.Equal(t, 0, sem.Count())
}

func TestSemaphoreMaxResourceFull(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(2, 2)
	require.Equal(t, ResourceFull, sem.Notify())
	require.Equal(t, 2, sem.Count())
}

func TestSemaphoreBlockAndNotify(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(0, 0)
	self := k.newTestTask("blocker", 0)

	result := make(chan Result, 1)
	done := make(chan struct{})
	go func() {
		result <- sem.Wait(self, 0)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Notify")
	case <-time.After(20 * time.Millisecond):
	}

	require.Equal(t, NoError, sem.Notify())

	select {
	case r := <-result:
		require.Equal(t, NoError, r)
	case <-time.After(time.Second):
		t.Fatal("Wait never resumed after Notify")
	}
}

func TestSemaphoreDestroyUnblocksWaiter(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(0, 0)
	self := k.newTestTask("blocker", 0)

	result := make(chan Result, 1)
	go func() { result <- sem.Wait(self, 0) }()
	time.Sleep(10 * time.Millisecond)

	n := sem.Destroy()
	require.Equal(t, 1, n)

	select {
	case r := <-result:
		require.Equal(t, Deleted, r)
	case <-time.After(time.Second):
		t.Fatal("Wait never resumed after Destroy")
	}
}
