package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuspendRemovesFromReadyThenResumeRestores(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 3)
	require.True(t, k.bitmap.Get(3))

	k.Suspend(a)
	require.True(t, a.Stats().Suspended)
	require.Equal(t, 1, a.Stats().SuspendCount)
	require.False(t, k.bitmap.Get(3))

	k.Resume(a)
	require.False(t, a.Stats().Suspended)
	require.True(t, k.bitmap.Get(3))
}

func TestSuspendCountAccumulatesAcrossCalls(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 3)

	k.Suspend(a)
	k.Suspend(a)
	require.Equal(t, 2, a.Stats().SuspendCount)
	require.True(t, a.Stats().Suspended)

	k.Resume(a)
	require.True(t, a.Stats().Suspended, "one Resume should not undo two Suspends")

	k.Resume(a)
	require.False(t, a.Stats().Suspended)
}

func TestSuspendIgnoresDelayedTask(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 3)

	k.enter()
	a.state |= stateDelayed
	k.exit()

	k.Suspend(a)
	require.Equal(t, 0, a.Stats().SuspendCount)
	require.False(t, a.Stats().Suspended)
}

func TestForceDeleteRunsCleanupAndClearsReady(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 4)

	var cleanedUp bool
	a.SetCleanup(func(arg any) { cleanedUp = arg.(string) == "arg" }, "arg")

	k.ForceDelete(a)
	require.True(t, cleanedUp)
	require.False(t, k.bitmap.Get(4))
}

func TestForceDeleteRemovesFromDelayList(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 4)

	k.enter()
	k.schedUnRdyLocked(a)
	a.state |= stateDelayed
	a.delayTicks = 100
	k.delayedList.InsertLast(&a.delayNode)
	k.exit()

	k.ForceDelete(a)
	require.False(t, a.Stats().Delayed)
	require.True(t, k.delayedList.Empty())
}

func TestDeleteSelfParksCallingGoroutineForever(t *testing.T) {
	k := newTestKernel(t)
	self := k.newTestTask("self-deleter", 2)
	k.enter()
	k.curTask = self
	k.exit()

	tc := &TaskContext{k: k, task: self}
	done := make(chan struct{})
	go func() {
		tc.DeleteSelf()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("DeleteSelf returned; expected the goroutine to park forever")
	case <-time.After(20 * time.Millisecond):
	}
	require.False(t, k.bitmap.Get(2))
}

func TestSampleStackRecordsAHighWaterMark(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 2)
	require.Zero(t, a.Stats().StackHighWaterBytes)

	a.sampleStack()
	require.Greater(t, a.Stats().StackHighWaterBytes, 0)
}
