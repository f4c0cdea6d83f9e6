package kernel

import (
	"testing"

	"github.com/Dukiyaaa/MyOSForCm3/internal/tlist"
	"github.com/stretchr/testify/require"
)

func TestBitmapMatchesReadyListOccupancy(t *testing.T) {
	k := newTestKernel(t)
	require.True(t, k.bitmap.Empty())

	a := k.newTestTask("a", 3)
	require.True(t, k.bitmap.Get(3))

	k.enter()
	k.schedUnRdyLocked(a)
	k.exit()
	require.False(t, k.bitmap.Get(3))
}

func TestHighestReadyPicksLowestPriorityNumber(t *testing.T) {
	k := newTestKernel(t)
	k.newTestTask("low-urgency", 10)
	high := k.newTestTask("high-urgency", 2)

	k.enter()
	got := k.highestReadyLocked()
	k.exit()
	require.Equal(t, high, got)
}

func TestSchedulerLockInhibitsReschedule(t *testing.T) {
	k := newTestKernel(t)
	a := k.newTestTask("a", 5)

	k.enter()
	k.curTask = a
	k.exit()

	k.SchedulerDisable()
	b := k.newTestTask("b", 1) // higher urgency, would normally preempt
	k.enter()
	cur := k.curTask
	k.exit()
	require.Equal(t, a, cur, "scheduler is locked, curTask must not change")

	k.SchedulerEnable()
	k.enter()
	cur = k.curTask
	k.exit()
	require.Equal(t, b, cur, "enabling the scheduler must trigger the deferred reschedule")
}

func TestTimeSliceRotatesAtEqualPriority(t *testing.T) {
	k := newTestKernel(t)
	k.cfg.SliceMax = 2
	a := k.newTestTask("a", 4)
	b := k.newTestTask("b", 4)
	a.sliceTicks = 1 // about to expire

	k.enter()
	k.curTask = a
	k.tickSliceLocked()
	head := k.taskTable[4].First()
	k.exit()

	require.Equal(t, b, tlist.Owner[*Task](head))
	require.Equal(t, k.cfg.SliceMax, a.sliceTicks)
}
