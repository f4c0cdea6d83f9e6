package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTimedWaitResumesWithTimeout is scenario 2 from the distilled
// spec: a task waits on a semaphore with timeout == 10 and no notify
// occurs; it must resume after exactly 10 ticks with Timeout, absent
// from both the semaphore's wait queue and the delay list.
func TestTimedWaitResumesWithTimeout(t *testing.T) {
	k := newTestKernel(t)
	sem := k.NewSemaphore(0, 0)
	self := k.newTestTask("waiter", 0)

	result := make(chan Result, 1)
	go func() { result <- sem.Wait(self, 10) }()
	time.Sleep(10 * time.Millisecond) // let it reach the blocked state

	for i := 0; i < 9; i++ {
		k.TickHandler()
		select {
		case <-result:
			t.Fatalf("resumed early, at tick %d", i+1)
		default:
		}
	}

	k.TickHandler() // the 10th tick must fire the timeout

	select {
	case r := <-result:
		require.Equal(t, Timeout, r)
	case <-time.After(time.Second):
		t.Fatal("never resumed after the timeout elapsed")
	}

	require.True(t, sem.event.empty())
	require.True(t, k.delayedList.Empty())
}
