package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemPoolAllocFree(t *testing.T) {
	k := newTestKernel(t)
	pool := NewMemPool[int](k, []int{10, 20, 30})
	self := k.newTestTask("t", 0)

	require.Equal(t, 3, pool.Available())

	blk, r := pool.Alloc(self, 0)
	require.Equal(t, NoError, r)
	require.Contains(t, []int{10, 20, 30}, blk)
	require.Equal(t, 2, pool.Available())

	require.Equal(t, NoError, pool.Free(blk))
	require.Equal(t, 3, pool.Available())
}

func TestMemPoolBlocksWhenEmpty(t *testing.T) {
	k := newTestKernel(t)
	pool := NewMemPool[int](k, []int{1})
	self := k.newTestTask("allocator", 0)

	blk1, r := pool.Alloc(self, 0)
	require.Equal(t, NoError, r)
	require.Equal(t, 1, blk1)

	type outcome struct {
		blk int
		r   Result
	}
	out := make(chan outcome, 1)
	go func() {
		blk, r := pool.Alloc(self, 0)
		out <- outcome{blk, r}
	}()
	time.Sleep(10 * time.Millisecond)

	require.Equal(t, NoError, pool.Free(blk1))

	select {
	case o := <-out:
		require.Equal(t, NoError, o.r)
		require.Equal(t, 1, o.blk)
	case <-time.After(time.Second):
		t.Fatal("Alloc never resumed after Free")
	}
}

func TestMemPoolFreeOverCapacityIsResourceFull(t *testing.T) {
	k := newTestKernel(t)
	pool := NewMemPool[int](k, []int{1, 2})
	self := k.newTestTask("allocator", 0)

	_, r := pool.Alloc(self, 0)
	require.Equal(t, NoError, r)
	_, r = pool.Alloc(self, 0)
	require.Equal(t, NoError, r)
	require.Equal(t, 0, pool.Available())

	require.Equal(t, NoError, pool.Free(1))
	require.Equal(t, NoError, pool.Free(2))
	require.Equal(t, 2, pool.Available())

	require.Equal(t, ResourceFull, pool.Free(1), "freeing beyond capacity signals a double free")
}
