package kernel

import "sync"

// critical is the host counterpart of tTaskEnterCritical/tTaskExitCritical.
// There is no real interrupt mask to save here, so a single mutex plays
// the same role the teacher's own note/lock primitive plays for the Go
// runtime scheduler: the one serialization point all kernel state goes
// through. See lock_sema.go / lock_futex.go for the primitive this is
// grounded on.
//
// Unlike a real interrupt-disable region, a sync.Mutex is not reentrant,
// so nesting is not implemented by recursive Enter/Exit calls on the
// same goroutine. Instead, every exported Kernel method that mutates
// scheduler or sync-object state locks once at its own entry point;
// internal helpers that are only ever called with the lock already
// held are named with a "Locked" suffix and never lock themselves. This
// is the idiomatic Go rendering of "nesting is safe because state is
// carried on the caller's stack": the call stack itself proves the lock
// is already held, so no saved depth value needs to travel with it.
type critical struct {
	mu sync.Mutex
}

// enter acquires the kernel's single critical section.
func (c *critical) enter() {
	c.mu.Lock()
}

// exit releases it.
func (c *critical) exit() {
	c.mu.Unlock()
}
