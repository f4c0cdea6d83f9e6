package kernel

import "go.uber.org/zap"

// noopLogger is installed on a Kernel that was not given one, so every
// log call site can assume a non-nil *zap.Logger without an existence
// check at each use.
func noopLogger() *zap.Logger {
	return zap.NewNop()
}

func (k *Kernel) logTaskTransition(t *Task, event string) {
	k.log.Debug("task transition",
		zap.Uint32("task_id", t.id),
		zap.Int("priority", t.prio),
		zap.String("event", event),
	)
}

func (k *Kernel) logPriorityBoost(owner *Task, from, to int) {
	k.log.Info("mutex priority inheritance boost",
		zap.Uint32("task_id", owner.id),
		zap.Int("from_priority", from),
		zap.Int("to_priority", to),
	)
}

func (k *Kernel) logPriorityRestore(owner *Task, to int) {
	k.log.Info("mutex priority inheritance restore",
		zap.Uint32("task_id", owner.id),
		zap.Int("to_priority", to),
	)
}

func (k *Kernel) logDestroyUnblocked(kind string, count int) {
	k.log.Info("object destroyed, waiters unblocked",
		zap.String("object", kind),
		zap.Int("woken", count),
	)
}

func (k *Kernel) logTimerDispatch(name string, hard bool) {
	k.log.Debug("timer dispatched",
		zap.String("timer", name),
		zap.Bool("hard", hard),
	)
}
