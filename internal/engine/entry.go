package engine

import (
	"context"
	"sync"

	"github.com/orcforge/engine/internal/taskstate"
)

// taskEntry is the engine's internal handle on one task: its mutable state
// plus the machinery needed to cancel it. All field reads/writes on task go
// through mu, giving per-task exclusion as required by spec.md §5 ("Shared
// resource policy").
type taskEntry struct {
	mu     sync.Mutex
	task   *taskstate.Task
	cancel context.CancelFunc
}

// withLock runs fn with the entry locked.
func (e *taskEntry) withLock(fn func(t *taskstate.Task)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.task)
}

// snapshot returns a deep-copied, read-only view of the task.
func (e *taskEntry) snapshot() *taskstate.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task.Clone()
}

// setCancel installs the context.CancelFunc for the task's in-flight run.
func (e *taskEntry) setCancel(cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel = cancel
}

// cancelIfSet invokes the installed CancelFunc, if any. Safe to call before
// the task has started running (no-op) or multiple times (idempotent).
func (e *taskEntry) cancelIfSet() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
