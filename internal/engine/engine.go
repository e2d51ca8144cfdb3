// Package engine implements the orchestration engine facade: task
// submission, priority scheduling under a bounded worker pool, phase and
// agent execution, and event publication.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orcforge/engine/internal/decompose"
	"github.com/orcforge/engine/internal/events"
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/orcerr"
	"github.com/orcforge/engine/internal/provider"
	"github.com/orcforge/engine/internal/taskstate"
)

// Config holds engine-wide tunables.
type Config struct {
	MaxWorkers  int    // maximum tasks executing concurrently (default: 4)
	DefaultMode string // mode used by Submit when none is given (default: QUALITY)
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{MaxWorkers: 4, DefaultMode: "QUALITY"}
}

// ModeSwitch is the result of SwitchMode: the engine's default mode before
// and after the change, and how many tasks are still in flight under their
// original mode snapshot (spec.md §4.1 "switch_mode").
type ModeSwitch struct {
	OldMode     string `json:"old"`
	NewMode     string `json:"new"`
	ActiveTasks int    `json:"active_tasks"`
}

// Stats is a point-in-time snapshot of engine load, returned by Stats().
type Stats struct {
	CurrentMode    string `json:"current_mode"`
	ActiveTasks    int    `json:"active_tasks"`
	QueuedTasks    int    `json:"queued_tasks"`
	RunningWorkers int    `json:"running_workers"`
	MaxWorkers     int    `json:"max_workers"`
}

// Engine is the orchestration facade described by the component design: it
// owns the priority queue, the bounded worker pool, and every task's
// lifecycle from submission through a terminal status.
type Engine struct {
	modes     *modes.Registry
	providers *provider.Registry
	bus       events.Bus
	clock     Clock
	metrics   *Metrics
	logger    *slog.Logger

	maxWorkers int

	// mu is the engine's coarse structural lock: it guards the queue, the
	// entries map, the running worker count, and the default mode. Per-task
	// field mutations use the finer-grained lock on taskEntry instead
	// (spec.md §5).
	mu          sync.Mutex
	entries     map[string]*taskEntry
	queue       *priorityQueue
	running     int
	defaultMode string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the engine's time source, for deterministic tests.
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMetricsRegisterer registers the engine's Prometheus metrics on reg
// instead of leaving them unregistered. Pass a fresh prometheus.NewRegistry()
// per Engine in tests to avoid collisions with other instances.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = NewMetrics(reg) }
}

// New constructs an Engine ready to accept Submit calls.
func New(cfg *Config, modeRegistry *modes.Registry, providers *provider.Registry, bus events.Bus, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())

	defaultMode := cfg.DefaultMode
	if defaultMode == "" {
		defaultMode = "QUALITY"
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	e := &Engine{
		modes:       modeRegistry,
		providers:   providers,
		bus:         bus,
		clock:       SystemClock{},
		metrics:     NewMetrics(nil),
		logger:      slog.Default(),
		maxWorkers:  maxWorkers,
		entries:     make(map[string]*taskEntry),
		queue:       newPriorityQueue(),
		defaultMode: defaultMode,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit registers a new task under mode (or the engine's current default
// mode if mode is empty) and makes it eligible for scheduling. Decomposition
// happens later, inside the Task Executor (runTask), not here — spec.md
// §4.3 runs it as the first executor step, after status=decomposing. Submit
// only creates the pending state and emits task_submitted.
func (e *Engine) Submit(taskID, description, mode string, priority int, projectID string) (*taskstate.Task, error) {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if mode == "" {
		e.mu.Lock()
		mode = e.defaultMode
		e.mu.Unlock()
	}

	cfg, err := e.modes.MustGet(mode)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if _, exists := e.entries[taskID]; exists {
		e.mu.Unlock()
		return nil, orcerr.DuplicateTask(taskID)
	}

	now := e.clock.Now()
	task := taskstate.New(taskID, description, mode, priority, projectID, cfg, now)
	submitted := task.Clone()

	entry := &taskEntry{task: task}
	e.entries[taskID] = entry
	e.queue.push(taskID, priority, now)
	e.metrics.QueueDepth.Set(float64(e.queue.len()))
	e.mu.Unlock()

	e.bus.Publish(events.Event{Type: events.TaskSubmitted, TaskID: taskID, Payload: submitted.Clone(), Timestamp: now})

	e.scheduleNext()

	return submitted, nil
}

// GetState returns a read-only snapshot of a submitted task.
func (e *Engine) GetState(taskID string) (*taskstate.Task, error) {
	entry, ok := e.lookup(taskID)
	if !ok {
		return nil, orcerr.New(orcerr.CodeInternal, "unknown task", fmt.Sprintf("task %q was not submitted", taskID))
	}
	return entry.snapshot(), nil
}

// Cancel requests cooperative cancellation of a task. Tasks still waiting
// in the queue are finalized as cancelled immediately; running tasks are
// signalled via context cancellation and finalize themselves once their
// in-flight agent call observes it (spec.md §5 "Cancellation").
func (e *Engine) Cancel(taskID string) error {
	entry, ok := e.lookup(taskID)
	if !ok {
		return orcerr.New(orcerr.CodeInternal, "unknown task", fmt.Sprintf("task %q was not submitted", taskID))
	}

	e.mu.Lock()
	removedFromQueue := e.queue.remove(taskID)
	e.metrics.QueueDepth.Set(float64(e.queue.len()))
	e.mu.Unlock()

	var shouldPublish bool
	entry.withLock(func(t *taskstate.Task) {
		if t.Status.IsTerminal() {
			return
		}
		if removedFromQueue {
			t.Status = taskstate.StatusCancelled
			t.CompletedAt = e.clock.Now()
			t.UpdatedAt = t.CompletedAt
			shouldPublish = true
		}
	})

	entry.cancelIfSet()

	if shouldPublish {
		e.bus.Publish(events.Event{Type: events.TaskCancelled, TaskID: taskID, Timestamp: e.clock.Now()})
		e.metrics.TasksCompleted.WithLabelValues(string(taskstate.StatusCancelled)).Inc()
	}
	return nil
}

// SwitchMode changes the engine's default mode used by future Submit calls.
// Tasks already submitted keep the mode config snapshot they were created
// with and run to completion under it unaffected (spec.md §4.1
// "switch_mode").
func (e *Engine) SwitchMode(newMode string) (ModeSwitch, error) {
	cfg, err := e.modes.MustGet(newMode)
	if err != nil {
		return ModeSwitch{}, err
	}

	e.mu.Lock()
	oldMode := e.defaultMode
	e.defaultMode = newMode
	e.mu.Unlock()

	result := ModeSwitch{OldMode: oldMode, NewMode: newMode, ActiveTasks: e.activeTaskCount()}

	e.bus.Publish(events.Event{
		Type:      events.ModeChange,
		Payload:   events.ModeChangePayload{OldMode: oldMode, NewMode: newMode, Config: cfg},
		Timestamp: e.clock.Now(),
	})
	return result, nil
}

// activeTaskCount returns the number of submitted tasks whose status is not
// yet terminal. Each entry is read under its own lock, never e.mu, to avoid
// nested lock ordering with taskEntry.mu.
func (e *Engine) activeTaskCount() int {
	e.mu.Lock()
	entries := make([]*taskEntry, 0, len(e.entries))
	for _, entry := range e.entries {
		entries = append(entries, entry)
	}
	e.mu.Unlock()

	count := 0
	for _, entry := range entries {
		entry.withLock(func(t *taskstate.Task) {
			if !t.Status.IsTerminal() {
				count++
			}
		})
	}
	return count
}

// On registers an in-process event handler, forwarding to the underlying bus.
func (e *Engine) On(eventType events.Type, handler func(events.Event)) {
	e.bus.On(eventType, handler)
}

// Stats returns a point-in-time load snapshot (spec.md §4.1 "stats").
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	currentMode := e.defaultMode
	queuedTasks := e.queue.len()
	runningWorkers := e.running
	maxWorkers := e.maxWorkers
	e.mu.Unlock()

	return Stats{
		CurrentMode:    currentMode,
		ActiveTasks:    e.activeTaskCount(),
		QueuedTasks:    queuedTasks,
		RunningWorkers: runningWorkers,
		MaxWorkers:     maxWorkers,
	}
}

// Close stops accepting new scheduling and waits for running tasks to
// observe cancellation and exit.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	e.bus.Close()
}

func (e *Engine) lookup(taskID string) (*taskEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[taskID]
	return entry, ok
}

// scheduleNext admits as many queued tasks as there are free worker slots.
func (e *Engine) scheduleNext() {
	for {
		e.mu.Lock()
		if e.closed || e.running >= e.maxWorkers {
			e.mu.Unlock()
			return
		}
		taskID, ok := e.queue.pop()
		if !ok {
			e.mu.Unlock()
			return
		}
		e.running++
		e.metrics.QueueDepth.Set(float64(e.queue.len()))
		e.metrics.RunningWorkers.Set(float64(e.running))
		entry := e.entries[taskID]
		e.mu.Unlock()

		e.wg.Add(1)
		go e.runTask(taskID, entry)
	}
}

// runTask drives one task from decomposition to terminal status, per
// spec.md §4.3's Task Executor lifecycle:
//  1. status=decomposing, started_at=now; emit task_started.
//  2. run the Decomposer, store the phase list; emit task_decomposed.
//  3. status=running; execute phases; finalize.
func (e *Engine) runTask(taskID string, entry *taskEntry) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		e.running--
		e.metrics.RunningWorkers.Set(float64(e.running))
		e.mu.Unlock()
		e.scheduleNext()
	}()

	var cfg modes.Config
	var description string
	entry.withLock(func(t *taskstate.Task) {
		cfg, _ = t.ModeConfigSnapshot.(modes.Config)
		description = t.Description
	})

	taskCtx, cancel := context.WithTimeout(e.ctx, time.Duration(cfg.TaskTimeoutMs)*time.Millisecond)
	entry.setCancel(cancel)
	defer cancel()

	entry.withLock(func(t *taskstate.Task) {
		t.Status = taskstate.StatusDecomposing
		t.StartedAt = e.clock.Now()
		t.UpdatedAt = t.StartedAt
	})
	e.bus.Publish(events.Event{Type: events.TaskStarted, TaskID: taskID, Timestamp: e.clock.Now()})

	phases := decompose.Decompose(description, cfg)
	var decomposedSnapshot *taskstate.Task
	entry.withLock(func(t *taskstate.Task) {
		t.Phases = phases
		t.UpdatedAt = e.clock.Now()
		decomposedSnapshot = t.Clone()
	})
	e.bus.Publish(events.Event{Type: events.TaskDecomposed, TaskID: taskID, Payload: decomposedSnapshot, Timestamp: e.clock.Now()})

	entry.withLock(func(t *taskstate.Task) {
		t.Status = taskstate.StatusRunning
		t.UpdatedAt = e.clock.Now()
	})

	runErr := runPhases(taskCtx, entry, cfg, e.providers, e.bus, e.clock, e.metrics)

	var finalStatus taskstate.Status
	entry.withLock(func(t *taskstate.Task) {
		if t.Status.IsTerminal() {
			finalStatus = t.Status
			return
		}
		now := e.clock.Now()
		t.CompletedAt = now
		t.UpdatedAt = now
		switch {
		case runErr == nil:
			t.Status = taskstate.StatusCompleted
		case taskCtx.Err() == context.Canceled:
			t.Status = taskstate.StatusCancelled
		case taskCtx.Err() == context.DeadlineExceeded:
			t.Status = taskstate.StatusFailed
			t.Errors = append(t.Errors, taskstate.ErrorRecord{Type: "timeout", Message: runErr.Error(), Timestamp: now})
		default:
			t.Status = taskstate.StatusFailed
			t.Errors = append(t.Errors, taskstate.ErrorRecord{Type: "execution_error", Message: runErr.Error(), Timestamp: now})
		}
		finalStatus = t.Status
	})

	eventType := events.TaskCompleted
	switch finalStatus {
	case taskstate.StatusFailed:
		eventType = events.TaskFailed
	case taskstate.StatusCancelled:
		eventType = events.TaskCancelled
	}
	e.bus.Publish(events.Event{Type: eventType, TaskID: taskID, Timestamp: e.clock.Now()})
	e.metrics.TasksCompleted.WithLabelValues(string(finalStatus)).Inc()
	if e.logger != nil {
		e.logger.Info("task finished", "task_id", taskID, "status", finalStatus)
	}
}
