package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcforge/engine/internal/events"
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/provider"
	"github.com/orcforge/engine/internal/taskstate"
)

// singleAgentMode is a minimal one-phase, one-agent mode used to isolate
// engine behavior from the canonical mode tables.
func singleAgentMode(name string, timeoutMs int64, maxRetries int) modes.Config {
	return modes.Config{
		Name:                 name,
		DecompositionDepth:   modes.DepthShallow,
		ParallelizationLevel: modes.ParallelizationConservative,
		PrimaryModel:         modes.ModelRef{Provider: "cloud", Model: "m1"},
		RequiredAgents:       []string{"implement"},
		TaskTimeoutMs:        timeoutMs,
		MaxRetries:            maxRetries,
	}
}

func twoPhaseSequentialMode(name string) modes.Config {
	return modes.Config{
		Name:                 name,
		DecompositionDepth:   modes.DepthDeep,
		ParallelizationLevel: modes.ParallelizationConservative,
		PrimaryModel:         modes.ModelRef{Provider: "cloud", Model: "m1"},
		RequiredAgents:       []string{"architect", "implement"},
		TaskTimeoutMs:        60_000,
		MaxRetries:           0,
	}
}

func parallelReviewMode(name string) modes.Config {
	return modes.Config{
		Name:                 name,
		DecompositionDepth:   modes.DepthDeep,
		ParallelizationLevel: modes.ParallelizationBalanced,
		PrimaryModel:         modes.ModelRef{Provider: "cloud", Model: "m1"},
		RequiredAgents:       []string{"review", "security"},
		TaskTimeoutMs:        60_000,
		MaxRetries:           0,
	}
}

func newTestEngine(t *testing.T, maxWorkers int, fake *provider.FakeProvider, cfgs ...modes.Config) (*Engine, events.Bus) {
	t.Helper()
	reg := modes.NewRegistry(cfgs...)
	providers := provider.NewRegistry(map[string]provider.Provider{"cloud": fake})
	bus := events.NewMemoryBus()
	eng := New(&Config{MaxWorkers: maxWorkers}, reg, providers, bus)
	return eng, bus
}

func waitForTerminal(t *testing.T, eng *Engine, taskID string, timeout time.Duration) *taskstate.Task {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		task, err := eng.GetState(taskID)
		require.NoError(t, err)
		if task.Status.IsTerminal() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach a terminal state within %s", taskID, timeout)
	return nil
}

func TestEngine_SubmitAndGetState_CompletesSuccessfully(t *testing.T) {
	fake := provider.NewFakeProvider()
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	task, err := eng.Submit("T-1", "do the thing", "SOLO", 0, "")
	require.NoError(t, err)
	assert.Equal(t, taskstate.StatusPending, task.Status)

	final := waitForTerminal(t, eng, "T-1", time.Second)
	assert.Equal(t, taskstate.StatusCompleted, final.Status)
	assert.Contains(t, final.Results, "implement")
	assert.Greater(t, final.TokensUsed, 0)
}

func TestEngine_Submit_UnknownModeReturnsError(t *testing.T) {
	fake := provider.NewFakeProvider()
	eng, _ := newTestEngine(t, 1, fake)

	_, err := eng.Submit("T-1", "x", "NOPE", 0, "")
	require.Error(t, err)
}

func TestEngine_Submit_DuplicateIDReturnsError(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 50 * time.Millisecond
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	_, err := eng.Submit("T-1", "x", "SOLO", 0, "")
	require.NoError(t, err)

	_, err = eng.Submit("T-1", "x", "SOLO", 0, "")
	require.Error(t, err)
}

func TestEngine_SequentialPhases_StopOnFailure(t *testing.T) {
	fake := provider.NewFakeProvider()
	cfg := twoPhaseSequentialMode("TWOPHASE")
	eng, _ := newTestEngine(t, 1, fake, cfg)

	fake.FailNext = true // fails the first phase's sole agent ("architect")

	_, err := eng.Submit("T-1", "x", "TWOPHASE", 0, "")
	require.NoError(t, err)

	final := waitForTerminal(t, eng, "T-1", time.Second)
	assert.Equal(t, taskstate.StatusFailed, final.Status)
	_, architectRan := final.Results["architect"]
	_, implementRan := final.Results["implement"]
	assert.False(t, architectRan)
	assert.False(t, implementRan)
	assert.Equal(t, taskstate.PhaseStatusFailed, final.Phases[0].Status)
	assert.Equal(t, taskstate.PhaseStatusPending, final.Phases[1].Status)
}

func TestEngine_ParallelPhase_RunsAllAgentsToCompletion(t *testing.T) {
	fake := provider.NewFakeProvider()
	cfg := parallelReviewMode("PARALLELREVIEW")
	eng, _ := newTestEngine(t, 2, fake, cfg)

	_, err := eng.Submit("T-1", "x", "PARALLELREVIEW", 0, "")
	require.NoError(t, err)

	final := waitForTerminal(t, eng, "T-1", time.Second)
	assert.Equal(t, taskstate.StatusCompleted, final.Status)
	assert.Contains(t, final.Results, "review")
	assert.Contains(t, final.Results, "security")
	assert.Equal(t, 2, fake.CallCount())
}

func TestEngine_WorkerBound_NeverExceedsMaxWorkers(t *testing.T) {
	var running int32
	var peak int32

	tracker := &trackingProvider{
		inner: provider.NewFakeProvider(),
		before: func() {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
		},
		after: func() { atomic.AddInt32(&running, -1) },
	}
	tracker.inner.(*provider.FakeProvider).Latency = 30 * time.Millisecond

	cfg := singleAgentMode("SOLO", 5_000, 0)
	reg := modes.NewRegistry(cfg)
	providers := provider.NewRegistry(map[string]provider.Provider{"cloud": tracker})
	bus := events.NewMemoryBus()
	eng := New(&Config{MaxWorkers: 2}, reg, providers, bus)

	for i := 0; i < 8; i++ {
		_, err := eng.Submit(taskIDN(i), "x", "SOLO", 0, "")
		require.NoError(t, err)
	}

	for i := 0; i < 8; i++ {
		waitForTerminal(t, eng, taskIDN(i), 2*time.Second)
	}

	assert.LessOrEqual(t, int(atomic.LoadInt32(&peak)), 2)
}

func TestEngine_PriorityRespect_HigherPriorityStartsFirst(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 20 * time.Millisecond
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, bus := newTestEngine(t, 1, fake, cfg)

	var order []string
	var mu sync.Mutex
	ch, unsub := bus.Subscribe(events.GlobalChannel)
	defer unsub()
	done := make(chan struct{})
	go func() {
		for e := range ch {
			if e.Type != events.TaskStarted {
				continue
			}
			mu.Lock()
			order = append(order, e.TaskID)
			n := len(order)
			mu.Unlock()
			if n == 3 {
				break
			}
		}
		close(done)
	}()

	// Submit a long-running low-priority task first to occupy the single
	// worker slot, then enqueue two more while it runs so ordering among
	// queued tasks is exercised.
	_, err := eng.Submit("occupy", "x", "SOLO", 0, "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	_, err = eng.Submit("low", "x", "SOLO", 1, "")
	require.NoError(t, err)
	_, err = eng.Submit("high", "x", "SOLO", 10, "")
	require.NoError(t, err)

	waitForTerminal(t, eng, "occupy", time.Second)
	waitForTerminal(t, eng, "low", time.Second)
	waitForTerminal(t, eng, "high", time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, "occupy", order[0])
	assert.Equal(t, "high", order[1])
	assert.Equal(t, "low", order[2])
}

func TestEngine_Cancel_QueuedTaskFinalizesImmediately(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 200 * time.Millisecond
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	_, err := eng.Submit("occupy", "x", "SOLO", 0, "")
	require.NoError(t, err)
	_, err = eng.Submit("queued", "x", "SOLO", 0, "")
	require.NoError(t, err)

	require.NoError(t, eng.Cancel("queued"))

	final, err := eng.GetState("queued")
	require.NoError(t, err)
	assert.Equal(t, taskstate.StatusCancelled, final.Status)
}

func TestEngine_Cancel_RunningTaskStopsAtNextCheckpoint(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 300 * time.Millisecond
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	_, err := eng.Submit("T-1", "x", "SOLO", 0, "")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, eng.Cancel("T-1"))

	final := waitForTerminal(t, eng, "T-1", time.Second)
	assert.Equal(t, taskstate.StatusCancelled, final.Status)
}

func TestEngine_Timeout_MarksTaskFailedWithTimeoutError(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 200 * time.Millisecond
	cfg := singleAgentMode("FASTTIMEOUT", 20, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	_, err := eng.Submit("T-1", "x", "FASTTIMEOUT", 0, "")
	require.NoError(t, err)

	final := waitForTerminal(t, eng, "T-1", time.Second)
	assert.Equal(t, taskstate.StatusFailed, final.Status)
	require.NotEmpty(t, final.Errors)
	assert.Equal(t, "timeout", final.Errors[0].Type)
}

func TestEngine_SwitchMode_ChangesDefaultModeNotInFlightTasks(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 100 * time.Millisecond
	solo := singleAgentMode("SOLO", 5_000, 0)
	other := singleAgentMode("OTHER", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, solo, other)

	_, err := eng.Submit("occupy", "x", "SOLO", 0, "")
	require.NoError(t, err)
	_, err = eng.Submit("queued", "x", "SOLO", 0, "")
	require.NoError(t, err)

	result, err := eng.SwitchMode("OTHER")
	require.NoError(t, err)
	assert.Equal(t, "QUALITY", result.OldMode)
	assert.Equal(t, "OTHER", result.NewMode)
	assert.Equal(t, 2, result.ActiveTasks)

	// Already-submitted tasks keep their original mode, unaffected by the
	// engine's new default.
	queued, err := eng.GetState("queued")
	require.NoError(t, err)
	assert.Equal(t, "SOLO", queued.Mode)

	waitForTerminal(t, eng, "occupy", time.Second)
	waitForTerminal(t, eng, "queued", time.Second)

	// A later Submit with no mode given now picks up the new default.
	_, err = eng.Submit("after-switch", "x", "", 0, "")
	require.NoError(t, err)
	task, err := eng.GetState("after-switch")
	require.NoError(t, err)
	assert.Equal(t, "OTHER", task.Mode)
	waitForTerminal(t, eng, "after-switch", time.Second)

	_, err = eng.SwitchMode("NOPE")
	assert.Error(t, err)
}

func TestEngine_Stats_ReportsLoadAndCurrentMode(t *testing.T) {
	fake := provider.NewFakeProvider()
	fake.Latency = 100 * time.Millisecond
	cfg := singleAgentMode("SOLO", 5_000, 0)
	eng, _ := newTestEngine(t, 1, fake, cfg)

	_, err := eng.Submit("occupy", "x", "SOLO", 0, "")
	require.NoError(t, err)
	_, err = eng.Submit("queued", "x", "SOLO", 0, "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	stats := eng.Stats()
	assert.Equal(t, "QUALITY", stats.CurrentMode)
	assert.Equal(t, 1, stats.RunningWorkers)
	assert.Equal(t, 1, stats.QueuedTasks)
	assert.Equal(t, 2, stats.ActiveTasks)
}

func taskIDN(i int) string {
	return "T-" + string(rune('a'+i))
}

// trackingProvider wraps a Provider with before/after hooks, used to observe
// concurrency bounds in tests without depending on timing alone.
type trackingProvider struct {
	inner  provider.Provider
	before func()
	after  func()
}

func (t *trackingProvider) Generate(ctx context.Context, prompt string, params provider.Params) (provider.Result, error) {
	t.before()
	defer t.after()
	return t.inner.Generate(ctx, prompt, params)
}
