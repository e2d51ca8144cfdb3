package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/orcforge/engine/internal/events"
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/provider"
	"github.com/orcforge/engine/internal/taskstate"
)

// runPhases runs a task's phases in order, stopping at the first phase that
// fails (spec.md §8 "Sequential stop-on-failure"). Within a phase, agents run
// concurrently when the phase is marked Parallel and sequentially otherwise
// (spec.md §4.5).
func runPhases(ctx context.Context, entry *taskEntry, cfg modes.Config, providers *provider.Registry, bus events.Bus, clock Clock, metrics *Metrics) error {
	numPhases := 0
	entry.withLock(func(t *taskstate.Task) { numPhases = len(t.Phases) })

	for i := 0; i < numPhases; i++ {
		entry.withLock(func(t *taskstate.Task) {
			t.CurrentPhase = i
			t.Phases[i].Status = taskstate.PhaseStatusRunning
			t.Phases[i].StartedAt = clock.Now()
		})

		var phaseSnapshot *taskstate.Phase
		entry.withLock(func(t *taskstate.Task) { phaseSnapshot = t.Phases[i].Clone() })
		bus.Publish(events.Event{
			Type:    events.PhaseStarted,
			TaskID:  entryTaskID(entry),
			Payload: events.PhasePayload{TaskID: entryTaskID(entry), Phase: phaseSnapshot},
			Timestamp: clock.Now(),
		})

		err := runPhase(ctx, entry, i, cfg, providers, bus, clock, metrics)

		var completedSnapshot *taskstate.Phase
		entry.withLock(func(t *taskstate.Task) {
			now := clock.Now()
			t.Phases[i].CompletedAt = now
			if err != nil {
				t.Phases[i].Status = taskstate.PhaseStatusFailed
			} else {
				t.Phases[i].Status = taskstate.PhaseStatusCompleted
			}
			completedSnapshot = t.Phases[i].Clone()
		})
		bus.Publish(events.Event{
			Type:    events.PhaseCompleted,
			TaskID:  entryTaskID(entry),
			Payload: events.PhasePayload{TaskID: entryTaskID(entry), Phase: completedSnapshot},
			Timestamp: clock.Now(),
		})

		if err != nil {
			return err
		}
	}
	return nil
}

// runPhase executes every agent in one phase, per its Parallel flag.
func runPhase(ctx context.Context, entry *taskEntry, phaseIndex int, cfg modes.Config, providers *provider.Registry, bus events.Bus, clock Clock, metrics *Metrics) error {
	var agents []string
	var parallel bool
	entry.withLock(func(t *taskstate.Task) {
		agents = append([]string{}, t.Phases[phaseIndex].Agents...)
		parallel = t.Phases[phaseIndex].Parallel
	})

	if !parallel || len(agents) <= 1 {
		for _, kind := range agents {
			if err := runAgent(ctx, entry, phaseIndex, kind, cfg, providers, bus, clock, metrics); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range agents {
		kind := kind
		g.Go(func() error {
			return runAgent(gctx, entry, phaseIndex, kind, cfg, providers, bus, clock, metrics)
		})
	}
	return g.Wait()
}

func entryTaskID(entry *taskEntry) string {
	var id string
	entry.withLock(func(t *taskstate.Task) { id = t.ID })
	return id
}
