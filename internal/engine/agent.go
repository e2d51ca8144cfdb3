package engine

import (
	"context"
	"fmt"

	"github.com/orcforge/engine/internal/events"
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/orcerr"
	"github.com/orcforge/engine/internal/prompt"
	"github.com/orcforge/engine/internal/provider"
	"github.com/orcforge/engine/internal/taskstate"
)

// runAgent executes one agent within a phase: it builds the agent's prompt
// from the task description and prior results, calls the mode's primary
// provider exactly once, and folds the outcome into the task's accumulators
// as a single atomic update (spec.md §4.6 — fallback policy is explicitly
// out of scope for the core; a provider error fails the execution).
func runAgent(ctx context.Context, entry *taskEntry, phaseIndex int, agentKind string, cfg modes.Config, providers *provider.Registry, bus events.Bus, clock Clock, metrics *Metrics) error {
	var description string
	var results map[string]taskstate.AgentResult
	var taskID string
	entry.withLock(func(t *taskstate.Task) {
		description = t.Description
		results = make(map[string]taskstate.AgentResult, len(t.Results))
		for k, v := range t.Results {
			results[k] = v
		}
		taskID = t.ID
	})
	promptText := prompt.Build(description, agentKind, results)

	exec := &taskstate.AgentExecution{
		AgentKind: agentKind,
		Status:    taskstate.ExecStatusRunning,
		Input:     promptText,
		StartedAt: clock.Now(),
	}
	entry.withLock(func(t *taskstate.Task) {
		t.Phases[phaseIndex].Executions = append(t.Phases[phaseIndex].Executions, exec)
	})
	bus.Publish(events.Event{
		Type:   events.AgentStarted,
		TaskID: taskID,
		Payload: events.AgentPayload{TaskID: taskID, Phase: phaseIndex, Agent: agentKind, Execution: exec.Clone()},
		Timestamp: clock.Now(),
	})

	result, usedModel, err := generate(ctx, providers, cfg.PrimaryModel, promptText)

	completedAt := clock.Now()
	entry.withLock(func(t *taskstate.Task) {
		exec.CompletedAt = completedAt
		exec.DurationMs = completedAt.Sub(exec.StartedAt).Milliseconds()
		exec.Model = usedModel

		if err != nil {
			exec.Status = taskstate.ExecStatusFailed
			exec.Error = err.Error()
			// A call aborted by cancellation or timeout is recorded by
			// runTask as the task's own error, not as an agent error.
			if ctx.Err() == nil {
				t.Errors = append(t.Errors, taskstate.ErrorRecord{
					Type:      "agent_error",
					Message:   fmt.Sprintf("%s: %s", agentKind, err.Error()),
					Timestamp: completedAt,
				})
			}
			t.UpdatedAt = completedAt
			return
		}

		exec.Status = taskstate.ExecStatusCompleted
		exec.Output = result.Content
		exec.TokensInput = result.TokensInput
		exec.TokensOutput = result.TokensOutput
		exec.Cost = result.Cost

		t.TokensUsed += result.TokensInput + result.TokensOutput
		t.EstimatedCost += result.Cost
		t.Results[agentKind] = taskstate.AgentResult{
			Output: result.Content,
			Tokens: result.TokensInput + result.TokensOutput,
			Cost:   result.Cost,
		}
		t.UpdatedAt = completedAt
	})

	if metrics != nil && err == nil {
		metrics.TokensUsed.Add(float64(result.TokensInput + result.TokensOutput))
		metrics.CostUSD.Add(result.Cost)
	}

	bus.Publish(events.Event{
		Type:   events.AgentCompleted,
		TaskID: taskID,
		Payload: events.AgentPayload{TaskID: taskID, Phase: phaseIndex, Agent: agentKind, Execution: exec.Clone()},
		Timestamp: completedAt,
	})

	return err
}

// generate calls ref's provider exactly once. Providers surface their own
// errors; the core does not retry or fall back (spec.md §4.6, §9).
func generate(ctx context.Context, providers *provider.Registry, ref modes.ModelRef, promptText string) (provider.Result, string, error) {
	p, ok := providers.Get(ref.Provider)
	if !ok {
		return provider.Result{}, "", orcerr.Wrap(orcerr.CodeProviderError, "agent generation failed", fmt.Errorf("provider %q is not registered", ref.Provider))
	}

	result, err := p.Generate(ctx, promptText, provider.Params{Model: ref.Model})
	if err != nil {
		if ctx.Err() != nil {
			return provider.Result{}, "", ctx.Err()
		}
		return provider.Result{}, "", orcerr.Wrap(orcerr.CodeProviderError, "agent generation failed", err)
	}
	return result, ref.Model, nil
}
