// Package events provides the typed event catalog and fan-out bus used to
// stream orchestration progress to subscribers.
package events

import "time"

// Type identifies the kind of event carried by an Event.
type Type string

const (
	TaskSubmitted  Type = "task_submitted"
	TaskStarted    Type = "task_started"
	TaskDecomposed Type = "task_decomposed"
	TaskCompleted  Type = "task_completed"
	TaskFailed     Type = "task_failed"
	TaskCancelled  Type = "task_cancelled"

	PhaseStarted   Type = "phase_started"
	PhaseCompleted Type = "phase_completed"

	AgentStarted   Type = "agent_started"
	AgentCompleted Type = "agent_completed"

	ModeChange Type = "mode_change"
)

// GlobalChannel is the channel name subscribers use to receive every
// task-scoped event regardless of task id, mirroring the "tasks" channel
// from spec.md §6.
const GlobalChannel = "tasks"

// BroadcastChannel carries non-task-scoped events (currently mode_change).
const BroadcastChannel = "broadcast"

// TaskChannel returns the channel name for events scoped to one task.
func TaskChannel(taskID string) string {
	return "task:" + taskID
}

// Event is a single published occurrence. Payload depends on Type:
// PhasePayload for phase events, AgentPayload for agent events,
// ModeChangePayload for mode_change, and a *taskstate.Task snapshot for
// task_submitted and task_decomposed. The other task lifecycle events
// (task_started, task_completed, task_failed, task_cancelled) carry no
// payload.
type Event struct {
	Type      Type      `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// PhasePayload is carried by phase_started / phase_completed events.
type PhasePayload struct {
	TaskID string `json:"task_id"`
	Phase  any    `json:"phase"`
}

// AgentPayload is carried by agent_started / agent_completed events.
type AgentPayload struct {
	TaskID    string `json:"task_id"`
	Phase     int    `json:"phase"`
	Agent     string `json:"agent"`
	Execution any    `json:"execution,omitempty"`
}

// ModeChangePayload is carried by mode_change events.
type ModeChangePayload struct {
	OldMode string `json:"old_mode"`
	NewMode string `json:"new_mode"`
	Config  any    `json:"config"`
}
