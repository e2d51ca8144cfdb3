// Package taskstate defines the mutable record of a task and its phases and
// agent executions, along with read-only snapshot semantics.
package taskstate

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDecomposing Status = "decomposing"
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether the status ends the task's lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// PhaseStatus is the lifecycle state of a phase.
type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "pending"
	PhaseStatusRunning   PhaseStatus = "running"
	PhaseStatusCompleted PhaseStatus = "completed"
	PhaseStatusFailed    PhaseStatus = "failed"
	PhaseStatusSkipped   PhaseStatus = "skipped"
)

// ExecStatus is the lifecycle state of a single agent execution.
type ExecStatus string

const (
	ExecStatusPending   ExecStatus = "pending"
	ExecStatusRunning   ExecStatus = "running"
	ExecStatusCompleted ExecStatus = "completed"
	ExecStatusFailed    ExecStatus = "failed"
)

// ErrorRecord is a typed entry in a task's error list (spec.md §7).
type ErrorRecord struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentResult is the summary stored in Task.Results for a completed agent,
// used by the prompt builder to thread context into later phases.
type AgentResult struct {
	Output string  `json:"output"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// AgentExecution is the record of a single agent invocation against a
// provider.
type AgentExecution struct {
	AgentKind     string     `json:"agent_kind"`
	Status        ExecStatus `json:"status"`
	Input         string     `json:"input,omitempty"`
	Output        string     `json:"output,omitempty"`
	Error         string     `json:"error,omitempty"`
	Model         string     `json:"model,omitempty"`
	TokensInput   int        `json:"tokens_input"`
	TokensOutput  int        `json:"tokens_output"`
	Cost          float64    `json:"cost"`
	StartedAt     time.Time  `json:"started_at,omitempty"`
	CompletedAt   time.Time  `json:"completed_at,omitempty"`
	DurationMs    int64      `json:"duration_ms"`
}

// Clone returns a deep copy of the execution.
func (e *AgentExecution) Clone() *AgentExecution {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Phase is an ordered group of one or more agents run together.
type Phase struct {
	Number      int              `json:"number"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Status      PhaseStatus      `json:"status"`
	Parallel    bool             `json:"parallel"`
	Agents      []string         `json:"agents"`
	Executions  []*AgentExecution `json:"executions"`
	StartedAt   time.Time        `json:"started_at,omitempty"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the phase, including its executions.
func (p *Phase) Clone() *Phase {
	if p == nil {
		return nil
	}
	c := *p
	c.Agents = append([]string{}, p.Agents...)
	c.Executions = make([]*AgentExecution, len(p.Executions))
	for i, e := range p.Executions {
		c.Executions[i] = e.Clone()
	}
	return &c
}

// Task is the full mutable record of one task submission.
type Task struct {
	ID           string                  `json:"id"`
	Description  string                  `json:"description"`
	Mode         string                  `json:"mode"`
	Priority     int                     `json:"priority"`
	ProjectID    string                  `json:"project_id,omitempty"`
	Status       Status                  `json:"status"`
	Phases       []*Phase                `json:"phases"`
	CurrentPhase int                     `json:"current_phase"`
	Results      map[string]AgentResult  `json:"results"`
	TokensUsed   int                     `json:"tokens_used"`
	EstimatedCost float64                `json:"estimated_cost"`
	Errors       []ErrorRecord           `json:"errors"`
	CreatedAt    time.Time               `json:"created_at"`
	StartedAt    time.Time               `json:"started_at,omitempty"`
	CompletedAt  time.Time               `json:"completed_at,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`

	// ModeConfigSnapshot is an opaque snapshot of the mode config in effect
	// at submission time (modes.Config, stored as `any` here to avoid an
	// import cycle between taskstate and modes).
	ModeConfigSnapshot any `json:"mode_config_snapshot,omitempty"`
}

// New creates a fresh pending task.
func New(id, description, mode string, priority int, projectID string, modeConfig any, now time.Time) *Task {
	return &Task{
		ID:                 id,
		Description:        description,
		Mode:               mode,
		Priority:           priority,
		ProjectID:          projectID,
		Status:             StatusPending,
		Results:            make(map[string]AgentResult),
		ModeConfigSnapshot: modeConfig,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Clone returns a deep, read-only-safe copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t

	c.Phases = make([]*Phase, len(t.Phases))
	for i, p := range t.Phases {
		c.Phases[i] = p.Clone()
	}

	c.Results = make(map[string]AgentResult, len(t.Results))
	for k, v := range t.Results {
		c.Results[k] = v
	}

	c.Errors = append([]ErrorRecord{}, t.Errors...)

	return &c
}

// CurrentPhasePtr returns the phase at CurrentPhase, or nil if out of range.
func (t *Task) CurrentPhasePtr() *Phase {
	if t.CurrentPhase < 0 || t.CurrentPhase >= len(t.Phases) {
		return nil
	}
	return t.Phases[t.CurrentPhase]
}
