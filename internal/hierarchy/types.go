package hierarchy

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectPaused   ProjectStatus = "paused"
	ProjectArchived ProjectStatus = "archived"
)

// TaskStatus is the lifecycle state of a task, derived server-side from its
// commands.
type TaskStatus string

const (
	TaskTodo            TaskStatus = "todo"
	TaskInProgress      TaskStatus = "in_progress"
	TaskWaitingApproval TaskStatus = "waiting_approval"
	TaskBlocked         TaskStatus = "blocked"
	TaskDone            TaskStatus = "done"
	TaskFailed          TaskStatus = "failed"
	TaskCanceled        TaskStatus = "canceled"
)

// CommandStatus is the state machine position of a command. The server only
// ever moves a command forward; terminal statuses are absorbing.
type CommandStatus string

const (
	CommandQueued          CommandStatus = "queued"
	CommandRunning         CommandStatus = "running"
	CommandWaitingApproval CommandStatus = "waiting_approval"
	CommandSuccess         CommandStatus = "success"
	CommandFailed          CommandStatus = "failed"
	CommandCanceled        CommandStatus = "canceled"
)

// IsTerminal reports whether s is an absorbing status.
func (s CommandStatus) IsTerminal() bool {
	switch s {
	case CommandSuccess, CommandFailed, CommandCanceled:
		return true
	}
	return false
}

// CommandSource identifies who originated a command.
type CommandSource string

const (
	SourceUser       CommandSource = "user"
	SourceAgent      CommandSource = "agent"
	SourceAutomation CommandSource = "automation"
	SourceSystem     CommandSource = "system"
)

// Project is a server-owned snapshot. The client never mutates it.
type Project struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     *string        `json:"description,omitempty"`
	Status          ProjectStatus  `json:"status"`
	Owner           *string        `json:"owner,omitempty"`
	TaskCount       int            `json:"task_count"`
	ActiveTaskCount int            `json:"active_task_count"`
	Tags            []string       `json:"tags"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Metadata        map[string]any `json:"metadata"`
}

// Task is a server-owned snapshot of a task within a project.
type Task struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Title         string         `json:"title"`
	Description   *string        `json:"description,omitempty"`
	Status        TaskStatus     `json:"status"`
	Priority      int            `json:"priority"`
	AssigneeAgent *string        `json:"assignee_agent,omitempty"`
	CommandCount  int            `json:"command_count"`
	SuccessCount  int            `json:"success_count"`
	FailedCount   int            `json:"failed_count"`
	LastCommandID *string        `json:"last_command_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Metadata      map[string]any `json:"metadata"`
}

// Command is a server-owned snapshot of a single natural-language command.
// Optional fields stay nil when the server omitted them so that re-encoding
// preserves absence.
type Command struct {
	ID               string         `json:"id"`
	ProjectID        string         `json:"project_id"`
	TaskID           string         `json:"task_id"`
	Sequence         int            `json:"sequence"`
	Text             string         `json:"text"`
	Source           CommandSource  `json:"source"`
	Status           CommandStatus  `json:"status"`
	OutputSummary    *string        `json:"output_summary,omitempty"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
	RequestedBy      *string        `json:"requested_by,omitempty"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovedBy       *string        `json:"approved_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
	Metadata         map[string]any `json:"metadata"`
}

// Body returns the most informative text for a command: output summary if
// present, then error message, then the submitted text.
func (c Command) Body() string {
	if c.OutputSummary != nil && *c.OutputSummary != "" {
		return *c.OutputSummary
	}
	if c.ErrorMessage != nil && *c.ErrorMessage != "" {
		return *c.ErrorMessage
	}
	return c.Text
}

// TaskDetail is a task enriched with its full command list.
type TaskDetail struct {
	Task
	Commands []Command `json:"commands"`
}

// ProjectDetail is a project enriched with its full task list, each task
// carrying its commands. A denormalized read for overview and detail views.
type ProjectDetail struct {
	Project
	Tasks []TaskDetail `json:"tasks"`
}

// CommandAccepted is the immediate answer to a command submission. It is an
// acceptance envelope, not the Command resource: execution has not completed
// (and usually not started) when it arrives.
type CommandAccepted struct {
	CommandID string        `json:"command_id"`
	TaskID    string        `json:"task_id"`
	ProjectID string        `json:"project_id"`
	Status    CommandStatus `json:"status"`
	PollURL   string        `json:"poll_url"`
}

// CreateProjectInput is the body for project creation.
type CreateProjectInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Owner       *string  `json:"owner,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CreateTaskInput is the body for task creation.
type CreateTaskInput struct {
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	Priority      *int    `json:"priority,omitempty"`
	AssigneeAgent *string `json:"assignee_agent,omitempty"`
}

// CreateCommandInput is the body for command submission.
type CreateCommandInput struct {
	Text             string        `json:"text"`
	Source           CommandSource `json:"source,omitempty"`
	RequestedBy      *string       `json:"requested_by,omitempty"`
	RequiresApproval bool          `json:"requires_approval"`
}

// ApproveCommandInput is the body for approving a waiting command.
type ApproveCommandInput struct {
	ApprovedBy string `json:"approved_by"`
}

// HealthPayload is the control center's own health answer.
type HealthPayload struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
}

// ActionLayerHealth is the action layer's health answer, proxied by the
// control center.
type ActionLayerHealth struct {
	Status    string `json:"status"`
	Layer     string `json:"layer"`
	Transport string `json:"transport"`
}

// ExecuteActionInput is the body for a direct action-layer execution,
// bypassing the task queue.
type ExecuteActionInput struct {
	Text        string  `json:"text"`
	RequestedBy *string `json:"requested_by,omitempty"`
	TaskID      *string `json:"task_id,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
}

// ExecuteActionResult is the synchronous answer to a direct execution.
type ExecuteActionResult struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
	Agent   string `json:"agent"`
	TraceID string `json:"trace_id"`
}
