package console

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	ccerrors "github.com/wherecode/command-console/internal/errors"
	"github.com/wherecode/command-console/internal/feed"
	"github.com/wherecode/command-console/internal/hierarchy"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse writes an RFC 7807 error document.
func problemResponse(c *fiber.Ctx, status int, problemType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

// upstreamProblem translates a control-center call failure into a problem
// document. Client-visible rejections (validation 4xx) keep their status;
// everything else becomes a 502 so console auth failures are never confused
// with upstream credential failures.
func upstreamProblem(c *fiber.Ctx, err error) error {
	if ccerrors.IsValidation(err) {
		return problemResponse(c, fiber.StatusBadRequest,
			"validation_failed", "Bad Request", err.Error())
	}

	var re *ccerrors.RequestError
	if errors.As(err, &re) {
		switch {
		case re.Status == fiber.StatusUnauthorized || re.Status == fiber.StatusForbidden:
			return problemResponse(c, fiber.StatusBadGateway,
				"upstream_auth", "Bad Gateway",
				"control center rejected the configured token")
		case re.Status >= 400 && re.Status < 500:
			return problemResponse(c, re.Status,
				"upstream_rejected", "Upstream Rejected", re.Detail)
		}
	}

	return problemResponse(c, fiber.StatusBadGateway,
		"upstream_error", "Bad Gateway", err.Error())
}

// CreateProjectRequest is the body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CreateTaskRequest is the body for POST /api/v1/projects/:id/tasks.
type CreateTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Priority      int    `json:"priority,omitempty"`
	AssigneeAgent string `json:"assignee_agent,omitempty"`
}

// SubmitCommandRequest is the body for POST /api/v1/tasks/:id/commands.
// Either Text or Preset must be set; Preset pulls the template from the
// presets file and explicit fields override it.
type SubmitCommandRequest struct {
	Text             string `json:"text,omitempty"`
	Preset           string `json:"preset,omitempty"`
	RequestedBy      string `json:"requested_by,omitempty"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
	Source           string `json:"source,omitempty"`
}

// ApproveCommandRequest is the body for POST /api/v1/commands/:id/approve.
type ApproveCommandRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// TaskDetailResponse combines a task with its sequence-ordered commands.
type TaskDetailResponse struct {
	Task     hierarchy.Task      `json:"task"`
	Commands []hierarchy.Command `json:"commands"`
}

// OverviewResponse is the aggregated all-projects view.
type OverviewResponse struct {
	Projects    []hierarchy.ProjectDetail `json:"projects"`
	Focus       *hierarchy.Project        `json:"focus,omitempty"`
	TotalTasks  int                       `json:"total_tasks"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// FeedResponse wraps the event log.
type FeedResponse struct {
	Entries  []feed.Entry `json:"entries"`
	Capacity int          `json:"capacity"`
}

// HealthDetailResponse reports dependency statuses and uptime.
type HealthDetailResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}
