package console

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/wherecode/command-console/internal/feed"
	"github.com/wherecode/command-console/internal/health"
	"github.com/wherecode/command-console/internal/hierarchy"
	"github.com/wherecode/command-console/internal/lifecycle"
	"github.com/wherecode/command-console/internal/presets"
)

// Handlers holds dependencies for the operator API handlers.
type Handlers struct {
	client     *hierarchy.Client
	controller *lifecycle.Controller
	log        *feed.Log
	presets    *presets.Store
	checker    *health.Checker
	logger     zerolog.Logger
	startTime  time.Time
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	client *hierarchy.Client,
	controller *lifecycle.Controller,
	log *feed.Log,
	ps *presets.Store,
	checker *health.Checker,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		client:     client,
		controller: controller,
		log:        log,
		presets:    ps,
		checker:    checker,
		logger:     logger.With().Str("component", "handlers").Logger(),
		startTime:  time.Now(),
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	allOK := true
	for _, s := range results {
		if s == health.StatusDown {
			allOK = false
			break
		}
	}

	status := fiber.StatusOK
	label := "ready"
	if !allOK {
		status = fiber.StatusServiceUnavailable
		label = "not_ready"
	}
	return c.Status(status).JSON(fiber.Map{"status": label, "checks": results})
}

// HealthDetail handles GET /api/v1/health using the prober's cached results.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	snapshot := h.checker.Snapshot()
	checks := make(map[string]string, len(snapshot))
	overall := "ok"
	for name, s := range snapshot {
		checks[name] = string(s)
		if s == health.StatusDown {
			overall = "down"
		} else if s == health.StatusDegraded && overall == "ok" {
			overall = "degraded"
		}
	}
	return c.JSON(HealthDetailResponse{
		Status:        overall,
		Checks:        checks,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.client.ListProjects(c.Context())
	if err != nil {
		return upstreamProblem(c, err)
	}
	if projects == nil {
		projects = []hierarchy.Project{}
	}
	return c.JSON(projects)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request", "Project name is required")
	}

	input := hierarchy.CreateProjectInput{Name: req.Name, Tags: req.Tags}
	if req.Description != "" {
		input.Description = &req.Description
	}
	if req.Owner != "" {
		input.Owner = &req.Owner
	}

	project, err := h.client.CreateProject(c.Context(), input)
	if err != nil {
		return upstreamProblem(c, err)
	}

	h.log.Push("project created", fmt.Sprintf("%s (%s)", project.Name, project.ID), feed.ToneSuccess)
	return c.Status(fiber.StatusCreated).JSON(project)
}

// ListTasks handles GET /api/v1/projects/:id/tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.client.ListTasks(c.Context(), c.Params("id"))
	if err != nil {
		return upstreamProblem(c, err)
	}
	if tasks == nil {
		tasks = []hierarchy.Task{}
	}
	return c.JSON(tasks)
}

// CreateTask handles POST /api/v1/projects/:id/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.Title == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_title", "Bad Request", "Task title is required")
	}

	input := hierarchy.CreateTaskInput{Title: req.Title}
	if req.Description != "" {
		input.Description = &req.Description
	}
	if req.Priority != 0 {
		input.Priority = &req.Priority
	}
	if req.AssigneeAgent != "" {
		input.AssigneeAgent = &req.AssigneeAgent
	}

	task, err := h.client.CreateTask(c.Context(), c.Params("id"), input)
	if err != nil {
		return upstreamProblem(c, err)
	}

	h.log.Push("task created", fmt.Sprintf("%s (%s)", task.Title, task.ID), feed.ToneSuccess)
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetSnapshot handles GET /api/v1/projects/:id/snapshot.
func (h *Handlers) GetSnapshot(c *fiber.Ctx) error {
	detail, err := h.client.GetProjectSnapshot(c.Context(), c.Params("id"))
	if err != nil {
		return upstreamProblem(c, err)
	}
	return c.JSON(detail)
}

// Overview handles GET /api/v1/overview: concurrent snapshot of every
// project plus the focus pick.
func (h *Handlers) Overview(c *fiber.Ctx) error {
	details, err := h.client.SnapshotAll(c.Context())
	if err != nil {
		return upstreamProblem(c, err)
	}

	projects := make([]hierarchy.Project, len(details))
	totalTasks := 0
	for i, d := range details {
		projects[i] = d.Project
		totalTasks += len(d.Tasks)
	}
	if details == nil {
		details = []hierarchy.ProjectDetail{}
	}

	return c.JSON(OverviewResponse{
		Projects:    details,
		Focus:       hierarchy.PickFocus(projects),
		TotalTasks:  totalTasks,
		GeneratedAt: time.Now().UTC(),
	})
}

// GetTaskDetail handles GET /api/v1/tasks/:id, combining the task with its
// sequence-ordered commands.
func (h *Handlers) GetTaskDetail(c *fiber.Ctx) error {
	taskID := c.Params("id")
	task, err := h.client.GetTask(c.Context(), taskID)
	if err != nil {
		return upstreamProblem(c, err)
	}
	commands, err := h.client.ListCommands(c.Context(), taskID)
	if err != nil {
		return upstreamProblem(c, err)
	}
	if commands == nil {
		commands = []hierarchy.Command{}
	}
	return c.JSON(TaskDetailResponse{Task: task, Commands: commands})
}

// SubmitCommand handles POST /api/v1/tasks/:id/commands. On acceptance the
// lifecycle controller starts tracking the new command.
func (h *Handlers) SubmitCommand(c *fiber.Ctx) error {
	var req SubmitCommandRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	text := req.Text
	opts := lifecycle.SubmitOptions{
		RequestedBy:      req.RequestedBy,
		RequiresApproval: req.RequiresApproval,
		Source:           hierarchy.CommandSource(req.Source),
	}
	if req.Preset != "" {
		preset, ok := h.presets.Get(req.Preset)
		if !ok {
			return problemResponse(c, fiber.StatusBadRequest,
				"unknown_preset", "Bad Request", "Unknown preset: "+req.Preset)
		}
		if text == "" {
			text = preset.Text
		}
		if opts.RequestedBy == "" {
			opts.RequestedBy = preset.RequestedBy
		}
		if opts.Source == "" {
			opts.Source = preset.Source
		}
		opts.RequiresApproval = opts.RequiresApproval || preset.RequiresApproval
	}

	accepted, err := h.controller.Submit(c.Context(), c.Params("id"), text, opts)
	if err != nil {
		return upstreamProblem(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(accepted)
}

// ApproveCommand handles POST /api/v1/commands/:id/approve.
func (h *Handlers) ApproveCommand(c *fiber.Ctx) error {
	var req ApproveCommandRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.ApprovedBy == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_approved_by", "Bad Request", "approved_by is required")
	}

	cmd, err := h.controller.Approve(c.Context(), c.Params("id"), req.ApprovedBy)
	if err != nil {
		return upstreamProblem(c, err)
	}
	return c.JSON(cmd)
}

// Tracking handles GET /api/v1/tracking.
func (h *Handlers) Tracking(c *fiber.Ctx) error {
	return c.JSON(h.controller.State())
}

// CancelTracking handles DELETE /api/v1/tracking.
func (h *Handlers) CancelTracking(c *fiber.Ctx) error {
	h.controller.CancelTracking()
	h.logger.Info().Msg("tracking cancelled by operator")
	return c.SendStatus(fiber.StatusNoContent)
}

// Feed handles GET /api/v1/feed.
func (h *Handlers) Feed(c *fiber.Ctx) error {
	return c.JSON(FeedResponse{
		Entries:  h.log.Entries(),
		Capacity: h.log.Capacity(),
	})
}

// Presets handles GET /api/v1/presets.
func (h *Handlers) Presets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"presets": h.presets.All()})
}

// ExecuteAction handles POST /api/v1/actions/execute, the synchronous
// action-layer escape hatch.
func (h *Handlers) ExecuteAction(c *fiber.Ctx) error {
	var input hierarchy.ExecuteActionInput
	if err := c.BodyParser(&input); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if input.Text == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_text", "Bad Request", "Action text is required")
	}

	result, err := h.client.ExecuteAction(c.Context(), input)
	if err != nil {
		return upstreamProblem(c, err)
	}
	return c.JSON(result)
}
