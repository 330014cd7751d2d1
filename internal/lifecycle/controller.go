// Package lifecycle owns submission, polling, approval, and cancellation for
// the single command currently tracked by the console.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	ccerrors "github.com/wherecode/command-console/internal/errors"
	"github.com/wherecode/command-console/internal/feed"
	"github.com/wherecode/command-console/internal/hierarchy"
	"github.com/wherecode/command-console/internal/metrics"
)

// DefaultPollInterval is the documented default cadence for command polls.
const DefaultPollInterval = 1200 * time.Millisecond

// API is the slice of the hierarchy client the controller needs.
type API interface {
	SubmitCommand(ctx context.Context, taskID string, input hierarchy.CreateCommandInput) (hierarchy.CommandAccepted, error)
	GetCommand(ctx context.Context, commandID string) (hierarchy.Command, error)
	ApproveCommand(ctx context.Context, commandID, approvedBy string) (hierarchy.Command, error)
}

// Notifier receives noteworthy feed entries (approval gates, failures) for
// delivery outside the console, e.g. to Slack. Implementations must tolerate
// concurrent calls.
type Notifier interface {
	Notify(ctx context.Context, title, body string, tone feed.Tone)
}

// SubmitOptions carries the optional parts of a command submission.
type SubmitOptions struct {
	Source           hierarchy.CommandSource
	RequestedBy      string
	RequiresApproval bool
}

// State is a read-only snapshot of the controller for operator views.
type State struct {
	CommandID  string                  `json:"command_id,omitempty"`
	TaskID     string                  `json:"task_id,omitempty"`
	Status     hierarchy.CommandStatus `json:"status,omitempty"`
	Generation uint64                  `json:"generation"`
	Polling    bool                    `json:"polling"`
	LastError  string                  `json:"last_error,omitempty"`
	Command    *hierarchy.Command      `json:"command,omitempty"`
}

// Controller tracks exactly one command at a time. Every tracking context is
// identified by a generation; a poll response is applied only while its
// generation is still current, so a slow response for an abandoned command
// can never overwrite newer state.
type Controller struct {
	api      API
	log      *feed.Log
	metrics  *metrics.Metrics
	notifier Notifier
	logger   zerolog.Logger
	interval time.Duration

	mu          sync.Mutex
	generation  uint64
	commandID   string
	taskID      string
	lastStatus  hierarchy.CommandStatus
	lastCommand *hierarchy.Command
	lastErr     error
	polling     bool
	cancelPoll  context.CancelFunc
}

// New creates a controller. A non-positive interval falls back to
// DefaultPollInterval.
func New(api API, log *feed.Log, m *metrics.Metrics, interval time.Duration, logger zerolog.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Controller{
		api:      api,
		log:      log,
		metrics:  m,
		interval: interval,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
	}
}

// SetNotifier sets the optional out-of-band notifier.
func (c *Controller) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// Submit validates the command, submits it, records the accepted status as
// last-known, and arms the polling loop. It returns as soon as the server
// has accepted the command; execution completes asynchronously.
func (c *Controller) Submit(ctx context.Context, taskID, text string, opts SubmitOptions) (hierarchy.CommandAccepted, error) {
	if taskID == "" {
		return hierarchy.CommandAccepted{}, ccerrors.NewValidation(ccerrors.ErrNoTaskSelected)
	}
	if text == "" {
		return hierarchy.CommandAccepted{}, ccerrors.NewValidation(ccerrors.ErrEmptyCommandText)
	}

	input := hierarchy.CreateCommandInput{
		Text:             text,
		RequiresApproval: opts.RequiresApproval,
	}
	if opts.Source != "" {
		input.Source = opts.Source
	}
	if opts.RequestedBy != "" {
		input.RequestedBy = &opts.RequestedBy
	}

	accepted, err := c.api.SubmitCommand(ctx, taskID, input)
	if err != nil {
		c.metrics.RecordError("lifecycle", "submit")
		return hierarchy.CommandAccepted{}, fmt.Errorf("submitting command: %w", err)
	}

	c.mu.Lock()
	c.stopLoopLocked()
	c.generation++
	gen := c.generation
	c.commandID = accepted.CommandID
	c.taskID = accepted.TaskID
	c.lastStatus = accepted.Status
	c.lastCommand = nil
	c.lastErr = nil
	c.startLoopLocked(gen, accepted.CommandID)
	c.mu.Unlock()

	c.metrics.SubmissionsTotal.WithLabelValues(string(accepted.Status)).Inc()
	c.log.Push(
		"command submitted",
		fmt.Sprintf("%s queued on %s, status %s", accepted.CommandID, accepted.TaskID, accepted.Status),
		feed.ToneForStatus(accepted.Status),
	)
	c.logger.Info().
		Str("command_id", accepted.CommandID).
		Str("task_id", accepted.TaskID).
		Str("status", string(accepted.Status)).
		Uint64("generation", gen).
		Msg("command accepted, polling armed")

	return accepted, nil
}

// Approve approves the tracked command. It refuses without a remote call
// unless the controller's last-known status for commandID is
// waiting_approval. On success it adopts the returned status and re-arms the
// polling loop; the server contract stays asynchronous, so execution may not
// have resumed when this returns.
func (c *Controller) Approve(ctx context.Context, commandID, approvedBy string) (hierarchy.Command, error) {
	c.mu.Lock()
	if c.commandID == "" {
		c.mu.Unlock()
		return hierarchy.Command{}, ccerrors.NewValidation(ccerrors.ErrNoTrackedCommand)
	}
	if c.commandID != commandID || c.lastStatus != hierarchy.CommandWaitingApproval {
		c.mu.Unlock()
		c.metrics.ApprovalsTotal.WithLabelValues("refused").Inc()
		return hierarchy.Command{}, ccerrors.NewValidation(ccerrors.ErrNotAwaitingApproval)
	}
	c.mu.Unlock()

	cmd, err := c.api.ApproveCommand(ctx, commandID, approvedBy)
	if err != nil {
		c.metrics.ApprovalsTotal.WithLabelValues("rejected").Inc()
		c.metrics.RecordError("lifecycle", "approve")
		return hierarchy.Command{}, fmt.Errorf("approving command: %w", err)
	}

	c.mu.Lock()
	c.stopLoopLocked()
	c.generation++
	gen := c.generation
	c.lastStatus = cmd.Status
	c.lastCommand = &cmd
	c.lastErr = nil
	c.startLoopLocked(gen, commandID)
	c.mu.Unlock()

	c.metrics.ApprovalsTotal.WithLabelValues("approved").Inc()
	c.log.Push(
		"command approved",
		fmt.Sprintf("%s approved by %s, back in the execution queue", cmd.ID, approvedBy),
		feed.ToneSuccess,
	)
	c.logger.Info().
		Str("command_id", cmd.ID).
		Str("approved_by", approvedBy).
		Uint64("generation", gen).
		Msg("command approved, polling re-armed")

	return cmd, nil
}

// CancelTracking stops the active polling loop without touching the remote
// command. Any poll already in flight is invalidated by the generation bump.
// Safe to call repeatedly.
func (c *Controller) CancelTracking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.stopLoopLocked()
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		CommandID:  c.commandID,
		TaskID:     c.taskID,
		Status:     c.lastStatus,
		Generation: c.generation,
		Polling:    c.polling,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	if c.lastCommand != nil {
		cmd := *c.lastCommand
		s.Command = &cmd
	}
	return s
}

// startLoopLocked arms the polling goroutine for one tracking generation.
// Callers hold c.mu.
func (c *Controller) startLoopLocked(gen uint64, commandID string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	c.polling = true
	go c.pollLoop(ctx, gen, commandID)
}

// stopLoopLocked clears the timer deterministically. Callers hold c.mu.
func (c *Controller) stopLoopLocked() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.polling = false
}

// pollLoop fetches the command immediately and then at the configured
// interval until the tick reports the loop is done or the context is
// cancelled.
func (c *Controller) pollLoop(ctx context.Context, gen uint64, commandID string) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if !c.pollTick(ctx, gen, commandID) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollTick performs one fetch-and-apply cycle. The fetched result is applied
// only if gen is still the controller's current generation at the moment the
// response arrives. Returns false when the loop must stop.
func (c *Controller) pollTick(ctx context.Context, gen uint64, commandID string) bool {
	start := time.Now()
	cmd, err := c.api.GetCommand(ctx, commandID)
	elapsed := time.Since(start)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.metrics.ObservePoll("stale", elapsed)
		c.logger.Debug().
			Str("command_id", commandID).
			Uint64("generation", gen).
			Msg("discarding stale poll result")
		return false
	}

	if err != nil {
		// Fail-closed: a poll error ends tracking; the error stays
		// inspectable and the failure is visible in the feed.
		c.lastErr = err
		cancel := c.cancelPoll
		c.polling = false
		c.cancelPoll = nil
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		if ctx.Err() != nil {
			return false
		}
		c.metrics.ObservePoll("error", elapsed)
		c.metrics.RecordError("lifecycle", "poll")
		c.log.Push("command poll failed", fmt.Sprintf("%s: %v", commandID, err), feed.ToneDanger)
		c.logger.Error().Err(err).Str("command_id", commandID).Msg("poll tick failed, tracking stopped")
		return false
	}

	changed := cmd.Status != c.lastStatus
	if changed {
		// Update last-known status before emitting, so readers never
		// observe an entry ahead of the state it describes.
		c.lastStatus = cmd.Status
	}
	c.lastCommand = &cmd
	done := cmd.Status == hierarchy.CommandWaitingApproval || cmd.Status.IsTerminal()
	var cancel context.CancelFunc
	if done {
		cancel = c.cancelPoll
		c.polling = false
		c.cancelPoll = nil
	}
	notifier := c.notifier
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if changed {
		tone := feed.ToneForStatus(cmd.Status)
		title := fmt.Sprintf("command status: %s", cmd.Status)
		body := fmt.Sprintf("%s (%s)", cmd.ID, cmd.TaskID)
		c.log.Push(title, body, tone)
		c.metrics.ObservePoll("applied", elapsed)
		c.metrics.TransitionsTotal.WithLabelValues(string(cmd.Status)).Inc()
		c.logger.Info().
			Str("command_id", cmd.ID).
			Str("status", string(cmd.Status)).
			Bool("terminal", cmd.Status.IsTerminal()).
			Msg("command transition observed")
		if notifier != nil && (tone == feed.ToneWarning || tone == feed.ToneDanger) {
			notifier.Notify(context.Background(), title, body, tone)
		}
	} else {
		c.metrics.ObservePoll("unchanged", elapsed)
	}

	return !done
}
