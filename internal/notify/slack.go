// Package notify delivers approval gates and failures to operators outside
// the console.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/wherecode/command-console/internal/feed"
)

// SlackAPI is the minimal Slack API surface needed by the notifier.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts warning and danger feed entries to one channel.
// Delivery is best-effort: a failed post is logged and dropped, never
// propagated into the lifecycle controller.
type SlackNotifier struct {
	api     SlackAPI
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier for the given bot token and channel.
func NewSlackNotifier(token, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
		logger:  logger.With().Str("component", "slack_notify").Logger(),
	}
}

// NewSlackNotifierWithAPI creates a notifier around an existing API client
// (for testing).
func NewSlackNotifierWithAPI(api SlackAPI, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel, logger: logger}
}

// Notify posts one feed entry to the configured channel.
func (n *SlackNotifier) Notify(ctx context.Context, title, body string, tone feed.Tone) {
	text := fmt.Sprintf("%s %s\n%s", toneEmoji(tone), title, body)
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn().Err(err).Str("channel", n.channel).Msg("slack notification failed")
		return
	}
	n.logger.Debug().Str("channel", n.channel).Str("title", title).Msg("slack notification posted")
}

func toneEmoji(tone feed.Tone) string {
	switch tone {
	case feed.ToneSuccess:
		return ":white_check_mark:"
	case feed.ToneWarning:
		return ":hourglass_flowing_sand:"
	case feed.ToneDanger:
		return ":rotating_light:"
	default:
		return ":information_source:"
	}
}
