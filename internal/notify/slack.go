package notify

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackConfig selects how the message reaches Slack: an incoming webhook,
// or a bot token posting to a channel.
type SlackConfig struct {
	WebhookURL string
	Token      string
	Channel    string
}

// Enabled is true when either delivery method is fully configured.
func (c *SlackConfig) Enabled() bool {
	return c.WebhookURL != "" || (c.Token != "" && c.Channel != "")
}

// SlackNotifier posts a color coded summary of the report.
type SlackNotifier struct {
	cfg    *SlackConfig
	poster messagePoster
	post   func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlackNotifier(cfg *SlackConfig) *SlackNotifier {
	n := &SlackNotifier{cfg: cfg, post: slack.PostWebhookContext}
	if cfg.WebhookURL == "" && cfg.Token != "" {
		n.poster = slack.New(cfg.Token)
	}
	return n
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, msg *Message) error {
	attachment := SlackAttachment(msg)

	if s.cfg.WebhookURL != "" {
		err := s.post(ctx, s.cfg.WebhookURL, &slack.WebhookMessage{
			Channel:     s.cfg.Channel,
			Text:        msg.Subject,
			Attachments: []slack.Attachment{attachment},
		})
		return errors.Wrap(err, "failed to post slack webhook")
	}
	if s.poster == nil || s.cfg.Channel == "" {
		return errors.New("slack is not configured: set a webhook url or a token and a channel")
	}
	_, _, err := s.poster.PostMessageContext(ctx, s.cfg.Channel,
		slack.MsgOptionText(msg.Subject, false),
		slack.MsgOptionAttachments(attachment))
	return errors.Wrapf(err, "failed to post slack message to %s", s.cfg.Channel)
}

// SlackAttachment turns the message facts into a slack attachment. Counters
// are rendered as short fields, two per line.
func SlackAttachment(msg *Message) slack.Attachment {
	a := slack.Attachment{
		Color:     msg.Color,
		Fallback:  msg.Subject,
		Title:     msg.Subject,
		TitleLink: msg.Link,
		Footer:    "e2e-notifier",
	}
	for _, f := range msg.Facts {
		a.Fields = append(a.Fields, slack.AttachmentField{
			Title: f.Title,
			Value: f.Value,
			Short: !strings.Contains(f.Value, "://"),
		})
	}
	return a
}
