// Package notify delivers the rendered report to the people behind a build.
//
// Every channel implements Notifier. The Dispatcher sends one message per
// channel and never retries: a failed delivery is logged and the pipeline
// carries on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

var (
	// ErrDeliveryFailure wraps any error returned by a channel.
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrNoRecipient is returned by channels that need an address when none
	// could be resolved. The dispatcher reports it as skipped.
	ErrNoRecipient = errors.New("no recipient")
)

// Notifier is an outbound channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// BodyMode selects the alternatives carried by an email.
type BodyMode string

const (
	BodyBoth BodyMode = "both"
	BodyText BodyMode = "text"
	BodyHTML BodyMode = "html"
)

// ParseBodyMode accepts both, text and html. An empty value means both.
func ParseBodyMode(s string) (BodyMode, error) {
	switch m := BodyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return BodyBoth, nil
	case BodyBoth, BodyText, BodyHTML:
		return m, nil
	}
	return "", fmt.Errorf("unknown body mode %q, valid values: both, text, html", s)
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Fact is a short title/value pair shown by chat channels.
type Fact struct {
	Title string
	Value string
}

// Message is the channel independent notification.
type Message struct {
	From        string
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment

	// Rich channels only.
	Color string
	Link  string
	Facts []Fact
}

// NewMessage builds the notification of a rendered report. Empty recipients
// are dropped, an address listed twice (the committer also in the
// recipients) is kept once.
func NewMessage(r *report.Report, from string, to ...string) *Message {
	msg := &Message{
		From:    from,
		Subject: r.Subject,
		Color:   r.Build.BuildStatus.Color(),
		Link:    r.Build.BuildURL,
	}
	seen := map[string]bool{}
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr == "" {
			continue
		}
		key := addr
		if bare, err := mailAddress(addr); err == nil {
			key = bare
		}
		key = strings.ToLower(key)
		if seen[key] {
			continue
		}
		seen[key] = true
		msg.To = append(msg.To, addr)
	}
	if r.Rendered != nil {
		msg.Text = r.Rendered.Text
		msg.HTML = r.Rendered.HTML
	}
	if r.Build.ReportURL != "" {
		msg.Link = r.Build.ReportURL
	}

	s := r.Summary
	msg.Facts = []Fact{
		{Title: "Total", Value: fmt.Sprint(s.Total())},
		{Title: "Passed", Value: fmt.Sprint(s.Passed())},
		{Title: "Failed", Value: fmt.Sprint(s.Failed())},
		{Title: "Skipped", Value: fmt.Sprint(s.Skipped())},
	}
	if r.Build.DeploymentURL != "" {
		msg.Facts = append(msg.Facts, Fact{Title: "Deployment", Value: r.Build.DeploymentURL})
	}
	if r.Build.CommitterEmail != "" {
		msg.Facts = append(msg.Facts, Fact{Title: "Committer", Value: r.Build.CommitterEmail})
	}
	return msg
}

// Attach appends a file to the message.
func (m *Message) Attach(filename, contentType string, data []byte) {
	m.Attachments = append(m.Attachments, Attachment{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	})
}
