package report

import (
	"strings"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/api"
)

// OutcomeKind is the classification of a single test case record.
type OutcomeKind int

const (
	OutcomePassed OutcomeKind = iota
	OutcomeFailed
	OutcomeSkipped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFailed:
		return "Failed"
	case OutcomeSkipped:
		return "Skipped"
	default:
		return "Passed"
	}
}

// Outcome is a tagged variant: Passed, Failed{Message} or Skipped{Reason}.
// Detail holds the failure message or the skip reason, empty for Passed.
type Outcome struct {
	Kind   OutcomeKind
	Detail string
}

func Passed() Outcome { return Outcome{Kind: OutcomePassed} }

func Failed(message string) Outcome { return Outcome{Kind: OutcomeFailed, Detail: message} }

func Skipped(reason string) Outcome { return Outcome{Kind: OutcomeSkipped, Detail: reason} }

func (o Outcome) String() string { return o.Kind.String() }

// Classify resolves the outcome of a record. Precedence is fixed:
// failure (<failure> or <error>) > <skipped> > passed, so a record carrying
// more than one marker is counted exactly once.
func Classify(tc *api.TestCase) Outcome {
	switch {
	case tc.Failure != nil:
		return Failed(failureMessage(tc.Failure))
	case tc.Error != nil:
		return Failed(failureMessage(tc.Error))
	case tc.Skipped != nil:
		reason := strings.TrimSpace(tc.Skipped.Message)
		if reason == "" {
			reason = strings.TrimSpace(tc.Skipped.Output)
		}
		return Skipped(reason)
	default:
		return Passed()
	}
}

func failureMessage(f *api.Failure) string {
	if msg := strings.TrimSpace(f.Message); msg != "" {
		return msg
	}
	// first line of the output is usually the assertion
	out := strings.TrimSpace(f.Output)
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		out = strings.TrimSpace(out[:idx])
	}
	return out
}
