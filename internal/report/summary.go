package report

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/api"
)

// UnknownTestName replaces a missing or blank name attribute.
const UnknownTestName = "Unknown Test"

// TestCaseResult is one classified record. It is a value type, copies
// handed out by ReportSummary can not change the summary.
type TestCaseResult struct {
	Name      string
	Suite     string
	ClassName string
	Duration  time.Duration
	Outcome   Outcome
}

// ReportSummary is the immutable result of folding the records of one
// artifact. total == passed + failed + skipped == len(cases).
type ReportSummary struct {
	source  string
	total   int
	passed  int
	failed  int
	skipped int
	cases   []TestCaseResult
}

// Empty is the summary used when no artifact (or no usable artifact) exists.
func Empty() ReportSummary {
	return ReportSummary{cases: []TestCaseResult{}}
}

// Fold classifies the records in encounter order and reduces them into a
// summary. Records without a usable name are reported through onAnomaly
// (may be nil) and stored as UnknownTestName.
func Fold(records []*api.TestCase, onAnomaly func(error)) ReportSummary {
	acc := ReportSummary{cases: make([]TestCaseResult, 0, len(records))}
	for idx, rec := range records {
		if rec == nil {
			continue
		}
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = UnknownTestName
			if onAnomaly != nil {
				onAnomaly(errors.Wrapf(ErrMalformedRecord, "testcase #%d has no name", idx+1))
			}
		}
		acc = acc.with(TestCaseResult{
			Name:      name,
			Suite:     rec.Suite,
			ClassName: rec.ClassName,
			Duration:  rec.Duration(),
			Outcome:   Classify(rec),
		})
	}
	return acc
}

// with returns the accumulator extended by one result. Used only while
// folding, the backing array is owned by the accumulator.
func (s ReportSummary) with(r TestCaseResult) ReportSummary {
	s.total++
	switch r.Outcome.Kind {
	case OutcomeFailed:
		s.failed++
	case OutcomeSkipped:
		s.skipped++
	default:
		s.passed++
	}
	s.cases = append(s.cases, r)
	return s
}

// FromArtifact folds a decoded artifact keeping its path as the source.
func FromArtifact(a *api.Artifact, onAnomaly func(error)) ReportSummary {
	if a == nil {
		return Empty()
	}
	s := Fold(a.Cases, onAnomaly)
	s.source = a.Path
	return s
}

// Aggregate reads the artifact at path and returns its summary. It never
// fails: a missing or malformed artifact degrades to the empty summary, the
// cause is returned as a warning to be logged by the caller.
func Aggregate(path string) (ReportSummary, error) {
	return AggregateContext(context.Background(), path)
}

// AggregateContext is Aggregate for a local path or an http(s) URL.
func AggregateContext(ctx context.Context, source string) (ReportSummary, error) {
	artifact, err := api.Load(ctx, source)
	if err != nil {
		s := Empty()
		s.source = source
		switch {
		case errors.Is(err, api.ErrMissingArtifact):
			return s, errors.Wrap(ErrMissingArtifact, err.Error())
		case errors.Is(err, api.ErrMalformedArtifact):
			return s, errors.Wrap(ErrMalformedArtifact, err.Error())
		default:
			return s, errors.Wrap(ErrMissingArtifact, err.Error())
		}
	}
	return FromArtifact(artifact, func(err error) {
		log.WithField("artifact", source).Warn(err)
	}), nil
}

func (s ReportSummary) Source() string { return s.source }
func (s ReportSummary) Total() int     { return s.total }
func (s ReportSummary) Passed() int    { return s.passed }
func (s ReportSummary) Failed() int    { return s.failed }
func (s ReportSummary) Skipped() int   { return s.skipped }
func (s ReportSummary) IsEmpty() bool  { return len(s.cases) == 0 }

// Cases returns a copy of the classified records in encounter order.
func (s ReportSummary) Cases() []TestCaseResult {
	out := make([]TestCaseResult, len(s.cases))
	copy(out, s.cases)
	return out
}

// PassRate is passed/total in percent, zero for an empty summary.
func (s ReportSummary) PassRate() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.passed) * 100 / float64(s.total)
}

type caseOutput struct {
	Name      string  `json:"name" yaml:"name"`
	Suite     string  `json:"suite,omitempty" yaml:"suite,omitempty"`
	ClassName string  `json:"className,omitempty" yaml:"className,omitempty"`
	Outcome   string  `json:"outcome" yaml:"outcome"`
	Detail    string  `json:"detail,omitempty" yaml:"detail,omitempty"`
	Seconds   float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
}

type summaryOutput struct {
	Source  string       `json:"source,omitempty" yaml:"source,omitempty"`
	Total   int          `json:"total" yaml:"total"`
	Passed  int          `json:"passed" yaml:"passed"`
	Failed  int          `json:"failed" yaml:"failed"`
	Skipped int          `json:"skipped" yaml:"skipped"`
	Cases   []caseOutput `json:"cases" yaml:"cases"`
}

func (s ReportSummary) output() summaryOutput {
	out := summaryOutput{
		Source:  s.source,
		Total:   s.total,
		Passed:  s.passed,
		Failed:  s.failed,
		Skipped: s.skipped,
		Cases:   make([]caseOutput, 0, len(s.cases)),
	}
	for _, c := range s.cases {
		out.Cases = append(out.Cases, caseOutput{
			Name:      c.Name,
			Suite:     c.Suite,
			ClassName: c.ClassName,
			Outcome:   c.Outcome.String(),
			Detail:    c.Outcome.Detail,
			Seconds:   c.Duration.Seconds(),
		})
	}
	return out
}

func (s ReportSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.output())
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v2).
func (s ReportSummary) MarshalYAML() (interface{}, error) {
	return s.output(), nil
}
