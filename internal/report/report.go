// Package report turns the JUnit artifact of an e2e run into a summary and
// renders it for humans.
//
// ETL strategy:
// - Extract: read the test records from the artifact (pkg/api)
// - Transform: fold the records into an immutable ReportSummary
// - Load: render the summary to the notification bodies and files (text, html, json, yaml, xlsx, chart)
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/metrics"
)

const (
	ReportFileNameHTML        = "e2e-report.html"
	ReportFileNameText        = "e2e-report.txt"
	ReportFileNameJSON        = "e2e-summary.json"
	ReportFileNameYAML        = "e2e-summary.yaml"
	ReportFileNameSpreadsheet = "e2e-cases.xlsx"
	ReportFileNameChart       = "e2e-chart.html"
)

// Report bundles one run: build data, summary and its renderings.
type Report struct {
	Build     BuildContext   `json:"build" yaml:"build"`
	Status    string         `json:"status" yaml:"status"`
	Subject   string         `json:"subject" yaml:"subject"`
	Summary   ReportSummary  `json:"summary" yaml:"summary"`
	Durations DurationStats  `json:"durations" yaml:"durations"`
	Runtime   *ReportRuntime `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	Rendered *Rendered `json:"-" yaml:"-"`
}

type ReportRuntime struct {
	Timers *metrics.Timers `json:"timers,omitempty" yaml:"timers,omitempty"`
}

// New renders the summary and returns the report.
func New(re *Renderer, bc BuildContext, s ReportSummary) (*Report, error) {
	rendered, err := re.Render(bc, s)
	if err != nil {
		return nil, err
	}
	return &Report{
		Build:     bc,
		Status:    bc.BuildStatus.String(),
		Subject:   rendered.Subject,
		Summary:   s,
		Durations: s.Durations(),
		Rendered:  rendered,
	}, nil
}

func (r *Report) ShowJSON() (string, error) {
	val, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (r *Report) ShowYAML() (string, error) {
	val, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// SaveResults writes every rendering of the report into path and returns
// the files created.
func (r *Report) SaveResults(path string) ([]string, error) {
	if r.Rendered == nil {
		return nil, errors.New("report was not rendered")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create directory %s", path)
	}

	jsonData, err := r.ShowJSON()
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal json report")
	}
	yamlData, err := r.ShowYAML()
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal yaml report")
	}
	sheet, err := Spreadsheet(r.Build, r.Summary)
	if err != nil {
		return nil, err
	}
	var chart bytes.Buffer
	if err := RenderChartPage(&chart, r.Build, r.Summary); err != nil {
		return nil, errors.Wrap(err, "unable to render chart")
	}

	files := []struct {
		name string
		data []byte
	}{
		{ReportFileNameHTML, []byte(r.Rendered.HTML)},
		{ReportFileNameText, []byte(r.Rendered.Text)},
		{ReportFileNameJSON, []byte(jsonData)},
		{ReportFileNameYAML, []byte(yamlData)},
		{ReportFileNameSpreadsheet, sheet},
		{ReportFileNameChart, chart.Bytes()},
	}
	saved := make([]string, 0, len(files))
	for _, f := range files {
		dest := filepath.Join(path, f.name)
		if err := os.WriteFile(dest, f.data, 0644); err != nil {
			return saved, errors.Wrapf(err, "unable to save %s", dest)
		}
		log.Debugf("report saved to %s", dest)
		saved = append(saved, dest)
	}
	return saved, nil
}

// String is a one line description used in logs.
func (r *Report) String() string {
	return fmt.Sprintf("%s #%s %s [%d/%d/%d/%d]", r.Build.JobName, r.Build.BuildNumber, r.Status,
		r.Summary.Total(), r.Summary.Passed(), r.Summary.Failed(), r.Summary.Skipped())
}
