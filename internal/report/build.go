package report

import (
	"fmt"
	"strings"
)

// BuildStatus is the result of the pipeline run as reported by the CI.
type BuildStatus int

const (
	BuildSuccess BuildStatus = iota
	BuildFailure
	BuildUnstable
)

// ParseBuildStatus accepts the Jenkins result names (SUCCESS, FAILURE,
// UNSTABLE) in any case, plus the short forms pass/fail.
func ParseBuildStatus(s string) (BuildStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "PASS", "PASSED":
		return BuildSuccess, nil
	case "FAILURE", "FAIL", "FAILED":
		return BuildFailure, nil
	case "UNSTABLE":
		return BuildUnstable, nil
	}
	return BuildUnstable, fmt.Errorf("unknown build status %q", s)
}

func (bs BuildStatus) String() string {
	switch bs {
	case BuildSuccess:
		return "SUCCESS"
	case BuildFailure:
		return "FAILURE"
	default:
		return "UNSTABLE"
	}
}

// Icon is the status marker used at the start of the subject line.
func (bs BuildStatus) Icon() string {
	switch bs {
	case BuildSuccess:
		return "✅"
	case BuildFailure:
		return "❌"
	default:
		return "⚠️"
	}
}

// Color is the hex color used by rich renderings (html, slack).
func (bs BuildStatus) Color() string {
	switch bs {
	case BuildSuccess:
		return "#2e7d32"
	case BuildFailure:
		return "#c62828"
	default:
		return "#ef6c00"
	}
}

// BuildContext describes the pipeline run being reported. It is supplied by
// the invoking environment and only read while rendering.
type BuildContext struct {
	BuildNumber    string      `json:"buildNumber" yaml:"buildNumber"`
	BuildStatus    BuildStatus `json:"-" yaml:"-"`
	JobName        string      `json:"jobName" yaml:"jobName"`
	BuildURL       string      `json:"buildUrl" yaml:"buildUrl"`
	CommitterEmail string      `json:"committerEmail" yaml:"committerEmail"`
	AppRepoURL     string      `json:"appRepoUrl" yaml:"appRepoUrl"`
	TestRepoURL    string      `json:"testRepoUrl" yaml:"testRepoUrl"`
	DeploymentURL  string      `json:"deploymentUrl" yaml:"deploymentUrl"`

	// ReportURL points to the published report, empty when not published.
	ReportURL string `json:"reportUrl,omitempty" yaml:"reportUrl,omitempty"`
}

// WithReportURL returns a copy of the context pointing to a published report.
func (bc BuildContext) WithReportURL(url string) BuildContext {
	bc.ReportURL = url
	return bc
}
