package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg/api"
)

func testReport() *report.Report {
	s := report.Fold([]*api.TestCase{
		{Name: "Login"},
		{Name: "Signup", Failure: &api.Failure{Message: "expected dashboard"}},
		{Name: "Delete", Skipped: &api.SkipMessage{}},
	}, nil)
	return &report.Report{
		Build: report.BuildContext{
			BuildNumber:    "42",
			BuildStatus:    report.BuildUnstable,
			JobName:        "todo-app-e2e",
			BuildURL:       "https://jenkins.example.com/job/todo-app-e2e/42/",
			CommitterEmail: "dev@example.com",
			DeploymentURL:  "http://todo-app.example.com:3000",
		},
		Status:   "UNSTABLE",
		Subject:  "⚠️ Build #42 - UNSTABLE - 1/3 Tests Passed",
		Summary:  s,
		Rendered: &report.Rendered{Subject: "⚠️ Build #42 - UNSTABLE - 1/3 Tests Passed", Text: "text body", HTML: "<p>html body</p>"},
	}
}

func TestNewMessage(t *testing.T) {
	r := testReport()
	msg := NewMessage(r, "CI <ci@example.com>", "dev@example.com", " ", "")

	assert.Equal(t, []string{"dev@example.com"}, msg.To)
	assert.Equal(t, "CI <ci@example.com>", msg.From)
	assert.Equal(t, r.Subject, msg.Subject)
	assert.Equal(t, "text body", msg.Text)
	assert.Equal(t, "<p>html body</p>", msg.HTML)
	assert.Equal(t, report.BuildUnstable.Color(), msg.Color)
	assert.Equal(t, r.Build.BuildURL, msg.Link)
	assert.Equal(t, []Fact{
		{"Total", "3"},
		{"Passed", "1"},
		{"Failed", "1"},
		{"Skipped", "1"},
		{"Deployment", "http://todo-app.example.com:3000"},
		{"Committer", "dev@example.com"},
	}, msg.Facts)

	r.Build = r.Build.WithReportURL("https://reports.example.com/42/e2e-report.html")
	assert.Equal(t, "https://reports.example.com/42/e2e-report.html", NewMessage(r, "").Link)
}

func TestNewMessageDuplicateRecipients(t *testing.T) {
	msg := NewMessage(testReport(), "", "dev@example.com", "qa@example.com", "Dev <DEV@example.com>", "qa@example.com")
	assert.Equal(t, []string{"dev@example.com", "qa@example.com"}, msg.To)
}

func TestNewMessageWithoutRecipient(t *testing.T) {
	msg := NewMessage(testReport(), "")
	assert.Empty(t, msg.To)
}

func TestParseBodyMode(t *testing.T) {
	tests := []struct {
		in      string
		want    BodyMode
		wantErr bool
	}{
		{"", BodyBoth, false},
		{"both", BodyBoth, false},
		{" TEXT ", BodyText, false},
		{"html", BodyHTML, false},
		{"markdown", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseBodyMode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
