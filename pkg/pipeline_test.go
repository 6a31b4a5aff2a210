package pkg

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/adrg/xdg"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/data"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/assets"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/notify"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

type recordingNotifier struct {
	name string
	err  error
	msgs []*notify.Message
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Send(_ context.Context, msg *notify.Message) error {
	n.msgs = append(n.msgs, msg)
	return n.err
}

type memUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *memUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return u.UploadWithContext(aws.BackgroundContext(), in, opts...)
}

func (u *memUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if _, err := io.Copy(io.Discard, in.Body); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, aws.StringValue(in.Key))
	return &s3manager.UploadOutput{}, nil
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports", "junit.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(artifact string) *Config {
	return &Config{
		Artifact:      artifact,
		Workdir:       ".",
		SubjectFormat: report.DefaultSubjectFormat,
		BodyMode:      notify.BodyBoth,
		Build: report.BuildContext{
			BuildNumber:    "42",
			BuildStatus:    report.BuildUnstable,
			JobName:        "todo-app-e2e",
			BuildURL:       "https://jenkins.example.com/job/todo-app-e2e/42/",
			CommitterEmail: "dev@example.com",
			DeploymentURL:  "http://todo-app.example.com:3000",
		},
	}
}

const junitExample = `<testsuite name="e2e">
	<testcase name="Login"/>
	<testcase name="Signup"><failure message="expected dashboard"/></testcase>
	<testcase name="Delete"><skipped/></testcase>
</testsuite>`

func TestPipelineRun(t *testing.T) {
	assets.UpdateData(data.Templates)

	mail := &recordingNotifier{name: "smtp", err: errors.New("connection refused")}
	chat := &recordingNotifier{name: "slack"}
	uploader := &memUploader{}

	cfg := testConfig(writeArtifact(t, junitExample))
	cfg.SaveTo = filepath.Join(t.TempDir(), "results")
	cfg.AttachSpreadsheet = true
	cfg.Recipients = []string{"qa@example.com"}

	p := NewPipeline(cfg)
	p.Notifiers = []notify.Notifier{mail, chat}
	p.Publisher = publish.NewPublisherWithUploader(&publish.Config{Bucket: "e2e-reports", BaseURL: "https://reports.example.com"}, uploader)

	out, err := p.Run(context.Background())
	require.NoError(t, err, "delivery failures are not errors")

	assert.Equal(t, "⚠️ Build #42 - UNSTABLE - 1/3 Tests Passed", out.Report.Subject)
	assert.Len(t, out.Saved, 6)
	assert.FileExists(t, filepath.Join(cfg.SaveTo, report.ReportFileNameHTML))
	assert.ElementsMatch(t, []string{
		"todo-app-e2e/42/e2e-results.tar.xz",
		"todo-app-e2e/42/e2e-report.html",
		"todo-app-e2e/42/e2e-chart.html",
	}, uploader.keys)

	reportURL := "https://reports.example.com/todo-app-e2e/42/e2e-report.html"
	require.NotNil(t, out.Published)
	assert.Equal(t, reportURL, out.Published.ReportURL)
	assert.Equal(t, reportURL, out.Report.Build.ReportURL)

	require.Len(t, out.Deliveries, 2)
	assert.True(t, errors.Is(out.Deliveries[0].Err, notify.ErrDeliveryFailure))
	assert.NoError(t, out.Deliveries[1].Err)

	require.Len(t, chat.msgs, 1)
	msg := chat.msgs[0]
	assert.Equal(t, []string{"dev@example.com", "qa@example.com"}, msg.To)
	assert.Equal(t, reportURL, msg.Link)
	assert.Contains(t, msg.Text, reportURL)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, report.ReportFileNameSpreadsheet, msg.Attachments[0].Filename)
	assert.Same(t, msg, mail.msgs[0], "every channel gets the same message")
}

func TestPipelineMissingArtifact(t *testing.T) {
	assets.UpdateData(data.Templates)

	chat := &recordingNotifier{name: "slack"}
	cfg := testConfig(filepath.Join(t.TempDir(), "reports", "junit.xml"))
	cfg.Build.BuildStatus = report.BuildFailure

	p := NewPipeline(cfg)
	p.Notifiers = []notify.Notifier{chat}
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.Report.Summary.IsEmpty())
	assert.Empty(t, out.Saved)
	assert.Nil(t, out.Published)
	require.Len(t, chat.msgs, 1)
	assert.Equal(t, "❌ Build #42 - FAILURE - 0/0 Tests Passed", chat.msgs[0].Subject)
	assert.Contains(t, chat.msgs[0].Text, report.NoDetailsMessage)
}

func TestPipelineTemplateErrors(t *testing.T) {
	assets.UpdateData(data.Templates)

	cfg := testConfig(writeArtifact(t, junitExample))
	cfg.TemplatesDir = t.TempDir()
	_, err := NewPipeline(cfg).Run(context.Background())
	assert.Error(t, err, "templates directory without templates")

	cfg = testConfig(writeArtifact(t, junitExample))
	cfg.SubjectFormat = "{{.Nope"
	_, err = NewPipeline(cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestPipelinePublishWithoutSaveTo(t *testing.T) {
	assets.UpdateData(data.Templates)
	cache := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CACHE_HOME", cache)
	xdg.Reload()

	chat := &recordingNotifier{name: "slack"}
	uploader := &memUploader{}
	cfg := testConfig(writeArtifact(t, junitExample))
	cfg.Recipients = []string{"dev@example.com", "qa@example.com"}

	p := NewPipeline(cfg)
	p.Notifiers = []notify.Notifier{chat}
	p.Publisher = publish.NewPublisherWithUploader(&publish.Config{Bucket: "e2e-reports"}, uploader)
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	dir := filepath.Join(cache, ProjectName, "results", "todo-app-e2e-42")
	assert.Equal(t, dir, BuildResultsDirectory(cfg.Build))
	require.Len(t, out.Saved, 6)
	assert.FileExists(t, filepath.Join(dir, report.ReportFileNameHTML))
	assert.Len(t, uploader.keys, 3)

	require.Len(t, chat.msgs, 1)
	assert.Equal(t, []string{"dev@example.com", "qa@example.com"}, chat.msgs[0].To, "the committer is notified once")
	assert.Greater(t, p.Timers.Timers["total"].Total, 0.0)
}
