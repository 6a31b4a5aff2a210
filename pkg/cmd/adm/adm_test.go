package adm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
)

const junitXML = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="e2e" tests="3">
  <testcase name="Login" time="1.5"/>
  <testcase name="Signup" time="2"><failure message="button not found"/></testcase>
  <testcase name="Delete"><skipped message="flaky"/></testcase>
</testsuite>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := NewCmdAdm()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseJUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, os.WriteFile(path, []byte(junitXML), 0o644))

	out, err := execute(t, "parse-junit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Summary:")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "Login")
	assert.Contains(t, out, "button not found")
	assert.Contains(t, out, "Delete")

	out, err = execute(t, "parse-junit", path, "--skip-passed", "--skip-skipped", "--skip-failed=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "Login")
	assert.NotContains(t, out, "Delete")
	assert.Contains(t, out, "Signup")
}

func TestParseJUnitMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")

	out, err := execute(t, "parse-junit", missing, "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary:")

	_, err = execute(t, "parse-junit", missing, "--strict")
	assert.ErrorContains(t, err, "error parsing JUnit file")
}

type listS3 struct {
	s3iface.S3API
	objects []*s3.Object
}

func (l *listS3) ListObjectsV2PagesWithContext(_ aws.Context, _ *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	fn(&s3.ListObjectsV2Output{Contents: l.objects}, true)
	return nil
}

func TestListPublished(t *testing.T) {
	day := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	svc := &listS3{objects: []*s3.Object{
		{Key: aws.String("todo-app-e2e/42/e2e-results.tar.xz"), Size: aws.Int64(4096), LastModified: aws.Time(day)},
		{Key: aws.String("todo-app-e2e/42/e2e-report.html"), Size: aws.Int64(2048), LastModified: aws.Time(day)},
	}}
	var gotBucket string
	orig := newPublisher
	newPublisher = func(cfg *publish.Config) (*publish.Publisher, error) {
		gotBucket = cfg.Bucket
		return publish.NewPublisherWithClients(cfg, svc, nil), nil
	}
	t.Cleanup(func() { newPublisher = orig })

	out, err := execute(t, "list-published", "todo-app-e2e", "--publish-bucket", "ci-results", "--publish-base-url", "https://reports.example.com")
	require.NoError(t, err)
	assert.Equal(t, "ci-results", gotBucket)
	assert.Contains(t, out, "todo-app-e2e")
	assert.Contains(t, out, "2024-05-02 10:00:00")
	assert.Contains(t, out, "6 KiB")
	assert.Contains(t, out, "https://reports.example.com/todo-app-e2e/42/e2e-report.html")

	svc.objects = nil
	out, err = execute(t, "list-published", "--publish-bucket", "ci-results")
	require.NoError(t, err)
	assert.Contains(t, out, "No published results found.")
}
