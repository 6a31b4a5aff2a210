package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

func runPublish(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := NewCmdPublish()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPublishDryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.ReportFileNameHTML), []byte("<html></html>"), 0o644))

	var got *publish.Config
	orig := newPublisher
	newPublisher = func(cfg *publish.Config) (*publish.Publisher, error) {
		got = cfg
		return publish.NewPublisherWithUploader(cfg, nil), nil
	}
	t.Cleanup(func() { newPublisher = orig })

	out, err := runPublish(t, dir,
		"--publish-bucket", "ci-results",
		"--publish-prefix", "e2e",
		"--job-name", "todo-app-e2e",
		"--build-number", "42",
		"--dry-run",
	)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.DryRun)
	assert.Contains(t, out, "s3://ci-results/e2e/todo-app-e2e/42/e2e-results.tar.xz")
	assert.Contains(t, out, "s3://ci-results/e2e/todo-app-e2e/42/e2e-report.html")
	assert.NotContains(t, out, "Report:")
}

func TestPublishInvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, os.WriteFile(file, []byte("<testsuite/>"), 0o644))

	_, err := runPublish(t, file, "--publish-bucket", "ci-results")
	assert.ErrorContains(t, err, "is not a directory")

	_, err = runPublish(t, filepath.Join(t.TempDir(), "missing"), "--publish-bucket", "ci-results")
	assert.ErrorContains(t, err, "could not publish results")
}
