package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/notify"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddBuildFlags(fs)
	AddDeliveryFlags(fs)
	AddPublishFlags(fs)
	return fs
}

func loadConfig(t *testing.T, args ...string) *Config {
	t.Helper()
	fs := newFlagSet()
	require.NoError(t, fs.Parse(args))
	v := viper.New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig(t)
	assert.Equal(t, DefaultArtifactPath, cfg.Artifact)
	assert.Equal(t, ".", cfg.Workdir)
	assert.Equal(t, notify.BodyBoth, cfg.BodyMode)
	assert.Equal(t, report.DefaultSubjectFormat, cfg.SubjectFormat)
	assert.Equal(t, report.BuildUnstable, cfg.Build.BuildStatus)
	assert.Equal(t, 25, cfg.SMTP.Port)
	assert.False(t, cfg.Slack.Enabled())
	assert.Empty(t, cfg.Publish.Bucket)
}

func TestLoadConfigFromJenkinsEnvironment(t *testing.T) {
	t.Setenv("BUILD_NUMBER", "42")
	t.Setenv("BUILD_STATUS", "failure")
	t.Setenv("JOB_NAME", "todo-app-e2e")
	t.Setenv("BUILD_URL", "https://jenkins.example.com/job/todo-app-e2e/42/")
	t.Setenv("GIT_COMMITTER_EMAIL", "dev@example.com")
	t.Setenv("APP_REPO_URL", "https://github.com/example/todo-app.git")
	t.Setenv("TEST_REPO_URL", "https://github.com/example/todo-app-e2e.git")
	t.Setenv("DEPLOYMENT_URL", "http://todo-app.example.com:3000")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")

	cfg := loadConfig(t)
	assert.Equal(t, report.BuildContext{
		BuildNumber:    "42",
		BuildStatus:    report.BuildFailure,
		JobName:        "todo-app-e2e",
		BuildURL:       "https://jenkins.example.com/job/todo-app-e2e/42/",
		CommitterEmail: "dev@example.com",
		AppRepoURL:     "https://github.com/example/todo-app.git",
		TestRepoURL:    "https://github.com/example/todo-app-e2e.git",
		DeploymentURL:  "http://todo-app.example.com:3000",
	}, cfg.Build)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, notify.TLSStartTLS, cfg.SMTP.EffectiveTLSMode())
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("BUILD_NUMBER", "42")
	t.Setenv("COMMITTER_EMAIL", "dev@example.com")

	cfg := loadConfig(t,
		"--build-number", "43",
		"--recipients", "qa@example.com, lead@example.com",
		"--recipients", "ops@example.com",
		"--body-mode", "html",
	)
	assert.Equal(t, "43", cfg.Build.BuildNumber)
	assert.Equal(t, "dev@example.com", cfg.Build.CommitterEmail)
	assert.Equal(t, []string{"qa@example.com", "lead@example.com", "ops@example.com"}, cfg.Recipients)
	assert.Equal(t, notify.BodyHTML, cfg.BodyMode)
	assert.Equal(t, notify.BodyHTML, cfg.SMTP.BodyMode)
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notifier.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
job-name: todo-app-e2e
slack-webhook-url: https://hooks.slack.com/services/T/B/X
publish-bucket: e2e-reports
dry-run: true
`), 0644))

	fs := newFlagSet()
	require.NoError(t, fs.Parse(nil))
	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())
	require.NoError(t, BindFlags(v, fs))

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "todo-app-e2e", cfg.Build.JobName)
	assert.True(t, cfg.Slack.Enabled())
	assert.Equal(t, "e2e-reports", cfg.Publish.Bucket)
	assert.True(t, cfg.Publish.DryRun)
}

func TestLoadConfigInvalidBodyMode(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--body-mode", "markdown"}))
	v := viper.New()
	require.NoError(t, BindFlags(v, fs))
	_, err := LoadConfig(v)
	assert.Error(t, err)
}

func TestResultsDirectory(t *testing.T) {
	assert.Contains(t, ResultsDirectory(), filepath.Join(ProjectName, "results"))
}

func TestBuildResultsDirectory(t *testing.T) {
	dir := BuildResultsDirectory(report.BuildContext{JobName: "team/todo-app-e2e", BuildNumber: "42"})
	assert.Equal(t, filepath.Join(ResultsDirectory(), "team-todo-app-e2e-42"), dir)

	dir = BuildResultsDirectory(report.BuildContext{JobName: " ", BuildNumber: ".."})
	assert.Equal(t, filepath.Join(ResultsDirectory(), "job-0"), dir)
}
