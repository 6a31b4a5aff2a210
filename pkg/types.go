package pkg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/notify"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

const (
	ProjectName         = "e2e-notifier"
	DefaultArtifactPath = "reports/junit.xml"
	LogFileName         = "e2e-notifier.log"
)

// Configuration keys. Every key can be set by flag, config file or by the
// environment variable in envBindings (Jenkins exports most of them).
const (
	KeyArtifact          = "artifact"
	KeyWorkdir           = "workdir"
	KeyTemplatesDir      = "templates-dir"
	KeySubjectFormat     = "subject-format"
	KeyBodyMode          = "body-mode"
	KeySaveTo            = "save-to"
	KeyAttachSpreadsheet = "attach-spreadsheet"
	KeyRecipients        = "recipients"

	KeyBuildNumber    = "build-number"
	KeyBuildStatus    = "build-status"
	KeyJobName        = "job-name"
	KeyBuildURL       = "build-url"
	KeyCommitterEmail = "committer-email"
	KeyAppRepoURL     = "app-repo-url"
	KeyTestRepoURL    = "test-repo-url"
	KeyDeploymentURL  = "deployment-url"

	KeySMTPHost       = "smtp-host"
	KeySMTPPort       = "smtp-port"
	KeySMTPUser       = "smtp-user"
	KeySMTPPassword   = "smtp-password"
	KeySMTPFrom       = "smtp-from"
	KeySMTPTLS        = "smtp-tls"
	KeySMTPAuth       = "smtp-auth"
	KeySMTPSkipVerify = "smtp-skip-verify"

	KeySlackWebhookURL = "slack-webhook-url"
	KeySlackToken      = "slack-token"
	KeySlackChannel    = "slack-channel"

	KeyPublishBucket  = "publish-bucket"
	KeyPublishRegion  = "publish-region"
	KeyPublishPrefix  = "publish-prefix"
	KeyPublishBaseURL = "publish-base-url"
	KeyPublishProfile = "publish-profile"
	KeyDryRun         = "dry-run"
)

var envBindings = map[string][]string{
	KeyBuildNumber:    {"BUILD_NUMBER"},
	KeyBuildStatus:    {"BUILD_STATUS", "BUILD_RESULT"},
	KeyJobName:        {"JOB_NAME"},
	KeyBuildURL:       {"BUILD_URL"},
	KeyCommitterEmail: {"COMMITTER_EMAIL", "GIT_COMMITTER_EMAIL", "GIT_AUTHOR_EMAIL"},
	KeyAppRepoURL:     {"APP_REPO_URL"},
	KeyTestRepoURL:    {"TEST_REPO_URL"},
	KeyDeploymentURL:  {"DEPLOYMENT_URL"},
	KeyWorkdir:        {"WORKSPACE"},

	KeySMTPHost:        {"SMTP_HOST"},
	KeySMTPPort:        {"SMTP_PORT"},
	KeySMTPUser:        {"SMTP_USER"},
	KeySMTPPassword:    {"SMTP_PASSWORD"},
	KeySMTPFrom:        {"SMTP_FROM"},
	KeySMTPTLS:         {"SMTP_TLS"},
	KeySlackWebhookURL: {"SLACK_WEBHOOK_URL"},
	KeySlackToken:      {"SLACK_TOKEN"},
	KeySlackChannel:    {"SLACK_CHANNEL"},
	KeyPublishBucket:   {"PUBLISH_BUCKET"},
	KeyPublishRegion:   {"PUBLISH_REGION", "AWS_REGION"},
	KeyPublishPrefix:   {"PUBLISH_PREFIX"},
}

// ResultsDirectory is the default directory of saved results.
func ResultsDirectory() string {
	dir, err := xdg.CacheFile(filepath.Join(ProjectName, "results"))
	if err != nil {
		log.Warnf("unable to use the cache directory: %v", err)
		return filepath.Join(os.TempDir(), ProjectName, "results")
	}
	return dir
}

// BuildResultsDirectory is where the results of a build are saved when
// publishing without --save-to: <ResultsDirectory>/<job>-<build>.
func BuildResultsDirectory(bc report.BuildContext) string {
	name := func(s, fallback string) string {
		s = strings.TrimSpace(strings.NewReplacer("/", "-", string(filepath.Separator), "-").Replace(s))
		if s == "" || s == "." || s == ".." {
			return fallback
		}
		return s
	}
	return filepath.Join(ResultsDirectory(), name(bc.JobName, "job")+"-"+name(bc.BuildNumber, "0"))
}

// Config is the resolved configuration of one run.
type Config struct {
	Artifact          string
	Workdir           string
	TemplatesDir      string
	SubjectFormat     string
	BodyMode          notify.BodyMode
	SaveTo            string
	AttachSpreadsheet bool
	Recipients        []string

	Build   report.BuildContext
	SMTP    notify.SMTPConfig
	Slack   notify.SlackConfig
	Publish publish.Config
}

// AddBuildFlags registers the build context flags.
func AddBuildFlags(fs *pflag.FlagSet) {
	fs.String(KeyArtifact, DefaultArtifactPath, "JUnit artifact, a path or an http(s) URL. Example: --artifact $BUILD_URL/artifact/reports/junit.xml")
	fs.String(KeyWorkdir, ".", "Checkout directory, used to resolve the committer email from the HEAD commit.")
	fs.String(KeyBuildNumber, "", "Build number. Env: BUILD_NUMBER")
	fs.String(KeyBuildStatus, "", "Build status: SUCCESS, FAILURE or UNSTABLE. Env: BUILD_STATUS")
	fs.String(KeyJobName, "", "Job name. Env: JOB_NAME")
	fs.String(KeyBuildURL, "", "Build URL. Env: BUILD_URL")
	fs.String(KeyCommitterEmail, "", "Committer email, resolved from the checkout when empty. Env: COMMITTER_EMAIL")
	fs.String(KeyAppRepoURL, "", "Application repository URL. Env: APP_REPO_URL")
	fs.String(KeyTestRepoURL, "", "Test repository URL. Env: TEST_REPO_URL")
	fs.String(KeyDeploymentURL, "", "URL of the deployed application. Env: DEPLOYMENT_URL")
	fs.String(KeyTemplatesDir, "", "Directory with report.txt and report.html overriding the embedded templates.")
	fs.String(KeySubjectFormat, report.DefaultSubjectFormat, "Subject line, a Go template.")
}

// AddDeliveryFlags registers the notification channel flags.
func AddDeliveryFlags(fs *pflag.FlagSet) {
	fs.String(KeyBodyMode, string(notify.BodyBoth), "Email body: both, text or html.")
	fs.StringSlice(KeyRecipients, nil, "Additional recipients of the email.")
	fs.Bool(KeyAttachSpreadsheet, false, "Attach the test cases spreadsheet to the email.")
	fs.String(KeySMTPHost, "", "SMTP relay host. The email channel is disabled when empty.")
	fs.Int(KeySMTPPort, 25, "SMTP relay port.")
	fs.String(KeySMTPUser, "", "SMTP user.")
	fs.String(KeySMTPPassword, "", "SMTP password.")
	fs.String(KeySMTPFrom, "", "Sender address.")
	fs.String(KeySMTPTLS, "", "SMTP TLS mode: none, starttls or smtps. Guessed from the port when empty.")
	fs.String(KeySMTPAuth, "plain", "SMTP auth mechanism: plain or login.")
	fs.Bool(KeySMTPSkipVerify, false, "Skip the verification of the SMTP server certificate.")
	fs.String(KeySlackWebhookURL, "", "Slack incoming webhook URL.")
	fs.String(KeySlackToken, "", "Slack bot token, used with --slack-channel when no webhook is set.")
	fs.String(KeySlackChannel, "", "Slack channel.")
}

// AddPublishFlags registers the flags of the S3 publisher.
func AddPublishFlags(fs *pflag.FlagSet) {
	fs.String(KeyPublishBucket, "", "S3 bucket receiving the results. Publishing is disabled when empty.")
	fs.String(KeyPublishRegion, "", "S3 bucket region.")
	fs.String(KeyPublishPrefix, "", "Object key prefix.")
	fs.String(KeyPublishBaseURL, "", "Public URL serving the bucket, used to link the report.")
	fs.String(KeyPublishProfile, "", "AWS shared config profile.")
	fs.Bool(KeyDryRun, false, "Skip the uploads, log what would be published.")
}

// BindFlags binds the flags of the running command and the environment
// fallbacks. Commands call it before reading the configuration so flags with
// the same name in other commands do not shadow each other.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if bindErr := v.BindPFlag(f.Name, f); bindErr != nil {
			err = errors.Wrapf(bindErr, "unable to bind flag %s", f.Name)
		}
	})
	if err != nil {
		return err
	}
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return errors.Wrapf(err, "unable to bind env for %s", key)
		}
	}
	return nil
}

// LoadConfig resolves the configuration from viper. Only invalid values are
// errors: an unknown build status is reported as UNSTABLE with a warning.
func LoadConfig(v *viper.Viper) (*Config, error) {
	mode, err := notify.ParseBodyMode(v.GetString(KeyBodyMode))
	if err != nil {
		return nil, err
	}

	status, err := report.ParseBuildStatus(v.GetString(KeyBuildStatus))
	if err != nil {
		log.Warnf("%v, reporting the build as %s", err, status)
	}

	artifact := v.GetString(KeyArtifact)
	if artifact == "" {
		artifact = DefaultArtifactPath
	}
	workdir := v.GetString(KeyWorkdir)
	if workdir == "" {
		workdir = "."
	}

	cfg := &Config{
		Artifact:          artifact,
		Workdir:           workdir,
		TemplatesDir:      v.GetString(KeyTemplatesDir),
		SubjectFormat:     v.GetString(KeySubjectFormat),
		BodyMode:          mode,
		SaveTo:            v.GetString(KeySaveTo),
		AttachSpreadsheet: v.GetBool(KeyAttachSpreadsheet),
		Recipients:        cleanList(v.GetStringSlice(KeyRecipients)),
		Build: report.BuildContext{
			BuildNumber:    strings.TrimSpace(v.GetString(KeyBuildNumber)),
			BuildStatus:    status,
			JobName:        strings.TrimSpace(v.GetString(KeyJobName)),
			BuildURL:       strings.TrimSpace(v.GetString(KeyBuildURL)),
			CommitterEmail: strings.TrimSpace(v.GetString(KeyCommitterEmail)),
			AppRepoURL:     strings.TrimSpace(v.GetString(KeyAppRepoURL)),
			TestRepoURL:    strings.TrimSpace(v.GetString(KeyTestRepoURL)),
			DeploymentURL:  strings.TrimSpace(v.GetString(KeyDeploymentURL)),
		},
		SMTP: notify.SMTPConfig{
			Host:       v.GetString(KeySMTPHost),
			Port:       v.GetInt(KeySMTPPort),
			User:       v.GetString(KeySMTPUser),
			Password:   v.GetString(KeySMTPPassword),
			From:       v.GetString(KeySMTPFrom),
			TLS:        v.GetString(KeySMTPTLS),
			AuthType:   v.GetString(KeySMTPAuth),
			SkipVerify: v.GetBool(KeySMTPSkipVerify),
			BodyMode:   mode,
		},
		Slack: notify.SlackConfig{
			WebhookURL: v.GetString(KeySlackWebhookURL),
			Token:      v.GetString(KeySlackToken),
			Channel:    v.GetString(KeySlackChannel),
		},
		Publish: publish.Config{
			Bucket:  v.GetString(KeyPublishBucket),
			Region:  v.GetString(KeyPublishRegion),
			Prefix:  v.GetString(KeyPublishPrefix),
			BaseURL: v.GetString(KeyPublishBaseURL),
			Profile: v.GetString(KeyPublishProfile),
			DryRun:  v.GetBool(KeyDryRun),
		},
	}
	return cfg, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
