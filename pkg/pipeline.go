package pkg

import (
	"context"
	"io/fs"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/assets"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/metrics"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/notify"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/vcs"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewRenderer loads the notification templates, from TemplatesDir when set
// or from the embedded assets.
func (c *Config) NewRenderer() (*report.Renderer, error) {
	var (
		fsys fs.FS
		err  error
	)
	if c.TemplatesDir != "" {
		fsys, err = assets.TemplatesFromDir(c.TemplatesDir)
	} else {
		fsys, err = assets.NotifyTemplates()
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load the notification templates")
	}
	return report.NewRenderer(fsys, c.SubjectFormat)
}

// Pipeline runs the steps of a notification: aggregate, render, save,
// publish and deliver. Only configuration errors are returned, everything
// else is logged and the run continues.
type Pipeline struct {
	Config *Config
	Timers metrics.Timers

	// Test seams, built from Config when nil.
	Notifiers []notify.Notifier
	Publisher *publish.Publisher
}

func NewPipeline(cfg *Config) *Pipeline {
	return &Pipeline{Config: cfg, Timers: metrics.NewTimers()}
}

// Outcome is what happened during a run.
type Outcome struct {
	Report     *report.Report
	Saved      []string
	Published  *publish.Result
	Deliveries []notify.Result
}

// BuildReport aggregates the artifact and renders the report.
func (p *Pipeline) BuildReport(ctx context.Context, re *report.Renderer) (*report.Report, error) {
	p.Timers.Set("aggregate")
	s, warn := report.AggregateContext(ctx, p.Config.Artifact)
	if warn != nil {
		log.WithError(warn).Warnf("using an empty summary for %s", p.Config.Artifact)
	}
	log.Infof("%d tests: %d passed, %d failed, %d skipped", s.Total(), s.Passed(), s.Failed(), s.Skipped())

	bc := p.Config.Build
	bc.CommitterEmail = vcs.ResolveCommitter(bc.CommitterEmail, p.Config.Workdir)

	p.Timers.Set("render")
	r, err := report.New(re, bc, s)
	if err != nil {
		return nil, errors.Wrap(err, "unable to render the report")
	}
	r.Runtime = &report.ReportRuntime{Timers: &p.Timers}
	return r, nil
}

// Run executes the whole pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	p.Timers.Add("total")

	re, err := p.Config.NewRenderer()
	if err != nil {
		return nil, err
	}
	r, err := p.BuildReport(ctx, re)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Report: r}

	saveTo := p.Config.SaveTo
	if saveTo == "" && p.publishEnabled() {
		saveTo = BuildResultsDirectory(r.Build)
	}
	if saveTo != "" {
		p.Timers.Set("save")
		out.Saved, err = r.SaveResults(saveTo)
		if err != nil {
			log.WithError(err).Warnf("unable to save the results to %s", saveTo)
		} else {
			log.Infof("results saved to %s", saveTo)
		}
	}

	if p.publishEnabled() && len(out.Saved) > 0 {
		p.Timers.Set("publish")
		out.Published = p.publish(ctx, saveTo, r)
		if out.Published != nil && out.Published.ReportURL != "" {
			// render again, the bodies link to the published report
			bc := r.Build.WithReportURL(out.Published.ReportURL)
			published, err := report.New(re, bc, r.Summary)
			if err != nil {
				return nil, errors.Wrap(err, "unable to render the report")
			}
			published.Runtime = r.Runtime
			r = published
			out.Report = r
		}
	}

	p.Timers.Set("deliver")
	msg := notify.NewMessage(r, p.Config.SMTP.From, append([]string{r.Build.CommitterEmail}, p.Config.Recipients...)...)
	if p.Config.AttachSpreadsheet {
		sheet, err := report.Spreadsheet(r.Build, r.Summary)
		if err != nil {
			log.WithError(err).Warn("unable to create the spreadsheet, sending without attachment")
		} else {
			msg.Attach(report.ReportFileNameSpreadsheet, contentTypeXLSX, sheet)
		}
	}
	dispatcher := notify.NewDispatcher(p.notifiers()...)
	log.Debugf("notification channels: %v", dispatcher.Channels())
	out.Deliveries = dispatcher.Dispatch(ctx, msg)
	p.Timers.Set("deliver")
	p.Timers.Add("total")

	log.Infof("%s: %d/%d channels delivered (%s)", r, notify.Delivered(out.Deliveries), len(out.Deliveries), p.Timers.String())
	return out, nil
}

func (p *Pipeline) publishEnabled() bool {
	return p.Publisher != nil || p.Config.Publish.Bucket != ""
}

func (p *Pipeline) publish(ctx context.Context, dir string, r *report.Report) *publish.Result {
	publisher := p.Publisher
	if publisher == nil {
		var err error
		publisher, err = publish.NewPublisher(&p.Config.Publish)
		if err != nil {
			log.WithError(err).Error("unable to publish the results")
			return nil
		}
	}
	res, err := publisher.Publish(ctx, dir, r.Build)
	if err != nil {
		log.WithError(err).Error("unable to publish the results, continuing")
		return nil
	}
	if res.ReportURL != "" {
		log.Infof("report published to %s", res.ReportURL)
	}
	return res
}

func (p *Pipeline) notifiers() []notify.Notifier {
	if p.Notifiers != nil {
		return p.Notifiers
	}
	var notifiers []notify.Notifier
	if p.Config.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewSMTPNotifier(&p.Config.SMTP))
	}
	if p.Config.Slack.Enabled() {
		notifiers = append(notifiers, notify.NewSlackNotifier(&p.Config.Slack))
	}
	return notifiers
}
