package publish

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg"
)

// newPublisher is replaced in tests.
var newPublisher = func(cfg *publish.Config) (*publish.Publisher, error) {
	return publish.NewPublisher(cfg)
}

func NewCmdPublish() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <results-dir>",
		Short: "Publish saved results to the S3 bucket.",
		Long: `Upload a directory saved by 'report --save-to' or 'notify --save-to' to the
results bucket. The directory is bundled as a tar.xz archive, the HTML pages
are uploaded next to it so they can be browsed.`,
		Example: `  e2e-notifier publish ./results --publish-bucket ci-results --job-name todo-app-e2e --build-number 42`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return pkg.BindFlags(viper.GetViper(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pkg.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			return publishResults(cmd, args[0], cfg)
		},
	}
	pkg.AddBuildFlags(cmd.Flags())
	pkg.AddPublishFlags(cmd.Flags())
	return cmd
}

func publishResults(cmd *cobra.Command, dir string, cfg *pkg.Config) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "could not publish results from %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	log.Info("Publishing the results to storage...")
	p, err := newPublisher(&cfg.Publish)
	if err != nil {
		return err
	}
	res, err := p.Publish(cmd.Context(), dir, cfg.Build)
	if err != nil {
		return errors.Wrapf(err, "could not publish results from %s", dir)
	}
	for _, o := range res.Objects {
		fmt.Fprintln(cmd.OutOrStdout(), o.URI)
	}
	if res.ReportURL != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", res.ReportURL)
	}
	return nil
}
