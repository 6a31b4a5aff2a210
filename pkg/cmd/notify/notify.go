package notify

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg"
)

func NewCmdNotify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Summarize the JUnit report and notify the committer.",
		Long: `Reads the JUnit artifact of the e2e run, renders the report and delivers it
to the committer of the build. A missing or malformed artifact is reported
as an empty summary; delivery failures are logged and not retried. The
command only fails when the configuration is invalid.`,
		Example: `  # Jenkins post build step, the build context is read from the environment
  e2e-notifier notify --smtp-host smtp.example.com --smtp-from ci@example.com

  # save the report and publish it to S3, linking it from the email
  e2e-notifier notify --save-to ./results --publish-bucket e2e-reports`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return pkg.BindFlags(viper.GetViper(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pkg.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	pkg.AddBuildFlags(cmd.Flags())
	pkg.AddDeliveryFlags(cmd.Flags())
	pkg.AddPublishFlags(cmd.Flags())
	cmd.Flags().StringP(pkg.KeySaveTo, "s", "", "Save the report files to a directory. Example: -s ./results")

	return cmd
}

func run(ctx context.Context, cfg *pkg.Config) error {
	p := pkg.NewPipeline(cfg)
	out, err := p.Run(ctx)
	if err != nil {
		return err
	}
	for _, d := range out.Deliveries {
		log.Debug(d.String())
	}
	return nil
}
