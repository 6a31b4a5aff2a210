package adm

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/publish"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg"
)

type listPublishedInput struct {
	limit int
}

// newPublisher is replaced in tests.
var newPublisher = func(cfg *publish.Config) (*publish.Publisher, error) {
	return publish.NewPublisher(cfg)
}

func NewCmdListPublished() *cobra.Command {
	args := listPublishedInput{}
	cmd := &cobra.Command{
		Use:     "list-published [job]",
		Example: "e2e-notifier adm list-published todo-app-e2e --publish-bucket ci-results",
		Short:   "List the builds published to the results bucket.",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return pkg.BindFlags(viper.GetViper(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			cfg, err := pkg.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			job := ""
			if len(posArgs) > 0 {
				job = posArgs[0]
			}
			p, err := newPublisher(&cfg.Publish)
			if err != nil {
				return err
			}
			builds, err := p.List(cmd.Context(), job)
			if err != nil {
				return err
			}
			if args.limit > 0 && len(builds) > args.limit {
				builds = builds[:args.limit]
			}
			return printPublished(cmd, builds)
		},
	}
	pkg.AddPublishFlags(cmd.Flags())
	cmd.Flags().IntVar(&args.limit, "limit", 20, "Maximum number of builds listed, 0 lists all.")
	return cmd
}

func printPublished(cmd *cobra.Command, builds []publish.Published) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No published results found.")
		return err
	}
	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{
			b.JobName,
			b.BuildNumber,
			b.Modified.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatInt(b.Size/1024, 10) + " KiB",
			b.ReportURL,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Job", "Build", "Published", "Size", "Report").
		Rows(rows...)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}
