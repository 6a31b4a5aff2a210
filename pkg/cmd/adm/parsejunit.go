package adm

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

type parseJUnitInput struct {
	skipFailed  bool
	skipPassed  bool
	skipSkipped bool
	strict      bool
}

// NewCmdParseJUnit prints the summary of a JUnit file, the way the
// notification would count it.
func NewCmdParseJUnit() *cobra.Command {
	args := parseJUnitInput{}
	cmd := &cobra.Command{
		Use:     "parse-junit <file|url>",
		Example: "e2e-notifier adm parse-junit reports/junit.xml --skip-passed",
		Short:   "Parse JUnit file.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return parseJUnitRun(cmd, posArgs[0], &args)
		},
	}
	cmd.Flags().BoolVar(&args.skipFailed, "skip-failed", false, "Skip printing on stdout the failed test names.")
	cmd.Flags().BoolVar(&args.skipPassed, "skip-passed", false, "Skip printing on stdout the passed test names.")
	cmd.Flags().BoolVar(&args.skipSkipped, "skip-skipped", false, "Skip printing on stdout the skipped test names.")
	cmd.Flags().BoolVar(&args.strict, "strict", false, "Return an error when the file is missing or malformed.")
	return cmd
}

func parseJUnitRun(cmd *cobra.Command, source string, args *parseJUnitInput) error {
	s, err := report.AggregateContext(cmd.Context(), source)
	if err != nil {
		if args.strict {
			return fmt.Errorf("error parsing JUnit file: %w", err)
		}
		log.WithError(err).Warn("using an empty summary")
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), report.RenderConsole(s, report.ConsoleOptions{
		SkipPassed:  args.skipPassed,
		SkipFailed:  args.skipFailed,
		SkipSkipped: args.skipSkipped,
	}))
	return err
}
