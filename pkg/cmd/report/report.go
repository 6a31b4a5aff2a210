package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/pkg"
)

const (
	OutputText    = "text"
	OutputHTML    = "html"
	OutputJSON    = "json"
	OutputYAML    = "yaml"
	OutputConsole = "console"
	OutputNone    = "none"
)

type Input struct {
	output        string
	saveTo        string
	serverAddress string
	serverSkip    bool
}

func NewCmdReport() *cobra.Command {
	data := Input{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the report of a JUnit artifact without sending it.",
		Example: `  e2e-notifier report --artifact reports/junit.xml --output html > report.html
  e2e-notifier report --save-to ./results --server-address 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return pkg.BindFlags(viper.GetViper(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pkg.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			return processResult(cmd.Context(), cmd.OutOrStdout(), cfg, &data)
		},
	}

	pkg.AddBuildFlags(cmd.Flags())
	cmd.Flags().StringVarP(
		&data.output, "output", "o", OutputText,
		"Output format: text, html, json, yaml, console or none.",
	)
	cmd.Flags().StringVarP(
		&data.saveTo, pkg.KeySaveTo, "s", "",
		"Save the report files to disk. Example: -s ./results",
	)
	cmd.Flags().StringVarP(
		&data.serverAddress, "server-address", "", "",
		"Serve the saved files over HTTP when --save-to is used. Example: --server-address 0.0.0.0:9090",
	)
	cmd.Flags().BoolVarP(
		&data.serverSkip, "server-skip", "", false,
		"Do not start the HTTP server even when --server-address is set.",
	)

	return cmd
}

// processResult aggregates the artifact and writes the report in the
// requested format.
func processResult(ctx context.Context, w io.Writer, cfg *pkg.Config, input *Input) error {
	re, err := cfg.NewRenderer()
	if err != nil {
		return err
	}
	p := pkg.NewPipeline(cfg)
	r, err := p.BuildReport(ctx, re)
	if err != nil {
		return err
	}

	if input.saveTo != "" {
		if _, err := r.SaveResults(input.saveTo); err != nil {
			return err
		}
		log.Infof("results saved to %s", input.saveTo)
	}

	if err := show(w, r, input.output); err != nil {
		return err
	}

	// run http server to serve static report
	if input.saveTo != "" && input.serverAddress != "" && !input.serverSkip {
		return serve(ctx, input.saveTo, input.serverAddress)
	}
	if input.saveTo != "" {
		abs, _ := filepath.Abs(input.saveTo)
		log.Infof("To read the report open your browser and navigate to file://%s/%s", abs, report.ReportFileNameHTML)
	}
	return nil
}

func show(w io.Writer, r *report.Report, output string) error {
	var (
		out string
		err error
	)
	switch output {
	case OutputText:
		out = r.Rendered.Subject + "\n\n" + r.Rendered.Text
	case OutputHTML:
		out = r.Rendered.HTML
	case OutputJSON:
		out, err = r.ShowJSON()
	case OutputYAML:
		out, err = r.ShowYAML()
	case OutputConsole:
		out = r.Rendered.Subject + "\n\n" + report.RenderConsole(r.Summary, report.ConsoleOptions{})
	case OutputNone:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func serve(ctx context.Context, dir, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	srv := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("The report server is available in http://%s/%s", address, report.ReportFileNameHTML)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "unable to start the report server at address %s", address)
	}
	return nil
}
