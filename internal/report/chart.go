package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// NewOutcomeChart creates a pie chart with the outcome counters.
func NewOutcomeChart(bc BuildContext, s ReportSummary) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s #%s", bc.JobName, bc.BuildNumber),
			Subtitle: fmt.Sprintf("%d/%d tests passed", s.Passed(), s.Total()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
	)
	pie.AddSeries("outcomes", []opts.PieData{
		{Name: OutcomePassed.String(), Value: s.Passed(), ItemStyle: &opts.ItemStyle{Color: BuildSuccess.Color()}},
		{Name: OutcomeFailed.String(), Value: s.Failed(), ItemStyle: &opts.ItemStyle{Color: BuildFailure.Color()}},
		{Name: OutcomeSkipped.String(), Value: s.Skipped(), ItemStyle: &opts.ItemStyle{Color: BuildUnstable.Color()}},
	})
	return pie
}

// RenderChartPage writes the html page with the outcome chart.
func RenderChartPage(w io.Writer, bc BuildContext, s ReportSummary) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s #%s - test outcomes", bc.JobName, bc.BuildNumber)
	page.AddCharts(NewOutcomeChart(bc, s))
	return page.Render(w)
}
