package report

import (
	"time"

	"github.com/montanaflynn/stats"
)

// DurationStats summarizes the time attribute of the records. Records
// reporting no time are ignored.
type DurationStats struct {
	Count  int           `json:"count" yaml:"count"`
	Total  time.Duration `json:"total" yaml:"total"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	Median time.Duration `json:"median" yaml:"median"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	Max    time.Duration `json:"max" yaml:"max"`
}

// Durations computes the duration statistics of the summary cases.
func (s ReportSummary) Durations() DurationStats {
	var data stats.Float64Data
	for _, c := range s.cases {
		if c.Duration > 0 {
			data = append(data, c.Duration.Seconds())
		}
	}
	ds := DurationStats{Count: data.Len()}
	if ds.Count == 0 {
		return ds
	}
	sum, _ := stats.Sum(data)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	p90, _ := stats.Percentile(data, 90)
	max, _ := stats.Max(data)

	ds.Total = seconds(sum)
	ds.Mean = seconds(mean)
	ds.Median = seconds(median)
	ds.P90 = seconds(p90)
	ds.Max = seconds(max)
	return ds
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second)).Round(time.Millisecond)
}
