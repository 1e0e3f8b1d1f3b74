package probe

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gocarina/gocsv"
)

// WriteProfileCSV writes samples as CSV with a header row.
func WriteProfileCSV(w io.Writer, samples []Sample) error {
	if err := gocsv.Marshal(samples, w); err != nil {
		return fmt.Errorf("writing profile csv: %w", err)
	}
	return nil
}

// ProfileChart builds a line chart of magnitude against r/scale, with the
// located peak as a second series.
func ProfileChart(samples []Sample, peak Peak, subtitle string) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			BackgroundColor: "#ffffff",
			Width:           "100%",
			Height:          "600px",
			PageTitle:       "Shift field radial profile",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Radial profile |β(r)|",
			Subtitle: subtitle,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "r / scale",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "|β|",
			Type: "value",
			Show: opts.Bool(true),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	x := make([]string, len(samples))
	magnitude := make([]opts.LineData, len(samples))
	marker := make([]opts.LineData, len(samples))
	nearest := nearestSample(samples, peak.R)
	for i, s := range samples {
		x[i] = fmt.Sprintf("%.3f", s.RScales)
		magnitude[i] = opts.LineData{Value: s.Magnitude}
		marker[i] = opts.LineData{Value: nil}
		if i == nearest {
			marker[i] = opts.LineData{Value: peak.Magnitude, Symbol: "diamond", SymbolSize: 12}
		}
	}
	line.SetXAxis(x)
	line.AddSeries("magnitude", magnitude)
	if nearest >= 0 {
		line.AddSeries(fmt.Sprintf("peak r=%.4g m", peak.R), marker)
	}
	return line
}

// WriteProfileHTML renders the profile chart as a standalone HTML page.
func WriteProfileHTML(w io.Writer, samples []Sample, peak Peak, subtitle string) error {
	if err := ProfileChart(samples, peak, subtitle).Render(w); err != nil {
		return fmt.Errorf("rendering profile chart: %w", err)
	}
	return nil
}

// nearestSample returns the index of the sample closest to radius r, or -1
// for an empty profile.
func nearestSample(samples []Sample, r float64) int {
	best := -1
	for i, s := range samples {
		if best < 0 || abs(s.R-r) < abs(samples[best].R-r) {
			best = i
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
