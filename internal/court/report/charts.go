// Package report renders MatchSnapshot data to standalone HTML pages
// with go-echarts. This is a debugging/review surface, not the product
// dashboard: the dashboard consumes the JSON snapshot directly.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/rally.report/internal/court"
)

// viridisColors matches the perceptually-uniform ramp used across the
// project's debug charts.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// Render writes a single HTML page with the ball-placement heatmap, the
// player-occupancy heatmap, and the rally-duration bar chart.
func Render(snap *court.MatchSnapshot, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "rally.report match summary"

	page.AddCharts(
		heatmapChart("Ball placement", snap.BallHeatmap),
		heatmapChart("Player occupancy", snap.OccupancyHeatmap),
		rallyChart(snap.Rallies),
	)

	return page.Render(w)
}

// RenderFile renders the page to a file.
func RenderFile(snap *court.MatchSnapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := Render(snap, f); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func heatmapChart(title string, h *court.Heatmap) *charts.HeatMap {
	hm := charts.NewHeatMap()

	var maxCount int64 = 1
	data := make([]opts.HeatMapData, 0, h.Cols*h.Rows)
	for row := 0; row < h.Rows; row++ {
		for col := 0; col < h.Cols; col++ {
			count := h.At(col, row)
			if count == 0 {
				continue
			}
			if count > maxCount {
				maxCount = count
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, row, count}})
		}
	}

	xLabels := make([]string, h.Cols)
	for i := range xLabels {
		xLabels[i] = fmt.Sprintf("%d", i)
	}
	yLabels := make([]string, h.Rows)
	for i := range yLabels {
		yLabels[i] = fmt.Sprintf("%d", i)
	}

	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d samples over a %dx%d grid", h.Samples, h.Cols, h.Rows),
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)

	hm.AddSeries(title, data)
	return hm
}

func rallyChart(rallies []court.Rally) *charts.Bar {
	bar := charts.NewBar()

	labels := make([]string, len(rallies))
	durations := make([]opts.BarData, len(rallies))
	shots := make([]opts.BarData, len(rallies))
	for i, r := range rallies {
		labels[i] = fmt.Sprintf("R%d", i+1)
		durations[i] = opts.BarData{Value: r.Duration()}
		shots[i] = opts.BarData{Value: len(r.Shots)}
	}

	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Rallies",
			Subtitle: fmt.Sprintf("%d sealed", len(rallies)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(labels).
		AddSeries("duration (s)", durations).
		AddSeries("shots", shots)
	return bar
}
