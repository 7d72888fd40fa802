package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vicanso/go-charts/v2"

	"github.com/yourusername/gmf-engine/internal/backtest"
)

// RenderTrackChart renders the strategy track, and the benchmark when
// present, as a PNG line chart
func RenderTrackChart(report *backtest.PerformanceReport, result *backtest.RunResult, outputPath string) error {
	if len(result.Track) == 0 {
		return fmt.Errorf("empty track")
	}

	series := [][]float64{trackValues(result.Track)}
	legend := []string{"strategy"}
	if result.Benchmark != nil {
		series = append(series, trackValues(result.Benchmark))
		legend = append(legend, "benchmark")
	}

	xLabels := make([]string, len(result.Track))
	for i, p := range result.Track {
		if len(result.Track) <= 60 {
			xLabels[i] = p.Time.Format("Jan 02")
		} else {
			xLabels[i] = p.Time.Format("Jan '06")
		}
	}

	yMin, yMax := axisRange(series)

	title := "Dynamic Portfolio Backtest"
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
		report.Strategy.AnnualizedReturn*100, report.Strategy.SharpeRatio,
		report.Strategy.AnnualizedVol*100, report.Strategy.MaxDrawdown*100)

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(title, subtitle),
		charts.LegendOptionFunc(charts.LegendOption{Data: legend}),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf, 0o644)
}

func trackValues(track backtest.CumulativeTrack) []float64 {
	values := make([]float64, len(track))
	for i, p := range track {
		values[i] = p.Value
	}
	return values
}

func axisRange(series [][]float64) (float64, float64) {
	minVal, maxVal := series[0][0], series[0][0]
	for _, s := range series {
		for _, v := range s {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	return minVal - padding, maxVal + padding
}
