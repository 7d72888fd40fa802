// Package report renders backtest results as console text, JSON files and
// chart images.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/gmf-engine/internal/backtest"
)

// GenerateConsoleReport formats a performance report for terminal output
func GenerateConsoleReport(report *backtest.PerformanceReport, result *backtest.RunResult) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", result.ID))
	builder.WriteString(fmt.Sprintf("Periods: %d (%d skipped)\n", len(result.Periods), countSkipped(result)))
	builder.WriteString(fmt.Sprintf("Duration: %s\n\n", result.Duration))
	writeSummary(&builder, report.Strategy)
	if report.Benchmark != nil {
		builder.WriteString("\n")
		writeSummary(&builder, *report.Benchmark)
	}
	return builder.String()
}

func writeSummary(builder *strings.Builder, s backtest.TrackSummary) {
	builder.WriteString(fmt.Sprintf("[%s]\n", s.Name))
	builder.WriteString(fmt.Sprintf("Final Value: %.4f\n", s.FinalValue))
	builder.WriteString(fmt.Sprintf("Annualized Return: %.2f%%\n", s.AnnualizedReturn*100))
	builder.WriteString(fmt.Sprintf("Annualized Volatility: %.2f%%\n", s.AnnualizedVol*100))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", s.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", s.MaxDrawdown*100))
}

// ExportJSON writes the report and run result to a JSON file
func ExportJSON(report *backtest.PerformanceReport, result *backtest.RunResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	payload := struct {
		Report *backtest.PerformanceReport `json:"report"`
		Result *backtest.RunResult         `json:"result"`
	}{Report: report, Result: result}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// ExportTrackCSV writes the cumulative track to a CSV file
func ExportTrackCSV(track backtest.CumulativeTrack, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(track.ToCSV()), 0o644)
}

func countSkipped(result *backtest.RunResult) int {
	n := 0
	for _, p := range result.Periods {
		if p.Skipped {
			n++
		}
	}
	return n
}
