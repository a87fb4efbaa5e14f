package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format. The upstream tool's
// TUI mode (full-screen ANSI redraw) has no analogue for a batch
// deduplication pass: iterations complete in milliseconds and there is no
// live state worth repainting a screen over, so only text and JSON survive.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter reports deduplication run progress.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportIteration reports one deduplication loop iteration.
func (pr *ProgressReporter) ReportIteration(iteration, failingBefore, passingBefore int, block string, groupSize int, terminal bool) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":          "iteration",
			"iteration":      iteration,
			"failing_before": failingBefore,
			"passing_before": passingBefore,
			"block":          block,
			"group_size":     groupSize,
			"terminal":       terminal,
			"timestamp":      time.Now(),
		})
		fmt.Println(string(data))
	default:
		if block == "" {
			fmt.Printf("[ITER %d] no discriminating block, failing=%d passing=%d\n", iteration, failingBefore, passingBefore)
			return
		}
		fmt.Printf("[ITER %d] block=%s claimed=%d failing=%d passing=%d terminal=%v\n",
			iteration, block, groupSize, failingBefore, passingBefore, terminal)
	}
}

// ReportRunCompleted reports the completion of a triage run.
func (pr *ProgressReporter) ReportRunCompleted(report *TriageReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "run_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		pr.printTextSummary(report)
	}
}

// printTextSummary prints a run summary in plain text format.
func (pr *ProgressReporter) printTextSummary(report *TriageReport) {
	status := "COMPLETED"
	if report.Status == StatusFailed {
		status = "FAILED"
	}

	fmt.Printf("\n[RUN SUMMARY] %s\n", status)
	fmt.Printf("  Run ID:   %s\n", report.RunID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Failing:  %d\n", report.NumFailingTraces)
	fmt.Printf("  Passing:  %d\n", report.NumPassingTraces)
	fmt.Printf("  Groups:   %d\n", len(report.Groups))

	if report.Score != nil {
		s := report.Score
		fmt.Printf("  Purity: %v  Inverse Purity: %v  F-measure: %v\n", s.Purity, s.InversePurity, s.FMeasure)
		fmt.Printf("  Overcounted: %d  Undercounted: %d  Lost: %d\n", s.NumOvercount, s.NumUndercount, s.NumCompletelyLost)
	}
	fmt.Println(strings.Repeat("-", 40))
}
