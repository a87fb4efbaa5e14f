package reporting

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format. HTML generation was
// carried by the upstream tool's formatter but has no analogue here: a
// triage run's group membership is a pure/ground-truth comparison that
// reads better as text or raw JSON than as a styled document, and pkg/result
// already owns the domain-specific group/summary file layout.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from a TriageReport.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{
		logger: logger,
	}
}

// GenerateReport generates a report in the specified format.
func (f *Formatter) GenerateReport(report *TriageReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// generateTextReport generates a plain text report.
func (f *Formatter) generateTextReport(report *TriageReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   TRIAGE REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", report.Status))
	buf.WriteString(fmt.Sprintf("Run ID:       %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Crash Dir:    %s\n", report.CrashDir))
	buf.WriteString(fmt.Sprintf("Non-crash Dir:%s\n", report.NonCrashDir))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	buf.WriteString(fmt.Sprintf("Failing:      %d\n", report.NumFailingTraces))
	buf.WriteString(fmt.Sprintf("Passing:      %d\n", report.NumPassingTraces))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	if len(report.Groups) > 0 {
		buf.WriteString("GROUPS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for _, g := range report.Groups {
			buf.WriteString(fmt.Sprintf("%d. %d members\n", g.Index, g.Size))
		}
		buf.WriteString("\n")
	}

	if report.Score != nil {
		s := report.Score
		buf.WriteString("GROUND TRUTH\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(fmt.Sprintf("Clusters:        %d\n", s.NumClusters))
		buf.WriteString(fmt.Sprintf("Overcounted:     %d\n", s.NumOvercount))
		buf.WriteString(fmt.Sprintf("Undercounted:    %d\n", s.NumUndercount))
		buf.WriteString(fmt.Sprintf("Completely Lost: %d\n", s.NumCompletelyLost))
		buf.WriteString(fmt.Sprintf("Purity:          %v\n", s.Purity))
		buf.WriteString(fmt.Sprintf("Inverse Purity:  %v\n", s.InversePurity))
		buf.WriteString(fmt.Sprintf("F-measure:       %v\n", s.FMeasure))
		for _, bug := range s.LostBugs {
			buf.WriteString(fmt.Sprintf("Bug %s has no distinct cluster and was lost\n", bug))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("Text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report for multiple triage runs,
// sorted by start time.
func (f *Formatter) CompareReports(reports []*TriageReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   TRIAGE RUN COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})

	buf.WriteString(fmt.Sprintf("%-20s %-12s %-10s %-10s %-10s\n",
		"Run ID", "Status", "Duration", "Groups", "Lost Bugs"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	for _, report := range reports {
		lost := 0
		if report.Score != nil {
			lost = report.Score.NumCompletelyLost
		}
		buf.WriteString(fmt.Sprintf("%-20s %-12s %-10s %-10d %-10d\n",
			report.RunID[:min(20, len(report.RunID))],
			report.Status,
			report.Duration,
			len(report.Groups),
			lost,
		))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}

	f.logger.Info("Comparison report generated", "path", outputPath)
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
