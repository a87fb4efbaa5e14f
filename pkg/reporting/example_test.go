package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/jihwankim/chaos-triage/pkg/reporting"
)

// Example demonstrates the reporting package usage.
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("Triage run starting")
	logger.Info("Traces loaded", "failing", 42, "passing", 310)

	storage, err := reporting.NewStorage("./triage-reports", 10, logger)
	if err != nil {
		fmt.Printf("Failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./triage-reports")

	report := &reporting.TriageReport{
		RunID:            "run-12345",
		CrashDir:         "./crashes",
		NonCrashDir:      "./non-crashes",
		StartTime:        time.Now().Add(-2 * time.Minute),
		EndTime:          time.Now(),
		Duration:         "2m0s",
		Status:           reporting.StatusCompleted,
		NumFailingTraces: 42,
		NumPassingTraces: 310,
		Groups: []reporting.GroupSummary{
			{Index: 0, Size: 30, Members: []string{"heap-overflow/t1", "heap-overflow/t2"}},
			{Index: 1, Size: 12, Members: []string{"use-after-free/t1"}},
		},
		Score: &reporting.ScoreSummary{
			NumClusters:   2,
			Purity:        97,
			InversePurity: 95,
			FMeasure:      96,
		},
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
		return
	}

	fmt.Printf("Report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("Failed to list reports: %v\n", err)
		return
	}

	fmt.Printf("Found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s\n", summary.RunID, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("Failed to load report: %v\n", err)
		return
	}

	fmt.Printf("Loaded report for run: %s\n", loadedReport.RunID)

	formatter := reporting.NewFormatter(logger)

	textPath := "./triage-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("Failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("Text report generated\n")

	// Output will vary due to timestamps, so we don't include it
}
