package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Storage persists one JSON file per triage run alongside that run's group
// files, and lets a caller list, load, or prune them afterward.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Storage{
		outputDir: outputDir,
		keepLastN: keepLastN,
		logger:    logger,
	}, nil
}

// SaveReport saves a triage report to a JSON file.
func (s *Storage) SaveReport(report *TriageReport) (string, error) {
	timestamp := report.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("triage-%s-%s.json", timestamp, report.RunID)
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	s.logger.Info("Triage report saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			s.logger.Warn("Failed to cleanup old reports", "error", err)
		}
	}

	return path, nil
}

// LoadReport loads a triage report from a JSON file.
func (s *Storage) LoadReport(path string) (*TriageReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report TriageReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// ListReports lists all triage reports in the output directory.
func (s *Storage) ListReports() ([]ReportSummary, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	summaries := make([]ReportSummary, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		report, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("Failed to load report", "path", path, "error", err)
			continue
		}

		summary := ReportSummary{
			RunID:     report.RunID,
			StartTime: report.StartTime,
			Duration:  report.Duration,
			Status:    report.Status,
			NumGroups: len(report.Groups),
			Filepath:  path,
		}
		if report.Score != nil {
			summary.FMeasure = report.Score.FMeasure
			summary.NumCompletelyLost = report.Score.NumCompletelyLost
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})

	return summaries, nil
}

// BestReports returns up to n report summaries sorted by F-measure
// descending (ties broken by most recent first), so a corpus run
// repeatedly against tuned parameters can surface its best-scoring attempt
// without re-reading every report file by hand.
func (s *Storage) BestReports(n int) ([]ReportSummary, error) {
	summaries, err := s.ListReports()
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].FMeasure != summaries[j].FMeasure {
			return summaries[i].FMeasure > summaries[j].FMeasure
		}
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})

	if n >= 0 && n < len(summaries) {
		summaries = summaries[:n]
	}
	return summaries, nil
}

// FindReportByRunID finds a report by run ID.
func (s *Storage) FindReportByRunID(runID string) (*TriageReport, error) {
	summaries, err := s.ListReports()
	if err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		if summary.RunID == runID {
			return s.LoadReport(summary.Filepath)
		}
	}

	return nil, fmt.Errorf("report not found for run ID: %s", runID)
}

// cleanupOldReports removes old report files, keeping only the last N.
func (s *Storage) cleanupOldReports() error {
	summaries, err := s.ListReports()
	if err != nil {
		return err
	}

	if len(summaries) <= s.keepLastN {
		return nil
	}

	toDelete := summaries[s.keepLastN:]
	for _, summary := range toDelete {
		if err := os.Remove(summary.Filepath); err != nil {
			s.logger.Warn("Failed to delete old report", "path", summary.Filepath, "error", err)
		} else {
			s.logger.Debug("Deleted old report", "path", summary.Filepath)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path.
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}

// ReportSummary contains a summary of a triage report, including its
// ground-truth scores when the report carried one, so a caller can compare
// runs from the listing alone; ListReports itself loads each full report
// file to build it.
type ReportSummary struct {
	RunID             string    `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	Duration          string    `json:"duration"`
	Status            RunStatus `json:"status"`
	NumGroups         int       `json:"num_groups"`
	FMeasure          float64   `json:"f_measure,omitempty"`
	NumCompletelyLost int       `json:"num_completely_lost,omitempty"`
	Filepath          string    `json:"filepath"`
}
