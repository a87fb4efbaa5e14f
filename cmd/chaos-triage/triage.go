package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/chaos-triage/pkg/dedup"
	"github.com/jihwankim/chaos-triage/pkg/metrics"
	"github.com/jihwankim/chaos-triage/pkg/reporting"
	"github.com/jihwankim/chaos-triage/pkg/result"
	"github.com/jihwankim/chaos-triage/pkg/score"
	"github.com/jihwankim/chaos-triage/pkg/trace"
)

var (
	crashDir    string
	nonCrashDir string
	outDir      string
	logFile     string
	metricsAddr string
	outFormat   string
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Deduplicate failing traces into bug groups",
	RunE:  runTriage,
}

func init() {
	triageCmd.Flags().StringVarP(&crashDir, "crash_dir", "c", "", "directory of failing traces (required)")
	triageCmd.Flags().StringVarP(&nonCrashDir, "non_crash_dir", "n", "", "directory of passing traces (required)")
	triageCmd.Flags().StringVarP(&outDir, "out_dir", "o", "", "directory to write group files (default from config)")
	triageCmd.Flags().StringVarP(&logFile, "log_file", "l", "", "log output file (default stderr)")
	triageCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics on (disables metrics if empty and config disables them too)")
	triageCmd.Flags().StringVar(&outFormat, "format", "", "progress output format: text or json (default from config)")

	_ = triageCmd.MarkFlagRequired("crash_dir")
	_ = triageCmd.MarkFlagRequired("non_crash_dir")
}

func runTriage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if outDir == "" {
		outDir = cfg.Reporting.OutputDir
	}
	if outFormat == "" {
		outFormat = cfg.Reporting.Format
	}
	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Addr
	}

	logOutput := os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}

	runID := newRunID()
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevel(cfg.Logging.Level),
		Format: reporting.LogFormat(cfg.Logging.Format),
		Output: logOutput,
	}).WithRun(runID)

	progress := reporting.NewProgressReporter(reporting.OutputFormat(outFormat), logger)

	var collector *metrics.Collector
	var cancelMetrics context.CancelFunc
	if metricsAddr != "" {
		collector = metrics.NewCollector()
		var ctx context.Context
		ctx, cancelMetrics = context.WithCancel(context.Background())
		go func() {
			if err := metrics.Server(ctx, metricsAddr, collector); err != nil {
				logger.Error("metrics server exited", "error", err)
			}
		}()
		defer cancelMetrics()
	}

	startTime := time.Now()

	logger.Info("loading traces", "crash_dir", crashDir, "non_crash_dir", nonCrashDir)
	failing, err := trace.LoadDir(crashDir)
	if err != nil {
		return fmt.Errorf("failed to load crash traces: %w", err)
	}
	passing, err := trace.LoadDir(nonCrashDir)
	if err != nil {
		return fmt.Errorf("failed to load non-crash traces: %w", err)
	}
	logger.Info("traces loaded", "failing", len(failing), "passing", len(passing))

	engine := dedup.NewEngine(logger)
	engine.OnIteration = func(ev dedup.IterationEvent) {
		if collector != nil {
			collector.Observe(ev.FailingBefore, ev.PassingBefore, ev.CandidateCount, ev.GroupSize)
		}
		progress.ReportIteration(ev.Iteration, ev.FailingBefore, ev.PassingBefore, ev.SelectedBlock, ev.GroupSize, ev.Terminal)
	}

	groups, err := engine.Run(failing, passing)
	if err != nil {
		return fmt.Errorf("deduplication failed: %w", err)
	}

	if err := result.WriteGroups(outDir, groups); err != nil {
		return fmt.Errorf("failed to write groups: %w", err)
	}

	r := score.Analyze(groupIDs(groups), cfg.Score.Percentage)
	if err := result.WriteSummary(filepath.Join(outDir, "summary"), r); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	endTime := time.Now()
	report := &reporting.TriageReport{
		RunID:            runID,
		CrashDir:         crashDir,
		NonCrashDir:      nonCrashDir,
		StartTime:        startTime,
		EndTime:          endTime,
		Duration:         endTime.Sub(startTime).String(),
		Status:           reporting.StatusCompleted,
		NumFailingTraces: len(failing),
		NumPassingTraces: len(passing),
		Groups:           groupSummaries(groups),
		Score:            scoreSummary(r),
	}

	storage, err := reporting.NewStorage(outDir, 0, logger)
	if err != nil {
		return fmt.Errorf("failed to create report storage: %w", err)
	}
	if _, err := storage.SaveReport(report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	progress.ReportRunCompleted(report)
	return nil
}

func groupSummaries(groups []dedup.Group) []reporting.GroupSummary {
	out := make([]reporting.GroupSummary, len(groups))
	for i, g := range groups {
		out[i] = reporting.GroupSummary{Index: i, Size: len(g), Members: g}
	}
	return out
}

// groupIDs converts dedup's named group type into the plain string slices
// pkg/score analyzes against ground-truth bug labels.
func groupIDs(groups []dedup.Group) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = []string(g)
	}
	return out
}

func scoreSummary(r score.Result) *reporting.ScoreSummary {
	return &reporting.ScoreSummary{
		NumClusters:       r.NumClusters,
		NumOvercount:      r.NumOvercount,
		NumUndercount:     r.NumUndercount,
		NumCompletelyLost: r.NumCompletelyLost,
		Purity:            r.Purity,
		InversePurity:     r.InversePurity,
		FMeasure:          r.FMeasure,
		LostBugs:          r.LostBugs,
	}
}

func newRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "run-unknown"
	}
	return "run-" + hex.EncodeToString(buf)
}
