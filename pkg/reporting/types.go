package reporting

import "time"

// TriageReport represents a complete deduplication run, from the crash and
// non-crash directories it was pointed at through to the groups it emitted
// and the ground-truth metrics over them.
type TriageReport struct {
	// Run metadata
	RunID       string    `json:"run_id"`
	CrashDir    string    `json:"crash_dir"`
	NonCrashDir string    `json:"non_crash_dir"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    string    `json:"duration"`

	// Run result
	Status  RunStatus `json:"status"`
	Message string    `json:"message,omitempty"`

	// Input sizes
	NumFailingTraces int `json:"num_failing_traces"`
	NumPassingTraces int `json:"num_passing_traces"`

	// Groups emitted by the deduplication loop
	Groups []GroupSummary `json:"groups"`

	// Ground-truth analysis for this run's groups. Nil only for reports
	// loaded from older storage files saved before scoring was wired into
	// every run.
	Score *ScoreSummary `json:"score,omitempty"`

	// Errors encountered
	Errors []string `json:"errors,omitempty"`
}

// RunStatus represents the outcome of a triage run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// GroupSummary describes one emitted group.
type GroupSummary struct {
	Index   int      `json:"index"`
	Size    int      `json:"size"`
	Members []string `json:"members"`
}

// ScoreSummary mirrors pkg/score.Result in a JSON-friendly shape, kept
// independent of that package's types so a stored report remains loadable
// even if the scoring internals change shape.
type ScoreSummary struct {
	NumClusters       int      `json:"num_clusters"`
	NumOvercount      int      `json:"num_overcount"`
	NumUndercount     int      `json:"num_undercount"`
	NumCompletelyLost int      `json:"num_completely_lost"`
	Purity            float64  `json:"purity"`
	InversePurity     float64  `json:"inverse_purity"`
	FMeasure          float64  `json:"f_measure"`
	LostBugs          []string `json:"lost_bugs,omitempty"`
}
