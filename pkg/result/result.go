// Package result writes emitted deduplication groups and ground-truth
// summaries to disk, in the layout the scoring tooling expects to read
// back.
package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jihwankim/chaos-triage/pkg/dedup"
	"github.com/jihwankim/chaos-triage/pkg/score"
)

// WriteGroups writes one file per group under dir, named by ordinal index
// ("0", "1", ...), each line holding one trace identifier claimed by that
// group. dir is created if absent.
func WriteGroups(dir string, groups []dedup.Group) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating group directory: %w", err)
	}
	for i, g := range groups {
		path := filepath.Join(dir, strconv.Itoa(i))
		if err := writeLines(path, g); err != nil {
			return fmt.Errorf("writing group %d: %w", i, err)
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}

// ReadGroups parses a directory of group files written by WriteGroups (or
// by the reference tool it mirrors) back into trace-identifier slices. Any
// file named "summary" is skipped, and empty groups are dropped.
func ReadGroups(dir string) ([][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading group directory: %w", err)
	}

	var groups [][]string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "summary" {
			continue
		}
		lines, err := readLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading group file %s: %w", entry.Name(), err)
		}
		if len(lines) > 0 {
			groups = append(groups, lines)
		}
	}
	return groups, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if line := trimCR(data[start:i]); len(line) > 0 {
				lines = append(lines, string(line))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		if line := trimCR(data[start:]); len(line) > 0 {
			lines = append(lines, string(line))
		}
	}
	return lines, nil
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// metricsLine is the JSON object written to the summary file, field order
// matching the reference tool's ground_truth_results dict.
type metricsLine struct {
	NumClusters       int     `json:"num_clusters"`
	NumOvercount      int     `json:"num_overcount"`
	NumUndercount     int     `json:"num_undercount"`
	NumCompletelyLost int     `json:"num_completely_lost"`
	Purity            float64 `json:"purity"`
	InversePurity     float64 `json:"inverse_purity"`
	FMeasure          float64 `json:"f_measure"`
}

// WriteSummary writes the ground-truth analysis summary to path, in the
// reference tool's append order: overcount notices (which also truncate
// the file), then undercount notices, then one JSON metrics line, then one
// line per completely-lost bug.
func WriteSummary(path string, r score.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}
	defer f.Close()

	for _, notice := range r.OvercountNotices {
		if _, err := fmt.Fprintln(f, notice); err != nil {
			return err
		}
	}
	for _, notice := range r.UndercountNotices {
		if _, err := fmt.Fprintln(f, notice); err != nil {
			return err
		}
	}

	metrics := metricsLine{
		NumClusters:       r.NumClusters,
		NumOvercount:      r.NumOvercount,
		NumUndercount:     r.NumUndercount,
		NumCompletelyLost: r.NumCompletelyLost,
		Purity:            r.Purity,
		InversePurity:     r.InversePurity,
		FMeasure:          r.FMeasure,
	}
	encoded, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	if _, err := fmt.Fprintln(f, string(encoded)); err != nil {
		return err
	}

	for _, bug := range r.LostBugs {
		if _, err := fmt.Fprintf(f, "Bug %s has no distinct cluster and will be lost\n", bug); err != nil {
			return err
		}
	}
	return nil
}
