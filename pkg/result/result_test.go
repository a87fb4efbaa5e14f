package result_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jihwankim/chaos-triage/pkg/dedup"
	"github.com/jihwankim/chaos-triage/pkg/result"
	"github.com/jihwankim/chaos-triage/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadGroupsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	groups := []dedup.Group{
		{"bugA/t1", "bugA/t2"},
		{"bugB/t1"},
	}

	require.NoError(t, result.WriteGroups(dir, groups))

	got, err := result.ReadGroups(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"bugA/t1", "bugA/t2"}, got[0])
	assert.ElementsMatch(t, []string{"bugB/t1"}, got[1])
}

func TestReadGroupsSkipsSummaryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary"), []byte("ignored\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0"), []byte("bugA/t1\n"), 0o644))

	got, err := result.ReadGroups(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bugA/t1"}, got[0])
}

func TestWriteSummaryOrdering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary")

	r := score.Result{
		NumClusters:       3,
		NumOvercount:      1,
		NumUndercount:     1,
		NumCompletelyLost: 1,
		Purity:            0.9,
		InversePurity:     0.8,
		FMeasure:          0.85,
		LostBugs:          []string{"bugC"},
		OvercountNotices:  []string{"Overcounting bug_type bugA: present in 2 clusters."},
		UndercountNotices: []string{"Undercounting present at cluster 0: ['bugA', 'bugB']"},
	}
	require.NoError(t, result.WriteSummary(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Overcounting")
	assert.Contains(t, lines[1], "Undercounting")
	assert.Contains(t, lines[2], `"num_clusters":3`)
	assert.Contains(t, lines[3], "bugC has no distinct cluster")
}

func TestWriteSummaryTruncatesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o644))

	require.NoError(t, result.WriteSummary(path, score.Result{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale content")
}
