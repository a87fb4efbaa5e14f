package score_test

import (
	"testing"

	"github.com/jihwankim/chaos-triage/pkg/score"
	"github.com/stretchr/testify/assert"
)

func TestBugLabelFromParentDir(t *testing.T) {
	assert.Equal(t, "heap-overflow", score.BugLabel("heap-overflow/case-001"))
	assert.Equal(t, "nested", score.BugLabel("heap-overflow/nested/case-001"))
	assert.Equal(t, "", score.BugLabel("case-001"))
}

func TestAnalyzePerfectClustering(t *testing.T) {
	// Every group is pure and every bug owns exactly one cluster.
	groups := [][]string{
		{"bugA/t1", "bugA/t2"},
		{"bugB/t1", "bugB/t2"},
	}
	r := score.Analyze(groups, false)

	assert.Equal(t, 2, r.NumClusters)
	assert.Equal(t, 0, r.NumOvercount)
	assert.Equal(t, 0, r.NumUndercount)
	assert.Equal(t, 0, r.NumCompletelyLost)
	assert.InDelta(t, 1.0, r.Purity, 1e-9)
	assert.InDelta(t, 1.0, r.InversePurity, 1e-9)
	assert.InDelta(t, 1.0, r.FMeasure, 1e-9)
	assert.Empty(t, r.LostBugs)
}

func TestAnalyzeOvercounting(t *testing.T) {
	// bugA's traces are split across two clusters.
	groups := [][]string{
		{"bugA/t1"},
		{"bugA/t2", "bugB/t1"},
	}
	r := score.Analyze(groups, false)

	assert.Equal(t, 1, r.NumOvercount)
	assert.Len(t, r.OvercountNotices, 1)
}

func TestAnalyzeUndercounting(t *testing.T) {
	// One cluster mixes traces from two distinct bugs.
	groups := [][]string{
		{"bugA/t1", "bugB/t1"},
	}
	r := score.Analyze(groups, false)

	assert.Equal(t, 1, r.NumUndercount)
	assert.Len(t, r.UndercountNotices, 1)
}

func TestAnalyzeLostBug(t *testing.T) {
	// bugA never gets a cluster it doesn't share with bugB.
	groups := [][]string{
		{"bugA/t1", "bugB/t1"},
		{"bugA/t2", "bugB/t2"},
	}
	r := score.Analyze(groups, false)

	assert.Equal(t, 2, r.NumCompletelyLost)
	assert.ElementsMatch(t, []string{"bugA", "bugB"}, r.LostBugs)
}

func TestAnalyzePercentageRounding(t *testing.T) {
	groups := [][]string{
		{"bugA/t1", "bugA/t2"},
		{"bugB/t1", "bugB/t2"},
	}
	r := score.Analyze(groups, true)

	assert.Equal(t, 100.0, r.Purity)
	assert.Equal(t, 100.0, r.InversePurity)
	assert.Equal(t, 100.0, r.FMeasure)
}

func TestAnalyzeEmptyGroups(t *testing.T) {
	r := score.Analyze(nil, false)
	assert.Equal(t, 0, r.NumClusters)
	assert.Equal(t, 0.0, r.Purity)
}
