// Package score computes ground-truth clustering-quality metrics for a set
// of emitted groups, given that each trace identifier's directory component
// names the bug it truly belongs to.
package score

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// BugLabel returns the ground-truth bug label for a trace identifier: the
// name of its immediate parent directory. Trace identifiers are produced by
// pkg/trace.LoadDir as slash-separated paths relative to the crash
// directory, so a trace loaded from "heap-overflow/case-001" belongs to bug
// "heap-overflow". An identifier with no directory component belongs to the
// empty-string bug label.
func BugLabel(id string) string {
	dir := path.Dir(path.Clean(id))
	if dir == "." {
		return ""
	}
	return path.Base(dir)
}

// Result is the full ground-truth analysis of one set of emitted groups.
type Result struct {
	NumClusters       int
	NumOvercount      int
	NumUndercount     int
	NumCompletelyLost int
	Purity            float64
	InversePurity     float64
	FMeasure          float64
	LostBugs          []string
	OvercountNotices  []string
	UndercountNotices []string
}

// clusterCounts maps bug label -> cluster index -> count of that bug's
// traces landing in that cluster.
type clusterCounts map[string]map[int]int

// Analyze computes the full Result for groups, whose membership is given as
// slices of trace identifiers. percentage selects whether purity/inverse
// purity/F-measure are reported as 0-100 integers (rounded) or as raw
// 0..1 ratios rounded to 5 decimal places.
func Analyze(groups [][]string, percentage bool) Result {
	counts, clusterList, bugList := distData(groups)

	overNotices, numOver := overcounting(counts)
	underNotices, numUnder := undercounting(counts)
	numLost, lostBugs := lost(counts)
	p, ip, f := statisticalScores(clusterList, bugList)

	if percentage {
		p = float64(decimalToIntPercentage(p))
		ip = float64(decimalToIntPercentage(ip))
		f = float64(decimalToIntPercentage(f))
	}

	return Result{
		NumClusters:       len(groups),
		NumOvercount:      numOver,
		NumUndercount:     numUnder,
		NumCompletelyLost: numLost,
		Purity:            p,
		InversePurity:     ip,
		FMeasure:          f,
		LostBugs:          lostBugs,
		OvercountNotices:  overNotices,
		UndercountNotices: underNotices,
	}
}

// distData builds the bug->cluster->count table and the parallel
// cluster/bug-label lists statisticalScores needs, one entry per trace
// across all groups (duplicates across groups count once each).
func distData(groups [][]string) (clusterCounts, []int, []string) {
	counts := make(clusterCounts)
	var clusterList []int
	var bugList []string

	for i, group := range groups {
		for _, id := range group {
			bug := BugLabel(id)
			if counts[bug] == nil {
				counts[bug] = make(map[int]int)
			}
			counts[bug][i]++
			clusterList = append(clusterList, i)
			bugList = append(bugList, bug)
		}
	}
	return counts, clusterList, bugList
}

// overcounting reports every bug whose traces span more than one cluster,
// writing notices in ascending bug-label order.
func overcounting(counts clusterCounts) ([]string, int) {
	var notices []string
	n := 0
	for _, bug := range sortedKeys(counts) {
		clusters := counts[bug]
		if len(clusters) > 1 {
			n++
			notices = append(notices, "Overcounting bug_type "+bug+": present in "+strconv.Itoa(len(clusters))+" clusters.")
		}
	}
	return notices, n
}

// undercounting reports every cluster that holds traces from more than one
// bug.
func undercounting(counts clusterCounts) ([]string, int) {
	clusterBugs := make(map[int][]string)
	for _, bug := range sortedKeys(counts) {
		for cluster := range counts[bug] {
			clusterBugs[cluster] = append(clusterBugs[cluster], bug)
		}
	}

	var clusters []int
	for c := range clusterBugs {
		clusters = append(clusters, c)
	}
	sort.Ints(clusters)

	var notices []string
	n := 0
	for _, c := range clusters {
		bugs := clusterBugs[c]
		if len(bugs) > 1 {
			sort.Strings(bugs)
			n++
			notices = append(notices, "Undercounting present at cluster "+strconv.Itoa(c)+": "+joinQuoted(bugs))
		}
	}
	return notices, n
}

// lost reports every bug whose clusters are all shared with at least one
// other bug — i.e. it has no cluster it owns purely.
func lost(counts clusterCounts) (int, []string) {
	var lostBugs []string
	for _, bug := range sortedKeys(counts) {
		clusters := counts[bug]
		owned := false
		for cluster := range clusters {
			pure := true
			for other, otherClusters := range counts {
				if other == bug {
					continue
				}
				if _, ok := otherClusters[cluster]; ok {
					pure = false
					break
				}
			}
			if pure {
				owned = true
				break
			}
		}
		if !owned {
			lostBugs = append(lostBugs, bug)
		}
	}
	return len(lostBugs), lostBugs
}

// indexSets builds, for both the cluster list and the bug list, the set of
// trace positions carrying each distinct label.
func indexSets(clusterList []int, bugList []string) (map[int]map[int]struct{}, map[string]map[int]struct{}) {
	indexCluster := make(map[int]map[int]struct{})
	for n, c := range clusterList {
		if indexCluster[c] == nil {
			indexCluster[c] = make(map[int]struct{})
		}
		indexCluster[c][n] = struct{}{}
	}
	indexBug := make(map[string]map[int]struct{})
	for n, b := range bugList {
		if indexBug[b] == nil {
			indexBug[b] = make(map[int]struct{})
		}
		indexBug[b][n] = struct{}{}
	}
	return indexCluster, indexBug
}

func intersectionSize(a, b map[int]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// statisticalScores computes purity, inverse purity and F-measure over the
// parallel cluster/bug label lists.
func statisticalScores(clusterList []int, bugList []string) (purity, inversePurity, fMeasure float64) {
	if len(clusterList) == 0 {
		return 0, 0, 0
	}
	indexCluster, indexBug := indexSets(clusterList, bugList)
	n := float64(len(clusterList))

	clusterSizes := make(map[int]int)
	for _, c := range clusterList {
		clusterSizes[c]++
	}
	bugSizes := make(map[string]int)
	for _, b := range bugList {
		bugSizes[b]++
	}

	var p, ip, f float64
	for c, members := range indexCluster {
		ci := float64(clusterSizes[c])
		var maxP float64
		for _, bugMembers := range indexBug {
			pr := float64(intersectionSize(members, bugMembers)) / ci
			if pr > maxP {
				maxP = pr
			}
		}
		p += maxP * ci / n
	}

	for bug, members := range indexBug {
		li := float64(bugSizes[bug])
		var maxP float64
		for _, clusterMembers := range indexCluster {
			pr := float64(intersectionSize(members, clusterMembers)) / li
			if pr > maxP {
				maxP = pr
			}
		}
		ip += maxP * li / n
	}

	for bug, bugMembers := range indexBug {
		li := float64(bugSizes[bug])
		var maxF float64
		for c, clusterMembers := range indexCluster {
			cj := float64(clusterSizes[c])
			inter := float64(intersectionSize(bugMembers, clusterMembers))
			r := inter / cj
			pr := inter / li
			var fi float64
			if r != 0 || pr != 0 {
				fi = 2 * r * pr / (r + pr)
			}
			if fi > maxF {
				maxF = fi
			}
		}
		f += maxF * li / n
	}

	return round5(p), round5(ip), round5(f)
}

func round5(x float64) float64 {
	const scale = 1e5
	return float64(int64(x*scale+0.5)) / scale
}

func decimalToIntPercentage(x float64) int {
	return int(100*x + 0.5)
}

func sortedKeys(counts clusterCounts) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("'%s'", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
