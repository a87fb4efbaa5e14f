// Package infotheory implements the mutual-information kernel the greedy
// deduplication loop uses to rank and select discriminating basic blocks.
// All logarithms are base 2; by convention 0·log2(0) ≡ 0.
package infotheory

import (
	"math"
	"sort"

	"github.com/jihwankim/chaos-triage/pkg/histogram"
)

// log2 returns log2(x), treating log2(0) as 0 rather than -Inf.
func log2(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Log2(x)
}

// LabelEntropy computes H(Y) for Nf failing and Np passing traces.
func LabelEntropy(nf, np int64) float64 {
	if nf == 0 || np == 0 {
		return 0
	}
	n := float64(nf + np)
	pf := float64(nf) / n
	pp := float64(np) / n
	return -(pf*log2(pf) + pp*log2(pp))
}

// MI computes the unthresholded mutual information MI(b), used only to rank
// candidate blocks before the threshold search.
func MI(hy float64, s *histogram.Set, nf, np int64) float64 {
	n := float64(nf + np)
	// Sum in ascending count order so that equal histograms always yield
	// bit-identical MI values and the address tie-break stays deterministic.
	keys := make([]int64, 0, len(s.All))
	for i := range s.All {
		keys = append(keys, i)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	var acc float64
	for _, i := range keys {
		ci := s.All[i]
		if ci == 0 {
			continue
		}
		cf := s.Failing.Get(i)
		cp := s.Passing.Get(i)

		pfGivenI := float64(cf) / float64(ci)
		ppGivenI := float64(cp) / float64(ci)

		var term float64
		if cf > 0 {
			term += float64(cf) * log2(pfGivenI)
		}
		if cp > 0 {
			term += float64(cp) * log2(ppGivenI)
		}
		acc += term / n
	}
	return hy + acc
}

// condEntropy computes the conditional entropy of the histogram mass in
// [lo, hi], normalised by N. Used for both the "below" and "above" halves of
// the thresholded mutual information.
func condEntropy(s *histogram.Set, lo, hi int64, n float64) float64 {
	sumC := histogram.CSum(s.All, lo, hi)
	if sumC == 0 {
		return 0
	}
	sumCf := histogram.CSum(s.Failing, lo, hi)
	sumCp := histogram.CSum(s.Passing, lo, hi)

	qf := float64(sumCf) / float64(sumC)
	qp := float64(sumCp) / float64(sumC)

	var acc float64
	if sumCf > 0 {
		acc += float64(sumCf) * log2(qf)
	}
	if sumCp > 0 {
		acc += float64(sumCp) * log2(qp)
	}
	return -acc / n
}

// MIThreshold computes MI(b, thd): H(Y) minus the conditional entropies of
// the histogram split at thd.
func MIThreshold(hy float64, s *histogram.Set, thd, m, nf, np int64) float64 {
	n := float64(nf + np)
	below := condEntropy(s, 0, thd, n)
	above := condEntropy(s, thd+1, m, n)
	return hy - below - above
}

// BestThreshold searches thd over the keys of s.All restricted to
// 0 ≤ thd < m, returning the threshold maximising MI(b, thd). Ties are
// broken by the first maximiser under ascending threshold order, which is
// what makes group emission reproducible across runs.
func BestThreshold(hy float64, s *histogram.Set, m, nf, np int64) (thd int64, mi float64) {
	candidates := make([]int64, 0, len(s.All))
	for k := range s.All {
		if k < 0 || k >= m {
			continue
		}
		candidates = append(candidates, k)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	bestMI := math.Inf(-1)
	var bestThd int64
	for _, t := range candidates {
		cand := MIThreshold(hy, s, t, m, nf, np)
		if cand > bestMI {
			bestMI = cand
			bestThd = t
		}
	}
	return bestThd, bestMI
}

// IsCrashing reports whether the "above threshold" region of block b is at
// least as frequent among failing traces as among passing traces.
func IsCrashing(s *histogram.Set, thd, m, nf, np int64) bool {
	if nf == 0 || np == 0 {
		return false
	}
	sf := float64(histogram.CSum(s.Failing, thd+1, m)) / float64(nf)
	sp := float64(histogram.CSum(s.Passing, thd+1, m)) / float64(np)
	return sf >= sp
}
