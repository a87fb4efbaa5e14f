// Package histogram builds per-block occurrence-count histograms over the
// current failing and passing trace sets, the input the information-theoretic
// kernel ranks blocks against.
package histogram

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jihwankim/chaos-triage/pkg/trace"
)

// Histogram maps an occurrence count to the number of traces exhibiting it.
// A missing key denotes zero, never raises, and is never mutated by a read.
type Histogram map[int64]int64

// Get returns h[i], defaulting to zero.
func (h Histogram) Get(i int64) int64 {
	return h[i]
}

// add increments h[i] by n.
func (h Histogram) add(i, n int64) {
	h[i] += n
}

// merge adds the counts of other into h in place.
func (h Histogram) merge(other Histogram) {
	for k, v := range other {
		h[k] += v
	}
}

// Set holds the three occurrence histograms for one block: over the
// combined trace set, over failing traces only, and over passing traces
// only. Invariant: for every count i, All[i] == Failing[i] + Passing[i].
type Set struct {
	All     Histogram
	Failing Histogram
	Passing Histogram
}

func newSet() *Set {
	return &Set{All: Histogram{}, Failing: Histogram{}, Passing: Histogram{}}
}

func (s *Set) merge(other *Set) {
	s.All.merge(other.All)
	s.Failing.merge(other.Failing)
	s.Passing.merge(other.Passing)
}

// Builder holds the histograms and derived maxima for every block in the
// current universe.
type Builder struct {
	Universe []string          // sorted block addresses appearing in the current trace set
	Sets     map[string]*Set  // per-block occurrence histograms
	Max      map[string]int64 // m(b): maximum occurrence count of b across the combined set
}

// Build computes the universe, the occurrence histograms and m(b) for every
// block over failing and passing. Traces are partitioned across a bounded
// worker pool and partial histogram sets are merged by pointwise addition,
// per the specification's invitation to parallelise this hot loop.
func Build(failing, passing trace.Set) (*Builder, error) {
	universe := blockUniverse(failing, passing)

	sets := make(map[string]*Set, len(universe))
	for _, b := range universe {
		sets[b] = newSet()
	}

	failingPartial, err := reduceTraces(failing.Traces(), universe, true)
	if err != nil {
		return nil, err
	}
	passingPartial, err := reduceTraces(passing.Traces(), universe, false)
	if err != nil {
		return nil, err
	}
	for _, b := range universe {
		sets[b].merge(failingPartial[b])
		sets[b].merge(passingPartial[b])
	}

	max := make(map[string]int64, len(universe))
	for _, b := range universe {
		max[b] = maxOccurrence(b, failing, passing)
	}

	return &Builder{Universe: universe, Sets: sets, Max: max}, nil
}

// blockUniverse returns the sorted union of all addresses appearing in
// failing or passing, recomputed fresh for every iteration per the
// specification (the failing set shrinks across iterations).
func blockUniverse(failing, passing trace.Set) []string {
	seen := make(map[string]struct{})
	for _, t := range failing {
		for b := range t {
			seen[b] = struct{}{}
		}
	}
	for _, t := range passing {
		for b := range t {
			seen[b] = struct{}{}
		}
	}
	universe := make([]string, 0, len(seen))
	for b := range seen {
		universe = append(universe, b)
	}
	sort.Strings(universe)
	return universe
}

// maxOccurrence computes m(b): the largest count of b across the combined
// current failing+passing trace set.
func maxOccurrence(b string, failing, passing trace.Set) int64 {
	var m int64
	for _, t := range failing {
		if v := t.Get(b); v > m {
			m = v
		}
	}
	for _, t := range passing {
		if v := t.Get(b); v > m {
			m = v
		}
	}
	return m
}

// reduceTraces partitions traces across workers, each building a partial
// per-block Set restricted to either the Failing or Passing side (and All,
// shared across both sides), then returns the per-block partials for the
// caller to merge.
func reduceTraces(traces []trace.Trace, universe []string, isFailing bool) (map[string]*Set, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(traces) {
		workers = len(traces)
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([]map[string]*Set, workers)
	chunks := splitEvenly(len(traces), workers)

	g := new(errgroup.Group)
	start := 0
	for w := 0; w < workers; w++ {
		w := w
		lo, hi := start, start+chunks[w]
		start = hi
		g.Go(func() error {
			local := make(map[string]*Set, len(universe))
			for _, b := range universe {
				local[b] = newSet()
			}
			for _, t := range traces[lo:hi] {
				for _, b := range universe {
					n := t.Get(b)
					local[b].All.add(n, 1)
					if isFailing {
						local[b].Failing.add(n, 1)
					} else {
						local[b].Passing.add(n, 1)
					}
				}
			}
			partials[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]*Set, len(universe))
	for _, b := range universe {
		merged[b] = newSet()
	}
	for _, p := range partials {
		for b, s := range p {
			merged[b].merge(s)
		}
	}
	return merged, nil
}

// splitEvenly divides n items into k near-equal, order-preserving chunks.
func splitEvenly(n, k int) []int {
	if k <= 0 {
		return nil
	}
	sizes := make([]int, k)
	base, rem := n/k, n%k
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}

// CSum computes the range sum Σ h[i] for lo ≤ i ≤ hi.
func CSum(h Histogram, lo, hi int64) int64 {
	var sum int64
	for i, n := range h {
		if i >= lo && i <= hi {
			sum += n
		}
	}
	return sum
}
