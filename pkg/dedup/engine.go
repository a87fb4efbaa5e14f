// Package dedup implements the greedy deduplication loop that partitions
// failing traces into groups, each intended to correspond to one distinct
// underlying bug, by iteratively selecting the basic block whose occurrence
// distribution most informs the crash label.
package dedup

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jihwankim/chaos-triage/pkg/histogram"
	"github.com/jihwankim/chaos-triage/pkg/infotheory"
	"github.com/jihwankim/chaos-triage/pkg/reporting"
	"github.com/jihwankim/chaos-triage/pkg/trace"
)

// Group is one emitted cluster: an ordered list of failing-trace
// identifiers, in the order they were claimed.
type Group []string

// IterationEvent is reported through Engine.OnIteration after every
// iteration of the loop, win or stall, so a caller can drive a progress
// indicator or Prometheus metrics without the engine depending on either.
type IterationEvent struct {
	Iteration      int
	FailingBefore  int
	PassingBefore  int
	CandidateCount int
	SelectedBlock  string // empty when no block was selected (stagnation or no candidate passed is_crashing)
	Threshold      int64
	MutualInfo     float64
	GroupSize      int    // 0 when the iteration produced no group
	Terminal       bool   // true on the iteration that ends the loop
	Reason         string // "stagnation" | "all-failing" | "no-discriminator" | ""
}

// Engine runs the greedy deduplication loop described in the specification.
type Engine struct {
	logger      *reporting.Logger
	OnIteration func(IterationEvent)
}

// NewEngine creates an Engine. logger may be nil, in which case iteration
// logging is skipped.
func NewEngine(logger *reporting.Logger) *Engine {
	return &Engine{logger: logger}
}

// candidate is one ranked block: its address, unthresholded MI, and m(b).
type candidate struct {
	block string
	mi    float64
	m     int64
}

// Run executes the loop to completion and returns the emitted groups in
// emission order. failing and passing are never mutated.
func (e *Engine) Run(failing, passing trace.Set) ([]Group, error) {
	bf := failing.Clone()
	bp := passing.Clone()

	var groups []Group
	prevNf := int64(-1) // sentinel for "no previous iteration yet" (+∞ per spec)
	iteration := 0

	for len(bf) > 0 && len(bp) > 0 {
		iteration++
		nf, np := int64(len(bf)), int64(len(bp))

		event := IterationEvent{Iteration: iteration, FailingBefore: int(nf), PassingBefore: int(np)}

		// Stagnation guard: an iteration that fails to shrink Bf terminates
		// the loop, emitting everything remaining as one final group.
		if prevNf != -1 && prevNf <= nf {
			remaining := bf.IDs()
			groups = append(groups, Group(remaining))
			event.GroupSize = len(remaining)
			event.Terminal = true
			event.Reason = "stagnation"
			e.emit(event, "stagnation: no reduction in failing trace count, emitting remainder as one group")
			break
		}
		prevNf = nf

		b, err := histogram.Build(bf, bp)
		if err != nil {
			return nil, err
		}
		hy := infotheory.LabelEntropy(nf, np)

		candidates, err := rankCandidates(hy, b, nf, np)
		if err != nil {
			return nil, err
		}
		event.CandidateCount = len(candidates)

		best, bestThd, found := selectBlock(candidates, b, nf, np)
		if !found {
			// No-discriminator: every candidate failed the crash-polarity
			// test. Per the open question, this continues the outer loop
			// unshrunk; the next iteration's stagnation guard terminates it.
			event.Reason = "no-discriminator"
			e.emit(event, "no block passed the crash-polarity test this iteration")
			continue
		}

		event.SelectedBlock = best.block
		event.Threshold = bestThd
		event.MutualInfo = best.mi

		sumCf := histogram.CSum(b.Sets[best.block].Failing, 0, bestThd)
		if sumCf == 0 {
			// All-failing short-circuit: the block is present above
			// threshold in every current failing trace.
			remaining := bf.IDs()
			groups = append(groups, Group(remaining))
			event.GroupSize = len(remaining)
			event.Terminal = true
			event.Reason = "all-failing"
			e.emit(event, "selected block present above threshold in all remaining failing traces")
			break
		}

		claimed := claimIDs(bf, best.block, bestThd)
		groups = append(groups, Group(claimed))
		bf = bf.Without(claimed)

		event.GroupSize = len(claimed)
		e.emit(event, "extracted group")
	}

	return groups, nil
}

// claimIDs returns, in ascending order, the identifiers of traces in bf
// where block occurs strictly above thd.
func claimIDs(bf trace.Set, block string, thd int64) []string {
	ids := bf.IDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if bf[id].Get(block) > thd {
			out = append(out, id)
		}
	}
	return out
}

// rankCandidates computes MI(b) and m(b) for every block in the universe in
// parallel (§5: "embarrassingly parallel") and records every block
// unconditionally — the reading of the source's candidate-dictionary update
// consistent with subsequent descending-MI selection.
func rankCandidates(hy float64, b *histogram.Builder, nf, np int64) ([]candidate, error) {
	out := make([]candidate, len(b.Universe))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(b.Universe) {
		workers = len(b.Universe)
	}
	if workers < 1 {
		workers = 1
	}

	g := new(errgroup.Group)
	chunk := (len(b.Universe) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(b.Universe) {
			break
		}
		if hi > len(b.Universe) {
			hi = len(b.Universe)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				block := b.Universe[i]
				s := b.Sets[block]
				out[i] = candidate{
					block: block,
					mi:    infotheory.MI(hy, s, nf, np),
					m:     b.Max[block],
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// selectBlock iterates candidates in descending MI (ties broken by ascending
// block address, for determinism) and returns the first one that passes the
// crash-polarity test, along with its optimal threshold. The test loop is
// inherently sequential: reordering it is observable.
func selectBlock(candidates []candidate, b *histogram.Builder, nf, np int64) (candidate, int64, bool) {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].mi != ranked[j].mi {
			return ranked[i].mi > ranked[j].mi
		}
		return ranked[i].block < ranked[j].block
	})

	hy := infotheory.LabelEntropy(nf, np)
	for _, c := range ranked {
		s := b.Sets[c.block]
		thd, _ := infotheory.BestThreshold(hy, s, c.m, nf, np)
		if infotheory.IsCrashing(s, thd, c.m, nf, np) {
			return c, thd, true
		}
	}
	return candidate{}, 0, false
}

// emit forwards an iteration event to OnIteration (if set) and logs it.
func (e *Engine) emit(ev IterationEvent, msg string) {
	if e.OnIteration != nil {
		e.OnIteration(ev)
	}
	if e.logger == nil {
		return
	}
	fields := []interface{}{
		"iteration", ev.Iteration,
		"failing_before", ev.FailingBefore,
		"passing_before", ev.PassingBefore,
		"candidates", ev.CandidateCount,
		"group_size", ev.GroupSize,
	}
	if ev.SelectedBlock != "" {
		fields = append(fields, "block", ev.SelectedBlock, "threshold", ev.Threshold, "mi", ev.MutualInfo)
	}
	switch ev.Reason {
	case "stagnation", "no-discriminator":
		e.logger.Warn(msg, fields...)
	default:
		e.logger.Info(msg, fields...)
	}
}
