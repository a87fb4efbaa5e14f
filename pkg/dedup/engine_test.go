package dedup_test

import (
	"testing"

	"github.com/jihwankim/chaos-triage/pkg/dedup"
	"github.com/jihwankim/chaos-triage/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(groups []dedup.Group) map[string]int {
	out := make(map[string]int)
	for gi, g := range groups {
		for _, id := range g {
			out[id] = gi
		}
	}
	return out
}

func TestRunSeparatesTwoPerfectlyDiscriminatedBugs(t *testing.T) {
	// Bug 1 traces trip block A, bug 2 traces trip block B; neither ever
	// appears in the passing set, so each should become its own group.
	failing := trace.Set{
		"bug1/a": trace.Trace{"A": 3},
		"bug1/b": trace.Trace{"A": 3},
		"bug2/a": trace.Trace{"B": 5},
		"bug2/b": trace.Trace{"B": 5},
	}
	passing := trace.Set{
		"p1": trace.Trace{"A": 0, "B": 0},
		"p2": trace.Trace{"A": 0, "B": 0},
	}

	e := dedup.NewEngine(nil)
	groups, err := e.Run(failing, passing)
	require.NoError(t, err)

	assigned := idsOf(groups)
	assert.Len(t, assigned, 4)
	// bug1 members share a group, bug2 members share a (different) group.
	assert.Equal(t, assigned["bug1/a"], assigned["bug1/b"])
	assert.Equal(t, assigned["bug2/a"], assigned["bug2/b"])
	assert.NotEqual(t, assigned["bug1/a"], assigned["bug2/a"])
}

func TestRunAllFailingShortCircuitsToSingleGroup(t *testing.T) {
	// A block present above threshold in every failing trace short-circuits
	// extraction into one group covering everything remaining.
	failing := trace.Set{
		"f1": trace.Trace{"Z": 7},
		"f2": trace.Trace{"Z": 7},
		"f3": trace.Trace{"Z": 7},
	}
	passing := trace.Set{
		"p1": trace.Trace{"Z": 0},
	}

	e := dedup.NewEngine(nil)
	groups, err := e.Run(failing, passing)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"f1", "f2", "f3"}, groups[0])
}

func TestRunStagnationEmitsRemainderAsOneGroup(t *testing.T) {
	// Neither block discriminates (S4 scenario), so the loop should stall
	// out and hand back every failing trace as a single final group.
	failing := trace.Set{
		"f1": trace.Trace{"A": 1},
		"f2": trace.Trace{"B": 1},
	}
	passing := trace.Set{
		"p1": trace.Trace{"A": 1, "B": 1},
	}

	e := dedup.NewEngine(nil)
	groups, err := e.Run(failing, passing)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"f1", "f2"}, groups[0])
}

func TestRunEmitsIterationEvents(t *testing.T) {
	failing := trace.Set{
		"f1": trace.Trace{"A": 3},
		"f2": trace.Trace{"A": 3},
	}
	passing := trace.Set{
		"p1": trace.Trace{"A": 0},
	}

	var events []dedup.IterationEvent
	e := dedup.NewEngine(nil)
	e.OnIteration = func(ev dedup.IterationEvent) {
		events = append(events, ev)
	}
	_, err := e.Run(failing, passing)
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].Terminal)
}

func TestRunDoesNotMutateInputSets(t *testing.T) {
	failing := trace.Set{
		"f1": trace.Trace{"A": 3},
		"f2": trace.Trace{"A": 3},
	}
	passing := trace.Set{
		"p1": trace.Trace{"A": 0},
	}
	nfBefore := len(failing)

	e := dedup.NewEngine(nil)
	_, err := e.Run(failing, passing)
	require.NoError(t, err)

	assert.Len(t, failing, nfBefore)
}
