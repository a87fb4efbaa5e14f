package histogram_test

import (
	"testing"

	"github.com/jihwankim/chaos-triage/pkg/histogram"
	"github.com/jihwankim/chaos-triage/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConservesMass(t *testing.T) {
	failing := trace.Set{
		"f1": trace.Trace{"A": 3, "B": 1},
		"f2": trace.Trace{"A": 3, "C": 2},
	}
	passing := trace.Set{
		"p1": trace.Trace{"A": 0, "B": 1, "C": 1},
	}

	b, err := histogram.Build(failing, passing)
	require.NoError(t, err)

	nf, np := int64(len(failing)), int64(len(passing))
	for _, block := range b.Universe {
		s := b.Sets[block]

		var allMass, ffMass, ppMass int64
		for _, n := range s.All {
			allMass += n
		}
		for _, n := range s.Failing {
			ffMass += n
		}
		for _, n := range s.Passing {
			ppMass += n
		}
		assert.Equal(t, nf+np, allMass, "block %s total mass", block)
		assert.Equal(t, nf, ffMass, "block %s failing mass", block)
		assert.Equal(t, np, ppMass, "block %s passing mass", block)

		for i, n := range s.All {
			assert.Equal(t, n, s.Failing.Get(i)+s.Passing.Get(i), "block %s count %d", block, i)
		}
	}
}

func TestBuildUniverseAndMax(t *testing.T) {
	failing := trace.Set{"f1": trace.Trace{"A": 5}}
	passing := trace.Set{"p1": trace.Trace{"B": 2}}

	b, err := histogram.Build(failing, passing)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, b.Universe)
	assert.Equal(t, int64(5), b.Max["A"])
	assert.Equal(t, int64(2), b.Max["B"])
}

func TestCSum(t *testing.T) {
	h := histogram.Histogram{0: 2, 1: 3, 2: 1}
	assert.Equal(t, int64(5), histogram.CSum(h, 0, 1))
	assert.Equal(t, int64(6), histogram.CSum(h, 0, 2))
	assert.Equal(t, int64(0), histogram.CSum(h, 5, 10))
}
