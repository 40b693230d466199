package petrick

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhanne/palreverse/internal/qm"
)

func TestRun_TwoVarOneCoverEach(t *testing.T) {
	primes := qm.Run(2, []uint64{1, 2, 3}, nil)
	result := Run(primes)
	require.Equal(t, KindCovers, result.Kind)
	require.Len(t, result.Covers, 1)
	assert.Len(t, result.Covers[0], 2)
}

func TestRun_Tautology(t *testing.T) {
	primes := qm.Run(1, []uint64{0, 1}, nil)
	result := Run(primes)
	assert.Equal(t, KindTrue, result.Kind)
}

func TestRun_NoMinterms(t *testing.T) {
	primes := qm.Run(2, nil, []uint64{0, 1, 2, 3})
	result := Run(primes)
	assert.Equal(t, KindFalse, result.Kind)
}

func TestRun_SingleLiteral(t *testing.T) {
	primes := qm.Run(3, []uint64{1, 3, 5, 7}, nil)
	result := Run(primes)
	require.Equal(t, KindCovers, result.Kind)
	require.Len(t, result.Covers, 1)
	require.Len(t, result.Covers[0], 1)
	assert.Equal(t, uint64(1), result.Covers[0][0].Mask)
	assert.Equal(t, uint64(1), result.Covers[0][0].Pattern)
}

func TestRun_CorrectnessAndOptimality(t *testing.T) {
	minterms := []uint64{0, 1, 2, 5, 6, 7}
	primes := qm.Run(3, minterms, nil)
	result := Run(primes)
	require.Equal(t, KindCovers, result.Kind)

	mintermSet := make(map[uint64]bool)
	for _, m := range minterms {
		mintermSet[m] = true
	}

	minCount := -1
	minLits := -1
	for _, cover := range result.Covers {
		assertCoversExactly(t, cover, mintermSet, 3)

		if minCount == -1 {
			minCount = len(cover)
		}
		assert.Equal(t, minCount, len(cover), "every returned cover should have the same product count")

		lits := 0
		for _, cube := range cover {
			lits += bits.OnesCount64(cube.Mask)
		}
		if minLits == -1 {
			minLits = lits
		}
		assert.Equal(t, minLits, lits, "every returned cover should have the same literal count")
	}
}

func assertCoversExactly(t *testing.T, cover []qm.Cube, minterms map[uint64]bool, numVars int) {
	t.Helper()
	full := uint64(1)<<uint(numVars) - 1
	for x := uint64(0); x <= full; x++ {
		got := false
		for _, cube := range cover {
			if x&cube.Mask == cube.Pattern {
				got = true
				break
			}
		}
		assert.Equal(t, minterms[x], got, "cover disagrees with target function at input %d", x)
	}
}
