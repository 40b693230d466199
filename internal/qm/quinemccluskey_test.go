package qm

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_TwoVarOneCoverEach(t *testing.T) {
	// minterms 1,2,3 over 2 vars -> A # B
	primes := Run(2, []uint64{1, 2, 3}, nil)
	require.NotEmpty(t, primes)
	assertSound(t, 2, []uint64{1, 2, 3}, nil, primes)
	assertPrimality(t, primes)
	assertCoverage(t, []uint64{1, 2, 3}, primes)
}

func TestRun_Tautology(t *testing.T) {
	primes := Run(1, []uint64{0, 1}, nil)
	require.Len(t, primes, 1)
	assert.Equal(t, uint64(0), primes[0].Cube.Mask)
	assert.Equal(t, uint64(0), primes[0].Cube.Pattern)
}

func TestRun_NoMinterms(t *testing.T) {
	primes := Run(2, nil, nil)
	assert.Empty(t, primes)
}

func TestRun_AllDontCare(t *testing.T) {
	primes := Run(2, nil, []uint64{0, 1, 2, 3})
	assert.Empty(t, primes, "pure don't-cares are never emitted")
}

func TestRun_SingleLiteral(t *testing.T) {
	// A0 over 3 vars, bit 0: minterms 1,3,5,7 -> single cube pattern=001 mask=001
	primes := Run(3, []uint64{1, 3, 5, 7}, nil)
	require.Len(t, primes, 1)
	assert.Equal(t, uint64(1), primes[0].Cube.Mask)
	assert.Equal(t, uint64(1), primes[0].Cube.Pattern)
}

func TestRun_Soundness(t *testing.T) {
	minterms := []uint64{0, 1, 2, 5, 6, 7}
	primes := Run(3, minterms, nil)
	assertSound(t, 3, minterms, nil, primes)
	assertCoverage(t, minterms, primes)
	assertPrimality(t, primes)
}

func TestRun_DuplicateMintermsDoNotAffectResult(t *testing.T) {
	a := Run(3, []uint64{0, 1, 2, 5, 6, 7}, nil)
	b := Run(3, []uint64{0, 0, 1, 2, 2, 5, 6, 7, 7}, nil)
	assert.Equal(t, coverSet(a), coverSet(b))
}

func TestRun_SymmetryUnderShuffle(t *testing.T) {
	minterms := []uint64{0, 1, 2, 5, 6, 7}
	base := Run(3, minterms, nil)

	shuffled := append([]uint64(nil), minterms...)
	rng := rand.New(rand.NewSource(1))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	other := Run(3, shuffled, nil)
	assert.ElementsMatch(t, coverSet(base), coverSet(other))
}

func TestRun_OutOfRangeMintermPanics(t *testing.T) {
	assert.Panics(t, func() {
		Run(2, []uint64{4}, nil)
	})
}

func TestRun_OutOfRangeDontcarePanics(t *testing.T) {
	assert.Panics(t, func() {
		Run(2, nil, []uint64{4})
	})
}

func coverSet(primes []PrimeImplicant) []Cube {
	out := make([]Cube, len(primes))
	for i, p := range primes {
		out[i] = p.Cube
	}
	return out
}

func assertSound(t *testing.T, numVars int, minterms, dontcares []uint64, primes []PrimeImplicant) {
	t.Helper()
	allowed := make(map[uint64]bool)
	for _, m := range minterms {
		allowed[m] = true
	}
	for _, d := range dontcares {
		allowed[d] = true
	}
	full := fullMask(numVars)
	for _, p := range primes {
		for x := uint64(0); x <= full; x++ {
			if x&p.Cube.Mask == p.Cube.Pattern {
				assert.True(t, allowed[x], "prime %+v covers non-minterm/dontcare input %d", p.Cube, x)
			}
		}
	}
}

func assertPrimality(t *testing.T, primes []PrimeImplicant) {
	t.Helper()
	for i, a := range primes {
		for j, b := range primes {
			if i == j {
				continue
			}
			if bits.OnesCount64(a.Cube.Mask) > bits.OnesCount64(b.Cube.Mask) && a.Cube.Implies(b.Cube) {
				t.Errorf("prime %+v is a strict sub-cube of %+v", a.Cube, b.Cube)
			}
		}
	}
}

func assertCoverage(t *testing.T, minterms []uint64, primes []PrimeImplicant) {
	t.Helper()
	want := make(map[int]bool)
	for i := range minterms {
		want[i] = true
	}
	got := make(map[int]bool)
	for _, p := range primes {
		for _, idx := range p.Covered {
			got[idx] = true
		}
	}
	assert.Equal(t, want, got)
}
