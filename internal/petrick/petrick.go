// Package petrick implements Petrick's method for selecting a minimum-cost
// cover from a set of prime implicants, following the product-of-sums /
// sum-of-products construction described at
// https://en.wikipedia.org/wiki/Petrick%27s_method (the paper, S. R.
// Petrick's AFCRC-TR-56-110, could not be located by the original author
// either).
package petrick

import (
	"math/bits"
	"sort"

	"github.com/jhanne/palreverse/internal/qm"
)

// Kind tags which case a Result represents.
type Kind int

const (
	// KindFalse means the function has no minterms to cover (inconsistent).
	KindFalse Kind = iota
	// KindTrue means the function is the tautology (valid).
	KindTrue
	// KindCovers means Covers holds one or more equally-minimal covers.
	KindCovers
)

// Result is the tagged-union return type of Run: exactly one of the three
// cases described in spec.md section 4.3.
type Result struct {
	Kind   Kind
	Covers [][]qm.Cube
}

// summand is a sorted, deduplicated set of prime-implicant indices,
// representing one product term (an AND of selector variables p_i).
type summand []int

// Run selects the minimum-cost cover(s) over primes. Each prime implicant's
// Covered field (see qm.PrimeImplicant) is treated as the set of minterms
// it must help cover; don't-cares are not present here since qm.Run never
// records them as covered.
func Run(primes []qm.PrimeImplicant) Result {
	minterms := allCoveredMinterms(primes)
	if len(minterms) == 0 {
		return Result{Kind: KindFalse}
	}

	coveredBy := make([][]int, len(minterms)) // parallel to minterms, sorted PI indices
	for mi, m := range minterms {
		var s []int
		for pi, p := range primes {
			for _, cm := range p.Covered {
				if cm == m {
					s = append(s, pi)
					break
				}
			}
		}
		coveredBy[mi] = s
	}

	absorbed := make([]bool, len(minterms))
	for i := range minterms {
		for j := 0; j < i; j++ {
			switch {
			case isSubset(coveredBy[j], coveredBy[i]):
				absorbed[i] = true
			case isSubset(coveredBy[i], coveredBy[j]):
				absorbed[j] = true
			}
		}
	}

	var productOfSums [][]int // one surviving sum per unabsorbed minterm
	for i := range minterms {
		if !absorbed[i] {
			productOfSums = append(productOfSums, coveredBy[i])
		}
	}

	sumOfProducts := multiplyOut(productOfSums)

	return pickMinimum(sumOfProducts, primes)
}

func allCoveredMinterms(primes []qm.PrimeImplicant) []int {
	seen := make(map[int]bool)
	for _, p := range primes {
		for _, m := range p.Covered {
			seen[m] = true
		}
	}
	out := make([]int, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// multiplyOut applies the distributive law across the sums in
// productOfSums left to right, simplifying by absorption after each step.
func multiplyOut(productOfSums [][]int) []summand {
	if len(productOfSums) == 0 {
		return nil
	}
	sumterm := make([]summand, 0, len(productOfSums[0]))
	for _, idx := range productOfSums[0] {
		sumterm = append(sumterm, summand{idx})
	}
	for i := 1; i < len(productOfSums); i++ {
		var multsum []summand
		for _, s1 := range sumterm {
			for _, idx2 := range productOfSums[i] {
				multsum = append(multsum, unionSummand(s1, summand{idx2}))
			}
		}
		sumterm = simplify(multsum)
	}
	return sumterm
}

// simplify removes redundant summands by set-subset absorption: a smaller
// (more general) summand replaces the first kept summand that contains it
// (other kept summands that contain it are not removed), and is itself
// dropped by any earlier, smaller summand already kept.
// Pairwise, first-writer-wins, as specified in spec.md section 4.3 step 2.
func simplify(sumterm []summand) []summand {
	var out []summand
outer:
	for _, term := range sumterm {
		for i2, term2 := range out {
			if isSubset(term, term2) {
				out[i2] = term
				continue outer
			} else if isSubset(term2, term) {
				continue outer
			}
		}
		out = append(out, term)
	}
	return out
}

func pickMinimum(sumOfProducts []summand, primes []qm.PrimeImplicant) Result {
	if len(sumOfProducts) == 1 && len(sumOfProducts[0]) == 1 {
		i := sumOfProducts[0][0]
		if primes[i].Cube.Mask == 0 {
			return Result{Kind: KindTrue}
		}
	}

	minCount := len(sumOfProducts[0])
	for _, s := range sumOfProducts {
		if len(s) < minCount {
			minCount = len(s)
		}
	}
	var byCount []summand
	for _, s := range sumOfProducts {
		if len(s) == minCount {
			byCount = append(byCount, s)
		}
	}

	literalCount := func(s summand) int {
		n := 0
		for _, i := range s {
			n += bits.OnesCount64(primes[i].Cube.Mask)
		}
		return n
	}

	minLits := literalCount(byCount[0])
	for _, s := range byCount[1:] {
		if n := literalCount(s); n < minLits {
			minLits = n
		}
	}

	var covers [][]qm.Cube
	for _, s := range byCount {
		if literalCount(s) == minLits {
			cube := make([]qm.Cube, 0, len(s))
			for _, i := range s {
				cube = append(cube, primes[i].Cube)
			}
			covers = append(covers, cube)
		}
	}

	return Result{Kind: KindCovers, Covers: covers}
}

func isSubset(a, b summand) bool {
	bs := make(map[int]bool, len(b))
	for _, v := range b {
		bs[v] = true
	}
	for _, v := range a {
		if !bs[v] {
			return false
		}
	}
	return true
}

func unionSummand(a, b summand) summand {
	seen := make(map[int]bool, len(a)+len(b))
	out := make(summand, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
