// Package pal analyzes an exhaustive truth-table dump of a PAL16L8-class
// device: 18 input pins (A0..A17) and 8 tri-stateable output pins (D0..D7).
//
// Pins 12..19 double as outputs and high-Z probes: A10..A17 are wired
// through resistors to D0..D7 respectively, so toggling an address bit
// that feeds a probe reveals whether the corresponding output pin is
// actively driven (the PAL's own output overrides the resistor) or
// floating (the probe's weak level shows through). Analyze uses this
// differential trick to recover, per output pin, which inputs affect its
// driven level, which affect its output-enable state, and the classified
// minterm lists a minimizer consumes.
package pal

import "fmt"

const (
	// NumInputs is the number of PAL input pins (A0..A17).
	NumInputs = 18
	// NumOutputs is the number of PAL output pins (D0..D7).
	NumOutputs = 8
	// DumpSize is the required length of the truth-table dump: one byte
	// per input combination, 8 output levels packed per byte.
	DumpSize = 1 << NumInputs

	// probeBase is the input bit position paired with output pin 0; output
	// pin p is probed by input bit probeBase+p.
	probeBase = 10
)

// ConstLevel classifies a pin (or its output-enable) that never depends on
// any input.
type ConstLevel int

const (
	// NotConstant means the pin (or its OE) has a non-empty dependency mask.
	NotConstant ConstLevel = iota
	// ConstHigh means the pin is always driven 1 (or OE is always asserted).
	ConstHigh
	// ConstLow means the pin is always driven 0 (or OE is never asserted).
	ConstLow
	// ConstHighZ means the pin is never driven at all (floats permanently).
	// This case does not apply to output-enable: a pin that drives nothing
	// still has a defined OE state.
	ConstHighZ
)

// PinAnalysis is the per-output-pin result of Analyze.
type PinAnalysis struct {
	DependsMask   uint32 // input bits influencing the driven level
	OEDependsMask uint32 // input bits influencing output-enable
	SeenLow       bool   // ever observed driven to 0
	SeenHigh      bool   // ever observed driven to 1

	// DependsVars and OEDependsVars list the set bits of DependsMask and
	// OEDependsMask respectively, ascending, excluding this pin's own probe
	// bit (which can never be set, since a pin cannot depend on itself).
	// Position i in this list is variable i of the corresponding minterms.
	DependsVars   []int
	OEDependsVars []int

	PosMinterms      []uint64
	NegMinterms      []uint64
	DontcareMinterms []uint64

	OEPosMinterms []uint64
	OENegMinterms []uint64
}

// Constant reports whether the driven level never depends on an input.
func (p PinAnalysis) Constant() ConstLevel {
	if p.DependsMask != 0 {
		return NotConstant
	}
	switch {
	case p.SeenHigh:
		return ConstHigh
	case p.SeenLow:
		return ConstLow
	default:
		return ConstHighZ
	}
}

// OEConstant reports whether output-enable never depends on an input. A
// pin that was never observed driven at all (constant high-Z) also reports
// ConstLow here: it is never enabled.
func (p PinAnalysis) OEConstant() ConstLevel {
	if p.OEDependsMask != 0 {
		return NotConstant
	}
	if p.SeenHigh || p.SeenLow {
		return ConstHigh
	}
	return ConstLow
}

// Analyze reads a 2^18-byte truth-table dump and produces, for every
// output pin, its dependency masks and classified minterm lists.
//
// dump[a] packs the eight output levels for input pattern a: D_p is bit p
// (bit 0 = D0). Address bit i corresponds to input pin A_i.
func Analyze(dump []byte) ([NumOutputs]PinAnalysis, error) {
	var out [NumOutputs]PinAnalysis
	if len(dump) != DumpSize {
		return out, fmt.Errorf("pal: dump must be %d bytes, got %d", DumpSize, len(dump))
	}

	discoverDependencies(dump, &out)

	for p := 0; p < NumOutputs; p++ {
		q := probeBase + p
		probeBit := uint32(1) << uint(q)
		outBit := byte(1) << uint(p)

		out[p].DependsVars = maskBits(out[p].DependsMask, q)
		out[p].OEDependsVars = maskBits(out[p].OEDependsMask, q)

		if out[p].DependsMask != 0 {
			if err := classifyLevel(dump, &out[p], probeBit, outBit); err != nil {
				return out, fmt.Errorf("pal: pin %d: %w", p, err)
			}
		}
		if out[p].OEDependsMask != 0 {
			classifyOE(dump, &out[p], probeBit, outBit)
		}
	}

	return out, nil
}

// discoverDependencies runs the two-level probe loop: for every input bit
// position b and every other-bit combination, flip b and observe whether
// D_p changes, correcting for high-Z via D_p's own paired probe bit.
func discoverDependencies(dump []byte, out *[NumOutputs]PinAnalysis) {
	for i := uint32(0); i < (1 << (NumInputs - 1)); i++ {
		for b := 0; b < NumInputs; b++ {
			addr := insertZeroBit(i, b)
			addrSet := addr | (1 << uint(b))
			data0 := dump[addr]
			data1 := dump[addrSet]

			for p := 0; p < NumOutputs; p++ {
				q := probeBase + p
				if b == q {
					continue
				}
				outBit := byte(1) << uint(p)
				probeBit := uint32(1) << uint(q)

				d2 := dump[addr&^probeBit]
				d3 := dump[addr|probeBit]
				highzClear := (d2 & outBit) != (d3 & outBit)

				d2s := dump[addrSet&^probeBit]
				d3s := dump[addrSet|probeBit]
				highzSet := (d2s & outBit) != (d3s & outBit)

				if highzClear != highzSet {
					out[p].OEDependsMask |= 1 << uint(b)
				}

				if (data0&outBit) != (data1&outBit) && !highzClear && !highzSet {
					out[p].DependsMask |= 1 << uint(b)
				}

				if !highzClear {
					markSeen(&out[p], data0&outBit != 0)
				}
				if !highzSet {
					markSeen(&out[p], data1&outBit != 0)
				}
			}
		}
	}
}

func markSeen(p *PinAnalysis, high bool) {
	if high {
		p.SeenHigh = true
	} else {
		p.SeenLow = true
	}
}

// classifyLevel fills PosMinterms/NegMinterms/DontcareMinterms for one pin
// whose DependsMask is non-zero.
func classifyLevel(dump []byte, p *PinAnalysis, probeBit uint32, outBit byte) error {
	otherBits := fullInputMask() &^ p.DependsMask

	for _, assignment := range iterateMask(p.DependsMask) {
		minterm := mintermFor(assignment, p.DependsVars)

		data, found := findDriven(dump, assignment, otherBits, probeBit, outBit)
		if !found {
			return fmt.Errorf("no input combination found that is not high-Z")
		}

		if !isRelevant(dump, assignment, otherBits) {
			p.DontcareMinterms = append(p.DontcareMinterms, minterm)
		} else if data&outBit == 0 {
			p.NegMinterms = append(p.NegMinterms, minterm)
		} else {
			p.PosMinterms = append(p.PosMinterms, minterm)
		}
	}
	return nil
}

// findDriven searches the addresses formed by OR-ing assignment with every
// combination of the bits outside depends_mask, for one at which the pin
// is actively driven (toggling its probe bit does not change D_p).
func findDriven(dump []byte, assignment, otherBits uint32, probeBit uint32, outBit byte) (byte, bool) {
	for _, r := range iterateMask(otherBits) {
		addr := assignment | r
		if (dump[addr] & outBit) == (dump[addr^probeBit] & outBit) {
			return dump[addr], true
		}
	}
	return 0, false
}

// isRelevant reports whether some completion of assignment reaches a
// reachable input combination, i.e. one where the feedback probe bits
// (A17..A10) agree with the dumped data byte. If no such completion
// exists, the assignment is unreachable under the probe wiring and the
// corresponding minterm is a don't-care.
func isRelevant(dump []byte, assignment, otherBits uint32) bool {
	for _, r := range iterateMask(otherBits) {
		addr := assignment | r
		if (addr&0x3fc00)>>10 == uint32(dump[addr]) {
			return true
		}
	}
	return false
}

// classifyOE fills OEPosMinterms/OENegMinterms for one pin whose
// OEDependsMask is non-zero. Unlike level classification, OE depends only
// on the bits in OEDependsMask by construction, so no search over other
// bits is required: they are held at 0.
func classifyOE(dump []byte, p *PinAnalysis, probeBit uint32, outBit byte) {
	for _, assignment := range iterateMask(p.OEDependsMask) {
		minterm := mintermFor(assignment, p.OEDependsVars)
		if (dump[assignment] & outBit) != (dump[assignment|probeBit] & outBit) {
			p.OENegMinterms = append(p.OENegMinterms, minterm)
		} else {
			p.OEPosMinterms = append(p.OEPosMinterms, minterm)
		}
	}
}

// mintermFor packs the bits of assignment named by vars (ascending input
// positions) into a dense minterm value indexed by position in vars.
func mintermFor(assignment uint32, vars []int) uint64 {
	var m uint64
	for idx, b := range vars {
		if assignment&(1<<uint(b)) != 0 {
			m |= 1 << uint(idx)
		}
	}
	return m
}

// maskBits lists the set bits of mask in ascending order, skipping skip.
func maskBits(mask uint32, skip int) []int {
	var out []int
	for b := 0; b < NumInputs; b++ {
		if b == skip {
			continue
		}
		if mask&(1<<uint(b)) != 0 {
			out = append(out, b)
		}
	}
	return out
}

func fullInputMask() uint32 {
	return (1 << NumInputs) - 1
}

// insertZeroBit spreads the 17 bits of i (i < 2^17) into an 18-bit address
// with a 0 inserted at position bitpos: bits below bitpos are unchanged,
// bits at or above bitpos are shifted up by one.
func insertZeroBit(i uint32, bitpos int) uint32 {
	lowMask := uint32(1)<<uint(bitpos) - 1
	low := i & lowMask
	high := (i &^ lowMask) << 1
	return high | low
}

// iterateMask returns every sub-assignment of mask (2^popcount(mask)
// values), each a bitwise subset of mask. Order is unspecified beyond
// being deterministic for a fixed mask.
func iterateMask(mask uint32) []uint32 {
	if mask == 0 {
		return []uint32{0}
	}

	var bitvals []uint32
	for bit := uint32(1); bit != 0 && bit <= mask; bit <<= 1 {
		if mask&bit != 0 {
			bitvals = append(bitvals, bit)
		}
	}

	total := uint32(1) << uint(len(bitvals))
	out := make([]uint32, total)
	for n := uint32(0); n < total; n++ {
		var r uint32
		for i, bit := range bitvals {
			if n&(1<<uint(i)) != 0 {
				r |= bit
			}
		}
		out[n] = r
	}
	return out
}
