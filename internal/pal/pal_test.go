package pal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAndOEDump constructs a synthetic dump for a device wired as:
//
//	D0 = A0 & A1, enabled only while A2 = 1 (high-Z otherwise)
//	D1..D7 are always actively driven low
//
// While D0 floats, its pin physically reads back whatever level the A10
// probe resistor is holding (the high-Z probing trick this package
// exploits), exactly as a real PAL16L8 dump would show.
func buildAndOEDump() []byte {
	dump := make([]byte, DumpSize)
	for addr := 0; addr < DumpSize; addr++ {
		a0 := addr&1 != 0
		a1 := addr&2 != 0
		a2 := addr&4 != 0
		a10 := addr&(1<<10) != 0

		var d0 bool
		if a2 {
			d0 = a0 && a1
		} else {
			d0 = a10
		}

		var b byte
		if d0 {
			b |= 1
		}
		dump[addr] = b
	}
	return dump
}

func TestAnalyze_RejectsWrongSize(t *testing.T) {
	_, err := Analyze(make([]byte, 100))
	assert.Error(t, err)
}

func TestAnalyze_AndGateWithOE(t *testing.T) {
	dump := buildAndOEDump()
	result, err := Analyze(dump)
	require.NoError(t, err)

	d0 := result[0]
	assert.Equal(t, uint32(0b011), d0.DependsMask, "D0 should depend on A0 and A1 only")
	assert.Equal(t, uint32(0b100), d0.OEDependsMask, "D0.oe should depend on A2 only")
	assert.Equal(t, []int{0, 1}, d0.DependsVars)
	assert.Equal(t, []int{2}, d0.OEDependsVars)

	assert.ElementsMatch(t, []uint64{0, 1, 2}, d0.NegMinterms)
	assert.ElementsMatch(t, []uint64{3}, d0.PosMinterms)
	assert.Empty(t, d0.DontcareMinterms)

	assert.ElementsMatch(t, []uint64{1}, d0.OEPosMinterms, "A2=1 drives the pin")
	assert.ElementsMatch(t, []uint64{0}, d0.OENegMinterms, "A2=0 is high-Z")

	assert.True(t, d0.SeenHigh)
	assert.True(t, d0.SeenLow)
	assert.Equal(t, NotConstant, d0.Constant())
	assert.Equal(t, NotConstant, d0.OEConstant())

	// Outputs 1..7 are wired constant-low and always driven.
	for p := 1; p < NumOutputs; p++ {
		pr := result[p]
		assert.Equal(t, uint32(0), pr.DependsMask, "output %d should have no dependencies", p)
		assert.Equal(t, ConstLow, pr.Constant())
		assert.Equal(t, ConstHigh, pr.OEConstant(), "output %d is always enabled", p)
	}
}

func TestInsertZeroBit(t *testing.T) {
	assert.Equal(t, uint32(0b0101), insertZeroBit(0b011, 1))
	assert.Equal(t, uint32(0b0110), insertZeroBit(0b011, 0))
}

func TestIterateMask(t *testing.T) {
	got := iterateMask(0b101)
	assert.ElementsMatch(t, []uint32{0b000, 0b001, 0b100, 0b101}, got)

	assert.Equal(t, []uint32{0}, iterateMask(0))
}
