package reverse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhanne/palreverse/internal/pal"
	"github.com/jhanne/palreverse/internal/petrick"
)

// buildAndOEDump mirrors the fixture in the pal package: D0 = A0 & A1,
// enabled only while A2 = 1; D1..D7 are always actively driven low.
func buildAndOEDump() []byte {
	dump := make([]byte, pal.DumpSize)
	for addr := 0; addr < pal.DumpSize; addr++ {
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

func TestPinIndexRoundTrips(t *testing.T) {
	for i := 1; i <= 9; i++ {
		assert.Equal(t, i-1, PinIndex(i))
	}
	for i := 11; i <= 19; i++ {
		assert.Equal(t, i-2, PinIndex(i))
	}
}

func TestAnalyze_AndGateWithOE(t *testing.T) {
	cfg := DefaultConfig("test")
	rep, err := Analyze(buildAndOEDump(), cfg)
	require.NoError(t, err)

	d0 := rep.Pins[0]
	assert.Equal(t, 12, d0.PinNum)
	assert.Equal(t, "pin12", d0.Name)
	assert.Equal(t, []string{"pin1", "pin2"}, d0.LevelNames)
	assert.Equal(t, []string{"pin3"}, d0.OENames)
	assert.Equal(t, pal.NotConstant, d0.LevelConstant)
	assert.Equal(t, pal.NotConstant, d0.OEConstant)
	require.Equal(t, petrick.KindCovers, d0.Level.Kind)
	require.Equal(t, petrick.KindCovers, d0.OE.Kind)

	for p := 1; p < pal.NumOutputs; p++ {
		pr := rep.Pins[p]
		assert.Equal(t, pal.ConstLow, pr.LevelConstant)
		assert.Equal(t, pal.ConstHigh, pr.OEConstant)
	}
}

func TestRenderEquations_ContainsExpectedShape(t *testing.T) {
	cfg := DefaultConfig("test")
	rep, err := Analyze(buildAndOEDump(), cfg)
	require.NoError(t, err)

	out := RenderEquations(rep, cfg)
	assert.Contains(t, out, "Name test;")
	assert.Contains(t, out, "Device G16V8MA;")
	assert.Contains(t, out, "PIN 1=pin1;")
	assert.Contains(t, out, "PIN 19=pin19;")
	assert.Contains(t, out, "pin12.oe =")
	assert.Contains(t, out, "!pin12 =")
	// Constant-low outputs are emitted as inverted constants.
	assert.Contains(t, out, "!pin13 = 'b'1;")
	assert.Contains(t, out, "pin13.oe = 'b'1;")
}

func TestRenderTruthTable_ContainsExpectedShape(t *testing.T) {
	cfg := DefaultConfig("test")
	rep, err := Analyze(buildAndOEDump(), cfg)
	require.NoError(t, err)

	out := RenderTruthTable(rep, cfg)
	assert.True(t, strings.Contains(out, "pin12"))
	assert.True(t, strings.Contains(out, "pin12.oe"))
}
