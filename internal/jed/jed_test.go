package jed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhanne/palreverse/internal/gal"
	"github.com/jhanne/palreverse/internal/testutil"
)

func buildSimpleGAL(t *testing.T) *gal.GAL {
	t.Helper()
	g := gal.NewGAL(gal.ChipGAL16V8)
	g.SetSimpleMode()
	bounds := g.Chip.BoundsForOLMC(0)
	term := gal.Term{Pins: [][]gal.Pin{{{Pin: 1}}, {{Pin: 2, Neg: true}}}}
	require.NoError(t, g.AddTerm(term, bounds))
	return g
}

func TestMakeJEDEC_UsesCRLFLineTerminator(t *testing.T) {
	g := buildSimpleGAL(t)
	out := MakeJEDEC(Config{Header: []string{"Device test"}}, g)

	assert.True(t, strings.HasPrefix(out, "\x02\r\n"))
	assert.NotContains(t, out, "\n\n", "every newline should be preceded by a carriage return")
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		assert.True(t, strings.HasSuffix(line, "\r") || line == "", "line %q should end in CR before LF", line)
	}
}

func TestMakeJEDEC_RoundTripsThroughJedParse(t *testing.T) {
	g := buildSimpleGAL(t)
	out := MakeJEDEC(Config{Header: []string{"Device test"}}, g)

	parsed, err := testutil.ParseJEDEC([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, g.Chip.TotalSize(), parsed.QF)
	assert.Equal(t, testutil.FuseChecksum(parsed.Fuses), parsed.Csum)

	reparsed, err := testutil.ParseJEDEC([]byte(out))
	require.NoError(t, err)
	assert.Empty(t, testutil.CompareJEDEC(reparsed, parsed))
}
