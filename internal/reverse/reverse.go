// Package reverse is the orchestrator: it drives pal.Analyze, then
// qm.Run and petrick.Run per output pin, and renders the result as a
// human-readable truth table and as equations in the external DSL
// consumed by the cupl package's compiler front end.
package reverse

import (
	"fmt"
	"strings"

	"github.com/jhanne/palreverse/internal/pal"
	"github.com/jhanne/palreverse/internal/petrick"
	"github.com/jhanne/palreverse/internal/qm"
)

// Config controls pin naming and the literal strings used for the
// logical operators in rendered equations.
type Config struct {
	// PinNames holds all 18 PAL pin names (pins 1-9, then 11-19, ascending)
	// in the order returned by PinIndex.
	PinNames    [18]string
	AndStr      string
	OrStr       string
	NotStr      string
	ProjectName string
}

// DefaultConfig returns pin1..pin9, pin11..pin19 as pin names and the
// conventional CUPL operator strings (&, #, !).
func DefaultConfig(projectName string) Config {
	cfg := Config{ProjectName: projectName, AndStr: "&", OrStr: "#", NotStr: "!"}
	for i := 1; i <= 9; i++ {
		cfg.PinNames[PinIndex(i)] = fmt.Sprintf("pin%d", i)
	}
	for i := 11; i <= 19; i++ {
		cfg.PinNames[PinIndex(i)] = fmt.Sprintf("pin%d", i)
	}
	return cfg
}

// PinIndex maps a PAL pin number (1..9, 11..19; pin 10 is GND, pin 20 is
// VCC) to an index 0..17 in ascending pin-number order.
func PinIndex(pinnum int) int {
	if pinnum <= 9 {
		return pinnum - 1
	}
	return pinnum - 2
}

// InputPinNumber maps an EPROM address bit position (0..17) to the PAL
// pin number that drives it.
func InputPinNumber(bitpos int) int {
	if bitpos <= 8 {
		return bitpos + 1
	}
	return bitpos + 2
}

// OutputPinNumber maps an EPROM data bit position (0..7) to the PAL pin
// number it is read from.
func OutputPinNumber(bitpos int) int {
	return bitpos + 12
}

func (c Config) PinName(pinnum int) string {
	return c.PinNames[PinIndex(pinnum)]
}

// PinReport is the fully analyzed and minimized result for one output pin.
type PinReport struct {
	PinNum   int
	Name     string
	Analysis pal.PinAnalysis

	LevelNames []string // one per pal.PinAnalysis.DependsVars entry
	OENames    []string // one per pal.PinAnalysis.OEDependsVars entry

	// LevelConstant/OEConstant are NotConstant when Level/OE hold a real
	// minimization result; otherwise the pin (or its OE) never varies.
	LevelConstant pal.ConstLevel
	OEConstant    pal.ConstLevel

	// Level is the minimized equation for NOT D_p: the PAL16L8 output
	// buffer inverts, so the negative-minterm list is the equation's
	// native form (see pal.PinAnalysis.NegMinterms).
	Level petrick.Result
	OE    petrick.Result
}

// Report is the complete orchestration result for all 8 output pins.
type Report struct {
	Pins [pal.NumOutputs]PinReport
}

// Analyze runs the full pipeline: pal.Analyze on dump, then
// Quine-McCluskey and Petrick's method per pin.
func Analyze(dump []byte, cfg Config) (Report, error) {
	analyses, err := pal.Analyze(dump)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	for p := 0; p < pal.NumOutputs; p++ {
		a := analyses[p]
		pinnum := OutputPinNumber(p)

		pr := PinReport{
			PinNum:   pinnum,
			Name:     cfg.PinName(pinnum),
			Analysis: a,
		}
		for _, b := range a.DependsVars {
			pr.LevelNames = append(pr.LevelNames, cfg.PinName(InputPinNumber(b)))
		}
		for _, b := range a.OEDependsVars {
			pr.OENames = append(pr.OENames, cfg.PinName(InputPinNumber(b)))
		}

		pr.LevelConstant = a.Constant()
		if pr.LevelConstant == pal.NotConstant {
			primes := qm.Run(len(a.DependsVars), a.NegMinterms, a.DontcareMinterms)
			pr.Level = petrick.Run(primes)
		}

		pr.OEConstant = a.OEConstant()
		if pr.OEConstant == pal.NotConstant {
			primes := qm.Run(len(a.OEDependsVars), a.OEPosMinterms, nil)
			pr.OE = petrick.Run(primes)
		}

		rep.Pins[p] = pr
	}
	return rep, nil
}

// RenderEquations renders rep as a CUPL-compatible .pld source: a header
// block, PIN declarations for all 18 input/output pins, then one level
// equation and one OE equation per output pin (no level equation for a pin
// that is never driven), matching the shape that this package's sibling
// cupl.Parse consumes.
func RenderEquations(rep Report, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name %s;\n", cfg.ProjectName)
	fmt.Fprintf(&b, "Device G16V8MA;\n")
	for _, key := range []string{"Partno", "Revision", "Date", "Designer", "Company", "Assembly", "Location"} {
		fmt.Fprintf(&b, "%s ;\n", key)
	}
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "PIN %d=%s;\n", i, cfg.PinName(i))
	}
	for i := 11; i <= 19; i++ {
		fmt.Fprintf(&b, "PIN %d=%s;\n", i, cfg.PinName(i))
	}

	for _, pr := range rep.Pins {
		renderLevelEquation(&b, pr, cfg)
		renderOEEquation(&b, pr, cfg)
	}
	return b.String()
}

func renderLevelEquation(b *strings.Builder, pr PinReport, cfg Config) {
	lhs := cfg.NotStr + pr.Name
	switch pr.LevelConstant {
	case pal.ConstHigh:
		fmt.Fprintf(b, "%s = 'b'0;\n", lhs)
	case pal.ConstLow:
		fmt.Fprintf(b, "%s = 'b'1;\n", lhs)
	case pal.ConstHighZ:
		// Pin is never driven; the original tool emits nothing for it.
	default:
		writeSOP(b, lhs, cfg, pr.LevelNames, pr.Level)
	}
}

func renderOEEquation(b *strings.Builder, pr PinReport, cfg Config) {
	lhs := pr.Name + ".oe"
	switch pr.OEConstant {
	case pal.ConstHigh:
		fmt.Fprintf(b, "%s = 'b'1;\n", lhs)
	case pal.ConstLow:
		fmt.Fprintf(b, "%s = 'b'0;\n", lhs)
	default:
		writeSOP(b, lhs, cfg, pr.OENames, pr.OE)
	}
}

// writeSOP renders a minimization result as a sum-of-products equation,
// one line per product joined by OrStr, following pretty_print_sop's
// layout: literals within a product sorted by variable bit order for
// reproducibility (the output is correct unsorted too).
func writeSOP(b *strings.Builder, lhs string, cfg Config, names []string, result petrick.Result) {
	switch result.Kind {
	case petrick.KindTrue:
		fmt.Fprintf(b, "%s = 'b'1;\n", lhs)
		return
	case petrick.KindFalse:
		fmt.Fprintf(b, "%s = 'b'0;\n", lhs)
		return
	}

	cover := result.Covers[0]
	for i, cube := range cover {
		literals := cube.Named(names, cfg.NotStr)
		line := strings.Join(literals, " "+cfg.AndStr+" ")
		eol := ""
		if i == len(cover)-1 {
			eol = ";"
		}
		if i == 0 {
			fmt.Fprintf(b, "%s = %s%s\n", lhs, line, eol)
		} else {
			fmt.Fprintf(b, "  %s %s%s\n", cfg.OrStr, line, eol)
		}
	}
}

// RenderTruthTable renders rep as a plain-text, unminimized truth table:
// one line per classified minterm (positive, negative, don't-care) for
// each pin's level and OE behavior, mirroring pretty_print_truthtable.
func RenderTruthTable(rep Report, cfg Config) string {
	var b strings.Builder
	for _, pr := range rep.Pins {
		writeTruthTableSection(&b, cfg, pr.Name, pr.LevelNames, pr.Analysis.PosMinterms, pr.Analysis.NegMinterms, pr.Analysis.DontcareMinterms, pr.LevelConstant)
		writeTruthTableSection(&b, cfg, pr.Name+".oe", pr.OENames, pr.Analysis.OEPosMinterms, pr.Analysis.OENegMinterms, nil, pr.OEConstant)
	}
	return b.String()
}

func writeTruthTableSection(b *strings.Builder, cfg Config, name string, vars []string, pos, neg, dc []uint64, constant pal.ConstLevel) {
	switch constant {
	case pal.ConstHigh:
		fmt.Fprintf(b, " %s = 1;\n", name)
		fmt.Fprintf(b, "%s%s = 0;\n", cfg.NotStr, name)
		return
	case pal.ConstLow:
		fmt.Fprintf(b, " %s = 0;\n", name)
		fmt.Fprintf(b, "%s%s = 1;\n", cfg.NotStr, name)
		return
	case pal.ConstHighZ:
		return
	}

	writeMintermLines(b, cfg, " "+name, vars, pos)
	writeMintermLines(b, cfg, cfg.NotStr+name, vars, neg)
	if len(dc) != 0 {
		writeMintermLines(b, cfg, name+"_DC", vars, dc)
	}
}

func writeMintermLines(b *strings.Builder, cfg Config, resultName string, vars []string, minterms []uint64) {
	if len(minterms) == 0 {
		return
	}
	for i, m := range minterms {
		var conds []string
		for idx, name := range vars {
			if m&(1<<uint(idx)) != 0 {
				conds = append(conds, name)
			} else {
				conds = append(conds, cfg.NotStr+name)
			}
		}
		line := strings.Join(conds, " "+cfg.AndStr+" ")
		eol := " "
		if i == len(minterms)-1 {
			eol = ";"
		}
		if i == 0 {
			fmt.Fprintf(b, "%s = %s%s\n", resultName, line, eol)
		} else {
			fmt.Fprintf(b, "%s %s %s%s\n", strings.Repeat(" ", len(resultName)), cfg.OrStr, line, eol)
		}
	}
}
