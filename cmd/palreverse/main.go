package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cuplroot "github.com/jhanne/palreverse"
	cupllang "github.com/jhanne/palreverse/internal/cupl"
	"github.com/jhanne/palreverse/internal/gal"
	"github.com/jhanne/palreverse/internal/jed"
	"github.com/jhanne/palreverse/internal/pal"
	"github.com/jhanne/palreverse/internal/reverse"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "palreverse",
		Short:         "PAL/GAL reverse-engineering and WinCUPL-compatible assembly toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAnalyzeCmd(),
		newAssembleCmd(),
		newBuildCmd(),
		newDevicesCmd(),
		newVersionCmd(),
		newBurnCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the tool version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cuplroot.Version())
			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "list supported devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("g16v8as")
			fmt.Println("g22v10")
			return nil
		},
	}
}

type analyzeFlags struct {
	pins    string
	and     string
	or      string
	not     string
	outDir  string
	verbose bool
}

func newAnalyzeCmd() *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <dump>",
		Short: "reverse-engineer a PAL16L8 dump into a truth table and an equations file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.pins, "pins", "", "comma-separated list of 18 pin names (pin1..pin9,pin11..pin19 order)")
	cmd.Flags().StringVar(&f.and, "and", "", "AND operator string to emit (default &)")
	cmd.Flags().StringVar(&f.or, "or", "", "OR operator string to emit (default #)")
	cmd.Flags().StringVar(&f.not, "not", "", "NOT operator string to emit (default !)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "directory to write the truth table and equations files into (default: alongside the dump)")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "print each pin's dependency masks to stderr before minimization")
	return cmd
}

func runAnalyze(dumpPath string, f *analyzeFlags) error {
	dump, err := os.ReadFile(dumpPath)
	if err != nil {
		return fmt.Errorf("reading dump: %w", err)
	}

	stem := strings.TrimSuffix(dumpPath, filepath.Ext(dumpPath))
	projectName := filepath.Base(stem)
	cfg := reverse.DefaultConfig(projectName)
	if f.pins != "" {
		names := strings.Split(f.pins, ",")
		if len(names) != pal.NumInputs {
			return fmt.Errorf("--pins requires exactly %d names, got %d", pal.NumInputs, len(names))
		}
		for i, n := range names {
			cfg.PinNames[i] = strings.TrimSpace(n)
		}
	}
	if f.and != "" {
		cfg.AndStr = f.and
	}
	if f.or != "" {
		cfg.OrStr = f.or
	}
	if f.not != "" {
		cfg.NotStr = f.not
	}

	if f.verbose {
		traceDependencies(dump)
	}

	rep, err := reverse.Analyze(dump, cfg)
	if err != nil {
		return fmt.Errorf("analyzing dump: %w", err)
	}
	warnHighZPins(rep)

	outDir := f.outDir
	if outDir == "" {
		outDir = filepath.Dir(dumpPath)
	}
	base := filepath.Join(outDir, projectName)

	ttPath := base + "_truthtable.txt"
	if err := os.WriteFile(ttPath, []byte(reverse.RenderTruthTable(rep, cfg)), 0644); err != nil {
		return fmt.Errorf("writing truth table: %w", err)
	}
	eqPath := base + "_equations.pld"
	if err := os.WriteFile(eqPath, []byte(reverse.RenderEquations(rep, cfg)), 0644); err != nil {
		return fmt.Errorf("writing equations: %w", err)
	}

	color.Green("wrote %s and %s", ttPath, eqPath)
	return nil
}

// traceDependencies prints the raw dependency masks PalAnalyzer discovers,
// ahead of the minimization stage. Mirrors boolexprsimplifier.py's
// debug=True implicant-table trace, scoped to what Analyze exposes before
// the minimizer runs.
func traceDependencies(dump []byte) {
	result, err := pal.Analyze(dump)
	if err != nil {
		color.Yellow("verbose: analysis failed before tracing could start: %v", err)
		return
	}
	for p, pin := range result {
		fmt.Fprintf(os.Stderr, "pin D%d: depends_mask=%018b oe_depends_mask=%018b level=%v oe=%v\n",
			p, pin.DependsMask, pin.OEDependsMask, pin.Constant(), pin.OEConstant())
	}
}

func warnHighZPins(rep reverse.Report) {
	for _, pr := range rep.Pins {
		if pr.LevelConstant == pal.ConstHighZ {
			color.Yellow("warning: pin %s (%d) is permanently high-Z", pr.Name, pr.PinNum)
		}
	}
}

func newAssembleCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "assemble <equations.pld>",
		Short: "parse a CUPL-like equations file and serialize it to a JEDEC fuse map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]
			if outPath == "" {
				outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".jed"
			}
			if err := assemblePLD(inPath, outPath); err != nil {
				return err
			}
			color.Green("wrote %s", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output JED file")
	return cmd
}

func assemblePLD(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	content, err := cupllang.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inPath, err)
	}
	g, err := cupllang.Compile(content)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", inPath, err)
	}
	return writeJED(content, g, outPath)
}

func writeJED(content cupllang.Content, g *gal.GAL, outPath string) error {
	jedText := jed.MakeJEDEC(jed.Config{
		SecurityBit: false,
		Header:      headerLines(content, g.Chip),
	}, g)
	return os.WriteFile(outPath, []byte(jedText), 0644)
}

func headerLines(c cupllang.Content, chip gal.Chip) []string {
	lines := []string{
		fmt.Sprintf("CUPlang        %s", cuplroot.Version()),
		fmt.Sprintf("Device          %s", headerDeviceName(chip)),
	}
	keys := []string{"Name", "Partno", "Revision", "Date", "Designer", "Company", "Assembly", "Location"}
	for _, k := range keys {
		if v := strings.TrimSpace(c.Meta[k]); v != "" {
			lines = append(lines, fmt.Sprintf("%-15s %s", k, v))
		}
	}
	return lines
}

func headerDeviceName(chip gal.Chip) string {
	return strings.ToLower(strings.TrimPrefix(chip.Name(), "GAL"))
}

func newBuildCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "build <dump>",
		Short: "analyze a PAL16L8 dump and assemble the result straight into a JEDEC fuse map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dumpPath := args[0]
			if outPath == "" {
				outPath = strings.TrimSuffix(dumpPath, filepath.Ext(dumpPath)) + ".jed"
			}
			if err := buildFromDump(dumpPath, outPath); err != nil {
				return err
			}
			color.Green("wrote %s", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output JED file")
	return cmd
}

func buildFromDump(dumpPath, outPath string) error {
	dump, err := os.ReadFile(dumpPath)
	if err != nil {
		return fmt.Errorf("reading dump: %w", err)
	}
	projectName := strings.TrimSuffix(filepath.Base(dumpPath), filepath.Ext(dumpPath))
	cfg := reverse.DefaultConfig(projectName)

	rep, err := reverse.Analyze(dump, cfg)
	if err != nil {
		return fmt.Errorf("analyzing dump: %w", err)
	}
	warnHighZPins(rep)

	content, err := cupllang.Parse([]byte(reverse.RenderEquations(rep, cfg)))
	if err != nil {
		return fmt.Errorf("parsing generated equations: %w", err)
	}
	g, err := cupllang.Compile(content)
	if err != nil {
		return fmt.Errorf("compiling generated equations: %w", err)
	}
	return writeJED(content, g, outPath)
}

func newBurnCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "burn <file.jed|file.pld>",
		Short: "program a device with minipro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBurn(args[0], device)
		},
	}
	cmd.Flags().StringVarP(&device, "device", "p", "", "minipro device name (override)")
	return cmd
}

func runBurn(inPath, deviceOverride string) error {
	ext := strings.ToLower(filepath.Ext(inPath))
	jedPath := inPath
	if ext == ".pld" {
		tempDir, err := os.MkdirTemp("", "palreverse-burn-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tempDir)
		base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
		jedPath = filepath.Join(tempDir, base+".jed")
		if err := assemblePLD(inPath, jedPath); err != nil {
			return err
		}
	} else if ext != ".jed" {
		return fmt.Errorf("burn requires a .jed or .pld input")
	}

	data, err := os.ReadFile(jedPath)
	if err != nil {
		return err
	}
	device := deviceOverride
	if device == "" {
		device, err = jedDeviceFromFile(data)
		if err != nil {
			return err
		}
	}

	cmd := exec.Command("minipro", "-p", device, "-w", jedPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

func jedDeviceFromFile(data []byte) (string, error) {
	s := string(data)
	s = strings.TrimPrefix(s, "\x02")
	if idx := strings.Index(s, "\x03"); idx >= 0 {
		s = s[:idx]
	}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			break
		}
		if strings.HasPrefix(line, "Device") {
			v := strings.TrimSpace(strings.TrimPrefix(line, "Device"))
			if v == "" {
				return "", fmt.Errorf("JED device header is empty")
			}
			fields := strings.Fields(v)
			if len(fields) == 0 {
				return "", fmt.Errorf("JED device header is empty")
			}
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("JED device header not found")
}
