package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenCircuitLab/CircuitLint/pkg/analysis"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
)

var schCmd = &cobra.Command{
	Use:   "sch",
	Short: "Schematic operations",
	Long:  `Analyze and inspect KiCad schematic files (.kicad_sch)`,
}

var schCheckCmd = &cobra.Command{
	Use:   "check <file.kicad_sch>",
	Short: "Run ERC checks on a schematic",
	Long: `Parse a schematic, resolve its net connectivity and run the
electrical rule checks. With --ai the rule findings are also sent
to the AI layer for deeper review.`,
	Args: cobra.ExactArgs(1),
	RunE: runSchCheck,
}

var schInfoCmd = &cobra.Command{
	Use:   "info <file.kicad_sch>",
	Short: "Show parsed schematic contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchInfo,
}

var schNetsCmd = &cobra.Command{
	Use:   "nets <file.kicad_sch>",
	Short: "Show resolved nets and their pin members",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchNets,
}

func init() {
	rootCmd.AddCommand(schCmd)
	schCmd.AddCommand(schCheckCmd)
	schCmd.AddCommand(schInfoCmd)
	schCmd.AddCommand(schNetsCmd)
}

func runSchCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cfg)
	if err != nil {
		return err
	}

	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("reading schematic: %w", err)
	}

	rep, err := analysis.AnalyzeSchematic(cmd.Context(), sch, opts)
	if err != nil {
		return fmt.Errorf("analyzing schematic: %w", err)
	}
	rep.ProjectName = args[0]

	saveToHistory(cmd.Context(), cfg, rep)
	return renderReport(cfg, rep)
}

func runSchInfo(cmd *cobra.Command, args []string) error {
	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("reading schematic: %w", err)
	}

	fmt.Printf("File: %s (version %s)\n", args[0], sch.Version)
	fmt.Printf("Symbols: %d  Power symbols: %d  Wires: %d  Labels: %d\n",
		len(sch.Symbols), len(sch.PowerSymbols), len(sch.Wires), len(sch.Labels))
	fmt.Printf("Junctions: %d  No-connects: %d\n\n", len(sch.Junctions), len(sch.NoConnects))

	if len(sch.Symbols) > 0 {
		fmt.Println("Components:")
		for _, ref := range sch.References() {
			sym := sch.GetSymbol(ref)
			fmt.Printf("  %-6s %-30s %s\n", sym.Reference, sym.LibID, sym.Value)
		}
	}
	return nil
}

func runSchNets(cmd *cobra.Command, args []string) error {
	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("reading schematic: %w", err)
	}

	if len(sch.Nets) == 0 {
		fmt.Println("No nets resolved.")
		return nil
	}

	fmt.Printf("Nets (%d):\n", len(sch.Nets))
	var names []string
	for name := range sch.Nets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pins := sch.Nets[name]
		if len(pins) == 0 {
			fmt.Printf("  %-20s (power only)\n", name)
			continue
		}
		fmt.Printf("  %-20s %v\n", name, pins)
	}
	return nil
}
