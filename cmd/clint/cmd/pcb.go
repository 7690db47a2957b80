package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenCircuitLab/CircuitLint/pkg/analysis"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
)

var pcbSchematicFile string

var pcbCmd = &cobra.Command{
	Use:   "pcb",
	Short: "PCB operations",
	Long:  `Analyze and inspect KiCad board files (.kicad_pcb)`,
}

var pcbCheckCmd = &cobra.Command{
	Use:   "check <file.kicad_pcb>",
	Short: "Run DRC checks on a board",
	Long: `Parse a board layout and run the design rule checks: unrouted
nets, trace widths, via sizes, clearance and power routing. Pass
--schematic to also cross check the board against its schematic.`,
	Args: cobra.ExactArgs(1),
	RunE: runPCBCheck,
}

var pcbInfoCmd = &cobra.Command{
	Use:   "info <file.kicad_pcb>",
	Short: "Show parsed board contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runPCBInfo,
}

func init() {
	rootCmd.AddCommand(pcbCmd)
	pcbCmd.AddCommand(pcbCheckCmd)
	pcbCmd.AddCommand(pcbInfoCmd)
	pcbCheckCmd.Flags().StringVar(&pcbSchematicFile, "schematic", "", "schematic file to cross check against")
}

func runPCBCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cfg)
	if err != nil {
		return err
	}

	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("reading board: %w", err)
	}

	var sch *schematic.Schematic
	if pcbSchematicFile != "" {
		sch, err = schematic.ParseFile(pcbSchematicFile)
		if err != nil {
			return fmt.Errorf("reading schematic: %w", err)
		}
	}

	rep, err := analysis.AnalyzePCB(cmd.Context(), board, sch, opts)
	if err != nil {
		return fmt.Errorf("analyzing board: %w", err)
	}
	rep.ProjectName = args[0]

	saveToHistory(cmd.Context(), cfg, rep)
	return renderReport(cfg, rep)
}

func runPCBInfo(cmd *cobra.Command, args []string) error {
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("reading board: %w", err)
	}

	fmt.Printf("File: %s (version %s)\n", args[0], board.Version)
	fmt.Printf("Layers: %d  Footprints: %d  Segments: %d  Vias: %d  Zones: %d\n\n",
		len(board.Layers), len(board.Footprints), len(board.Segments),
		len(board.Vias), len(board.Zones))

	if len(board.Layers) > 0 {
		fmt.Println("Layers:")
		for _, layer := range board.Layers {
			fmt.Printf("  %2d %-12s %s\n", layer.Ordinal, layer.Name, layer.Type)
		}
		fmt.Println()
	}

	if len(board.Footprints) > 0 {
		fmt.Println("Footprints:")
		for _, fp := range board.Footprints {
			fmt.Printf("  %-6s %-40s %d pads (%s)\n",
				fp.Reference, fp.Library, len(fp.Pads), fp.Layer)
		}
		fmt.Println()
	}

	if len(board.Nets) > 0 {
		fmt.Printf("Nets (%d):\n", len(board.Nets))
		var nums []int
		for num := range board.Nets {
			nums = append(nums, num)
		}
		sort.Ints(nums)
		for _, num := range nums {
			name := board.Nets[num]
			if name == "" {
				continue
			}
			fmt.Printf("  %3d %s\n", num, name)
		}
	}
	return nil
}
