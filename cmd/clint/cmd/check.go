package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenCircuitLab/CircuitLint/internal/config"
	"github.com/OpenCircuitLab/CircuitLint/pkg/analysis"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/project"
)

var suggestFixes bool

var checkCmd = &cobra.Command{
	Use:   "check <project path>",
	Short: "Analyze a full KiCad project",
	Long: `Load a KiCad project (a directory or any file inside it), run the
schematic and board rule checks and produce a combined fault report.
With --fix the AI layer also proposes concrete fixes for the faults
it found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&suggestFixes, "fix", false, "ask the AI layer for fix suggestions (implies --ai)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if suggestFixes {
		useAI = true
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cfg)
	if err != nil {
		return err
	}

	proj, err := project.LoadFromPath(args[0])
	if err != nil {
		if project.IsInvalidInput(err) {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return fmt.Errorf("loading project: %w", err)
	}

	rep, err := analysis.AnalyzeProject(cmd.Context(), proj, opts)
	if err != nil {
		return fmt.Errorf("analyzing project: %w", err)
	}

	saveToHistory(cmd.Context(), cfg, rep)
	if err := renderReport(cfg, rep); err != nil {
		return err
	}

	if !suggestFixes || len(rep.Faults) == 0 {
		return nil
	}
	fixes, err := analysis.SuggestFixes(cmd.Context(), opts.Completer, rep, proj.RawSchematic, proj.RawBoard)
	if err != nil {
		return fmt.Errorf("generating fix suggestions: %w", err)
	}
	return renderFixes(cfg, fixes)
}

func renderFixes(cfg *config.Config, fixes *analysis.FixSuggestions) error {
	if cfg.Output.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fixes)
	}

	fmt.Println("Suggested fixes:")
	if fixes.Summary != "" {
		fmt.Printf("  %s\n\n", fixes.Summary)
	}
	for _, ch := range fixes.SchematicChanges {
		fmt.Printf("  [sch] %s: %s\n", ch.Component, ch.Description)
	}
	for _, ch := range fixes.PCBChanges {
		fmt.Printf("  [pcb] %s: %s\n", ch.Component, ch.Description)
	}
	for _, nc := range fixes.NewComponents {
		fmt.Printf("  [add] %s %s: %s (%s)\n", nc.Type, nc.Value, nc.Purpose, nc.Connection)
	}
	return nil
}
