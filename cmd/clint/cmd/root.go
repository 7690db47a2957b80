package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenCircuitLab/CircuitLint/internal/config"
	"github.com/OpenCircuitLab/CircuitLint/internal/history"
	"github.com/OpenCircuitLab/CircuitLint/pkg/analysis"
	"github.com/OpenCircuitLab/CircuitLint/pkg/knowledge"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool
	useAI      bool
	describe   string
)

var rootCmd = &cobra.Command{
	Use:   "clint",
	Short: "CircuitLint - KiCad design fault detection",
	Long: `CircuitLint (clint) analyzes KiCad projects for design faults:
  - Schematic ERC: connectivity, power integrity, component rules
  - PCB DRC: routing, manufacturing limits, schematic sync
  - Optional AI-assisted deep analysis on top of the rule checks

Examples:
  clint check ./myproject             # Analyze a whole project directory
  clint sch design.kicad_sch          # Analyze a schematic
  clint pcb board.kicad_pcb           # Analyze a board
  clint history list                  # Show past analysis runs`,
	Version: "0.3.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default clint.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit the report as JSON")
	rootCmd.PersistentFlags().BoolVar(&useAI, "ai", false, "enable AI-assisted analysis")
	rootCmd.PersistentFlags().StringVar(&describe, "describe", "", "intended behavior of the design, checked against the actual wiring")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if useAI {
		cfg.AI.Enabled = true
	}
	if jsonOutput {
		cfg.Output.Format = "json"
	}
	knowledge.SetMfgOverrides(cfg.Checks.MfgOverrides)
	return cfg, nil
}

func analysisOptions(cfg *config.Config) (analysis.Options, error) {
	opts := analysis.Options{Description: describe}
	if !cfg.AI.Enabled {
		return opts, nil
	}
	if cfg.AI.APIKey == "" {
		return opts, fmt.Errorf("AI analysis requested but no API key configured (set CLINT_AI_APIKEY or OPENAI_API_KEY)")
	}
	opts.Completer = analysis.NewOpenAICompleter(cfg.AI.APIKey, cfg.AI.Model)
	return opts, nil
}

// saveToHistory records the report, best effort. A broken history
// store must not fail the analysis run.
func saveToHistory(ctx context.Context, cfg *config.Config, rep *report.Report) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.Save(ctx, rep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving history: %v\n", err)
	}
}

func renderReport(cfg *config.Config, rep *report.Report) error {
	if cfg.Output.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(rep)
	return nil
}

func printReport(rep *report.Report) {
	if rep.ProjectName != "" {
		fmt.Printf("Project: %s\n", rep.ProjectName)
	}
	fmt.Printf("Analysis: %s (report %s)\n", rep.AnalysisType, rep.ID)
	if rep.SchematicInfo != nil {
		fmt.Printf("Schematic: %d symbols, %d nets, %d power symbols\n",
			rep.SchematicInfo.SymbolsCount, rep.SchematicInfo.NetsCount,
			rep.SchematicInfo.PowerSymbolsCount)
	}
	if rep.BoardInfo != nil {
		fmt.Printf("Board: %d footprints, %d segments, %d vias, %d zones\n",
			rep.BoardInfo.FootprintsCount, rep.BoardInfo.SegmentsCount,
			rep.BoardInfo.ViasCount, rep.BoardInfo.ZonesCount)
	}
	fmt.Println()

	if len(rep.Faults) == 0 {
		fmt.Println("No issues found.")
		return
	}

	for _, f := range rep.Faults {
		fmt.Printf("[%s] %s\n", strings.ToUpper(f.Severity), f.Title)
		if f.Component != "" {
			fmt.Printf("  Component: %s\n", f.Component)
		}
		if f.Explanation != "" {
			fmt.Printf("  %s\n", f.Explanation)
		}
		if f.Fix.Description != "" {
			fmt.Printf("  Fix (%s): %s\n", f.Fix.Type, f.Fix.Description)
		}
		fmt.Println()
	}

	s := rep.Summary
	fmt.Printf("Summary: %d issues (%d errors, %d warnings, %d info)\n",
		s.Total, s.Errors, s.Warnings, s.Infos)
	var cats []string
	for cat := range s.ByCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		fmt.Printf("  %s: %d\n", cat, s.ByCategory[cat])
	}
}
