package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenCircuitLab/CircuitLint/internal/config"
	"github.com/OpenCircuitLab/CircuitLint/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past analysis runs",
	Long:  `List, inspect and delete reports from the local analysis history`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <report id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <report id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRm,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of reports to list")
}

func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}
	return store, cfg, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No stored reports.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-10s  %s\n", "ID", "CREATED", "TYPE", "PROJECT")
	for _, e := range entries {
		fmt.Printf("%-36s  %-20s  %-10s  %s  (%dE %dW %dI)\n",
			e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.AnalysisType, e.ProjectName, e.Errors, e.Warnings, e.Infos)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no report with id %s", args[0])
		}
		return fmt.Errorf("reading report: %w", err)
	}
	return renderReport(cfg, rep)
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no report with id %s", args[0])
		}
		return fmt.Errorf("deleting report: %w", err)
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
