package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/gridlock/internal/config"
	"github.com/user/gridlock/internal/report"
)

var (
	historyDataDir string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded run summaries",
	RunE:  runHistory,
}

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.json>",
	Short: "Validate a scenario file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadScenario(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s: valid\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDataDir, "data-dir", "./data", "directory holding the history database")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := report.OpenHistory(historyDataDir)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	runs, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tELAPSED\tWORKERS\tPOOL\tISSUED\tEXECUTED\tBACKOFF\tSUPPRESSED\tFALLBACK\tRETRIED\tEXHAUSTED\tWARN")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Elapsed,
			r.WorkerCount, r.PoolSize, r.Issued,
			r.Executed, r.Backoff, r.Suppressed, r.Fallback,
			r.SuccessfulRetries, r.ExhaustedRetries, r.Warnings)
	}
	return w.Flush()
}
