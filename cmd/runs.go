package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ETL runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.ListETLRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs.")
		return nil
	}

	for _, run := range runs {
		total := 0
		parts := make([]string, 0, len(run.RowCounts))
		names := make([]string, 0, len(run.RowCounts))
		for name := range run.RowCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, run.RowCounts[name]))
			total += run.RowCounts[name]
		}

		fmt.Printf("%s  %s  lookback=%dd  events=%d  %s\n",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.ID[:8], run.LookbackDays, total, strings.Join(parts, " "))
		if run.Notes != "" {
			fmt.Printf("          notes: %s\n", run.Notes)
		}
	}
	return nil
}
