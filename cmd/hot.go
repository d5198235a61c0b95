package main

import (
	"github.com/spf13/cobra"
)

var hotCmd = &cobra.Command{
	Use:   "hot",
	Short: "Show uncontacted leads first seen recently",
	Long: `Shows venues still in the "new" lead state that were first
seen inside the window, ranked by priority score. This is the daily
call list.`,
	RunE: runHot,
}

func init() {
	hotCmd.Flags().Int("days", 14, "first-seen window in days")
	rootCmd.AddCommand(hotCmd)
}

func runHot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	days, _ := cmd.Flags().GetInt("days")
	venues, err := st.HotLeads(ctx, days)
	if err != nil {
		return err
	}

	printVenueTable(venues)
	return nil
}
