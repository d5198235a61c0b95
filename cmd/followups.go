package main

import (
	"github.com/spf13/cobra"
)

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Show venues with a follow-up due today or earlier",
	RunE:  runFollowups,
}

func init() {
	rootCmd.AddCommand(followupsCmd)
}

func runFollowups(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	venues, err := st.VenuesNeedingFollowUp(ctx)
	if err != nil {
		return err
	}

	printVenueTable(venues)
	return nil
}
