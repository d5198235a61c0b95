package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/store"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List venues",
	Long: `Lists venues ordered by priority score, with optional filters.

Examples:
  venues --city Dallas --type bar
  venues --status opening_soon --limit 20
  venues --lead-status new --since 2026-08-01`,
	RunE: runVenues,
}

func init() {
	f := venuesCmd.Flags()
	f.String("city", "", "filter by city")
	f.String("type", "", "filter by venue type (bar, restaurant)")
	f.String("status", "", "filter by status (permitting, opening_soon, open)")
	f.String("lead-status", "", "filter by lead status")
	f.String("since", "", "only venues first seen on or after this date (YYYY-MM-DD)")
	f.String("until", "", "only venues first seen on or before this date (YYYY-MM-DD)")
	f.Int("limit", 50, "maximum rows")
	f.Int("offset", 0, "rows to skip")

	rootCmd.AddCommand(venuesCmd)
}

func runVenues(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	city, _ := cmd.Flags().GetString("city")
	vtype, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	leadStatus, _ := cmd.Flags().GetString("lead-status")
	since, _ := cmd.Flags().GetString("since")
	until, _ := cmd.Flags().GetString("until")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	venues, err := st.ListVenues(ctx, store.VenueFilter{
		City:          city,
		VenueType:     model.VenueType(vtype),
		Status:        model.VenueStatus(status),
		LeadStatus:    model.LeadStatus(leadStatus),
		FirstSeenFrom: since,
		FirstSeenTo:   until,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return err
	}

	printVenueTable(venues)
	return nil
}

func printVenueTable(venues []model.Venue) {
	if len(venues) == 0 {
		fmt.Println("No venues.")
		return
	}

	fmt.Printf("%-6s %-35s %-15s %-10s %-12s %-10s %5s %-14s\n",
		"ID", "Name", "City", "Type", "Status", "First Seen", "Score", "Lead")
	fmt.Println(strings.Repeat("-", 112))
	for _, v := range venues {
		fmt.Printf("%-6d %-35s %-15s %-10s %-12s %-10s %5d %-14s\n",
			v.ID, truncate(v.Name, 35), truncate(v.City, 15),
			string(v.VenueType), string(v.Status), v.FirstSeen,
			v.PriorityScore, string(v.LeadStatus))
	}
	fmt.Printf("\n%d venue(s)\n", len(venues))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
