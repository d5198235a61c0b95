package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/model"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show pipeline metrics, source effectiveness, and city performance",
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	counts, err := st.LeadCountsByStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Pipeline")
	fmt.Println(strings.Repeat("-", 40))
	total := 0
	for _, status := range model.LeadStatuses {
		fmt.Printf("  %-15s %d\n", string(status), counts[status])
		total += counts[status]
	}
	fmt.Printf("  %-15s %d\n", "total", total)

	active := 0
	for _, status := range model.LeadStatuses {
		if !status.Terminal() {
			active += counts[status]
		}
	}
	fmt.Printf("  %-15s %d\n", "active", active)

	won := counts[model.LeadWon]
	lost := counts[model.LeadLost]
	if won+lost > 0 {
		fmt.Printf("\nWin rate: %.1f%% (%d won / %d decided)\n",
			float64(won)/float64(won+lost)*100, won, won+lost)
	}

	followups, err := st.VenuesNeedingFollowUp(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Follow-ups due: %d\n", len(followups))

	sources, err := st.SourceEffectiveness(ctx)
	if err != nil {
		return err
	}
	if len(sources) > 0 {
		fmt.Println("\nSource effectiveness")
		fmt.Println(strings.Repeat("-", 64))
		fmt.Printf("  %-15s %8s %6s %10s %6s\n", "Source", "Leads", "Won", "Contacted", "Demos")
		for _, s := range sources {
			fmt.Printf("  %-15s %8d %6d %10d %6d\n",
				s.SourceSystem, s.TotalLeads, s.Won, s.Contacted, s.Demos)
		}
	}

	cities, err := st.CityPerformance(ctx)
	if err != nil {
		return err
	}
	if len(cities) > 0 {
		fmt.Println("\nCity performance")
		fmt.Println(strings.Repeat("-", 72))
		fmt.Printf("  %-20s %8s %6s %10s %6s %6s\n", "City", "Leads", "Won", "Contacted", "Demos", "Lost")
		for _, c := range cities {
			fmt.Printf("  %-20s %8d %6d %10d %6d %6d\n",
				c.City, c.TotalLeads, c.Won, c.Contacted, c.Demos, c.Lost)
		}
	}

	return nil
}
