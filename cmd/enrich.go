package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/enrich"
	"github.com/sells-group/openings-cli/internal/scorer"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing phone numbers and websites from the Places API",
	Long: `Looks up venues that still have no phone number and writes
back what the Places API knows (phone, website, place id), then
recomputes scores so the new contact info counts.

Examples:
  # Enrich the top-priority venues only
  enrich --priority-only --limit 50

  # Preview without spending API quota
  enrich --dry-run`,
	RunE: runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.Int("limit", 0, "maximum venues to process (0=all)")
	f.Bool("priority-only", false, "only venues at or above the configured priority score")
	f.Bool("dry-run", false, "list candidates without calling the API")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limit, _ := cmd.Flags().GetInt("limit")
	priorityOnly, _ := cmd.Flags().GetBool("priority-only")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	minScore := 0
	if priorityOnly {
		minScore = cfg.Enrich.PriorityScore
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if dryRun {
		venues, err := st.VenuesForEnrichment(ctx, minScore, limit)
		if err != nil {
			return err
		}
		fmt.Printf("Would enrich %d venue(s):\n", len(venues))
		printVenueTable(venues)
		return nil
	}

	if cfg.Enrich.PlacesAPIKey == "" {
		return eris.New("enrich: places_api_key not configured (set OPENINGS_ENRICH_PLACES_API_KEY)")
	}

	places := enrich.NewGooglePlacesClient(
		cfg.Enrich.PlacesAPIKey, cfg.Enrich.PlacesBaseURL, cfg.Enrich.RegionSuffix)
	result, err := enrich.New(st, places, cfg.Enrich.RatePerSec).Run(ctx, minScore, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Processed: %d\n", result.Processed)
	fmt.Printf("Enriched:  %d\n", result.Enriched)
	fmt.Printf("Not found: %d\n", result.NotFound)

	if result.Enriched > 0 {
		sc, err := buildScorer()
		if err != nil {
			return err
		}
		updated, err := scorer.Recompute(ctx, st, sc)
		if err != nil {
			return err
		}
		fmt.Printf("Rescored:  %d venues\n", updated)
	}
	return nil
}
