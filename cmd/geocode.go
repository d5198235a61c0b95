package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/enrich"
	"github.com/sells-group/openings-cli/internal/store"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Backfill coordinates for venues that have none",
	Long: `Geocodes venue addresses through Nominatim at its mandated
one request per second. Coordinates are only set once; venues that
already have them are skipped.`,
	RunE: runGeocode,
}

func init() {
	geocodeCmd.Flags().Int("limit", 100, "maximum venues to geocode")
	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "geocode"))

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	limit, _ := cmd.Flags().GetInt("limit")
	venues, err := st.ListVenues(ctx, store.VenueFilter{Limit: limit})
	if err != nil {
		return err
	}

	geocoder := enrich.NewGeocoder("", "")
	resolved, missed := 0, 0
	for _, v := range venues {
		if v.Latitude != nil {
			continue
		}

		coords, err := geocoder.Geocode(ctx, v.Address, v.City, v.State, v.Zip)
		if err != nil {
			log.Warn("geocoding failed",
				zap.Int64("venue_id", v.ID),
				zap.String("address", v.Address),
				zap.Error(err))
			missed++
			continue
		}
		if coords == nil {
			missed++
			continue
		}

		if err := st.SetCoordinates(ctx, v.ID, coords.Latitude, coords.Longitude); err != nil {
			return err
		}
		resolved++
	}

	fmt.Printf("Geocoded: %d\n", resolved)
	fmt.Printf("Missed:   %d\n", missed)
	return nil
}
