package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/store"
)

// VenueStore is the slice of the venue store the enricher needs.
type VenueStore interface {
	VenuesForEnrichment(ctx context.Context, minScore, limit int) ([]model.Venue, error)
	ApplyEnrichment(ctx context.Context, venueID int64, e store.Enrichment) error
}

// Result summarizes one enrichment pass.
type Result struct {
	Processed int
	Enriched  int // venues that gained at least a phone or website
	NotFound  int
}

// Enricher looks up venues missing a phone number and writes back what
// the Places API knows about them.
type Enricher struct {
	store   VenueStore
	places  PlacesClient
	limiter *rate.Limiter
}

// New returns an Enricher throttled to ratePerSec lookups.
func New(st VenueStore, places PlacesClient, ratePerSec float64) *Enricher {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Enricher{
		store:   st,
		places:  places,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Run enriches up to limit venues with a priority score of at least
// minScore. Contact fields land under the fill-if-empty rule, so
// re-running never clobbers data already present.
func (e *Enricher) Run(ctx context.Context, minScore, limit int) (Result, error) {
	var result Result

	venues, err := e.store.VenuesForEnrichment(ctx, minScore, limit)
	if err != nil {
		return result, eris.Wrap(err, "enrich: load venues")
	}
	if len(venues) == 0 {
		return result, nil
	}
	zap.L().Info("enriching venues", zap.Int("candidates", len(venues)))

	for _, v := range venues {
		if err := e.limiter.Wait(ctx); err != nil {
			return result, eris.Wrap(err, "enrich: rate limit wait")
		}

		details, err := e.places.Lookup(ctx, v.Name, v.Address, v.City)
		if err != nil {
			zap.L().Warn("places lookup failed",
				zap.Int64("venue_id", v.ID),
				zap.String("name", v.Name),
				zap.Error(err))
			result.Processed++
			continue
		}
		result.Processed++

		if details == nil {
			result.NotFound++
			continue
		}
		if details.Phone == "" && details.Website == "" && details.PlaceID == "" {
			result.NotFound++
			continue
		}

		if err := e.store.ApplyEnrichment(ctx, v.ID, store.Enrichment{
			Phone:   details.Phone,
			Website: details.Website,
			PlaceID: details.PlaceID,
		}); err != nil {
			return result, eris.Wrapf(err, "enrich: apply to venue %d", v.ID)
		}
		result.Enriched++
	}

	zap.L().Info("enrichment pass complete",
		zap.Int("processed", result.Processed),
		zap.Int("enriched", result.Enriched),
		zap.Int("not_found", result.NotFound))
	return result, nil
}
