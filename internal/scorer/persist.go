package scorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// SignalStore is the slice of the venue store the bulk recompute needs.
type SignalStore interface {
	VenueScoreSignals(ctx context.Context) ([]model.VenueSignals, error)
	UpdatePriorityScore(ctx context.Context, venueID int64, score int) error
}

// Recompute rescores every venue from its cumulative signals and
// persists the results. Run after enrichment or periodically; ingestion
// scores events with contact and corroboration signals still unknown.
func Recompute(ctx context.Context, st SignalStore, s *Scorer) (int, error) {
	signals, err := st.VenueScoreSignals(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "scorer: load venue signals")
	}

	updated := 0
	for _, sig := range signals {
		score := s.Score(sig)
		if err := st.UpdatePriorityScore(ctx, sig.VenueID, score); err != nil {
			return updated, eris.Wrapf(err, "scorer: update score for venue %d", sig.VenueID)
		}
		updated++
	}

	zap.L().Info("priority scores recomputed", zap.Int("venues", updated))
	return updated, nil
}

// Distribution buckets scores for the summary table shown after a
// recompute: Hot >= 100, Warm >= 70, Cool >= 40, Cold below.
func Distribution(scores []int) map[string]int {
	dist := map[string]int{}
	for _, s := range scores {
		switch {
		case s >= 100:
			dist["Hot (100+)"]++
		case s >= 70:
			dist["Warm (70-99)"]++
		case s >= 40:
			dist["Cool (40-69)"]++
		default:
			dist["Cold (<40)"]++
		}
	}
	return dist
}
