// Package merge links raw source events to canonical venues. Each
// unlinked event is normalized, classified, scored, and folded into the
// venue whose identity triple it matches, creating the venue if none
// exists yet.
package merge

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/classify"
	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/normalize"
	"github.com/sells-group/openings-cli/internal/scorer"
	"github.com/sells-group/openings-cli/internal/store"
)

// Result summarizes one merge pass.
type Result struct {
	Processed int // events linked to a venue
	Skipped   int // events with no usable name or address
	Created   int // venues created (the rest merged into existing rows)
}

// Merger runs the event-to-venue linking pass.
type Merger struct {
	store      store.Store
	classifier *classify.Classifier
	scorer     *scorer.Scorer
}

// New returns a Merger over the given collaborators.
func New(st store.Store, cl *classify.Classifier, sc *scorer.Scorer) *Merger {
	return &Merger{store: st, classifier: cl, scorer: sc}
}

// ProcessUnlinked links every pending source event. Events are handled
// sequentially so that two events for the same venue always merge
// read-after-write. Re-running is a no-op: linked events are never
// selected again.
func (m *Merger) ProcessUnlinked(ctx context.Context) (Result, error) {
	var result Result

	events, err := m.store.UnlinkedSourceEvents(ctx)
	if err != nil {
		return result, eris.Wrap(err, "merge: load unlinked events")
	}
	if len(events) == 0 {
		return result, nil
	}
	log := zap.L().With(zap.Int("pending", len(events)))
	log.Info("merging source events into venues")

	for _, ev := range events {
		draft, ok := m.draftFromEvent(ev)
		if !ok {
			result.Skipped++
			continue
		}

		venueID, created, err := m.store.UpsertVenue(ctx, draft)
		if err != nil {
			return result, eris.Wrapf(err, "merge: upsert venue for event %d", ev.ID)
		}
		if err := m.store.LinkSourceEvent(ctx, ev.ID, venueID); err != nil {
			return result, eris.Wrapf(err, "merge: link event %d", ev.ID)
		}

		result.Processed++
		if created {
			result.Created++
		}
	}

	log.Info("merge pass complete",
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// draftFromEvent builds the venue draft one event contributes. Events
// whose name or address normalize to nothing cannot form an identity
// and are skipped.
func (m *Merger) draftFromEvent(ev model.SourceEvent) (model.VenueDraft, bool) {
	normName := normalize.Name(ev.RawName)
	normAddr := normalize.Address(ev.RawAddress)
	if normName == "" || normAddr == "" {
		zap.L().Debug("skipping event with empty identity",
			zap.Int64("event_id", ev.ID),
			zap.String("source", ev.SourceSystem),
			zap.String("raw_name", ev.RawName))
		return model.VenueDraft{}, false
	}

	venueType := m.classifier.VenueType(ev)
	status := m.classifier.Status(ev)

	// Contact and corroboration signals are unknown at ingestion; they
	// enter the score on the next bulk recompute.
	score := m.scorer.Score(model.VenueSignals{
		VenueType: venueType,
		Status:    status,
		FirstSeen: ev.EventDate,
	})

	return model.VenueDraft{
		Name:              ev.RawName,
		NormalizedName:    normName,
		Address:           ev.RawAddress,
		NormalizedAddress: normAddr,
		City:              normalize.City(ev.City),
		VenueType:         venueType,
		Status:            status,
		EventDate:         ev.EventDate,
		Score:             &score,
		NAICSCode:         m.classifier.NAICS(ev),
	}, true
}
