package merge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/classify"
	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/scorer"
	"github.com/sells-group/openings-cli/internal/store"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestMerger(t *testing.T) (*Merger, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	cl := classify.New(classify.DefaultConfig())
	sc := scorer.New(scorer.DefaultConfig(), scorer.WithNow(func() time.Time { return testNow }))
	return New(st, cl, sc), st
}

func TestProcessUnlinked(t *testing.T) {
	m, st := newTestMerger(t)
	ctx := context.Background()

	_, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{
			SourceSystem: "TABC", SourceRecordID: "MB-1", EventType: "liquor_license",
			EventDate: "2026-08-28", RawName: "Rusty Tavern", RawAddress: "500 Elm St",
			City: "DALLAS",
		},
		{
			SourceSystem: "DALLAS_CO", SourceRecordID: "CO-9", EventType: "certificate_of_occupancy",
			EventDate: "2026-08-30", RawName: "RUSTY TAVERN, LLC", RawAddress: "500 ELM STREET",
			City: "Dallas", Payload: map[string]any{"occupancy": "BAR/LOUNGE"},
		},
		{
			SourceSystem: "SALES_TAX", SourceRecordID: "ST-4", EventType: "sales_tax_permit",
			EventDate: "2026-08-25", RawName: "Casa Verde", RawAddress: "200 Oak Ave",
			City: "Plano", Payload: map[string]any{"naics": "722511"},
		},
		{
			// No address: cannot form an identity triple.
			SourceSystem: "TABC", SourceRecordID: "MB-2", EventType: "liquor_license",
			EventDate: "2026-08-29", RawName: "Homeless Bar", RawAddress: "",
			City: "Dallas",
		},
	})
	require.NoError(t, err)

	result, err := m.ProcessUnlinked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)

	// The two Dallas events collapsed into one venue.
	dallas, err := st.ListVenues(ctx, store.VenueFilter{City: "Dallas"})
	require.NoError(t, err)
	require.Len(t, dallas, 1)

	v := dallas[0]
	assert.Equal(t, "Rusty Tavern", v.Name)
	assert.Equal(t, "rusty tavern", v.NormalizedName)
	assert.Equal(t, "500 elm street", v.NormalizedAddress)
	assert.Equal(t, model.VenueTypeBar, v.VenueType)
	// The certificate of occupancy advanced the status past permitting.
	assert.Equal(t, model.StatusOpeningSoon, v.Status)
	assert.Equal(t, "2026-08-28", v.FirstSeen)
	assert.Equal(t, "2026-08-30", v.LastSeen)
	// recency 50 + opening_soon 40 + bar 20
	assert.Equal(t, 110, v.PriorityScore)

	plano, err := st.ListVenues(ctx, store.VenueFilter{City: "Plano"})
	require.NoError(t, err)
	require.Len(t, plano, 1)
	assert.Equal(t, model.VenueTypeRestaurant, plano[0].VenueType)
	assert.Equal(t, "722511", plano[0].NAICSCode)
	// recency 40 + permitting 30 + restaurant 15
	assert.Equal(t, 85, plano[0].PriorityScore)
}

func TestProcessUnlinked_Rerun(t *testing.T) {
	m, st := newTestMerger(t)
	ctx := context.Background()

	_, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{SourceSystem: "TABC", EventDate: "2026-08-28", RawName: "Rusty Tavern",
			RawAddress: "500 Elm St", City: "Dallas"},
		{SourceSystem: "TABC", EventDate: "2026-08-29", RawName: "Nameless",
			RawAddress: "", City: "Dallas"},
	})
	require.NoError(t, err)

	first, err := m.ProcessUnlinked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)
	assert.Equal(t, 1, first.Created)

	// Linked events are never picked up again; only the unresolvable
	// event is revisited and skipped.
	second, err := m.ProcessUnlinked(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 0, Created: 0, Skipped: 1}, second)

	venues, err := st.ListVenues(ctx, store.VenueFilter{})
	require.NoError(t, err)
	assert.Len(t, venues, 1)
}

func TestProcessUnlinked_Empty(t *testing.T) {
	m, _ := newTestMerger(t)

	result, err := m.ProcessUnlinked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}
