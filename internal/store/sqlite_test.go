package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/model"
)

var testClock = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	st.now = func() time.Time { return testClock }
	require.NoError(t, st.Migrate(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}

func intp(n int) *int { return &n }

func mustUpsert(t *testing.T, st *SQLiteStore, draft model.VenueDraft) int64 {
	t.Helper()
	id, _, err := st.UpsertVenue(context.Background(), draft)
	require.NoError(t, err)
	return id
}

func joesDraft() model.VenueDraft {
	return model.VenueDraft{
		Name:              "Joe's Bar & Grill",
		NormalizedName:    "joes grill",
		Address:           "123 Main St",
		NormalizedAddress: "123 main street",
		City:              "Dallas",
		State:             "TX",
		Status:            model.StatusPermitting,
		EventDate:         "2026-08-10",
	}
}

func TestSQLite_UpsertVenue_Create(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, created, err := st.UpsertVenue(ctx, joesDraft())
	require.NoError(t, err)
	assert.True(t, created)

	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Joe's Bar & Grill", v.Name)
	assert.Equal(t, model.StatusPermitting, v.Status)
	assert.Equal(t, "2026-08-10", v.FirstSeen)
	assert.Equal(t, "2026-08-10", v.LastSeen)
	assert.Equal(t, model.DefaultScore, v.PriorityScore)
	assert.Equal(t, model.LeadNew, v.LeadStatus)
}

func TestSQLite_UpsertVenue_MergeSameTriple(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := mustUpsert(t, st, joesDraft())

	// Same identity triple from a later certificate-of-occupancy signal.
	d2 := joesDraft()
	d2.Name = "JOE'S BAR AND GRILL"
	d2.Status = model.StatusOpeningSoon
	d2.VenueType = model.VenueTypeBar
	d2.EventDate = "2026-08-20"
	d2.Score = intp(110)

	id, created, err := st.UpsertVenue(ctx, d2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, id)

	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	// Original display name is kept; merge only advances derived fields.
	assert.Equal(t, "Joe's Bar & Grill", v.Name)
	assert.Equal(t, model.StatusOpeningSoon, v.Status)
	assert.Equal(t, model.VenueTypeBar, v.VenueType)
	assert.Equal(t, "2026-08-10", v.FirstSeen)
	assert.Equal(t, "2026-08-20", v.LastSeen)
	assert.Equal(t, 110, v.PriorityScore)

	// An older, lower-status event changes nothing.
	d3 := joesDraft()
	d3.EventDate = "2026-08-01"
	_, created, err = st.UpsertVenue(ctx, d3)
	require.NoError(t, err)
	assert.False(t, created)

	v, err = st.GetVenue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpeningSoon, v.Status)
	assert.Equal(t, "2026-08-10", v.FirstSeen)
	assert.Equal(t, "2026-08-20", v.LastSeen)
}

func TestSQLite_UpsertVenue_DistinctTriples(t *testing.T) {
	st := newTestSQLiteStore(t)

	a := mustUpsert(t, st, joesDraft())

	d := joesDraft()
	d.City = "Plano"
	b := mustUpsert(t, st, d)

	assert.NotEqual(t, a, b)
}

func TestSQLite_GetVenue_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetVenue(context.Background(), 999)
	assert.Error(t, err)
}

func TestSQLite_SourceEvents_InsertAndLink(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{SourceSystem: "TABC", SourceRecordID: "L-1", EventType: "license",
			EventDate: "2026-08-10", RawName: "Joe's Bar & Grill", RawAddress: "123 Main St",
			City: "Dallas", Payload: map[string]any{"license_type": "Mixed Beverage"}},
		{SourceSystem: "DALLAS_CO", SourceRecordID: "CO-7", EventType: "certificate_of_occupancy",
			EventDate: "2026-08-20", RawName: "Joe's Bar and Grill", RawAddress: "123 Main Street",
			City: "Dallas"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := st.UnlinkedSourceEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Oldest event date first.
	assert.Equal(t, "TABC", events[0].SourceSystem)
	assert.Equal(t, "Mixed Beverage", events[0].PayloadString("license_type"))

	venueID := mustUpsert(t, st, joesDraft())
	require.NoError(t, st.LinkSourceEvent(ctx, events[0].ID, venueID))

	remaining, err := st.UnlinkedSourceEvents(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, events[1].ID, remaining[0].ID)

	// Linking is once-only.
	err = st.LinkSourceEvent(ctx, events[0].ID, venueID)
	assert.Error(t, err)
}

func TestSQLite_ListVenues_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	mustUpsert(t, st, joesDraft())

	d := joesDraft()
	d.Name = "Casa Verde"
	d.NormalizedName = "casa verde"
	d.City = "Plano"
	d.VenueType = model.VenueTypeRestaurant
	d.Status = model.StatusOpen
	d.EventDate = "2026-07-01"
	mustUpsert(t, st, d)

	all, err := st.ListVenues(ctx, VenueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	plano, err := st.ListVenues(ctx, VenueFilter{City: "plano"})
	require.NoError(t, err)
	require.Len(t, plano, 1)
	assert.Equal(t, "Casa Verde", plano[0].Name)

	open, err := st.ListVenues(ctx, VenueFilter{Status: model.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	recent, err := st.ListVenues(ctx, VenueFilter{FirstSeenFrom: "2026-08-01"})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Joe's Bar & Grill", recent[0].Name)

	paged, err := st.ListVenues(ctx, VenueFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestSQLite_HotLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	fresh := mustUpsert(t, st, joesDraft()) // first seen 2026-08-10, 21 days back

	d := joesDraft()
	d.NormalizedName = "old spot"
	d.EventDate = "2026-06-01"
	mustUpsert(t, st, d)

	hot, err := st.HotLeads(ctx, 30)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, fresh, hot[0].ID)

	// A contacted lead drops out even when fresh.
	require.NoError(t, st.UpdateLeadStatus(ctx, fresh, LeadUpdate{Status: model.LeadContacted}))
	hot, err = st.HotLeads(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, hot)
}

func TestSQLite_VenuesNeedingFollowUp(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	due := mustUpsert(t, st, joesDraft())
	require.NoError(t, st.UpdateFollowUp(ctx, due, "2026-08-30"))

	d := joesDraft()
	d.NormalizedName = "later spot"
	future := mustUpsert(t, st, d)
	require.NoError(t, st.UpdateFollowUp(ctx, future, "2026-09-15"))

	d = joesDraft()
	d.NormalizedName = "closed out"
	won := mustUpsert(t, st, d)
	require.NoError(t, st.UpdateFollowUp(ctx, won, "2026-08-01"))
	require.NoError(t, st.UpdateLeadStatus(ctx, won, LeadUpdate{Status: model.LeadWon}))

	got, err := st.VenuesNeedingFollowUp(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due, got[0].ID)
}

func TestSQLite_Enrichment(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	d := joesDraft()
	d.Score = intp(90)
	id := mustUpsert(t, st, d)

	candidates, err := st.VenuesForEnrichment(ctx, 70, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	require.NoError(t, st.ApplyEnrichment(ctx, id, Enrichment{
		Phone: "214-555-0101", Website: "https://joes.example", PlaceID: "plc_1",
	}))

	// Fill-if-empty: a second pass never overwrites.
	require.NoError(t, st.ApplyEnrichment(ctx, id, Enrichment{
		Phone: "972-555-0202", Website: "https://other.example", PlaceID: "plc_2",
	}))

	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "214-555-0101", v.Phone)
	assert.Equal(t, "https://joes.example", v.Website)
	assert.Equal(t, "plc_1", v.PlaceID)

	// A venue with a phone is no longer a candidate.
	candidates, err = st.VenuesForEnrichment(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSQLite_SetCoordinates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id := mustUpsert(t, st, joesDraft())
	require.NoError(t, st.SetCoordinates(ctx, id, 32.78, -96.80))

	// Coordinates are write-once.
	require.NoError(t, st.SetCoordinates(ctx, id, 0, 0))

	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, v.Latitude)
	require.NotNil(t, v.Longitude)
	assert.InDelta(t, 32.78, *v.Latitude, 0.001)
	assert.InDelta(t, -96.80, *v.Longitude, 0.001)
}

func TestSQLite_PurgeVenues(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id := mustUpsert(t, st, joesDraft())
	keep := mustUpsert(t, st, func() model.VenueDraft {
		d := joesDraft()
		d.NormalizedName = "other spot"
		return d
	}())

	_, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{SourceSystem: "TABC", RawName: "Joe's", City: "Dallas"},
		{SourceSystem: "SALES_TAX", RawName: "Joe's", City: "Dallas"},
	})
	require.NoError(t, err)
	events, err := st.UnlinkedSourceEvents(ctx)
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, st.LinkSourceEvent(ctx, ev.ID, id))
	}
	_, err = st.AddLeadActivity(ctx, model.LeadActivity{VenueID: id, ActivityType: model.ActivityCall})
	require.NoError(t, err)

	result, err := st.PurgeVenues(ctx, []int64{id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Venues)
	assert.Equal(t, int64(2), result.Events)
	assert.Equal(t, int64(1), result.Activities)

	_, err = st.GetVenue(ctx, id)
	assert.Error(t, err)
	_, err = st.GetVenue(ctx, keep)
	assert.NoError(t, err)

	// Empty purge is a no-op.
	result, err = st.PurgeVenues(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{}, result)
}

func TestSQLite_CityMaintenance(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	mustUpsert(t, st, joesDraft())
	d := joesDraft()
	d.NormalizedName = "second"
	d.City = "DALLAS"
	mustUpsert(t, st, d)

	cities, err := st.DistinctCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 2)

	n, err := st.RetitleCity(ctx, "DALLAS", "Dallas")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cities, err = st.DistinctCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Dallas", cities[0].City)
	assert.Equal(t, 2, cities[0].Count)
}

func TestSQLite_VenueScoreSignals(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	d := joesDraft()
	d.VenueType = model.VenueTypeBar
	d.Phone = "214-555-0101"
	id := mustUpsert(t, st, d)

	// Two sources, one of them reporting twice.
	_, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{SourceSystem: "TABC", RawName: "Joe's", City: "Dallas"},
		{SourceSystem: "TABC", RawName: "Joe's", City: "Dallas"},
		{SourceSystem: "DALLAS_CO", RawName: "Joe's", City: "Dallas"},
	})
	require.NoError(t, err)
	events, err := st.UnlinkedSourceEvents(ctx)
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, st.LinkSourceEvent(ctx, ev.ID, id))
	}

	signals, err := st.VenueScoreSignals(ctx)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, id, sig.VenueID)
	assert.Equal(t, model.VenueTypeBar, sig.VenueType)
	assert.Equal(t, model.StatusPermitting, sig.Status)
	assert.Equal(t, "2026-08-10", sig.FirstSeen)
	assert.True(t, sig.HasPhone)
	assert.False(t, sig.HasWebsite)
	assert.Equal(t, 2, sig.SourceCount)

	require.NoError(t, st.UpdatePriorityScore(ctx, id, 130))
	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 130, v.PriorityScore)
}

func TestSQLite_LeadFlow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id := mustUpsert(t, st, joesDraft())

	require.NoError(t, st.UpdateLeadStatus(ctx, id, LeadUpdate{
		Status: model.LeadContacted, NextFollowUp: "2026-09-03",
	}))
	_, err := st.AddLeadActivity(ctx, model.LeadActivity{
		VenueID: id, ActivityType: model.ActivityCall,
		Notes: "spoke with owner", Outcome: model.OutcomeInterested,
	})
	require.NoError(t, err)

	require.NoError(t, st.UpdateLeadStatus(ctx, id, LeadUpdate{
		Status: model.LeadLost, Competitor: "RivalPOS", LostReason: "price",
	}))

	v, err := st.GetVenue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.LeadLost, v.LeadStatus)
	assert.Equal(t, "RivalPOS", v.Competitor)
	assert.Equal(t, "price", v.LostReason)
	// Empty optional fields kept the stored follow-up date.
	assert.Equal(t, "2026-09-03", v.NextFollowUp)

	activities, err := st.ListLeadActivities(ctx, id)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityCall, activities[0].ActivityType)
	assert.Equal(t, "2026-08-31", activities[0].ActivityDate)

	counts, err := st.LeadCountsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.LeadLost])
	assert.Equal(t, 0, counts[model.LeadNew])

	err = st.UpdateLeadStatus(ctx, 999, LeadUpdate{Status: model.LeadWon})
	assert.Error(t, err)
}

func TestSQLite_SourceEffectiveness(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id := mustUpsert(t, st, joesDraft())
	_, err := st.InsertSourceEvents(ctx, []model.SourceEvent{
		{SourceSystem: "TABC", RawName: "Joe's", City: "Dallas"},
	})
	require.NoError(t, err)
	events, err := st.UnlinkedSourceEvents(ctx)
	require.NoError(t, err)
	require.NoError(t, st.LinkSourceEvent(ctx, events[0].ID, id))
	require.NoError(t, st.UpdateLeadStatus(ctx, id, LeadUpdate{Status: model.LeadWon}))

	stats, err := st.SourceEffectiveness(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "TABC", stats[0].SourceSystem)
	assert.Equal(t, 1, stats[0].TotalLeads)
	assert.Equal(t, 1, stats[0].Won)

	cities, err := st.CityPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Dallas", cities[0].City)
	assert.Equal(t, 1, cities[0].Won)
	assert.Equal(t, 0, cities[0].Lost)
}

func TestSQLite_ETLRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.InsertETLRun(ctx, model.ETLRun{
		StartedAt:    testClock.Add(-time.Minute),
		FinishedAt:   testClock,
		LookbackDays: 30,
		RowCounts:    map[string]int{"TABC": 12, "SALES_TAX": 7},
		Notes:        "DALLAS_CO fetch failed",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	runs, err := st.ListETLRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 30, runs[0].LookbackDays)
	assert.Equal(t, 12, runs[0].RowCounts["TABC"])
	assert.Equal(t, "DALLAS_CO fetch failed", runs[0].Notes)
}
