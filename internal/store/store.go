// Package store persists venues, source events, lead activity, and ETL
// runs, and owns the create-or-merge upsert that enforces the venue
// record invariants.
package store

import (
	"context"

	"github.com/sells-group/openings-cli/internal/model"
)

// VenueFilter specifies criteria for listing venues.
type VenueFilter struct {
	VenueType     model.VenueType   `json:"venue_type,omitempty"`
	Status        model.VenueStatus `json:"status,omitempty"`
	City          string            `json:"city,omitempty"`
	LeadStatus    model.LeadStatus  `json:"lead_status,omitempty"`
	FirstSeenFrom string            `json:"first_seen_from,omitempty"` // ISO date, inclusive
	FirstSeenTo   string            `json:"first_seen_to,omitempty"`   // ISO date, inclusive
	Limit         int               `json:"limit,omitempty"`
	Offset        int               `json:"offset,omitempty"`
}

// LeadUpdate changes a venue's sales-pipeline state. Empty optional
// fields keep their stored values.
type LeadUpdate struct {
	Status       model.LeadStatus
	NextFollowUp string // ISO date
	Competitor   string
	LostReason   string
}

// Enrichment carries contact fields discovered by the places
// collaborator. Applied under the fill-if-empty rule.
type Enrichment struct {
	Phone   string
	Website string
	PlaceID string
}

// PurgeResult counts the rows removed by a venue purge.
type PurgeResult struct {
	Venues     int64
	Events     int64
	Activities int64
}

// CityCount is one distinct city and how many venues carry it.
type CityCount struct {
	City  string
	Count int
}

// SourceStats aggregates lead outcomes per upstream source system.
type SourceStats struct {
	SourceSystem string `json:"source_system"`
	TotalLeads   int    `json:"total_leads"`
	Won          int    `json:"won"`
	Contacted    int    `json:"contacted"`
	Demos        int    `json:"demos"`
}

// CityStats aggregates lead outcomes per city.
type CityStats struct {
	City       string `json:"city"`
	TotalLeads int    `json:"total_leads"`
	Won        int    `json:"won"`
	Contacted  int    `json:"contacted"`
	Demos      int    `json:"demos"`
	Lost       int    `json:"lost"`
}

// Store defines the persistence interface for the venue pipeline.
type Store interface {
	// Source events
	InsertSourceEvents(ctx context.Context, events []model.SourceEvent) (int, error)
	UnlinkedSourceEvents(ctx context.Context) ([]model.SourceEvent, error)
	LinkSourceEvent(ctx context.Context, eventID, venueID int64) error

	// Venues
	UpsertVenue(ctx context.Context, draft model.VenueDraft) (venueID int64, created bool, err error)
	GetVenue(ctx context.Context, id int64) (*model.Venue, error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error)
	HotLeads(ctx context.Context, sinceDays int) ([]model.Venue, error)
	VenuesNeedingFollowUp(ctx context.Context) ([]model.Venue, error)
	VenuesForEnrichment(ctx context.Context, minScore, limit int) ([]model.Venue, error)
	ApplyEnrichment(ctx context.Context, venueID int64, e Enrichment) error
	SetCoordinates(ctx context.Context, venueID int64, lat, lng float64) error
	UpdateNotes(ctx context.Context, venueID int64, notes string) error
	UpdateFollowUp(ctx context.Context, venueID int64, date string) error
	PurgeVenues(ctx context.Context, ids []int64) (PurgeResult, error)
	DistinctCities(ctx context.Context) ([]CityCount, error)
	RetitleCity(ctx context.Context, from, to string) (int64, error)

	// Scoring
	VenueScoreSignals(ctx context.Context) ([]model.VenueSignals, error)
	UpdatePriorityScore(ctx context.Context, venueID int64, score int) error

	// Lead tracking
	UpdateLeadStatus(ctx context.Context, venueID int64, update LeadUpdate) error
	AddLeadActivity(ctx context.Context, activity model.LeadActivity) (int64, error)
	ListLeadActivities(ctx context.Context, venueID int64) ([]model.LeadActivity, error)
	LeadCountsByStatus(ctx context.Context) (map[model.LeadStatus]int, error)
	SourceEffectiveness(ctx context.Context) ([]SourceStats, error)
	CityPerformance(ctx context.Context) ([]CityStats, error)

	// ETL runs
	InsertETLRun(ctx context.Context, run model.ETLRun) (string, error)
	ListETLRuns(ctx context.Context, limit int) ([]model.ETLRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
