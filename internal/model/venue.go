// Package model defines the domain types shared across the pipeline:
// source events, canonical venues, lead tracking, and ETL run records.
package model

import "time"

// VenueType classifies a venue as a bar or restaurant.
// The empty string means the type has not been determined yet.
type VenueType string

const (
	VenueTypeBar        VenueType = "bar"
	VenueTypeRestaurant VenueType = "restaurant"
	VenueTypeUnknown    VenueType = ""
)

// VenueStatus is the lifecycle stage of a venue, inferred from the kinds
// of signals seen so far.
type VenueStatus string

const (
	StatusUnknown     VenueStatus = "unknown"
	StatusPermitting  VenueStatus = "permitting"
	StatusOpeningSoon VenueStatus = "opening_soon"
	StatusOpen        VenueStatus = "open"
)

// Rank places statuses on the total order used for merging:
// open > opening_soon > permitting > unknown. A stored status is only
// replaced by one with a strictly higher rank.
func (s VenueStatus) Rank() int {
	switch s {
	case StatusOpen:
		return 3
	case StatusOpeningSoon:
		return 2
	case StatusPermitting:
		return 1
	default:
		return 0
	}
}

// LeadStatus is the sales-pipeline state layered on top of venue identity.
type LeadStatus string

const (
	LeadNew           LeadStatus = "new"
	LeadContacted     LeadStatus = "contacted"
	LeadDemoScheduled LeadStatus = "demo_scheduled"
	LeadWon           LeadStatus = "won"
	LeadLost          LeadStatus = "lost"
	LeadNotInterested LeadStatus = "not_interested"
)

// Terminal reports whether the lead is out of the active pipeline.
func (s LeadStatus) Terminal() bool {
	return s == LeadWon || s == LeadLost || s == LeadNotInterested
}

// LeadStatuses lists every valid lead status.
var LeadStatuses = []LeadStatus{
	LeadNew, LeadContacted, LeadDemoScheduled, LeadWon, LeadLost, LeadNotInterested,
}

// Venue is the deduplicated, canonical record for one real-world
// restaurant or bar location. Identity is the exact triple
// (NormalizedName, NormalizedAddress, City).
type Venue struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	NormalizedName    string      `json:"normalized_name"`
	Address           string      `json:"address"`
	NormalizedAddress string      `json:"normalized_address"`
	City              string      `json:"city"`
	State             string      `json:"state"`
	Zip               string      `json:"zip,omitempty"`
	Latitude          *float64    `json:"latitude,omitempty"`
	Longitude         *float64    `json:"longitude,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Website           string      `json:"website,omitempty"`
	PlaceID           string      `json:"place_id,omitempty"`
	NAICSCode         string      `json:"naics_code,omitempty"`
	VenueType         VenueType   `json:"venue_type"`
	Status            VenueStatus `json:"status"`
	FirstSeen         string      `json:"first_seen_date"` // ISO date, "" = unknown
	LastSeen          string      `json:"last_seen_date"`  // ISO date, "" = unknown
	PriorityScore     int         `json:"priority_score"`
	Notes             string      `json:"notes,omitempty"`
	LeadStatus        LeadStatus  `json:"lead_status"`
	NextFollowUp      string      `json:"next_follow_up,omitempty"` // ISO date
	Competitor        string      `json:"competitor,omitempty"`
	LostReason        string      `json:"lost_reason,omitempty"`
}

// SourceEvent is one raw observation imported from an upstream feed.
// Immutable once created except for VenueID, which is set exactly once
// when the matcher links the event to a venue.
type SourceEvent struct {
	ID             int64          `json:"id"`
	VenueID        *int64         `json:"venue_id,omitempty"`
	SourceSystem   string         `json:"source_system"`
	SourceRecordID string         `json:"source_record_id,omitempty"`
	EventType      string         `json:"event_type"`
	EventDate      string         `json:"event_date,omitempty"` // ISO date, "" = unparsable
	RawName        string         `json:"raw_name"`
	RawAddress     string         `json:"raw_address"`
	City           string         `json:"city"`
	URL            string         `json:"url,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PayloadString returns the payload value for key as a string, or ""
// when the key is absent or not string-valued. Lookups are best-effort
// by design; a malformed payload never fails classification.
func (e SourceEvent) PayloadString(key string) string {
	if e.Payload == nil {
		return ""
	}
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// LeadActivity is an append-only outreach log entry tied to a venue.
type LeadActivity struct {
	ID             int64     `json:"id"`
	VenueID        int64     `json:"venue_id"`
	ActivityType   string    `json:"activity_type"`
	ActivityDate   string    `json:"activity_date"` // ISO date
	Notes          string    `json:"notes,omitempty"`
	Outcome        string    `json:"outcome,omitempty"`
	NextActionDate string    `json:"next_action_date,omitempty"` // ISO date
	CreatedAt      time.Time `json:"created_at"`
}

// Activity types.
const (
	ActivityCall  = "call"
	ActivityEmail = "email"
	ActivityVisit = "visit"
	ActivityDemo  = "demo"
	ActivityNote  = "note"
)

// Activity outcomes.
const (
	OutcomeNoAnswer      = "no_answer"
	OutcomeCallback      = "callback"
	OutcomeInterested    = "interested"
	OutcomeNotInterested = "not_interested"
	OutcomeDemoBooked    = "demo_booked"
	OutcomeLeftVoicemail = "left_voicemail"
)

// VenueSignals are the cumulative inputs the scorer needs for one venue:
// contact completeness and corroboration are only fully known after all
// sources for the venue have been merged.
type VenueSignals struct {
	VenueID     int64
	VenueType   VenueType
	Status      VenueStatus
	FirstSeen   string // ISO date, "" = unknown
	HasPhone    bool
	HasWebsite  bool
	SourceCount int // distinct upstream source systems reporting this venue
}

// ETLRun records one ingestion batch: when it ran, the lookback window,
// and how many rows each source produced. Append-only audit log.
type ETLRun struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	LookbackDays int            `json:"lookback_days"`
	RowCounts    map[string]int `json:"row_counts"`
	Notes        string         `json:"notes,omitempty"`
}
