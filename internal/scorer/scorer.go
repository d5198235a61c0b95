// Package scorer computes integer priority scores for sales-lead
// ranking from recency, status, venue type, contact completeness, and
// multi-source corroboration.
package scorer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/config"
	"github.com/sells-group/openings-cli/internal/model"
)

// DefaultConfig returns the standard weights. Recency dominates, and the
// status bonus deliberately ranks opening_soon above both permitting and
// open: a venue deciding on vendors right now is the most urgent target,
// while one already open has mostly decided.
func DefaultConfig() config.ScorerConfig {
	return config.ScorerConfig{
		RecencyBuckets: []config.RecencyBucket{
			{MaxAgeDays: 3, Points: 50},
			{MaxAgeDays: 7, Points: 40},
			{MaxAgeDays: 14, Points: 25},
			{MaxAgeDays: 30, Points: 10},
		},
		OpeningSoonBonus:    40,
		PermittingBonus:     30,
		OpenBonus:           10,
		BarBonus:            20,
		RestaurantBonus:     15,
		PhonePoints:         25,
		WebsitePoints:       5,
		CorroborationPoints: 15,
		CorroborationMin:    2,
	}
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	points := map[string]int{
		"opening_soon_bonus":   c.OpeningSoonBonus,
		"permitting_bonus":     c.PermittingBonus,
		"open_bonus":           c.OpenBonus,
		"bar_bonus":            c.BarBonus,
		"restaurant_bonus":     c.RestaurantBonus,
		"phone_points":         c.PhonePoints,
		"website_points":       c.WebsitePoints,
		"corroboration_points": c.CorroborationPoints,
	}
	for name, p := range points {
		if p < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if c.CorroborationMin < 1 {
		errs = append(errs, "corroboration_min must be >= 1")
	}

	for i, b := range c.RecencyBuckets {
		if b.MaxAgeDays < 0 {
			errs = append(errs, fmt.Sprintf("recency bucket %d: max_age_days must be >= 0", i))
		}
		if b.Points < 0 {
			errs = append(errs, fmt.Sprintf("recency bucket %d: points must be >= 0", i))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scorer computes priority scores. Construct with New.
type Scorer struct {
	cfg config.ScorerConfig
	now func() time.Time
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithNow overrides the clock used for recency buckets. Tests use this
// to pin "today".
func WithNow(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New returns a Scorer over the given weights. Buckets are evaluated in
// ascending age order regardless of the order configured.
func New(cfg config.ScorerConfig, opts ...Option) *Scorer {
	buckets := make([]config.RecencyBucket, len(cfg.RecencyBuckets))
	copy(buckets, cfg.RecencyBuckets)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].MaxAgeDays < buckets[j].MaxAgeDays })
	cfg.RecencyBuckets = buckets

	s := &Scorer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the priority score for one venue. Deterministic pure
// function of the signals and the clock; non-negative, unbounded above.
func (s *Scorer) Score(sig model.VenueSignals) int {
	score := s.recencyPoints(sig.FirstSeen)

	switch sig.Status {
	case model.StatusOpeningSoon:
		score += s.cfg.OpeningSoonBonus
	case model.StatusPermitting:
		score += s.cfg.PermittingBonus
	case model.StatusOpen:
		score += s.cfg.OpenBonus
	}

	switch sig.VenueType {
	case model.VenueTypeBar:
		score += s.cfg.BarBonus
	case model.VenueTypeRestaurant:
		score += s.cfg.RestaurantBonus
	}

	if sig.HasPhone {
		score += s.cfg.PhonePoints
	}
	if sig.HasWebsite {
		score += s.cfg.WebsitePoints
	}
	if sig.SourceCount >= s.cfg.CorroborationMin {
		score += s.cfg.CorroborationPoints
	}

	return score
}

// recencyPoints maps the age of firstSeen to bucket points. Missing or
// unparsable dates score zero.
func (s *Scorer) recencyPoints(firstSeen string) int {
	if firstSeen == "" {
		return 0
	}
	seen, err := time.Parse("2006-01-02", firstSeen)
	if err != nil {
		return 0
	}
	age := int(s.now().UTC().Sub(seen).Hours() / 24)
	if age < 0 {
		age = 0
	}
	for _, b := range s.cfg.RecencyBuckets {
		if age <= b.MaxAgeDays {
			return b.Points
		}
	}
	return 0
}
