// Package classify infers a venue's type and lifecycle status from a
// single source event, using immutable keyword configuration. Inference
// never fails: unknown sources and malformed payloads resolve to the
// unknown variants.
package classify

import (
	"strings"

	"github.com/sells-group/openings-cli/internal/model"
)

// Category is the closed set of source-feed kinds the classifier knows
// about. Each registered source system maps to exactly one category;
// adding a data source is a registry entry, not new branching logic.
type Category string

const (
	CategoryLiquorLicense  Category = "liquor_license"
	CategorySalesTax       Category = "sales_tax"
	CategoryBuildingPermit Category = "building_permit"
	CategoryOccupancy      Category = "certificate_of_occupancy"
	CategoryUnknown        Category = "unknown"
)

// SourceSpec describes one upstream source system: its category and the
// payload fields that carry classification signals.
type SourceSpec struct {
	Category Category

	// LicenseTypeField names the payload field holding the license type
	// for liquor-license sources.
	LicenseTypeField string

	// UseFields name the payload fields holding the occupancy/use
	// description for certificate-of-occupancy sources. All present
	// fields are concatenated before keyword matching.
	UseFields []string

	// NAICSField names the payload field holding the industry
	// classification code for sales-tax sources.
	NAICSField string
}

// Classifier infers venue type and status. Construct with New; the
// zero value is not usable.
type Classifier struct {
	cfg Config
}

// New returns a Classifier over the given configuration.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// VenueType infers bar/restaurant/unknown from the event. Match order:
// bar keyword in the raw name, then the source-specific payload signal,
// then a restaurant keyword in the raw name.
func (c *Classifier) VenueType(ev model.SourceEvent) model.VenueType {
	name := strings.ToLower(ev.RawName)

	if containsAny(name, c.cfg.BarKeywords) {
		return model.VenueTypeBar
	}

	spec := c.cfg.Sources[ev.SourceSystem]
	switch spec.Category {
	case CategoryLiquorLicense:
		licenseType := strings.ToLower(ev.PayloadString(spec.LicenseTypeField))
		if containsAny(licenseType, c.cfg.BarKeywords) {
			return model.VenueTypeBar
		}
		// A liquor license with no bar signal is still food service.
		return model.VenueTypeRestaurant

	case CategoryOccupancy:
		var parts []string
		for _, f := range spec.UseFields {
			if v := ev.PayloadString(f); v != "" {
				parts = append(parts, strings.ToLower(v))
			}
		}
		use := strings.Join(parts, " ")
		if containsAny(use, c.cfg.BarKeywords) {
			return model.VenueTypeBar
		}
		if containsAny(use, c.cfg.RestaurantKeywords) {
			return model.VenueTypeRestaurant
		}

	case CategorySalesTax:
		naics := ev.PayloadString(spec.NAICSField)
		switch {
		case naics == naicsDrinkingPlaces:
			return model.VenueTypeBar
		case strings.HasPrefix(naics, naicsRestaurantPrefix) && naics != "":
			return model.VenueTypeRestaurant
		}
	}

	if containsAny(name, c.cfg.RestaurantKeywords) {
		return model.VenueTypeRestaurant
	}
	return model.VenueTypeUnknown
}

// NAICS-based classification for sales-tax permits. 722410 is Drinking
// Places (Alcoholic Beverages); the 7225 family covers restaurants.
const (
	naicsDrinkingPlaces   = "722410"
	naicsRestaurantPrefix = "7225"
)

// Status infers the lifecycle stage from the source category alone.
// Licenses and permits are early signals; a certificate of occupancy
// means the space is approved and opening is imminent.
func (c *Classifier) Status(ev model.SourceEvent) model.VenueStatus {
	switch c.cfg.Sources[ev.SourceSystem].Category {
	case CategoryLiquorLicense, CategorySalesTax, CategoryBuildingPermit:
		return model.StatusPermitting
	case CategoryOccupancy:
		return model.StatusOpeningSoon
	default:
		return model.StatusUnknown
	}
}

// NAICS extracts the industry code from the event payload when the
// source carries one, or "" otherwise.
func (c *Classifier) NAICS(ev model.SourceEvent) string {
	spec := c.cfg.Sources[ev.SourceSystem]
	if spec.NAICSField == "" {
		return ""
	}
	return ev.PayloadString(spec.NAICSField)
}

// Disqualified reports whether a venue name clearly belongs to a
// non-restaurant business (contractors, liquor stores, gas stations...).
// An include keyword always wins over an exclude keyword.
func (c *Classifier) Disqualified(name string) bool {
	if name == "" {
		return true
	}
	lower := strings.ToLower(name)
	if containsAny(lower, c.cfg.IncludeKeywords) {
		return false
	}
	return containsAny(lower, c.cfg.ExcludeKeywords)
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
