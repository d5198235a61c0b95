package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/openings-cli/internal/model"
)

func newTestClassifier() *Classifier {
	return New(DefaultConfig())
}

func TestVenueType_BarKeywordInName(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{SourceSystem: "TABC", RawName: "The Rusty Tavern"}
	assert.Equal(t, model.VenueTypeBar, c.VenueType(ev))
}

func TestVenueType_BarNameBeatsSourceSignal(t *testing.T) {
	c := newTestClassifier()

	// Name says pub; the license type alone would say restaurant.
	ev := model.SourceEvent{
		SourceSystem: "TABC",
		RawName:      "Corner Pub",
		Payload:      map[string]any{"license_type": "Mixed Beverage Restaurant"},
	}
	assert.Equal(t, model.VenueTypeBar, c.VenueType(ev))
}

func TestVenueType_LiquorLicenseDefaultsRestaurant(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{
		SourceSystem: "TABC",
		RawName:      "Casa Verde",
		Payload:      map[string]any{"license_type": "Wine and Malt Beverage"},
	}
	assert.Equal(t, model.VenueTypeRestaurant, c.VenueType(ev))
}

func TestVenueType_OccupancyUseFields(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{
		SourceSystem: "DALLAS_CO",
		RawName:      "Suite 120",
		Payload:      map[string]any{"occupancy": "RESTAURANT WITH DRIVE-THRU"},
	}
	assert.Equal(t, model.VenueTypeRestaurant, c.VenueType(ev))

	ev.Payload = map[string]any{"occupancy": "BAR/LOUNGE"}
	assert.Equal(t, model.VenueTypeBar, c.VenueType(ev))
}

func TestVenueType_SalesTaxNAICS(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{
		SourceSystem: "SALES_TAX",
		RawName:      "Eastside Spot",
		Payload:      map[string]any{"naics": "722410"},
	}
	assert.Equal(t, model.VenueTypeBar, c.VenueType(ev))

	ev.Payload = map[string]any{"naics": "722511"}
	assert.Equal(t, model.VenueTypeRestaurant, c.VenueType(ev))

	ev.Payload = map[string]any{"naics": "541330"}
	assert.Equal(t, model.VenueTypeUnknown, c.VenueType(ev))
}

func TestVenueType_RestaurantKeywordFallback(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{SourceSystem: "PLANO_PERMIT", RawName: "Golden Wok Cafe"}
	assert.Equal(t, model.VenueTypeRestaurant, c.VenueType(ev))
}

func TestVenueType_UnknownSourceAndName(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{SourceSystem: "MYSTERY_FEED", RawName: "Zenith Holdings"}
	assert.Equal(t, model.VenueTypeUnknown, c.VenueType(ev))
}

func TestVenueType_MalformedPayload(t *testing.T) {
	c := newTestClassifier()

	// Non-string payload values never panic classification.
	ev := model.SourceEvent{
		SourceSystem: "SALES_TAX",
		RawName:      "Some Spot",
		Payload:      map[string]any{"naics": 722410},
	}
	assert.Equal(t, model.VenueTypeUnknown, c.VenueType(ev))
}

func TestStatus(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		source string
		want   model.VenueStatus
	}{
		{"TABC", model.StatusPermitting},
		{"SALES_TAX", model.StatusPermitting},
		{"PLANO_PERMIT", model.StatusPermitting},
		{"DALLAS_CO", model.StatusOpeningSoon},
		{"FORTWORTH_CO", model.StatusOpeningSoon},
		{"MYSTERY_FEED", model.StatusUnknown},
	}
	for _, tt := range tests {
		ev := model.SourceEvent{SourceSystem: tt.source}
		assert.Equal(t, tt.want, c.Status(ev), "source %s", tt.source)
	}
}

func TestNAICS(t *testing.T) {
	c := newTestClassifier()

	ev := model.SourceEvent{
		SourceSystem: "SALES_TAX",
		Payload:      map[string]any{"naics": "722511"},
	}
	assert.Equal(t, "722511", c.NAICS(ev))

	ev.SourceSystem = "TABC"
	assert.Equal(t, "", c.NAICS(ev))
}

func TestDisqualified(t *testing.T) {
	c := newTestClassifier()

	assert.True(t, c.Disqualified("ABC Plumbing Supply"))
	assert.True(t, c.Disqualified("Quick Stop Liquor"))
	assert.True(t, c.Disqualified(""))

	assert.False(t, c.Disqualified("Maria's Tacos"))

	// Include keyword wins over exclude keyword.
	assert.False(t, c.Disqualified("Liquor Store Bar & Grill"))
}
