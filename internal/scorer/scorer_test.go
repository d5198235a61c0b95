package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/config"
	"github.com/sells-group/openings-cli/internal/model"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return New(DefaultConfig(), WithNow(func() time.Time { return testNow }))
}

func daysAgo(n int) string {
	return testNow.AddDate(0, 0, -n).Format("2006-01-02")
}

func TestScore_RecencyBuckets(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		age  int
		want int
	}{
		{0, 50},
		{3, 50},
		{4, 40},
		{7, 40},
		{8, 25},
		{14, 25},
		{15, 10},
		{30, 10},
		{31, 0},
		{365, 0},
	}
	for _, tt := range tests {
		got := s.Score(model.VenueSignals{FirstSeen: daysAgo(tt.age)})
		assert.Equal(t, tt.want, got, "age %d days", tt.age)
	}
}

func TestScore_MissingOrBadDate(t *testing.T) {
	s := newTestScorer()

	assert.Equal(t, 0, s.Score(model.VenueSignals{FirstSeen: ""}))
	assert.Equal(t, 0, s.Score(model.VenueSignals{FirstSeen: "not-a-date"}))
}

func TestScore_StatusBonus(t *testing.T) {
	s := newTestScorer()

	base := model.VenueSignals{FirstSeen: daysAgo(60)}

	opening := base
	opening.Status = model.StatusOpeningSoon
	assert.Equal(t, 40, s.Score(opening))

	permitting := base
	permitting.Status = model.StatusPermitting
	assert.Equal(t, 30, s.Score(permitting))

	open := base
	open.Status = model.StatusOpen
	assert.Equal(t, 10, s.Score(open))

	unknown := base
	unknown.Status = model.StatusUnknown
	assert.Equal(t, 0, s.Score(unknown))

	// Urgency ranking is deliberate: a venue about to open outranks
	// one already open.
	assert.Greater(t, s.Score(opening), s.Score(open))
}

func TestScore_TypeAndContactAndCorroboration(t *testing.T) {
	s := newTestScorer()

	sig := model.VenueSignals{
		FirstSeen: daysAgo(2),               // +50
		Status:    model.StatusOpeningSoon,  // +40
		VenueType: model.VenueTypeBar,       // +20
		HasPhone:  true,                     // +25
	}
	assert.Equal(t, 135, s.Score(sig))

	sig.HasWebsite = true // +5
	assert.Equal(t, 140, s.Score(sig))

	sig.SourceCount = 2 // +15
	assert.Equal(t, 155, s.Score(sig))

	sig.VenueType = model.VenueTypeRestaurant // 15 instead of 20
	assert.Equal(t, 150, s.Score(sig))
}

func TestScore_PhoneDelta(t *testing.T) {
	s := newTestScorer()

	without := model.VenueSignals{FirstSeen: daysAgo(5)}
	with := without
	with.HasPhone = true
	assert.Equal(t, 25, s.Score(with)-s.Score(without))
}

func TestScore_CorroborationThreshold(t *testing.T) {
	s := newTestScorer()

	sig := model.VenueSignals{SourceCount: 1}
	assert.Equal(t, 0, s.Score(sig))
	sig.SourceCount = 2
	assert.Equal(t, 15, s.Score(sig))
	sig.SourceCount = 5
	assert.Equal(t, 15, s.Score(sig))
}

func TestScore_FutureFirstSeen(t *testing.T) {
	s := newTestScorer()

	// A future date clamps to age zero and takes the freshest bucket.
	sig := model.VenueSignals{FirstSeen: testNow.AddDate(0, 0, 2).Format("2006-01-02")}
	assert.Equal(t, 50, s.Score(sig))
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))

	bad := DefaultConfig()
	bad.PhonePoints = -1
	assert.Error(t, ValidateConfig(bad))

	bad = DefaultConfig()
	bad.CorroborationMin = 0
	assert.Error(t, ValidateConfig(bad))

	bad = DefaultConfig()
	bad.RecencyBuckets = []config.RecencyBucket{{MaxAgeDays: -1, Points: 10}}
	assert.Error(t, ValidateConfig(bad))
}

func TestNew_SortsBuckets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecencyBuckets = []config.RecencyBucket{
		{MaxAgeDays: 30, Points: 10},
		{MaxAgeDays: 3, Points: 50},
		{MaxAgeDays: 14, Points: 25},
		{MaxAgeDays: 7, Points: 40},
	}
	s := New(cfg, WithNow(func() time.Time { return testNow }))

	assert.Equal(t, 50, s.Score(model.VenueSignals{FirstSeen: daysAgo(1)}))
	assert.Equal(t, 25, s.Score(model.VenueSignals{FirstSeen: daysAgo(10)}))
}

func TestDistribution(t *testing.T) {
	dist := Distribution([]int{120, 100, 85, 70, 50, 40, 39, 0})
	assert.Equal(t, 2, dist["Hot (100+)"])
	assert.Equal(t, 2, dist["Warm (70-99)"])
	assert.Equal(t, 2, dist["Cool (40-69)"])
	assert.Equal(t, 2, dist["Cold (<40)"])
}
