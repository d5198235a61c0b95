package model

// VenueDraft is the set of candidate fields produced from one source
// event (or one enrichment pass) and offered to the venue store's upsert.
type VenueDraft struct {
	Name              string
	NormalizedName    string
	Address           string
	NormalizedAddress string
	City              string
	State             string
	Zip               string
	VenueType         VenueType
	Status            VenueStatus
	EventDate         string // ISO date; candidate for first/last seen
	Score             *int   // nil = not computed, store falls back to DefaultScore
	Phone             string
	Website           string
	PlaceID           string
	NAICSCode         string
}

// DefaultScore is used when a draft carries no computed priority score
// and the stored venue has none either.
const DefaultScore = 50

// NewVenue builds a fresh venue from a draft. First and last seen are
// both fixed to the draft's event date; first seen is never touched again.
func NewVenue(d VenueDraft) Venue {
	status := d.Status
	if status == "" {
		status = StatusUnknown
	}
	score := DefaultScore
	if d.Score != nil {
		score = *d.Score
	}
	return Venue{
		Name:              d.Name,
		NormalizedName:    d.NormalizedName,
		Address:           d.Address,
		NormalizedAddress: d.NormalizedAddress,
		City:              d.City,
		State:             d.State,
		Zip:               d.Zip,
		VenueType:         d.VenueType,
		Status:            status,
		FirstSeen:         d.EventDate,
		LastSeen:          d.EventDate,
		PriorityScore:     score,
		LeadStatus:        LeadNew,
		Phone:             d.Phone,
		Website:           d.Website,
		PlaceID:           d.PlaceID,
		NAICSCode:         d.NAICSCode,
	}
}

// MergeVenue folds a draft into an existing venue and returns the
// updated copy. The rules are deliberately asymmetric:
//
//   - last seen is the maximum event date ever observed (ISO strings, so
//     lexicographic max is chronological max; "" never beats a real date)
//   - first seen is not touched, it was fixed at creation
//   - status moves only forward under the Rank total order
//   - venue type, phone, website, place id and NAICS fill once and are
//     never overwritten
//   - the priority score is replaced outright, not merged
func MergeVenue(v Venue, d VenueDraft) Venue {
	if d.EventDate > v.LastSeen {
		v.LastSeen = d.EventDate
	}
	if d.Status.Rank() > v.Status.Rank() {
		v.Status = d.Status
	}
	v.VenueType = fillIfEmptyType(v.VenueType, d.VenueType)
	v.Phone = fillIfEmpty(v.Phone, d.Phone)
	v.Website = fillIfEmpty(v.Website, d.Website)
	v.PlaceID = fillIfEmpty(v.PlaceID, d.PlaceID)
	v.NAICSCode = fillIfEmpty(v.NAICSCode, d.NAICSCode)

	switch {
	case d.Score != nil:
		v.PriorityScore = *d.Score
	case v.PriorityScore == 0:
		v.PriorityScore = DefaultScore
	}
	return v
}

func fillIfEmpty(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

func fillIfEmptyType(current, candidate VenueType) VenueType {
	if current != VenueTypeUnknown {
		return current
	}
	return candidate
}
