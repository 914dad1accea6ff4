package recommend

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// FilterCandidates keeps only entries carrying valid numeric GPS coordinates,
// preserving provider order, and caps the result at max entries. Running it
// again on its own output returns the same list.
func FilterCandidates(list []Candidate, max int) []Candidate {
	out := make([]Candidate, 0, max)
	for _, cand := range list {
		if len(out) >= max {
			break
		}
		if !hasValidCoordinates(cand) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// FilterVenues runs the filter/cap step and tags every surviving entry with
// its category and a locally generated unique id. Entries without coordinates
// are dropped, never emitted with placeholder positions.
func FilterVenues(list []Candidate, category Category, city string, max int) []VenueItem {
	kept := FilterCandidates(list, max)
	items := make([]VenueItem, 0, len(kept))
	for i, cand := range kept {
		venue := cand.Address
		if venue == "" {
			venue = fmt.Sprintf("%s in %s", cand.Name, city)
		}
		items = append(items, VenueItem{
			Name:     cand.Name,
			Venue:    venue,
			Date:     cand.Date,
			Lat:      *cand.Latitude,
			Lng:      *cand.Longitude,
			Category: category,
			UniqueID: fmt.Sprintf("%s-%d-%s", categoryPrefix(category), i, uuid.NewString()),
		})
	}
	return items
}

func hasValidCoordinates(cand Candidate) bool {
	if cand.Latitude == nil || cand.Longitude == nil {
		return false
	}
	lat, lng := *cand.Latitude, *cand.Longitude
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

func categoryPrefix(category Category) string {
	switch category {
	case CategoryConcert:
		return "c"
	case CategorySport:
		return "s"
	default:
		return "r"
	}
}
