package recommend

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// SyntheticVenues generates clearly labeled placeholder venues arranged on a
// golden-angle spiral around the given location. Every item carries the
// Synthetic flag; these are a presentation convenience for empty categories
// and must never be mixed into real provider results.
func SyntheticVenues(base LocationInfo, category Category, n int) []VenueItem {
	items := make([]VenueItem, 0, n)
	for i := 0; i < n; i++ {
		lat, lng := spiralOffset(base.Latitude, base.Longitude, i, category)
		name, venue := syntheticLabels(category, base.City, i)
		items = append(items, VenueItem{
			Name:      name,
			Venue:     venue,
			Date:      "Check venue website for dates",
			Lat:       lat,
			Lng:       lng,
			Category:  category,
			UniqueID:  fmt.Sprintf("%s-synthetic-%d-%s", categoryPrefix(category), i, uuid.NewString()),
			Synthetic: true,
		})
	}
	return items
}

func spiralOffset(baseLat, baseLng float64, index int, category Category) (float64, float64) {
	var angleOffset float64
	switch category {
	case CategoryConcert:
		angleOffset = 2
	case CategorySport:
		angleOffset = 4
	}
	theta := float64(index)*goldenAngle + angleOffset
	radius := 0.005 + float64(index)*0.002
	return baseLat + radius*math.Cos(theta), baseLng + radius*math.Sin(theta)
}

func syntheticLabels(category Category, city string, index int) (string, string) {
	switch category {
	case CategoryConcert:
		return fmt.Sprintf("Music Venue %d", index+1), fmt.Sprintf("Concert Hall in %s", city)
	case CategorySport:
		return fmt.Sprintf("Sports Event %d", index+1), fmt.Sprintf("Stadium in %s", city)
	default:
		return fmt.Sprintf("Local Restaurant %d", index+1), fmt.Sprintf("Restaurant in %s", city)
	}
}
