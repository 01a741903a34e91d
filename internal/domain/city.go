package domain

import (
	"cmp"
	"slices"

	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

// City is one candidate from the reference city list.
type City struct {
	Name       string    `json:"name"`
	State      string    `json:"state,omitempty"`
	Geo        geo.Point `json:"geo"`
	Population int       `json:"population"`
}

// TopCities returns the n most populous cities, population descending. The
// sort is stable so equal populations keep their source-list order, which
// keeps the candidate sequence (and therefore tie resolution) reproducible.
// n <= 0 means no truncation. The input slice is not modified.
func TopCities(cities []City, n int) []City {
	sorted := slices.Clone(cities)
	slices.SortStableFunc(sorted, func(a, b City) int {
		return cmp.Compare(b.Population, a.Population)
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n:n]
	}
	return sorted
}
