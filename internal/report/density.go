package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/uber/h3-go/v4"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

// DensityCell is the event count inside one H3 cell.
type DensityCell struct {
	Cell   string `json:"cell"`
	Events int    `json:"events"`
}

// DensityCells buckets events into H3 cells at the given resolution. Cells are
// ordered by event count descending, then cell ID ascending. Resolution must
// be within H3's supported range of 0 to 15.
func DensityCells(events []domain.StormEvent, resolution int) ([]DensityCell, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("report: h3 resolution %d out of range [0, 15]", resolution)
	}

	counts := map[string]int{}
	for i, e := range events {
		latLng := h3.NewLatLng(e.Geo.Lat, e.Geo.Lon)
		cell, err := h3.LatLngToCell(latLng, resolution)
		if err != nil {
			return nil, fmt.Errorf("report: event %d: converting to h3 cell: %w", i, err)
		}
		counts[cell.String()]++
	}

	out := make([]DensityCell, 0, len(counts))
	for id, n := range counts {
		out = append(out, DensityCell{Cell: id, Events: n})
	}
	slices.SortFunc(out, func(a, b DensityCell) int {
		if c := cmp.Compare(b.Events, a.Events); c != 0 {
			return c
		}
		return cmp.Compare(a.Cell, b.Cell)
	})
	return out, nil
}
