package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

// BoundingBox restricts loaded events to a geographic extent, honoring the
// upstream duty to hand the matcher only plausibly-located events.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// ContinentalUS covers the lower 48 with margin; events outside it are
// almost always transcription errors in the source data.
var ContinentalUS = BoundingBox{MinLat: 24, MaxLat: 50, MinLon: -125, MaxLon: -66}

// Contains reports whether p falls inside the box. The zero box contains
// nothing, so callers must pass an explicit extent.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// LoadEvents reads a StormEvents-details CSV export. Rows without
// parseable begin coordinates and rows outside the bounding box are
// skipped rather than failing the load: both are routine in NOAA exports.
func LoadEvents(path string, box BoundingBox) ([]domain.StormEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // NOAA exports occasionally vary in trailing columns
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read events csv header: %w", err)
	}

	cols, err := columnIndex(header,
		"event_type", "state", "cz_name", "begin_date_time",
		"deaths_direct", "deaths_indirect", "damage_property",
		"begin_lat", "begin_lon")
	if err != nil {
		return nil, fmt.Errorf("events csv: %w", err)
	}
	// END_LAT/END_LON are optional columns in older exports.
	endCols, _ := columnIndex(header, "end_lat", "end_lon")

	var events []domain.StormEvent
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events csv: %w", err)
		}

		rec := domain.RawEventRecord{
			EventType:      field(row, cols, "event_type"),
			State:          field(row, cols, "state"),
			CZName:         field(row, cols, "cz_name"),
			BeginDateTime:  field(row, cols, "begin_date_time"),
			DeathsDirect:   field(row, cols, "deaths_direct"),
			DeathsIndirect: field(row, cols, "deaths_indirect"),
			DamageProperty: field(row, cols, "damage_property"),
			BeginLat:       field(row, cols, "begin_lat"),
			BeginLon:       field(row, cols, "begin_lon"),
			EndLat:         field(row, endCols, "end_lat"),
			EndLon:         field(row, endCols, "end_lon"),
		}

		event, err := domain.ParseEventRecord(rec)
		if err != nil {
			continue // no coordinates, nothing to match
		}
		if !box.Contains(event.Geo.Lat, event.Geo.Lon) {
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
