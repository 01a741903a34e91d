// Package csvfile loads the two reference tables the matcher consumes:
// the SimpleMaps US cities list and NOAA StormEvents-details exports.
// Columns are addressed by header name, so column order and extra columns
// in either export are irrelevant.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

// LoadCities reads a SimpleMaps-style uscities.csv. Rows with unparseable
// coordinates or population are skipped; the list is returned in file
// order, so callers wanting a top-N candidate set run it through
// domain.TopCities.
func LoadCities(path string) ([]domain.City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cities csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read cities csv header: %w", err)
	}

	cols, err := columnIndex(header, "city", "state_id", "lat", "lng", "population")
	if err != nil {
		return nil, fmt.Errorf("cities csv: %w", err)
	}

	var cities []domain.City
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cities csv: %w", err)
		}

		lat, errLat := strconv.ParseFloat(row[cols["lat"]], 64)
		lon, errLon := strconv.ParseFloat(row[cols["lng"]], 64)
		// SimpleMaps writes population as a plain integer, but older exports
		// carry a decimal point.
		pop, errPop := strconv.ParseFloat(row[cols["population"]], 64)
		if errLat != nil || errLon != nil || errPop != nil {
			continue
		}

		cities = append(cities, domain.City{
			Name:       row[cols["city"]],
			State:      row[cols["state_id"]],
			Geo:        geo.Point{Lat: lat, Lon: lon},
			Population: int(pop),
		})
	}

	if len(cities) == 0 {
		return nil, fmt.Errorf("cities csv %s: no usable rows", path)
	}
	return cities, nil
}

// columnIndex maps required header names (case-insensitive) to positions.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}
