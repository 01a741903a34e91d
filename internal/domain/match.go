package domain

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

// Engine names accepted by MatcherOptions.Engine.
const (
	EngineAuto   = "auto"
	EngineBrute  = "brute"
	EngineKDTree = "kdtree"
)

// CityMatch associates one event coordinate with its nearest candidate city.
type CityMatch struct {
	Name           string  `json:"name"`
	State          string  `json:"state,omitempty"`
	Population     int     `json:"population"`
	DistanceMeters float64 `json:"distance_meters"`
}

// MatcherOptions tunes index construction. The zero value selects the
// engine by candidate count and disables caching.
type MatcherOptions struct {
	Engine        string         // EngineAuto (default), EngineBrute, or EngineKDTree
	CacheSize     int            // LRU entries for repeated query coordinates; 0 disables
	OnCacheLookup func(hit bool) // optional hit/miss observer, fed to the cache decorator
}

// Matcher finds the nearest candidate city for event coordinates. The
// candidate set is fixed at construction and never mutated; a Matcher is
// safe for concurrent use.
type Matcher struct {
	cities []City
	index  geo.Index
}

// NewMatcher builds a Matcher over the candidate cities. The cities must be
// the final candidate sequence (already truncated via TopCities when a
// top-N set is wanted): their order decides tie resolution.
func NewMatcher(cities []City, opts MatcherOptions) (*Matcher, error) {
	points := make([]geo.Point, len(cities))
	for i, c := range cities {
		points[i] = c.Geo
	}

	var index geo.Index
	var err error
	switch opts.Engine {
	case "", EngineAuto:
		index, err = geo.New(points)
	case EngineBrute:
		index, err = geo.NewBruteForce(points)
	case EngineKDTree:
		index, err = geo.NewKDTree(points)
	default:
		return nil, fmt.Errorf("unknown match engine %q", opts.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("build city index: %w", err)
	}

	if opts.CacheSize > 0 {
		index = geo.NewCached(index, opts.CacheSize, opts.OnCacheLookup)
	}

	return &Matcher{cities: slices.Clone(cities), index: index}, nil
}

// Cities returns the candidate sequence in match order.
func (m *Matcher) Cities() []City {
	return slices.Clone(m.cities)
}

// Nearest returns the candidate city closest to p by great-circle distance,
// ties resolved to the earliest city in the candidate sequence.
func (m *Matcher) Nearest(p geo.Point) (CityMatch, error) {
	result, err := m.index.Nearest(p)
	if err != nil {
		return CityMatch{}, err
	}

	city := m.cities[result.Index]
	return CityMatch{
		Name:           city.Name,
		State:          city.State,
		Population:     city.Population,
		DistanceMeters: result.Meters,
	}, nil
}

// MatchEvents matches every coordinate independently and returns one
// CityMatch per input, in input order. The whole call fails on the first
// invalid coordinate; no partial result is returned.
func (m *Matcher) MatchEvents(points []geo.Point) ([]CityMatch, error) {
	matches := make([]CityMatch, len(points))
	for i, p := range points {
		match, err := m.Nearest(p)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		matches[i] = match
	}
	return matches, nil
}

// MatchEventsParallel fans the scan out across workers. Every worker owns a
// contiguous slice of result slots, so the output is identical to
// MatchEvents, including order. Coordinates are validated up front to keep
// the whole-call failure semantics of the sequential path.
func (m *Matcher) MatchEventsParallel(ctx context.Context, points []geo.Point, workers int) ([]CityMatch, error) {
	if workers <= 1 || len(points) < 2 {
		return m.MatchEvents(points)
	}

	for i, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("event %d: %w: non-finite query coordinate", i, geo.ErrInvalidInput)
		}
	}

	matches := make([]CityMatch, len(points))
	g, ctx := errgroup.WithContext(ctx)

	chunk := (len(points) + workers - 1) / workers
	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				match, err := m.Nearest(points[i])
				if err != nil {
					return fmt.Errorf("event %d: %w", i, err)
				}
				matches[i] = match
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// AttachNearestCity joins a match onto its event and stamps ProcessedAt.
func AttachNearestCity(event StormEvent, match CityMatch) StormEvent {
	event.NearestCity = match.Name
	event.NearestCityState = match.State
	event.NearestCityPopulation = match.Population
	event.NearestCityDistanceM = match.DistanceMeters
	event.ProcessedAt = clock.Now()
	return event
}
