// Package report aggregates matched storm events into summary artifacts:
// per-group counts, events per matched city, and H3 density cells. It
// produces data, not rendering; artifacts are written as indented JSON.
package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

// GroupCount aggregates events sharing one key, such as a state or event type.
type GroupCount struct {
	Key       string  `json:"key"`
	Events    int     `json:"events"`
	Deaths    int     `json:"deaths"`
	DamageUSD float64 `json:"damage_usd"`
}

// Summary holds totals and per-group breakdowns for a set of events.
type Summary struct {
	TotalEvents    int          `json:"total_events"`
	TotalDeaths    int          `json:"total_deaths"`
	TotalDamageUSD float64      `json:"total_damage_usd"`
	ByState        []GroupCount `json:"by_state"`
	ByCounty       []GroupCount `json:"by_county"`
	ByEventType    []GroupCount `json:"by_event_type"`
}

// Summarize aggregates events into totals and per-state, per-county, and
// per-event-type breakdowns. Group slices are ordered by event count
// descending, then key ascending, so output is deterministic.
func Summarize(events []domain.StormEvent) Summary {
	s := Summary{TotalEvents: len(events)}

	byState := map[string]*GroupCount{}
	byCounty := map[string]*GroupCount{}
	byType := map[string]*GroupCount{}

	for _, e := range events {
		s.TotalDeaths += e.Deaths
		s.TotalDamageUSD += e.DamageUSD
		accumulate(byState, e.State, e)
		accumulate(byCounty, e.County, e)
		accumulate(byType, e.EventType, e)
	}

	s.ByState = sortedGroups(byState)
	s.ByCounty = sortedGroups(byCounty)
	s.ByEventType = sortedGroups(byType)
	return s
}

func accumulate(groups map[string]*GroupCount, key string, e domain.StormEvent) {
	g, ok := groups[key]
	if !ok {
		g = &GroupCount{Key: key}
		groups[key] = g
	}
	g.Events++
	g.Deaths += e.Deaths
	g.DamageUSD += e.DamageUSD
}

func sortedGroups(groups map[string]*GroupCount) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b GroupCount) int {
		if c := cmp.Compare(b.Events, a.Events); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// CityCount is the number of events assigned to one candidate city.
type CityCount struct {
	City   string `json:"city"`
	State  string `json:"state"`
	Events int    `json:"events"`
}

// CityCounts tallies events per matched city. The events and matches slices
// must be parallel, one match per event.
func CityCounts(events []domain.StormEvent, matches []domain.CityMatch) ([]CityCount, error) {
	if len(events) != len(matches) {
		return nil, fmt.Errorf("report: %d events but %d matches", len(events), len(matches))
	}

	type cityKey struct {
		name  string
		state string
	}
	counts := map[cityKey]int{}
	for _, m := range matches {
		counts[cityKey{name: m.Name, state: m.State}]++
	}

	out := make([]CityCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, CityCount{City: k.name, State: k.state, Events: n})
	}
	slices.SortFunc(out, func(a, b CityCount) int {
		if c := cmp.Compare(b.Events, a.Events); c != 0 {
			return c
		}
		if c := cmp.Compare(a.City, b.City); c != 0 {
			return c
		}
		return cmp.Compare(a.State, b.State)
	})
	return out, nil
}
