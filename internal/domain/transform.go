package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

// beginDateTimeLayout matches the StormEvents-details BEGIN_DATE_TIME
// column, e.g. "26-APR-24 15:10:00". time.Parse matches month names
// case-insensitively.
const beginDateTimeLayout = "02-Jan-06 15:04:05"

var errMissingCoordinates = errors.New("missing begin coordinates")

// ParseRawEvent deserializes a RawEvent's value into a StormEvent.
// It expects the flat StormEvents-details JSON produced by the collector.
func ParseRawEvent(raw RawEvent) (StormEvent, error) {
	var rec RawEventRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return StormEvent{}, fmt.Errorf("parse raw event: %w", err)
	}

	event, err := ParseEventRecord(rec)
	if err != nil {
		return StormEvent{}, fmt.Errorf("parse raw event: %w", err)
	}
	event.RawPayload = raw.Value
	return event, nil
}

// ParseEventRecord converts one StormEvents-details row into a StormEvent.
// A row without parseable begin coordinates is an error: the matcher has
// nothing to work with, so the caller must skip it rather than invent a
// location.
func ParseEventRecord(rec RawEventRecord) (StormEvent, error) {
	point, err := parseCoordinates(rec)
	if err != nil {
		return StormEvent{}, err
	}

	eventTime := parseEventTime(rec.BeginDateTime)

	return StormEvent{
		ID:        generateID(rec.EventType, rec.State, point, rec.BeginDateTime),
		EventType: rec.EventType,
		Geo:       point,
		State:     rec.State,
		County:    rec.CZName,
		EventTime: eventTime,
		Deaths:    parseIntOrZero(rec.DeathsDirect) + parseIntOrZero(rec.DeathsIndirect),
		DamageUSD: ParseDamageUSD(rec.DamageProperty),
	}, nil
}

// parseCoordinates derives the event point. When both end coordinates are
// present the point is the begin/end midpoint; storm tracks are short
// enough that the arithmetic midpoint stays within meters of the geodesic
// one.
func parseCoordinates(rec RawEventRecord) (geo.Point, error) {
	beginLat, okLat := parseCoord(rec.BeginLat)
	beginLon, okLon := parseCoord(rec.BeginLon)
	if !okLat || !okLon {
		return geo.Point{}, errMissingCoordinates
	}

	point := geo.Point{Lat: beginLat, Lon: beginLon}

	endLat, okEndLat := parseCoord(rec.EndLat)
	endLon, okEndLon := parseCoord(rec.EndLon)
	if okEndLat && okEndLon {
		point = geo.Point{
			Lat: (beginLat + endLat) / 2,
			Lon: (beginLon + endLon) / 2,
		}
	}

	return point, nil
}

func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseDamageUSD converts the NOAA damage notation to dollars: "25.00K" is
// 25000, "1.5M" is 1500000, "2B" is 2000000000. A bare number is taken
// as-is. Unparseable values become 0 (unreported), matching how the source
// data treats blanks.
func ParseDamageUSD(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v * multiplier
}

// parseEventTime parses BEGIN_DATE_TIME, returning the zero time when the
// value is blank or malformed rather than failing the whole record.
func parseEventTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(beginDateTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// generateID produces a deterministic ID from the event's key fields.
// Reprocessing the same raw event yields the same ID, so downstream
// consumers can deduplicate on replay.
func generateID(eventType, state string, point geo.Point, timeStr string) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%s", eventType, state, point.Lat, point.Lon, timeStr)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])

	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(eventType), " ", "-"))
	if slug == "" {
		return short
	}
	return slug + "-" + short
}
