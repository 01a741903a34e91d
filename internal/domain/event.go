package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

// RawEventRecord represents the flat JSON structure produced by the
// collector, one NOAA StormEvents-details row per message. All fields are
// strings because the upstream CSV leaves blanks for unreported values.
type RawEventRecord struct {
	EventID        string `json:"EVENT_ID"`
	EventType      string `json:"EVENT_TYPE"` // e.g. "Tornado", "Hail", "Flash Flood"
	State          string `json:"STATE"`
	CZName         string `json:"CZ_NAME"` // county or forecast zone name
	BeginDateTime  string `json:"BEGIN_DATE_TIME"`
	DeathsDirect   string `json:"DEATHS_DIRECT"`
	DeathsIndirect string `json:"DEATHS_INDIRECT"`
	DamageProperty string `json:"DAMAGE_PROPERTY"` // e.g. "25.00K", "1.5M"
	BeginLat       string `json:"BEGIN_LAT"`
	BeginLon       string `json:"BEGIN_LON"`
	EndLat         string `json:"END_LAT"`
	EndLon         string `json:"END_LON"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// StormEvent is the domain-rich representation after parsing.
type StormEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"type"`
	Geo       geo.Point `json:"geo"`
	State     string    `json:"state,omitempty"`
	County    string    `json:"county,omitempty"`
	EventTime time.Time `json:"event_time"`
	Deaths    int       `json:"deaths"`
	DamageUSD float64   `json:"damage_usd"`

	// Nearest-city enrichment fields, populated by AttachNearestCity.
	NearestCity           string  `json:"nearest_city,omitempty"`
	NearestCityState      string  `json:"nearest_city_state,omitempty"`
	NearestCityPopulation int     `json:"nearest_city_population,omitempty"`
	NearestCityDistanceM  float64 `json:"nearest_city_distance_m,omitempty"`

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
