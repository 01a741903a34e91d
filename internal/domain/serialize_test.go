package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
)

func TestSerializeMatchedEvent(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := StormEvent{
		ID:                    "tornado-abc123",
		EventType:             "Tornado",
		Geo:                   geo.Point{Lat: 34.98, Lon: -95.71},
		NearestCity:           "Tulsa",
		NearestCityPopulation: 413066,
		ProcessedAt:           now,
	}

	out, err := SerializeMatchedEvent(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("tornado-abc123"), out.Key)
	assert.Contains(t, string(out.Value), `"nearest_city":"Tulsa"`)
	assert.Contains(t, string(out.Value), `"nearest_city_population":413066`)
	assert.Equal(t, "Tornado", out.Headers["event_type"])
	assert.Equal(t, now.Format(time.RFC3339), out.Headers["processed_at"])
}
