package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCities(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		path := writeTempCSV(t, "uscities.csv",
			"city,city_ascii,state_id,state_name,lat,lng,population\n"+
				`"Oklahoma City","Oklahoma City",OK,Oklahoma,35.4676,-97.5164,681054`+"\n"+
				`"Tulsa","Tulsa",OK,Oklahoma,36.1540,-95.9928,413066`+"\n")

		cities, err := LoadCities(path)

		require.NoError(t, err)
		require.Len(t, cities, 2)
		assert.Equal(t, "Oklahoma City", cities[0].Name)
		assert.Equal(t, "OK", cities[0].State)
		assert.Equal(t, 35.4676, cities[0].Geo.Lat)
		assert.Equal(t, -97.5164, cities[0].Geo.Lon)
		assert.Equal(t, 681054, cities[0].Population)
	})

	t.Run("skips unparseable rows", func(t *testing.T) {
		path := writeTempCSV(t, "uscities.csv",
			"city,state_id,lat,lng,population\n"+
				"Good,OK,35.0,-97.0,1000\n"+
				"BadLat,OK,not-a-number,-97.0,1000\n"+
				"BadPop,OK,35.0,-97.0,unknown\n")

		cities, err := LoadCities(path)

		require.NoError(t, err)
		require.Len(t, cities, 1)
		assert.Equal(t, "Good", cities[0].Name)
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeTempCSV(t, "uscities.csv",
			"city,state_id,lat,lng\nTulsa,OK,36.15,-95.99\n")

		_, err := LoadCities(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"population"`)
	})

	t.Run("no usable rows", func(t *testing.T) {
		path := writeTempCSV(t, "uscities.csv",
			"city,state_id,lat,lng,population\n")

		_, err := LoadCities(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable rows")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCities(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})
}

const eventsHeader = "EVENT_ID,EVENT_TYPE,STATE,CZ_NAME,BEGIN_DATE_TIME,DEATHS_DIRECT,DEATHS_INDIRECT,DAMAGE_PROPERTY,BEGIN_LAT,BEGIN_LON,END_LAT,END_LON\n"

func TestLoadEvents(t *testing.T) {
	t.Run("happy path with midpoint", func(t *testing.T) {
		path := writeTempCSV(t, "stormevents.csv", eventsHeader+
			`1,Tornado,OKLAHOMA,PITTSBURG,26-APR-24 12:23:00,1,0,25.00K,34.96,-95.77,35.00,-95.65`+"\n"+
			`2,Hail,TEXAS,SAN SABA,26-APR-24 15:10:00,0,0,,31.02,-98.44,,`+"\n")

		events, err := LoadEvents(path, ContinentalUS)

		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, "Tornado", events[0].EventType)
		assert.InDelta(t, 34.98, events[0].Geo.Lat, 1e-9)
		assert.InDelta(t, -95.71, events[0].Geo.Lon, 1e-9)
		assert.Equal(t, 1, events[0].Deaths)
		assert.Equal(t, 25000.0, events[0].DamageUSD)

		assert.Equal(t, "Hail", events[1].EventType)
		assert.Equal(t, 31.02, events[1].Geo.Lat)
	})

	t.Run("skips rows without coordinates", func(t *testing.T) {
		path := writeTempCSV(t, "stormevents.csv", eventsHeader+
			`1,Drought,KANSAS,FINNEY,26-APR-24 00:00:00,0,0,,,,,`+"\n"+
			`2,Hail,TEXAS,SAN SABA,26-APR-24 15:10:00,0,0,,31.02,-98.44,,`+"\n")

		events, err := LoadEvents(path, ContinentalUS)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Hail", events[0].EventType)
	})

	t.Run("bounding box filters out-of-extent events", func(t *testing.T) {
		path := writeTempCSV(t, "stormevents.csv", eventsHeader+
			`1,Hail,ALASKA,NOME,26-APR-24 15:10:00,0,0,,64.5,-165.4,,`+"\n"+
			`2,Hail,TEXAS,SAN SABA,26-APR-24 15:10:00,0,0,,31.02,-98.44,,`+"\n")

		events, err := LoadEvents(path, ContinentalUS)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "TEXAS", events[0].State)
	})

	t.Run("export without end coordinate columns", func(t *testing.T) {
		path := writeTempCSV(t, "stormevents.csv",
			"EVENT_TYPE,STATE,CZ_NAME,BEGIN_DATE_TIME,DEATHS_DIRECT,DEATHS_INDIRECT,DAMAGE_PROPERTY,BEGIN_LAT,BEGIN_LON\n"+
				`Hail,TEXAS,SAN SABA,26-APR-24 15:10:00,0,0,,31.02,-98.44`+"\n")

		events, err := LoadEvents(path, ContinentalUS)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, 31.02, events[0].Geo.Lat)
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeTempCSV(t, "stormevents.csv",
			"EVENT_TYPE,STATE\nHail,TEXAS\n")

		_, err := LoadEvents(path, ContinentalUS)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column")
	})
}

// Loaded events must parse identically to the Kafka path: both go through
// domain.ParseEventRecord.
func TestLoadEvents_ConsistentWithParseEventRecord(t *testing.T) {
	path := writeTempCSV(t, "stormevents.csv", eventsHeader+
		`1,Tornado,OKLAHOMA,PITTSBURG,26-APR-24 12:23:00,1,0,25.00K,34.96,-95.77,35.00,-95.65`+"\n")

	events, err := LoadEvents(path, ContinentalUS)
	require.NoError(t, err)
	require.Len(t, events, 1)

	direct, err := domain.ParseEventRecord(domain.RawEventRecord{
		EventType:      "Tornado",
		State:          "OKLAHOMA",
		CZName:         "PITTSBURG",
		BeginDateTime:  "26-APR-24 12:23:00",
		DeathsDirect:   "1",
		DeathsIndirect: "0",
		DamageProperty: "25.00K",
		BeginLat:       "34.96",
		BeginLon:       "-95.77",
		EndLat:         "35.00",
		EndLon:         "-95.65",
	})
	require.NoError(t, err)

	assert.Equal(t, direct, events[0])
}
