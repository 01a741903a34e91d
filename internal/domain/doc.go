// Package domain models NOAA StormEvents records and their nearest-city
// enrichment.
//
// # Data Source
//
// Event records originate from the NOAA StormEvents-details CSV exports,
// available at https://www.ncdc.noaa.gov/stormevents/. The upstream
// collector publishes each row as flat JSON to the Kafka source topic; the
// CLI reads the same rows straight from a CSV export.
//
// # StormEvents Conventions
//
// Coordinates:
//
//	BEGIN_LAT/BEGIN_LON mark where the event started; END_LAT/END_LON where
//	it ended (blank for point events). When both pairs are present the event
//	point is their arithmetic midpoint. Rows without begin coordinates are
//	unmappable and are rejected by [ParseEventRecord].
//
// Damage notation ("DAMAGE_PROPERTY" column):
//
//	Dollar amounts with a magnitude suffix: "25.00K" = $25,000,
//	"1.5M" = $1,500,000, "2B" = $2,000,000,000. Blank means unreported and
//	parses to 0. See [ParseDamageUSD].
//
// Deaths:
//
//	DEATHS_DIRECT and DEATHS_INDIRECT are summed into a single count.
//
// Time format:
//
//	BEGIN_DATE_TIME uses "DD-MON-YY HH:MM:SS", e.g. "26-APR-24 15:10:00".
//	Malformed values parse to the zero time rather than failing the record.
//
// # Nearest-City Matching
//
// The candidate set is the top-N cities by population from the reference
// list, selected once via [TopCities] before matching begins and held fixed
// for the whole run. Every event is matched independently against that set
// by great-circle distance; exact-distance ties resolve to the earliest
// city in the candidate sequence, so results are reproducible given the
// same candidate ordering. [Matcher.MatchEvents] returns one match per
// event in input order and fails the whole call on invalid input instead of
// producing partial results.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of type|state|lat|lon|time.
// This enables idempotent upserts downstream and replay safety without
// distributed coordination. See [generateID].
package domain
