package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached_ReturnsSameResultAsInner(t *testing.T) {
	inner, err := NewBruteForce([]Point{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
	})
	require.NoError(t, err)

	cached := NewCached(inner, 10, nil)
	query := Point{Lat: 0, Lon: 1}

	want, err := inner.Nearest(query)
	require.NoError(t, err)

	first, err := cached.Nearest(query)
	require.NoError(t, err)
	second, err := cached.Nearest(query)
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	assert.Equal(t, inner.Len(), cached.Len())
}

func TestCached_ReportsHitsAndMisses(t *testing.T) {
	inner, err := NewBruteForce([]Point{{Lat: 0, Lon: 0}})
	require.NoError(t, err)

	var hits, misses int
	cached := NewCached(inner, 10, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	a := Point{Lat: 1, Lon: 1}
	b := Point{Lat: 2, Lon: 2}

	for _, p := range []Point{a, a, b, a, b} {
		_, err := cached.Nearest(p)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, misses, "one miss per distinct coordinate")
	assert.Equal(t, 3, hits)
}

func TestCached_EvictsLeastRecentlyUsed(t *testing.T) {
	inner, err := NewBruteForce([]Point{{Lat: 0, Lon: 0}})
	require.NoError(t, err)

	var misses int
	cached := NewCached(inner, 2, func(hit bool) {
		if !hit {
			misses++
		}
	})

	a := Point{Lat: 1, Lon: 1}
	b := Point{Lat: 2, Lon: 2}
	c := Point{Lat: 3, Lon: 3}

	// Fill the cache with a and b, touch a, then insert c to evict b.
	for _, p := range []Point{a, b, a, c} {
		_, err := cached.Nearest(p)
		require.NoError(t, err)
	}
	require.Equal(t, 3, misses)

	_, err = cached.Nearest(a)
	require.NoError(t, err)
	assert.Equal(t, 3, misses, "a should still be cached")

	_, err = cached.Nearest(b)
	require.NoError(t, err)
	assert.Equal(t, 4, misses, "b should have been evicted")
}

func TestCached_DoesNotCacheInvalidQueries(t *testing.T) {
	inner, err := NewBruteForce([]Point{{Lat: 0, Lon: 0}})
	require.NoError(t, err)

	var lookups int
	cached := NewCached(inner, 10, func(bool) { lookups++ })

	_, err = cached.Nearest(Point{Lat: math.NaN(), Lon: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, lookups, "invalid queries should fail before the cache")
}
