package geo

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidInput covers the two rejected input shapes: an empty candidate
// set and a non-finite coordinate. Callers test for it with errors.Is.
var ErrInvalidInput = errors.New("geo: invalid input")

// Result identifies the nearest candidate by its position in the candidate
// sequence given at construction, plus the great-circle distance to it.
type Result struct {
	Index  int
	Meters float64
}

// Index finds the candidate nearest to a query point. The candidate set is
// fixed at construction and implementations are safe for concurrent queries.
type Index interface {
	// Nearest returns the candidate minimizing great-circle distance to p,
	// ties resolved to the lowest candidate index.
	Nearest(p Point) (Result, error)

	// Len returns the candidate count.
	Len() int
}

// kdTreeThreshold is the candidate count above which New prefers the k-d
// tree over the linear scan. Below it the scan wins on constant factors.
const kdTreeThreshold = 512

// New returns a nearest-neighbor index over the candidate points, selecting
// the engine by candidate count. Both engines honor the same contract, so
// the choice is invisible to callers.
func New(points []Point) (Index, error) {
	if len(points) > kdTreeThreshold {
		return NewKDTree(points)
	}
	return NewBruteForce(points)
}

func validateCandidates(points []Point) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: empty candidate set", ErrInvalidInput)
	}
	for i, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: non-finite candidate coordinate at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateQuery(p Point) error {
	if !p.IsFinite() {
		return fmt.Errorf("%w: non-finite query coordinate", ErrInvalidInput)
	}
	return nil
}

// BruteForce is the reference engine: a linear scan over every candidate.
// O(M) per query, which beats tree traversal for the small fixed candidate
// lists this package is built for.
type BruteForce struct {
	points []Point
}

// NewBruteForce builds a linear-scan index. The candidate slice is copied,
// so later mutation by the caller cannot affect results.
func NewBruteForce(points []Point) (*BruteForce, error) {
	if err := validateCandidates(points); err != nil {
		return nil, err
	}
	return &BruteForce{points: slices.Clone(points)}, nil
}

func (b *BruteForce) Len() int { return len(b.points) }

// Nearest scans every candidate and keeps the minimum. The strictly-less
// comparison keeps the earliest candidate on exact distance ties.
func (b *BruteForce) Nearest(p Point) (Result, error) {
	if err := validateQuery(p); err != nil {
		return Result{}, err
	}

	best := Result{Index: 0, Meters: Haversine(p, b.points[0])}
	for i := 1; i < len(b.points); i++ {
		if d := Haversine(p, b.points[i]); d < best.Meters {
			best = Result{Index: i, Meters: d}
		}
	}
	return best, nil
}
