package geo

import (
	"math"
	"slices"
)

// KDTree indexes candidates as unit vectors on the sphere and searches by
// squared chord distance, which is strictly monotonic with central angle.
// It therefore returns exactly the same nearest candidate as the linear
// scan, including first-in-sequence tie resolution, at O(log M) per query.
type KDTree struct {
	nodes []kdNode
	root  int32
	count int
}

type kdNode struct {
	vec         [3]float64
	index       int // position in the original candidate sequence
	axis        int8
	left, right int32 // node slice offsets, -1 when absent
}

// NewKDTree builds a balanced tree by median split on the 3-D unit-sphere
// embedding of the candidates.
func NewKDTree(points []Point) (*KDTree, error) {
	if err := validateCandidates(points); err != nil {
		return nil, err
	}

	items := make([]kdNode, len(points))
	for i, p := range points {
		items[i] = kdNode{vec: toUnitVector(p), index: i, left: -1, right: -1}
	}

	t := &KDTree{nodes: make([]kdNode, 0, len(items)), count: len(items)}
	t.root = t.build(items, 0)
	return t, nil
}

func (t *KDTree) Len() int { return t.count }

// build recursively splits items at the median of the current axis. Equal
// coordinates are ordered by candidate index so construction is
// deterministic regardless of input permutation within ties.
func (t *KDTree) build(items []kdNode, depth int) int32 {
	if len(items) == 0 {
		return -1
	}

	axis := depth % 3
	slices.SortFunc(items, func(a, b kdNode) int {
		if a.vec[axis] != b.vec[axis] {
			if a.vec[axis] < b.vec[axis] {
				return -1
			}
			return 1
		}
		return a.index - b.index
	})

	mid := len(items) / 2
	node := items[mid]
	node.axis = int8(axis)

	t.nodes = append(t.nodes, node)
	id := int32(len(t.nodes) - 1)

	t.nodes[id].left = t.build(items[:mid], depth+1)
	t.nodes[id].right = t.build(items[mid+1:], depth+1)
	return id
}

// Nearest descends the tree keeping the (squared chord, index) minimum.
func (t *KDTree) Nearest(p Point) (Result, error) {
	if err := validateQuery(p); err != nil {
		return Result{}, err
	}

	query := toUnitVector(p)
	bestDist := math.MaxFloat64
	bestIndex := -1
	t.search(t.root, query, &bestDist, &bestIndex)

	return Result{Index: bestIndex, Meters: chordToMeters(bestDist)}, nil
}

func (t *KDTree) search(id int32, query [3]float64, bestDist *float64, bestIndex *int) {
	if id < 0 {
		return
	}
	n := &t.nodes[id]

	d := chordSquared(query, n.vec)
	if d < *bestDist || (d == *bestDist && n.index < *bestIndex) {
		*bestDist = d
		*bestIndex = n.index
	}

	diff := query[n.axis] - n.vec[n.axis]
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}

	t.search(near, query, bestDist, bestIndex)

	// The far side is skipped only when the splitting plane is strictly
	// farther than the current best, so equidistant candidates with a lower
	// index remain reachable.
	if diff*diff <= *bestDist {
		t.search(far, query, bestDist, bestIndex)
	}
}

func toUnitVector(p Point) [3]float64 {
	lat := p.Lat * math.Pi / 180
	lon := p.Lon * math.Pi / 180
	return [3]float64{
		math.Cos(lat) * math.Cos(lon),
		math.Cos(lat) * math.Sin(lon),
		math.Sin(lat),
	}
}

func chordSquared(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// chordToMeters converts a squared chord length between unit vectors back to
// great-circle meters: theta = 2*asin(chord/2).
func chordToMeters(chordSq float64) float64 {
	half := math.Sqrt(chordSq) / 2
	if half > 1 {
		half = 1
	}
	return earthRadius * 2 * math.Asin(half)
}
