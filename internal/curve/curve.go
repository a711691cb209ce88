// Package curve answers pointer queries against ROC and precision-recall
// curves: which point of a series lies closest to a given x.
package curve

import (
	"math"
	"sort"
)

// Point is one (x, y) sample of a curve. For ROC x is the false positive
// rate; for PR it is recall. Both axes live in [0, 1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named curve, typically one per model.
type Series struct {
	Name   string
	Points []Point
}

// Hit is the nearest point found in one series.
type Hit struct {
	Series string
	Index  int // Position in the series' Points.
	Point  Point
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return min(max(x, 0), 1)
}

// Nearest returns the point whose X is closest to x, clamped to [0, 1].
// Ties keep the earlier point. The second result is false for an empty
// series. Points need not be sorted.
func Nearest(points []Point, x float64) (Point, bool) {
	i := nearestIndex(points, x)
	if i < 0 {
		return Point{}, false
	}
	return points[i], true
}

func nearestIndex(points []Point, x float64) int {
	x = clampUnit(x)
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		if d := math.Abs(p.X - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Index answers repeated Nearest queries on one series in O(log n).
type Index struct {
	points []Point
	order  []int // Positions into points, stably sorted by X.
}

// NewIndex prepares points for binary search. points is not modified and
// must not be modified while the Index is in use.
func NewIndex(points []Point) *Index {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]].X < points[order[b]].X
	})
	return &Index{points: points, order: order}
}

// Nearest behaves like the package-level Nearest, including its tie rule.
func (ix *Index) Nearest(x float64) (Point, bool) {
	i := ix.nearestIndex(x)
	if i < 0 {
		return Point{}, false
	}
	return ix.points[i], true
}

func (ix *Index) nearestIndex(x float64) int {
	n := len(ix.order)
	if n == 0 {
		return -1
	}
	x = clampUnit(x)
	xs := func(k int) float64 { return ix.points[ix.order[k]].X }

	// First sorted position with X >= x.
	hi := sort.Search(n, func(k int) bool { return xs(k) >= x })

	best := -1
	bestDist := math.Inf(1)
	consider := func(k int) {
		if k < 0 || k >= n {
			return
		}
		// Earliest original position among points sharing this X.
		v := xs(k)
		first := sort.Search(n, func(j int) bool { return xs(j) >= v })
		cand := ix.order[first]
		for j := first; j < n && xs(j) == v; j++ {
			cand = min(cand, ix.order[j])
		}
		d := math.Abs(v - x)
		if d < bestDist || (d == bestDist && cand < best) {
			best, bestDist = cand, d
		}
	}
	consider(hi - 1)
	consider(hi)
	return best
}

// NearestEach finds the nearest point of every non-empty series and orders
// the hits by descending Y. Equal Y keeps input order.
func NearestEach(series []Series, x float64) []Hit {
	hits := make([]Hit, 0, len(series))
	for _, s := range series {
		i := nearestIndex(s.Points, x)
		if i < 0 {
			continue
		}
		hits = append(hits, Hit{Series: s.Name, Index: i, Point: s.Points[i]})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Point.Y > hits[b].Point.Y
	})
	return hits
}

// AUC integrates points with the trapezoid rule after sorting by X.
func AUC(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].X < sorted[b].X })

	var area float64
	for i := 1; i < len(sorted); i++ {
		area += (sorted[i].X - sorted[i-1].X) * (sorted[i].Y + sorted[i-1].Y) / 2
	}
	return area
}
