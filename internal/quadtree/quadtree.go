// Package quadtree implements the spatial index over candidate survey
// points used during georeferencing. The point density is heavily skewed
// (dense city core, sparse periphery), so the index subdivides regions
// recursively on a per-node point budget instead of using a uniform grid.
package quadtree

import (
	"errors"
	"math"
	"sort"

	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Point is one indexed survey point in ground coordinates (meters).
type Point struct {
	ID   string
	X, Y float64
	Kind symbol.Kind
}

// Pos returns the point's position as a geometry.Point2D.
func (p Point) Pos() geometry.Point2D {
	return geometry.Point2D{X: p.X, Y: p.Y}
}

// nodeCapacity is the number of points a node holds before subdividing.
const nodeCapacity = 32

// minExtentM stops subdivision once a node's region shrinks below a
// millimeter. Survey data contains distinct points at identical
// coordinates (a border point deleted and re-created in place), and a
// leaf full of those can never be split apart; it grows instead.
const minExtentM = 1e-3

// Tree is a read-only region quadtree. It is built once from the full
// candidate point set and never mutated afterwards, so concurrent reads
// from multiple matching attempts are safe.
type Tree struct {
	root *node
	size int
}

type node struct {
	bounds   geometry.Rect
	points   []Point
	children [4]*node
	divided  bool
}

// ErrNoPoints is returned when an index would be built from nothing;
// without any candidate points no orientation is possible.
var ErrNoPoints = errors.New("quadtree: empty point set")

// New builds a quadtree whose region is fitted to the extent of the
// given points, padded by one meter so that points on the hull remain
// strictly inside.
func New(points []Point) (*Tree, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	bounds := geometry.RectFromBounds(minX-0.5, minY-0.5, maxX+0.5, maxY+0.5)
	t := &Tree{root: &node{bounds: bounds}}
	for _, p := range points {
		t.root.insert(p)
		t.size++
	}
	return t, nil
}

// Size returns the number of indexed points.
func (t *Tree) Size() int {
	return t.size
}

// Bounds returns the region covered by the index.
func (t *Tree) Bounds() geometry.Rect {
	return t.root.bounds
}

// RangeQuery returns all points within the given rectangle, in no
// particular order.
func (t *Tree) RangeQuery(r geometry.Rect) []Point {
	var found []Point
	t.root.rangeQuery(r, &found)
	return found
}

// Nearest returns up to k points ordered by ascending distance to q.
func (t *Tree) Nearest(q geometry.Point2D, k int) []Point {
	if k <= 0 {
		return nil
	}
	acc := &nearestAcc{q: q, k: k}
	t.root.nearest(acc)
	return acc.points
}

func (n *node) insert(p Point) {
	if !n.divided {
		if len(n.points) < nodeCapacity ||
			n.bounds.Width <= minExtentM || n.bounds.Height <= minExtentM {
			n.points = append(n.points, p)
			return
		}
		n.subdivide()
	}
	n.child(p.X, p.Y).insert(p)
}

func (n *node) subdivide() {
	c := n.bounds.Center()
	hw, hh := n.bounds.Width/2, n.bounds.Height/2
	n.children[0] = &node{bounds: geometry.NewRect(n.bounds.X, n.bounds.Y, hw, hh)}
	n.children[1] = &node{bounds: geometry.NewRect(c.X, n.bounds.Y, hw, hh)}
	n.children[2] = &node{bounds: geometry.NewRect(n.bounds.X, c.Y, hw, hh)}
	n.children[3] = &node{bounds: geometry.NewRect(c.X, c.Y, hw, hh)}
	n.divided = true
	points := n.points
	n.points = nil
	for _, p := range points {
		n.child(p.X, p.Y).insert(p)
	}
}

func (n *node) child(x, y float64) *node {
	c := n.bounds.Center()
	i := 0
	if x >= c.X {
		i++
	}
	if y >= c.Y {
		i += 2
	}
	return n.children[i]
}

func (n *node) rangeQuery(r geometry.Rect, found *[]Point) {
	if !n.bounds.Intersects(r) {
		return
	}
	if n.divided {
		for _, c := range n.children {
			c.rangeQuery(r, found)
		}
		return
	}
	for _, p := range n.points {
		if r.Contains(p.Pos()) {
			*found = append(*found, p)
		}
	}
}

// nearestAcc accumulates the k best points seen so far, sorted by
// ascending distance to the query point.
type nearestAcc struct {
	q      geometry.Point2D
	k      int
	points []Point
	dists  []float64
}

func (a *nearestAcc) worst() float64 {
	if len(a.points) < a.k {
		return math.Inf(1)
	}
	return a.dists[len(a.dists)-1]
}

func (a *nearestAcc) add(p Point) {
	d := a.q.Distance(p.Pos())
	if d >= a.worst() {
		return
	}
	i := sort.SearchFloat64s(a.dists, d)
	a.points = append(a.points, Point{})
	a.dists = append(a.dists, 0)
	copy(a.points[i+1:], a.points[i:])
	copy(a.dists[i+1:], a.dists[i:])
	a.points[i] = p
	a.dists[i] = d
	if len(a.points) > a.k {
		a.points = a.points[:a.k]
		a.dists = a.dists[:a.k]
	}
}

func (n *node) nearest(acc *nearestAcc) {
	if rectDistance(n.bounds, acc.q) > acc.worst() {
		return
	}
	if !n.divided {
		for _, p := range n.points {
			acc.add(p)
		}
		return
	}
	// Visit closer quadrants first so the pruning bound tightens early.
	order := make([]*node, 0, 4)
	order = append(order, n.children[:]...)
	sort.Slice(order, func(i, j int) bool {
		return rectDistance(order[i].bounds, acc.q) < rectDistance(order[j].bounds, acc.q)
	})
	for _, c := range order {
		c.nearest(acc)
	}
}

// rectDistance returns the distance from a point to a rectangle,
// zero if the point lies inside.
func rectDistance(r geometry.Rect, p geometry.Point2D) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-r.MaxX())
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-r.MaxY())
	return math.Hypot(dx, dy)
}
