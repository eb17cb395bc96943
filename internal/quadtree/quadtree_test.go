package quadtree

import (
	"fmt"
	"math"
	"testing"

	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// gridPoints builds an n x n grid of points spaced 10 meters apart,
// anchored at Zurich-ish LV95 coordinates.
func gridPoints(n int) []Point {
	var points []Point
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points = append(points, Point{
				ID:   fmt.Sprintf("P%d_%d", i, j),
				X:    2680000 + float64(i)*10,
				Y:    1250000 + float64(j)*10,
				Kind: symbol.KindWhiteCircle,
			})
		}
	}
	return points
}

func TestNewEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("got nil error for empty point set")
	}
}

func TestRangeQueryRoundTrip(t *testing.T) {
	points := gridPoints(20)
	tree, err := New(points)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Size() != len(points) {
		t.Fatalf("got size %d, want %d", tree.Size(), len(points))
	}

	// Every point must be retrievable with a box strictly around it.
	for _, p := range points {
		box := geometry.SquareAround(p.Pos(), 1)
		found := false
		for _, got := range tree.RangeQuery(box) {
			if got.ID == p.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("point %s not found in %v", p.ID, box)
		}
	}

	// A disjoint box returns nothing.
	far := geometry.NewRect(2700000, 1270000, 100, 100)
	if got := tree.RangeQuery(far); len(got) != 0 {
		t.Errorf("got %d points in disjoint box, want 0", len(got))
	}
}

// A border point deleted and re-created in place yields several survey
// points at the exact same coordinates. More of those than one node can
// hold must not make construction subdivide forever.
func TestCoincidentPoints(t *testing.T) {
	var points []Point
	for i := 0; i < 40; i++ {
		points = append(points, Point{
			ID:   fmt.Sprintf("HG%d", i),
			X:    2680123.45,
			Y:    1250456.78,
			Kind: symbol.KindWhiteCircle,
		})
	}
	tree, err := New(points)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Size() != len(points) {
		t.Fatalf("got size %d, want %d", tree.Size(), len(points))
	}
	box := geometry.SquareAround(geometry.Point2D{X: 2680123.45, Y: 1250456.78}, 0.1)
	if got := tree.RangeQuery(box); len(got) != len(points) {
		t.Errorf("RangeQuery returned %d points, want %d", len(got), len(points))
	}
	near := tree.Nearest(geometry.Point2D{X: 2680124, Y: 1250457}, 5)
	if len(near) != 5 {
		t.Errorf("Nearest returned %d points, want 5", len(near))
	}
}

func TestRangeQueryPartial(t *testing.T) {
	tree, err := New(gridPoints(10))
	if err != nil {
		t.Fatal(err)
	}
	// A 25x25m box anchored at the grid origin covers a 3x3 corner.
	got := tree.RangeQuery(geometry.NewRect(2679995, 1249995, 30, 30))
	if len(got) != 9 {
		t.Errorf("got %d points, want 9", len(got))
	}
}

func TestNearest(t *testing.T) {
	tree, err := New(gridPoints(10))
	if err != nil {
		t.Fatal(err)
	}
	q := geometry.Point2D{X: 2680001, Y: 1250001}
	got := tree.Nearest(q, 3)
	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	if got[0].ID != "P0_0" {
		t.Errorf("got nearest %s, want P0_0", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Pos().Distance(q) > got[i].Pos().Distance(q) {
			t.Errorf("results not sorted by distance: %v", got)
		}
	}
}

func TestNearestMoreThanSize(t *testing.T) {
	tree, err := New(gridPoints(2))
	if err != nil {
		t.Fatal(err)
	}
	got := tree.Nearest(geometry.Point2D{X: 2680000, Y: 1250000}, 100)
	if len(got) != 4 {
		t.Errorf("got %d points, want all 4", len(got))
	}
}

func TestBoundsContainAllPoints(t *testing.T) {
	points := gridPoints(5)
	tree, err := New(points)
	if err != nil {
		t.Fatal(err)
	}
	b := tree.Bounds()
	for _, p := range points {
		if !b.Contains(p.Pos()) {
			t.Errorf("bounds %v do not contain %s", b, p.ID)
		}
	}
}

func TestRangeQueryKindPreserved(t *testing.T) {
	points := []Point{
		{ID: "a", X: 2680000, Y: 1250000, Kind: symbol.KindBlackDot},
		{ID: "b", X: 2680010, Y: 1250010, Kind: symbol.KindDoubleWhiteCircle},
	}
	tree, err := New(points)
	if err != nil {
		t.Fatal(err)
	}
	for _, got := range tree.RangeQuery(tree.Bounds()) {
		want := symbol.KindBlackDot
		if got.ID == "b" {
			want = symbol.KindDoubleWhiteCircle
		}
		if got.Kind != want {
			t.Errorf("point %s: got kind %s, want %s", got.ID, got.Kind, want)
		}
	}
}

func TestNearestDistanceExact(t *testing.T) {
	tree, err := New(gridPoints(3))
	if err != nil {
		t.Fatal(err)
	}
	q := geometry.Point2D{X: 2680005, Y: 1250000}
	got := tree.Nearest(q, 1)
	if len(got) != 1 {
		t.Fatal("no nearest point")
	}
	if d := got[0].Pos().Distance(q); math.Abs(d-5) > 1e-9 {
		t.Errorf("got distance %g, want 5", d)
	}
}
