// Package match finds the affine transform that places a scanned
// mutation plan onto the ground, by searching for point correspondences
// between symbols detected on the plan and survey points near its
// estimated location.
package match

import (
	"math"

	"github.com/brawer/cadaref-zurich/internal/quadtree"
	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Match is a scored transform from pixel coordinates on the scanned page
// to LV95 ground coordinates in meters.
type Match struct {
	Transform geometry.AffineTransform

	// Residual is the root mean square distance, in meters, between
	// the mapped symbols and their nearest same-kind survey points.
	Residual float64

	// Scale is the map scale under which the match was found, for
	// example 500 for a 1:500 plan.
	Scale int

	// Correspondences counts the symbols that landed within tolerance
	// of a survey point of their kind.
	Correspondences int
}

// FindTransform searches for a transform consistent with at least three
// correspondences between detected symbols and candidate survey points.
// The page's map scale is usually unknown, so a set of plausible scales
// is tried; ocrScales, read off the plan by OCR, are tried first. The
// second return value is false when no three symbols could be brought
// into correspondence at any scale, a legitimate outcome for pages that
// show tables or sketches rather than maps.
//
// The search is brute force over symbol and point triangles, pruned by
// pairwise distance tolerance. Callers keep it tractable by passing tens
// of symbols and spatially pre-filtered candidates, not thousands.
func FindTransform(symbols []symbol.Symbol, points []quadtree.Point, dpi float64, ocrScales []int, params Params) (Match, bool) {
	if len(symbols) < 3 || len(points) < 3 {
		return Match{}, false
	}
	index, err := quadtree.New(points)
	if err != nil {
		return Match{}, false
	}

	best := Match{Residual: math.Inf(1)}
	found := false
	for _, scale := range tryScales(ocrScales, params.Scales) {
		m, ok := findAtScale(symbols, points, index, scale, dpi, params)
		if !ok {
			continue
		}
		if m.Residual < best.Residual {
			best = m
			found = true
		}
		if best.Residual <= params.AcceptResidualM {
			break
		}
	}
	if !found {
		return Match{}, false
	}
	return refine(best, symbols, index, params), true
}

// findAtScale runs the triangle search under one map scale assumption.
// All distance comparisons happen in meters; pixel positions are
// converted once up front.
func findAtScale(symbols []symbol.Symbol, points []quadtree.Point, index *quadtree.Tree, scale int, dpi float64, params Params) (Match, bool) {
	mpp := metersPerPixel(scale, dpi)
	scaled := make([]geometry.Point2D, len(symbols))
	for i, s := range symbols {
		scaled[i] = s.Position.Scale(mpp)
	}

	best := Match{Residual: math.Inf(1)}
	found := false
	for p := 0; p < len(symbols); p++ {
		for q := p + 1; q < len(symbols); q++ {
			dpq := scaled[p].Distance(scaled[q])
			if dpq < params.ToleranceM {
				continue
			}
			for a := range points {
				if points[a].Kind != symbols[p].Kind {
					continue
				}
				for b := range points {
					if b == a || points[b].Kind != symbols[q].Kind {
						continue
					}
					dab := points[a].Pos().Distance(points[b].Pos())
					if math.Abs(dab-dpq) > params.ToleranceM {
						continue
					}
					m, ok := bestThird(symbols, scaled, points, index, p, q, a, b, params)
					if !ok {
						continue
					}
					m.Scale = scale
					if m.Residual < best.Residual {
						best = m
						found = true
					}
					if best.Residual <= params.AcceptResidualM {
						return best, true
					}
				}
			}
		}
	}
	return best, found
}

// bestThird extends an accepted pair correspondence (p,q)<->(a,b) with
// every consistent third symbol and point, scoring the transform each
// triangle induces.
func bestThird(symbols []symbol.Symbol, scaled []geometry.Point2D, points []quadtree.Point, index *quadtree.Tree, p, q, a, b int, params Params) (Match, bool) {
	best := Match{Residual: math.Inf(1)}
	found := false
	for r := range symbols {
		if r == p || r == q {
			continue
		}
		dpr := scaled[p].Distance(scaled[r])
		dqr := scaled[q].Distance(scaled[r])
		for c := range points {
			if c == a || c == b || points[c].Kind != symbols[r].Kind {
				continue
			}
			if math.Abs(points[a].Pos().Distance(points[c].Pos())-dpr) > params.ToleranceM {
				continue
			}
			if math.Abs(points[b].Pos().Distance(points[c].Pos())-dqr) > params.ToleranceM {
				continue
			}
			if geometry.TriangleArea(points[a].Pos(), points[b].Pos(), points[c].Pos()) < 1.0 {
				continue
			}
			transform, err := affineFromTriangle(
				[3]geometry.Point2D{symbols[p].Position, symbols[q].Position, symbols[r].Position},
				[3]geometry.Point2D{points[a].Pos(), points[b].Pos(), points[c].Pos()})
			if err != nil {
				continue
			}
			residual, corr := score(transform, symbols, index, params)
			if residual < best.Residual {
				best = Match{Transform: transform, Residual: residual, Correspondences: corr}
				found = true
			}
			if best.Residual <= params.AcceptResidualM {
				return best, true
			}
		}
	}
	return best, found
}

// score maps every detected symbol through the transform and measures
// how close it lands to a survey point of its kind. Symbols with no
// same-kind point within the penalty radius are charged the full
// penalty; the result is the root mean square over all symbols.
func score(transform geometry.AffineTransform, symbols []symbol.Symbol, index *quadtree.Tree, params Params) (residual float64, correspondences int) {
	var sum float64
	for _, s := range symbols {
		mapped := transform.Apply(s.Position)
		d := nearestSameKind(index, mapped, s.Kind, params.PenaltyM)
		if d <= params.ToleranceM {
			correspondences++
		}
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(symbols))), correspondences
}

// nearestSameKind returns the distance from pos to the nearest indexed
// point of the given kind, or penalty if none lies within that radius.
func nearestSameKind(index *quadtree.Tree, pos geometry.Point2D, kind symbol.Kind, penalty float64) float64 {
	min := penalty
	for _, pt := range index.RangeQuery(geometry.SquareAround(pos, penalty)) {
		if pt.Kind != kind {
			continue
		}
		if d := pt.Pos().Distance(pos); d < min {
			min = d
		}
	}
	return min
}

// refine re-fits the transform by least squares over all symbols that
// correspond to a survey point within tolerance, then rescores. Three
// exactly fitted triangle corners already match; pulling in the other
// correspondences spreads the error instead of concentrating it.
func refine(m Match, symbols []symbol.Symbol, index *quadtree.Tree, params Params) Match {
	var src, dst []geometry.Point2D
	for _, s := range symbols {
		mapped := m.Transform.Apply(s.Position)
		pt, ok := nearestPointOfKind(index, mapped, s.Kind, params.ToleranceM)
		if !ok {
			continue
		}
		src = append(src, s.Position)
		dst = append(dst, pt.Pos())
	}
	if len(src) < 3 {
		return m
	}
	transform, err := affineLeastSquares(src, dst)
	if err != nil {
		return m
	}
	residual, corr := score(transform, symbols, index, params)
	if residual >= m.Residual {
		return m
	}
	m.Transform = transform
	m.Residual = residual
	m.Correspondences = corr
	return m
}

func nearestPointOfKind(index *quadtree.Tree, pos geometry.Point2D, kind symbol.Kind, radius float64) (quadtree.Point, bool) {
	var best quadtree.Point
	min := radius
	found := false
	for _, pt := range index.RangeQuery(geometry.SquareAround(pos, radius)) {
		if pt.Kind != kind {
			continue
		}
		if d := pt.Pos().Distance(pos); d <= min {
			min = d
			best = pt
			found = true
		}
	}
	return best, found
}

// tryScales prepends the scales read off the plan to the configured
// list, dropping duplicates and implausible values.
func tryScales(ocrScales, configured []int) []int {
	scales := make([]int, 0, len(ocrScales)+len(configured))
	seen := make(map[int]bool)
	for _, s := range append(append([]int{}, ocrScales...), configured...) {
		if s <= 0 || seen[s] {
			continue
		}
		seen[s] = true
		scales = append(scales, s)
	}
	return scales
}

// metersPerPixel converts one page pixel to ground meters at the given
// map scale and scan resolution.
func metersPerPixel(scale int, dpi float64) float64 {
	return float64(scale) * 0.0254 / dpi
}
