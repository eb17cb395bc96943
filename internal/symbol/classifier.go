package symbol

import (
	"gocv.io/x/gocv"
)

// ContourNode describes one contour's position in the nesting tree
// produced by contour extraction. Indexes are -1 when absent.
type ContourNode struct {
	Next       int
	Prev       int
	FirstChild int
	Parent     int
}

// HierarchyFromMat converts an OpenCV contour hierarchy matrix
// (1 x N, 4 channels: next, previous, first child, parent) into a slice
// of ContourNodes.
func HierarchyFromMat(hierarchy gocv.Mat) []ContourNode {
	if hierarchy.Empty() {
		return nil
	}
	n := hierarchy.Cols()
	nodes := make([]ContourNode, n)
	for i := 0; i < n; i++ {
		v := hierarchy.GetVeciAt(0, i)
		if len(v) < 4 {
			continue
		}
		nodes[i] = ContourNode{
			Next:       int(v[0]),
			Prev:       int(v[1]),
			FirstChild: int(v[2]),
			Parent:     int(v[3]),
		}
	}
	return nodes
}

// Classify decides whether the c-th contour of a bilevel page is a map
// symbol. It is a pure function of the pixel data: degenerate contours
// classify as KindNone, never panic.
//
// The decision combines three signals:
//
//   - polarity: the nesting depth of the contour tells whether it outlines
//     a white region (even number of parents) or a black one
//   - size and roundness: bounding box, min-area-rect aspect ratio and
//     min-enclosing-circle radius must fall into per-kind pixel bands
//   - probe rings: concentric pixel rings around the center must show the
//     ink pattern the symbol prints with (ring of black, gap of white, ...)
func Classify(page gocv.Mat, contours gocv.PointsVector, hierarchy []ContourNode, c int, params DetectionParams) Kind {
	if c < 0 || c >= contours.Size() || c >= len(hierarchy) {
		return KindNone
	}
	contour := contours.At(c)
	white := countParents(hierarchy, c)%2 == 0
	hasHoles := hierarchy[c].FirstChild >= 0
	parent := hierarchy[c].Parent

	x, y, r, ok := contourCircle(contour, params)
	if !ok {
		return KindNone
	}
	f := params.scaleFactor()

	// A fixed point prints as two concentric rings: black ink right
	// outside the inner white disk, a white gap between the rings, and
	// black ink again on the outer ring.
	if white && !hasHoles && between(r, params.DoubleCircleMinRadius, params.DoubleCircleMaxRadius) {
		hasBlack := hasCircle(page, x, y, r+2*f, 0)
		hasWhite := hasCircle(page, x, y, r+10*f, 255) || hasCircle(page, x, y, r+11*f, 255)
		hasBlack2 := hasCircle(page, x, y, r+15*f, 0)
		if hasBlack && hasWhite && hasBlack2 {
			return KindDoubleWhiteCircle
		}
	}

	// A plain white circle is a small white disk whose parent contour is
	// large (the map face itself, not another symbol ring), with no
	// second ring of ink around it.
	if white && !hasHoles && between(r, params.WhiteCircleMinRadius, params.WhiteCircleMaxRadius) && parent >= 0 {
		rect := gocv.MinAreaRect(contours.At(parent))
		if float64(rect.Width) > params.MinParentPixels || float64(rect.Height) > params.MinParentPixels {
			if !hasCircle(page, x, y, r+10*f, 0) {
				return KindWhiteCircle
			}
		}
	}

	// A black dot is a filled disk with a white margin right at its
	// edge. Dots mark unsecured border points, which always sit on line
	// work, so some ink must remain on every probe ring further out;
	// this rejects stray specks in empty map areas.
	if !white && !hasHoles && between(r, params.BlackDotMinRadius, params.BlackDotMaxRadius) {
		anyWhite := hasCircle(page, x, y, r+8*f, 255) ||
			hasCircle(page, x, y, r+12*f, 255) ||
			hasCircle(page, x, y, r+16*f, 255)
		if hasCircle(page, x, y, r+2*f, 255) && !anyWhite {
			return KindBlackDot
		}
	}

	return KindNone
}

// countParents walks the hierarchy upward and counts how many parents
// the i-th contour has.
func countParents(hierarchy []ContourNode, i int) int {
	n := 0
	for p := hierarchy[i].Parent; p >= 0; p = hierarchy[p].Parent {
		n++
	}
	return n
}

func between(val, lower, upper float64) bool {
	return val >= lower && val <= upper
}

// contourCircle fits an enclosing circle to a contour if its shape is
// plausibly a symbol: bounding box within the size band, min-area-rect
// aspect ratio close to square. Returns ok=false for everything else,
// including degenerate contours.
func contourCircle(contour gocv.PointVector, params DetectionParams) (cx, cy, r float64, ok bool) {
	if contour.Size() == 0 {
		return 0, 0, 0, false
	}
	box := gocv.BoundingRect(contour)
	w, h := float64(box.Dx()), float64(box.Dy())
	if w < params.MinBoxPixels || w > params.MaxBoxPixels ||
		h < params.MinBoxPixels || h > params.MaxBoxPixels {
		return 0, 0, 0, false
	}
	rect := gocv.MinAreaRect(contour)
	if rect.Height < 1 {
		return 0, 0, 0, false
	}
	aspect := float64(rect.Width) / float64(rect.Height)
	if aspect < params.MinAspect || aspect > params.MaxAspect {
		return 0, 0, 0, false
	}
	x, y, radius := gocv.MinEnclosingCircle(contour)
	return float64(x), float64(y), float64(radius), true
}

// hasCircle reports whether all pixels on the circle around (cx, cy)
// with the given radius have the given value, ignoring pixels outside
// the image.
func hasCircle(page gocv.Mat, cx, cy, radius float64, value uint8) bool {
	icx, icy, ir := int(cx+0.5), int(cy+0.5), int(radius+0.5)
	rows, cols := page.Rows(), page.Cols()
	same := true
	circlePixels(icx, icy, ir, func(x, y int) {
		if x < 0 || x >= cols || y < 0 || y >= rows {
			return
		}
		if page.GetUCharAt(y, x) != value {
			same = false
		}
	})
	return same
}

// circlePixels visits the raster pixels of a circle outline using the
// midpoint circle algorithm.
func circlePixels(cx, cy, radius int, visit func(x, y int)) {
	f := 1 - radius
	ddfX := 1
	ddfY := -2 * radius
	x, y := 0, radius
	visit(cx, cy+radius)
	visit(cx, cy-radius)
	visit(cx+radius, cy)
	visit(cx-radius, cy)
	for x < y {
		if f >= 0 {
			y--
			ddfY += 2
			f += ddfY
		}
		x++
		ddfX += 2
		f += ddfX
		visit(cx+x, cy+y)
		visit(cx-x, cy+y)
		visit(cx+x, cy-y)
		visit(cx-x, cy-y)
		visit(cx+y, cy+x)
		visit(cx-y, cy+x)
		visit(cx+y, cy-x)
		visit(cx-y, cy-x)
	}
}
