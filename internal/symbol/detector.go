package symbol

import (
	"image"
	"image/color"
	"sort"

	"gocv.io/x/gocv"

	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Detect finds all map symbols on a bilevel page. The page must be a
// single-channel 8-bit image with values 0 (ink) and 255 (paper).
//
// Detection is deterministic for identical pixel input: the result is
// sorted by ascending (x, y, kind). A blank page yields an empty result,
// never an error. The input Mat is not modified.
func Detect(page gocv.Mat, params DetectionParams) []Symbol {
	if page.Empty() {
		return nil
	}

	// The contour extractor gets confused when content touches the image
	// border: it then treats the whole page as one black blob. Force the
	// outermost pixel ring to paper white before extracting.
	work := page.Clone()
	defer work.Close()
	w, h := work.Cols(), work.Rows()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.Rectangle(&work, image.Rect(0, 0, w-1, h-1), white, 1)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	contours := gocv.FindContoursWithParams(work, &hierarchy,
		gocv.RetrievalTree, gocv.ChainApproxTC89KCOS)
	defer contours.Close()

	nodes := HierarchyFromMat(hierarchy)

	var symbols []Symbol
	for c := 0; c < contours.Size(); c++ {
		kind := Classify(work, contours, nodes, c, params)
		if kind == KindNone {
			continue
		}
		box := gocv.BoundingRect(contours.At(c))
		symbols = append(symbols, Symbol{
			Position: geometry.Point2D{
				X: float64(box.Min.X) + float64(box.Dx())/2,
				Y: float64(box.Min.Y) + float64(box.Dy())/2,
			},
			Kind: kind,
		})
	}

	sort.Slice(symbols, func(i, j int) bool {
		a, b := symbols[i], symbols[j]
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		return a.Kind < b.Kind
	})
	return symbols
}

// FilterWhite keeps only symbols of the white-circle family. Black-dot
// detections are too often text fragments and dotted lines, so matching
// restricts itself to white symbols; fixed and secured border points are
// frequent enough to still give the matcher plenty to work with.
func FilterWhite(symbols []Symbol) []Symbol {
	var kept []Symbol
	for _, s := range symbols {
		if s.Kind.IsWhite() {
			kept = append(kept, s)
		}
	}
	return kept
}
