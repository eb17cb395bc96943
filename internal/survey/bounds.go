package survey

import (
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// EstimateBounds estimates where on the ground a mutation plan is located,
// before any geometric matching has run. Evidence is combined in order of
// trust: the mutation's recorded extent and the extents of parcels the
// cadastre associates with the mutation form the primary estimate; parcel
// numbers read off the plan by OCR are consulted only when the cadastre
// knows nothing, since OCR sees plenty of unrelated numbers.
func (d *Dataset) EstimateBounds(mutationID string, declaredParcels, ocrParcels []string) (geometry.Rect, bool) {
	var bounds geometry.Rect
	found := false
	union := func(r geometry.Rect) {
		if found {
			bounds = bounds.Union(r)
		} else {
			bounds = r
			found = true
		}
	}

	if m, ok := d.Mutations[mutationID]; ok && m.HasExtent {
		union(m.Extent)
	}
	for _, id := range declaredParcels {
		if p, ok := d.Parcels[id]; ok {
			union(p.Extent)
		}
	}
	if found {
		return bounds, true
	}

	for _, id := range ocrParcels {
		if p, ok := d.Parcels[id]; ok {
			union(p.Extent)
		}
	}
	return bounds, found
}

// SearchRegion widens an estimated bounds rectangle to the square region
// of ground the plan could plausibly cover. The page dimensions at the
// given map scale bound how much ground fits on the sheet; factor scales
// that footprint, with values above one allowing for the estimate sitting
// near a page edge at the cost of more candidate points. A scale of zero
// means the scale is unknown and assumes 1:2000, the largest scale in use.
func SearchRegion(bounds geometry.Rect, scale int, pageWidth, pageHeight int, dpi, factor float64) geometry.Rect {
	if scale <= 0 {
		scale = 2000
	}
	if factor <= 0 {
		factor = 1
	}
	inchesToMeters := 2.54 / 100.0
	widthM := float64(pageWidth) / dpi * inchesToMeters * float64(scale) * factor
	heightM := float64(pageHeight) / dpi * inchesToMeters * float64(scale) * factor
	if w := bounds.MaxX() - bounds.X; w > widthM {
		widthM = w
	}
	if h := bounds.MaxY() - bounds.Y; h > heightM {
		heightM = h
	}
	radius := widthM / 2
	if heightM > widthM {
		radius = heightM / 2
	}
	return geometry.SquareAround(bounds.Center(), radius)
}
