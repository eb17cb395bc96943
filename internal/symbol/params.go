package symbol

// DetectionParams holds the geometric bands used to recognize map symbols.
// All pixel values are calibrated for 600 dpi scans; use WithDPI to rescale
// for a different input resolution.
type DetectionParams struct {
	DPI float64

	// Bounding-box size band for any symbol candidate (pixels).
	MinBoxPixels float64
	MaxBoxPixels float64

	// Aspect-ratio band of the minimum-area rectangle. Symbols are
	// circular, so width/height must stay close to 1.
	MinAspect float64
	MaxAspect float64

	// Enclosing-circle radius bands per symbol kind (pixels).
	DoubleCircleMinRadius float64
	DoubleCircleMaxRadius float64
	WhiteCircleMinRadius  float64
	WhiteCircleMaxRadius  float64
	BlackDotMinRadius     float64
	BlackDotMaxRadius     float64

	// A white circle must sit in a large parent contour (the map face),
	// not inside another small symbol ring.
	MinParentPixels float64
}

// referenceDPI is the resolution the default pixel bands were tuned at.
const referenceDPI = 600

// DefaultParams returns detection parameters tuned on 600 dpi bilevel
// scans of the Zürich mutation archive.
func DefaultParams() DetectionParams {
	return DetectionParams{
		DPI: referenceDPI,

		MinBoxPixels: 8,
		MaxBoxPixels: 35,

		MinAspect: 0.75,
		MaxAspect: 1.25,

		DoubleCircleMinRadius: 7.0,
		DoubleCircleMaxRadius: 19.0,
		WhiteCircleMinRadius:  7.5,
		WhiteCircleMaxRadius:  15.5,
		BlackDotMinRadius:     7.0,
		BlackDotMaxRadius:     10.2,

		MinParentPixels: 150,
	}
}

// WithDPI returns a copy of the params with all pixel bands rescaled from
// the 600 dpi reference to the given resolution.
func (p DetectionParams) WithDPI(dpi float64) DetectionParams {
	if dpi <= 0 || dpi == p.DPI {
		return p
	}
	f := dpi / referenceDPI
	p.DPI = dpi
	p.MinBoxPixels *= f
	p.MaxBoxPixels *= f
	p.DoubleCircleMinRadius *= f
	p.DoubleCircleMaxRadius *= f
	p.WhiteCircleMinRadius *= f
	p.WhiteCircleMaxRadius *= f
	p.BlackDotMinRadius *= f
	p.BlackDotMaxRadius *= f
	p.MinParentPixels *= f
	return p
}

// scaleFactor returns the factor from the 600 dpi reference resolution,
// used to rescale the probe-ring offsets of the classifier.
func (p DetectionParams) scaleFactor() float64 {
	if p.DPI <= 0 {
		return 1
	}
	return p.DPI / referenceDPI
}
