// Package threshold computes bilevel pages from grayscale or color scans.
// The scans come in at 300 dpi, too coarse for the small point symbols,
// so pages are first upsampled to 600 dpi with bilinear interpolation and
// smoothed with a bilateral filter before Otsu's method picks the
// threshold. Old school, but it works well on scanned cadastral plans and
// is much cheaper than super-resolution networks.
package threshold

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// OutputDPI is the resolution of thresholded pages.
const OutputDPI = 600

// Result is a bilevel page plus the threshold that produced it.
type Result struct {
	Page gocv.Mat

	// Threshold is the gray value actually applied. Foreground pixels
	// are those darker than it.
	Threshold float32

	// OtsuThreshold is what Otsu's method computed. It differs from
	// Threshold on very dark scans, see Page.
	OtsuThreshold float32
}

// Close releases the bilevel page.
func (r *Result) Close() {
	r.Page.Close()
}

// Page converts one scanned page to a bilevel image at OutputDPI.
//
// For typical good scans, the Otsu threshold lands above 140. Some scans
// are very dark, with thresholds around 80; there we artificially darken
// the result by thresholding 15 gray values higher, in the hope that the
// circles of border point symbols stay closed.
func Page(img image.Image, dpi float64) (*Result, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("threshold: bad input resolution %g dpi", dpi)
	}
	bounds := img.Bounds()
	outW := int(float64(bounds.Dx())*OutputDPI/dpi + 0.5)
	outH := int(float64(bounds.Dy())*OutputDPI/dpi + 0.5)
	scaled := imaging.Resize(img, outW, outH, imaging.Linear)

	src, err := gocv.ImageToMatRGB(scaled)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.BilateralFilter(src, &blurred, 9, 75, 75)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(blurred, &gray, gocv.ColorRGBToGray)

	bw := gocv.NewMat()
	otsu := gocv.Threshold(gray, &bw, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	t := otsu
	if otsu < 110 {
		t = otsu + 15
		gocv.Threshold(gray, &bw, t, 255, gocv.ThresholdBinary)
	}
	return &Result{Page: bw, Threshold: t, OtsuThreshold: otsu}, nil
}
