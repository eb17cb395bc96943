// Command symboldebug visualizes symbol detection on a scanned page.
// It thresholds the page, runs the detector, and writes a copy of the
// page with each detected symbol circled in a kind-specific color.
//
// Usage:
//
//	symboldebug -in rendered/FL1303/1.tif -out debug.png -dpi 300
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"

	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/internal/threshold"
)

// kindColors assigns each symbol kind a visually distinct hue.
var kindColors = map[symbol.Kind]colorful.Color{
	symbol.KindWhiteCircle:       colorful.Hsv(120, 1, 0.8), // green
	symbol.KindDoubleWhiteCircle: colorful.Hsv(210, 1, 0.9), // blue
	symbol.KindBlackDot:          colorful.Hsv(0, 1, 0.9),   // red
}

func main() {
	in := flag.String("in", "", "rendered page TIFF")
	out := flag.String("out", "symbols.png", "output image")
	dpi := flag.Float64("dpi", 300, "resolution of the input page")
	flag.Parse()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symboldebug: %v\n", err)
		os.Exit(1)
	}
	img, err := tiff.Decode(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "symboldebug: %v\n", err)
		os.Exit(1)
	}

	bilevel, err := threshold.Page(img, *dpi)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symboldebug: %v\n", err)
		os.Exit(1)
	}
	defer bilevel.Close()
	fmt.Printf("Thresholded at %g (Otsu %g)\n", bilevel.Threshold, bilevel.OtsuThreshold)

	params := symbol.DefaultParams().WithDPI(threshold.OutputDPI)
	symbols := symbol.Detect(bilevel.Page, params)
	fmt.Printf("Detected %d symbols\n", len(symbols))

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(bilevel.Page, &canvas, gocv.ColorGrayToBGR)
	for _, s := range symbols {
		c := kindColors[s.Kind]
		r, g, b := c.RGB255()
		center := image.Pt(int(s.Position.X+0.5), int(s.Position.Y+0.5))
		gocv.Circle(&canvas, center, 30, color.RGBA{R: r, G: g, B: b, A: 255}, 3)
		fmt.Printf("  %s\n", s)
	}

	if ok := gocv.IMWrite(*out, canvas); !ok {
		fmt.Fprintf(os.Stderr, "symboldebug: writing %s failed\n", *out)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}
