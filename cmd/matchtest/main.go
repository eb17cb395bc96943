// Command matchtest runs the geometric correspondence matcher on CSV
// inputs, for debugging match failures without rerunning a whole batch.
//
// Usage:
//
//	matchtest -symbols symbols.csv -points points.csv -dpi 600
//
// The symbols file has columns x, y, symbol in page pixels; the points
// file has columns id, x, y, symbol in LV95 meters.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/brawer/cadaref-zurich/internal/match"
	"github.com/brawer/cadaref-zurich/internal/quadtree"
	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

func main() {
	symbolsPath := flag.String("symbols", "", "CSV with detected symbols (x,y,symbol)")
	pointsPath := flag.String("points", "", "CSV with candidate survey points (id,x,y,symbol)")
	dpi := flag.Float64("dpi", 600, "resolution of the page the symbols were detected on")
	scale := flag.Int("scale", 0, "map scale to try first, e.g. 500 for 1:500")
	flag.Parse()
	if *symbolsPath == "" || *pointsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	symbols, err := readSymbols(*symbolsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matchtest: %v\n", err)
		os.Exit(1)
	}
	points, err := readPoints(*pointsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matchtest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d symbols, %d candidate points\n", len(symbols), len(points))

	var ocrScales []int
	if *scale > 0 {
		ocrScales = []int{*scale}
	}
	m, ok := match.FindTransform(symbols, points, *dpi, ocrScales, match.DefaultParams())
	if !ok {
		fmt.Println("No match found")
		os.Exit(1)
	}
	t := m.Transform
	fmt.Printf("Scale: 1:%d\n", m.Scale)
	fmt.Printf("Residual: %.3f m\n", m.Residual)
	fmt.Printf("Correspondences: %d\n", m.Correspondences)
	fmt.Printf("Transform: [%.6f %.6f %.3f; %.6f %.6f %.3f]\n",
		t.A, t.B, t.TX, t.C, t.D, t.TY)
	for _, s := range symbols {
		mapped := t.Apply(s.Position)
		fmt.Printf("  %s (%8.1f, %8.1f) -> (%11.2f, %11.2f)\n",
			s.Kind, s.Position.X, s.Position.Y, mapped.X, mapped.Y)
	}
}

func readSymbols(path string) ([]symbol.Symbol, error) {
	rows, cols, err := readCSV(path, "x", "y", "symbol")
	if err != nil {
		return nil, err
	}
	symbols := make([]symbol.Symbol, 0, len(rows))
	for _, row := range rows {
		x, y, err := parseXY(row[cols["x"]], row[cols["y"]])
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol.Symbol{
			Position: geometry.Point2D{X: x, Y: y},
			Kind:     symbol.ParseKind(row[cols["symbol"]]),
		})
	}
	return symbols, nil
}

func readPoints(path string) ([]quadtree.Point, error) {
	rows, cols, err := readCSV(path, "id", "x", "y", "symbol")
	if err != nil {
		return nil, err
	}
	points := make([]quadtree.Point, 0, len(rows))
	for _, row := range rows {
		x, y, err := parseXY(row[cols["x"]], row[cols["y"]])
		if err != nil {
			return nil, err
		}
		points = append(points, quadtree.Point{
			ID:   row[cols["id"]],
			X:    x,
			Y:    y,
			Kind: symbol.ParseKind(row[cols["symbol"]]),
		})
	}
	return points, nil
}

func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}
	return records[1:], cols, nil
}

func parseXY(xs, ys string) (float64, float64, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad x %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad y %q", ys)
	}
	return x, y, nil
}
