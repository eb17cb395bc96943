package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brawer/cadaref-zurich/internal/match"
	"github.com/brawer/cadaref-zurich/internal/quadtree"
	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// writeFileAtomic writes data to path so that an interrupted batch never
// leaves a partial file behind. The write goes to a temporary file in the
// same directory, which is renamed into place once complete; on POSIX
// filesystems the rename is atomic.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// pageSymbol is one detected symbol attributed to its page.
type pageSymbol struct {
	Page   int
	Symbol symbol.Symbol
}

// encodeSymbolsCSV lists the symbols detected on a mutation's pages.
// Column order is stable: page, x, y, symbol.
func encodeSymbolsCSV(symbols []pageSymbol) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "x", "y", "symbol"}); err != nil {
		return nil, err
	}
	for _, s := range symbols {
		err := w.Write([]string{
			strconv.Itoa(s.Page),
			formatFloat(s.Symbol.Position.X),
			formatFloat(s.Symbol.Position.Y),
			s.Symbol.Kind.String(),
		})
		if err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodePointsCSV lists the candidate survey points a page was matched
// against. Column order is stable: id, x, y, symbol.
func encodePointsCSV(points []quadtree.Point) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "x", "y", "symbol"}); err != nil {
		return nil, err
	}
	for _, p := range points {
		err := w.Write([]string{
			p.ID,
			formatFloat(p.X),
			formatFloat(p.Y),
			p.Kind.String(),
		})
		if err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeBoundsCSV records the estimated ground extent of a mutation so
// a rerun or a reviewer can see what region the matcher searched.
func encodeBoundsCSV(bounds geometry.Rect) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"min_x", "min_y", "max_x", "max_y"}); err != nil {
		return nil, err
	}
	err := w.Write([]string{
		formatFloat(bounds.X),
		formatFloat(bounds.Y),
		formatFloat(bounds.MaxX()),
		formatFloat(bounds.MaxY()),
	})
	if err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeWorldFile renders a transform in ESRI world file format, six
// lines in the order x-scale, y-skew, x-skew, y-scale, then the ground
// position of the center of the upper left pixel. GIS tools pick the
// file up from next to the raster.
func encodeWorldFile(t geometry.AffineTransform) []byte {
	var buf bytes.Buffer
	center := t.Apply(geometry.Point2D{X: 0.5, Y: 0.5})
	for _, v := range []float64{t.A, t.C, t.B, t.D, center.X, center.Y} {
		fmt.Fprintf(&buf, "%.10f\n", v)
	}
	return buf.Bytes()
}

// encodeGroundControlCSV records the match as ground control metadata:
// the scored transform plus the correspondence count, for the raster
// writer that stamps georeferencing into the output image.
func encodeGroundControlCSV(page int, m match.Match) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "a", "b", "tx", "c", "d", "ty", "scale", "residual", "correspondences"}); err != nil {
		return nil, err
	}
	t := m.Transform
	err := w.Write([]string{
		strconv.Itoa(page),
		formatFloat(t.A), formatFloat(t.B), formatFloat(t.TX),
		formatFloat(t.C), formatFloat(t.D), formatFloat(t.TY),
		strconv.Itoa(m.Scale),
		formatFloat(m.Residual),
		strconv.Itoa(m.Correspondences),
	})
	if err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
