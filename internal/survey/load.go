package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// borderPointKinds maps the point-type strings of border_points.csv to
// cartographic symbol kinds. Types not listed here (such as points marked
// with crosses or pipes) have no circular symbol and are dropped.
var borderPointKinds = map[string]symbol.Kind{
	"unversichert": symbol.KindBlackDot,
	"Bolzen":       symbol.KindWhiteCircle,
	"Stein":        symbol.KindWhiteCircle,
}

// deletedPointKinds maps the point-class column of deleted_points.csv to
// cartographic symbol kinds.
var deletedPointKinds = map[string]symbol.Kind{
	"2": symbol.KindDoubleWhiteCircle,
	"4": symbol.KindWhiteCircle,
}

// Load reads the whole survey context from a directory holding
// fixed_points.csv, border_points.csv, deleted_points.csv, mutations.csv
// and parcels.csv.
func Load(dir string) (*Dataset, error) {
	mutations, err := loadFile(dir, "mutations.csv", ReadMutations)
	if err != nil {
		return nil, err
	}
	parcels, err := loadFile(dir, "parcels.csv", ReadParcels)
	if err != nil {
		return nil, err
	}

	mutationDates := make(map[string]time.Time, len(mutations))
	for id, m := range mutations {
		if m.Date != nil {
			mutationDates[id] = *m.Date
		}
	}

	fixed, err := loadFile(dir, "fixed_points.csv", ReadFixedPoints)
	if err != nil {
		return nil, err
	}
	border, err := loadFile(dir, "border_points.csv", ReadBorderPoints)
	if err != nil {
		return nil, err
	}
	deleted, err := loadFile(dir, "deleted_points.csv", func(r io.Reader) ([]deletedPoint, error) {
		return readDeletedPoints(r, mutationDates)
	})
	if err != nil {
		return nil, err
	}

	// Deleted points tell us where their creating and deleting mutations
	// operated, which often is the only extent evidence for a historical
	// mutation. Widen the recorded mutation extents accordingly.
	growMutationExtents(mutations, deleted, mutationDates)

	points := append(fixed, border...)
	for _, dp := range deleted {
		points = append(points, dp.Point)
	}
	return NewDataset(points, mutations, parcels)
}

func loadFile[T any](dir, name string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return zero, fmt.Errorf("survey: %w", err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("survey: %s: %w", name, err)
	}
	return v, nil
}

// growMutationExtents widens mutation extents with the coordinates of
// points the mutation created or deleted.
func growMutationExtents(mutations map[string]Mutation, deleted []deletedPoint, dates map[string]time.Time) {
	grow := func(mutID string, x, y float64) {
		if mutID == "" {
			return
		}
		m, ok := mutations[mutID]
		if !ok {
			m = Mutation{ID: mutID}
			if d, ok := dates[mutID]; ok {
				t := d
				m.Date = &t
			}
		}
		pt := geometry.RectFromBounds(x, y, x, y)
		if m.HasExtent {
			m.Extent = m.Extent.Union(pt)
		} else {
			m.Extent = pt
			m.HasExtent = true
		}
		mutations[mutID] = m
	}
	for _, p := range deleted {
		grow(p.createdBy, p.X, p.Y)
		grow(p.deletedBy, p.X, p.Y)
	}
}

// deletedPoint carries a Point plus the ids of the mutations that
// created and deleted it, needed to widen mutation extents.
type deletedPoint struct {
	Point
	createdBy string
	deletedBy string
}

// ReadFixedPoints reads fixed_points.csv. Fixed points of the geodetic
// network always print as a double white circle.
func ReadFixedPoints(r io.Reader) ([]Point, error) {
	rows, cols, err := readTable(r, "point", "x", "y", "created")
	if err != nil {
		return nil, err
	}
	var points []Point
	for _, row := range rows {
		x, y, err := parseCoords(row[cols["x"]], row[cols["y"]])
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", row[cols["point"]], err)
		}
		points = append(points, Point{
			ID:      row[cols["point"]],
			X:       x,
			Y:       y,
			Kind:    symbol.KindDoubleWhiteCircle,
			Created: parseDate(row[cols["created"]]),
		})
	}
	return points, nil
}

// ReadBorderPoints reads border_points.csv. The point type determines the
// printed symbol; types without a circular symbol are skipped.
func ReadBorderPoints(r io.Reader) ([]Point, error) {
	rows, cols, err := readTable(r, "point", "type", "x", "y", "created")
	if err != nil {
		return nil, err
	}
	var points []Point
	for _, row := range rows {
		kind, ok := borderPointKinds[row[cols["type"]]]
		if !ok {
			continue
		}
		x, y, err := parseCoords(row[cols["x"]], row[cols["y"]])
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", row[cols["point"]], err)
		}
		points = append(points, Point{
			ID:      row[cols["point"]],
			X:       x,
			Y:       y,
			Kind:    kind,
			Created: parseDate(row[cols["created"]]),
		})
	}
	return points, nil
}

// ReadDeletedPoints reads deleted_points.csv, whose column names come
// straight from the GEOS Pro deletion records the file was scraped from.
// Creating and deleting mutation ids are resolved to dates where known.
func ReadDeletedPoints(r io.Reader, mutationDates map[string]time.Time) ([]Point, error) {
	dps, err := readDeletedPoints(r, mutationDates)
	if err != nil {
		return nil, err
	}
	points := make([]Point, len(dps))
	for i, dp := range dps {
		points[i] = dp.Point
	}
	return points, nil
}

func readDeletedPoints(r io.Reader, mutationDates map[string]time.Time) ([]deletedPoint, error) {
	rows, cols, err := readTable(r,
		"Punktnummer", "Kl", "X [LV95]", "Y [LV95]", "Erstellmutation", "Löschmutation")
	if err != nil {
		return nil, err
	}
	var points []deletedPoint
	for _, row := range rows {
		x, y, err := parseCoords(row[cols["X [LV95]"]], row[cols["Y [LV95]"]])
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", row[cols["Punktnummer"]], err)
		}
		kind := deletedPointKinds[row[cols["Kl"]]] // unmapped classes → KindNone
		createdBy := row[cols["Erstellmutation"]]
		deletedBy := row[cols["Löschmutation"]]
		p := deletedPoint{
			Point: Point{
				ID:   row[cols["Punktnummer"]],
				X:    x,
				Y:    y,
				Kind: kind,
			},
			createdBy: createdBy,
			deletedBy: deletedBy,
		}
		if d, ok := mutationDates[createdBy]; ok {
			t := d
			p.Created = &t
		}
		if d, ok := mutationDates[deletedBy]; ok {
			t := d
			p.Deleted = &t
		}
		points = append(points, p)
	}
	return points, nil
}

// ReadMutations reads mutations.csv. Extent columns may be empty when a
// mutation left no geometric trace in today's survey.
func ReadMutations(r io.Reader) (map[string]Mutation, error) {
	rows, cols, err := readTable(r, "mutation", "date", "min_x", "max_x", "min_y", "max_y")
	if err != nil {
		return nil, err
	}
	mutations := make(map[string]Mutation, len(rows))
	for _, row := range rows {
		id := row[cols["mutation"]]
		if _, dup := mutations[id]; dup {
			return nil, fmt.Errorf("duplicate mutation id %q", id)
		}
		m := Mutation{ID: id, Date: parseDate(row[cols["date"]])}
		minX, maxX := row[cols["min_x"]], row[cols["max_x"]]
		minY, maxY := row[cols["min_y"]], row[cols["max_y"]]
		if minX != "" && maxX != "" && minY != "" && maxY != "" {
			rect, err := parseBounds(minX, minY, maxX, maxY)
			if err != nil {
				return nil, fmt.Errorf("mutation %q: %w", id, err)
			}
			m.Extent = rect
			m.HasExtent = true
		}
		mutations[id] = m
	}
	return mutations, nil
}

// ReadParcels reads parcels.csv. Parcels without extent are skipped,
// they cannot contribute location evidence.
func ReadParcels(r io.Reader) (map[string]Parcel, error) {
	rows, cols, err := readTable(r, "parcel", "min_x", "max_x", "min_y", "max_y")
	if err != nil {
		return nil, err
	}
	parcels := make(map[string]Parcel, len(rows))
	for _, row := range rows {
		id := row[cols["parcel"]]
		if row[cols["min_x"]] == "" {
			continue
		}
		rect, err := parseBounds(
			row[cols["min_x"]], row[cols["min_y"]],
			row[cols["max_x"]], row[cols["max_y"]])
		if err != nil {
			return nil, fmt.Errorf("parcel %q: %w", id, err)
		}
		parcels[id] = Parcel{ID: id, Extent: rect}
	}
	return parcels, nil
}

// readTable reads a CSV table and verifies that all required columns are
// present, returning the data rows and the column index by name.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("missing header row")
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", name)
		}
	}
	for i, row := range records[1:] {
		if len(row) < len(records[0]) {
			return nil, nil, fmt.Errorf("row %d: got %d fields, want %d", i+2, len(row), len(records[0]))
		}
	}
	return records[1:], cols, nil
}

func parseCoords(xs, ys string) (x, y float64, err error) {
	x, err = strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad x coordinate %q", xs)
	}
	y, err = strconv.ParseFloat(ys, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad y coordinate %q", ys)
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, fmt.Errorf("non-finite coordinates (%q, %q)", xs, ys)
	}
	return x, y, nil
}

func parseBounds(minX, minY, maxX, maxY string) (geometry.Rect, error) {
	x0, y0, err := parseCoords(minX, minY)
	if err != nil {
		return geometry.Rect{}, err
	}
	x1, y1, err := parseCoords(maxX, maxY)
	if err != nil {
		return geometry.Rect{}, err
	}
	if x1 < x0 || y1 < y0 {
		return geometry.Rect{}, fmt.Errorf("reversed bounds (%s..%s, %s..%s)", minX, maxX, minY, maxY)
	}
	return geometry.RectFromBounds(x0, y0, x1, y1), nil
}

// parseDate parses an ISO date, returning nil for empty or malformed
// values; dates are advisory and must not abort loading.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
