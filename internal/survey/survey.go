// Package survey loads the reference data extracted from the official
// Zürich land survey: fixed points, border points, points deleted by
// historical mutations, mutation extents and parcel extents. It owns the
// spatial index over all candidate points and answers the "where could
// this scanned plan be" question for the matcher.
//
// All coordinates are meters in the Swiss CH1903+/LV95 reference
// (EPSG:2056).
package survey

import (
	"fmt"
	"time"

	"github.com/brawer/cadaref-zurich/internal/quadtree"
	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Point is a candidate ground-truth survey point. Created and Deleted
// bound the time range during which the point could have appeared on a
// plan; either may be unknown (nil).
type Point struct {
	ID      string
	X, Y    float64
	Kind    symbol.Kind
	Created *time.Time
	Deleted *time.Time
}

// Mutation is a historical change event to the cadastral survey. Its
// extent is only known when the mutation left a trace in today's data.
type Mutation struct {
	ID        string
	Date      *time.Time
	Extent    geometry.Rect
	HasExtent bool
}

// Parcel is a land plot of the modern survey with a known extent.
type Parcel struct {
	ID     string
	Extent geometry.Rect
}

// Dataset is the read-only survey context of one worker process: built
// once at startup, queried by the estimator and the matcher, discarded
// at exit.
type Dataset struct {
	Points    []Point
	Mutations map[string]Mutation
	Parcels   map[string]Parcel

	byID  map[string]Point
	index *quadtree.Tree
}

// NewDataset assembles a Dataset and builds its spatial index. Points
// without a usable symbol kind are dropped before indexing; duplicate
// point ids are an error because they indicate corrupted source data.
func NewDataset(points []Point, mutations map[string]Mutation, parcels map[string]Parcel) (*Dataset, error) {
	d := &Dataset{
		Mutations: mutations,
		Parcels:   parcels,
		byID:      make(map[string]Point, len(points)),
	}
	var indexed []quadtree.Point
	for _, p := range points {
		if p.Kind == symbol.KindNone {
			continue
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("survey: duplicate point id %q", p.ID)
		}
		d.byID[p.ID] = p
		d.Points = append(d.Points, p)
		indexed = append(indexed, quadtree.Point{ID: p.ID, X: p.X, Y: p.Y, Kind: p.Kind})
	}
	tree, err := quadtree.New(indexed)
	if err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}
	d.index = tree
	return d, nil
}

// Index exposes the spatial index over all candidate points.
func (d *Dataset) Index() *quadtree.Tree {
	return d.index
}

// CandidatesWithin returns the candidate points inside the search region
// that plausibly existed when a plan of the given date was drawn. A nil
// date disables the temporal filter.
//
// A point created after the plan date cannot appear on the plan; one year
// of slack absorbs imprecise mutation dates. A point deleted before the
// plan date cannot appear either.
func (d *Dataset) CandidatesWithin(region geometry.Rect, planDate *time.Time) []quadtree.Point {
	found := d.index.RangeQuery(region)
	if planDate == nil {
		return found
	}
	cutoff := planDate.AddDate(1, 0, 0)
	kept := found[:0]
	for _, qp := range found {
		p := d.byID[qp.ID]
		if p.Created != nil && p.Created.After(cutoff) {
			continue
		}
		if p.Deleted != nil && p.Deleted.Before(*planDate) {
			continue
		}
		kept = append(kept, qp)
	}
	return kept
}
