package survey

import (
	"strings"
	"testing"
	"time"

	"github.com/brawer/cadaref-zurich/internal/symbol"
)

func TestReadFixedPoints(t *testing.T) {
	csv := strings.Join([]string{
		"point,type,protection,x,y,created_by,created",
		"HGP1234,LFP2,national,2680123.45,1250456.78,20001,2003-05-12",
		"HGP1235,LFP3,,2680200.00,1250500.00,,",
	}, "\n")
	points, err := ReadFixedPoints(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	p := points[0]
	if p.ID != "HGP1234" || p.X != 2680123.45 || p.Y != 1250456.78 {
		t.Errorf("got %+v", p)
	}
	if p.Kind != symbol.KindDoubleWhiteCircle {
		t.Errorf("fixed points must print as double white circles, got %s", p.Kind)
	}
	if p.Created == nil || p.Created.Year() != 2003 {
		t.Errorf("got created %v, want 2003-05-12", p.Created)
	}
	if points[1].Created != nil {
		t.Errorf("got created %v for empty date, want nil", points[1].Created)
	}
}

func TestReadBorderPoints(t *testing.T) {
	csv := strings.Join([]string{
		"point,type,x,y,created_by,created",
		"HG2001,Bolzen,2680001,1250001,20001,1999-01-01",
		"HG2002,Stein,2680002,1250002,20001,1999-01-01",
		"HG2003,unversichert,2680003,1250003,20001,1999-01-01",
		"HG2004,Kreuz,2680004,1250004,20001,1999-01-01",
	}, "\n")
	points, err := ReadBorderPoints(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	// The Kreuz point has no circular symbol and is dropped.
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	want := map[string]symbol.Kind{
		"HG2001": symbol.KindWhiteCircle,
		"HG2002": symbol.KindWhiteCircle,
		"HG2003": symbol.KindBlackDot,
	}
	for _, p := range points {
		if p.Kind != want[p.ID] {
			t.Errorf("point %s: got %s, want %s", p.ID, p.Kind, want[p.ID])
		}
	}
}

func TestReadBorderPointsMissingColumn(t *testing.T) {
	csv := "point,x,y\nHG2001,2680001,1250001"
	if _, err := ReadBorderPoints(strings.NewReader(csv)); err == nil {
		t.Fatal("got nil error for missing type column")
	}
}

func TestReadBorderPointsBadCoordinate(t *testing.T) {
	csv := strings.Join([]string{
		"point,type,x,y,created_by,created",
		"HG2001,Bolzen,not-a-number,1250001,20001,1999-01-01",
	}, "\n")
	if _, err := ReadBorderPoints(strings.NewReader(csv)); err == nil {
		t.Fatal("got nil error for unparseable coordinate")
	}
}

func TestReadDeletedPoints(t *testing.T) {
	csv := strings.Join([]string{
		"Punktnummer,Kl,X [LV95],Y [LV95],Erstellmutation,Löschmutation",
		"HG1001,2,2680050,1250050,HG100,HG200",
		"HG1002,4,2680060,1250060,HG100,HG200",
		"HG1003,3,2680070,1250070,HG100,HG200",
	}, "\n")
	dates := map[string]time.Time{
		"HG100": time.Date(1920, 3, 1, 0, 0, 0, 0, time.UTC),
		"HG200": time.Date(1955, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	points, err := ReadDeletedPoints(strings.NewReader(csv), dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if points[0].Kind != symbol.KindDoubleWhiteCircle {
		t.Errorf("class 2: got %s", points[0].Kind)
	}
	if points[1].Kind != symbol.KindWhiteCircle {
		t.Errorf("class 4: got %s", points[1].Kind)
	}
	if points[2].Kind != symbol.KindNone {
		t.Errorf("unmapped class: got %s, want %s", points[2].Kind, symbol.KindNone)
	}
	if points[0].Created == nil || points[0].Created.Year() != 1920 {
		t.Errorf("got created %v, want 1920", points[0].Created)
	}
	if points[0].Deleted == nil || points[0].Deleted.Year() != 1955 {
		t.Errorf("got deleted %v, want 1955", points[0].Deleted)
	}
}

func TestReadMutations(t *testing.T) {
	csv := strings.Join([]string{
		"mutation,date,min_x,max_x,min_y,max_y",
		"HG3099,1997-03-11,2678576.67,2678672.85,1251798.69,1251928.47",
		"HG777,1950-01-01,,,,",
	}, "\n")
	mutations, err := ReadMutations(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	m := mutations["HG3099"]
	if !m.HasExtent {
		t.Fatal("HG3099 must have an extent")
	}
	if m.Extent.X != 2678576.67 || m.Extent.MaxY() != 1251928.47 {
		t.Errorf("got extent %+v", m.Extent)
	}
	if mutations["HG777"].HasExtent {
		t.Error("HG777 must not have an extent")
	}
	if mutations["HG777"].Date == nil {
		t.Error("HG777 must have a date")
	}
}

func TestReadMutationsDuplicate(t *testing.T) {
	csv := strings.Join([]string{
		"mutation,date,min_x,max_x,min_y,max_y",
		"HG1,1950-01-01,,,,",
		"HG1,1951-01-01,,,,",
	}, "\n")
	if _, err := ReadMutations(strings.NewReader(csv)); err == nil {
		t.Fatal("got nil error for duplicate mutation id")
	}
}

func TestReadParcels(t *testing.T) {
	csv := strings.Join([]string{
		"parcel,min_x,max_x,min_y,max_y",
		"HG3099,2678576.67,2678672.85,1251798.69,1251928.47",
		"HG4000,,,,",
	}, "\n")
	parcels, err := ReadParcels(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(parcels) != 1 {
		t.Fatalf("got %d parcels, want 1", len(parcels))
	}
	if _, ok := parcels["HG3099"]; !ok {
		t.Error("HG3099 missing")
	}
}

func TestNewDatasetDuplicatePoint(t *testing.T) {
	points := []Point{
		{ID: "HG1", X: 2680000, Y: 1250000, Kind: symbol.KindWhiteCircle},
		{ID: "HG1", X: 2680001, Y: 1250001, Kind: symbol.KindWhiteCircle},
	}
	if _, err := NewDataset(points, nil, nil); err == nil {
		t.Fatal("got nil error for duplicate point id")
	}
}

func TestNewDatasetDropsUnknownKinds(t *testing.T) {
	points := []Point{
		{ID: "HG1", X: 2680000, Y: 1250000, Kind: symbol.KindWhiteCircle},
		{ID: "HG2", X: 2680001, Y: 1250001, Kind: symbol.KindNone},
	}
	d, err := NewDataset(points, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Index().Size() != 1 {
		t.Errorf("got %d indexed points, want 1", d.Index().Size())
	}
}

func TestCandidatesWithinDateFilter(t *testing.T) {
	created := time.Date(1930, 1, 1, 0, 0, 0, 0, time.UTC)
	deleted := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []Point{
		{ID: "old", X: 2680000, Y: 1250000, Kind: symbol.KindWhiteCircle,
			Created: &created, Deleted: &deleted},
		{ID: "current", X: 2680010, Y: 1250010, Kind: symbol.KindWhiteCircle},
	}
	d, err := NewDataset(points, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	region := d.Index().Bounds()

	// A plan from 1950 can show the point deleted in 1960.
	date1950 := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := d.CandidatesWithin(region, &date1950); len(got) != 2 {
		t.Errorf("1950: got %d candidates, want 2", len(got))
	}

	// A plan from 1980 cannot.
	date1980 := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	got := d.CandidatesWithin(region, &date1980)
	if len(got) != 1 || got[0].ID != "current" {
		t.Errorf("1980: got %v, want only the current point", got)
	}

	// Unknown plan date keeps everything.
	if got := d.CandidatesWithin(region, nil); len(got) != 2 {
		t.Errorf("nil date: got %d candidates, want 2", len(got))
	}
}
