package pipeline

import (
	"testing"
	"time"
)

func TestExtractMutationID(t *testing.T) {
	cases := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"AF_Mut_20009_Kat_AF5146_AF5147_j2005.pdf", "20009", true},
		{"FL_Mut_1303_Kat_588_J1959_01-01.pdf", "FL1303", true},
		{"WD_FB_Mut_123_Kat_WD456_j1980.pdf", "WD123", true},
		{"SE_Mut_K-17_Kat_SE99_j1930.pdf", "SE-K17", true},
		{"HG_Mut_k_4_Kat_HG12_j1921.pdf", "HG-K4", true},
		{"random_scan.pdf", "", false},
		{"HG_Mut_xyz.pdf", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractMutationID(c.filename)
		if got != c.want || ok != c.ok {
			t.Errorf("ExtractMutationID(%q) = %q, %v; want %q, %v",
				c.filename, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractMutationDate(t *testing.T) {
	cases := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"AF_Mut_20009_Kat_AF5146_AF5147_j2005.pdf", "2005-01-01", true},
		{"FL_Mut_1303_Kat_588_J1959_01-01.pdf", "1959-01-01", true},
		{"HG_Mut_77_Kat_HG5_j1987_06-24.pdf", "1987-06-24", true},
		{"HG_Mut_77_Kat_HG5_j1987_13-40.pdf", "1987-01-01", true},
		{"HG_Mut_77_Kat_HG5.pdf", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractMutationDate(c.filename)
		if ok != c.ok {
			t.Errorf("ExtractMutationDate(%q) ok = %v, want %v", c.filename, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		want, err := time.Parse("2006-01-02", c.want)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(want) {
			t.Errorf("ExtractMutationDate(%q) = %s, want %s",
				c.filename, got.Format("2006-01-02"), c.want)
		}
	}
}

func TestExtractParcels(t *testing.T) {
	cases := []struct {
		filename string
		want     []string
	}{
		{"AF_Mut_20009_Kat_AF5146_AF5147_j2005.pdf", []string{"AF5146", "AF5147"}},
		{"FL_Mut_1303_Kat_588_J1959_01-01.pdf", []string{"FL588"}},
		{"HG_Mut_77_Kat_HG5_WO12_j1987.pdf", []string{"HG5", "WO12"}},
		{"HG_Mut_77_j1987.pdf", nil},
	}
	for _, c := range cases {
		got := ExtractParcels(c.filename)
		if len(got) != len(c.want) {
			t.Errorf("ExtractParcels(%q) = %v, want %v", c.filename, got, c.want)
			continue
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Errorf("ExtractParcels(%q) = %v, want %v", c.filename, got, c.want)
				break
			}
		}
	}
}
