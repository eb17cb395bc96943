package ocr

import (
	"testing"
)

func TestExtractParcels(t *testing.T) {
	text := "Kat. HG3099 und WO123 sowie HG3099 nochmals,\n" +
		"aber nicht 27123 und nicht XX999."
	got := ExtractParcels(text)
	want := []string{"HG3099", "WO123"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExtractParcelsNeedsWordBoundary(t *testing.T) {
	// Embedded in a longer token, the pattern must not match.
	if got := ExtractParcels("XHG3099Y"); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestExtractScales(t *testing.T) {
	text := "Plan 1:500, Detail 1 : 200, nochmals 1:500, aber nicht 1:333"
	got := ExtractScales(text)
	want := []int{500, 200}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExtractScalesRejectsUnusualScales(t *testing.T) {
	if got := ExtractScales("1:5000 und 1:25"); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestIsScreenshot(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"User: meier\nDatenbankauszug", true},
		{"Auszug VAZ-LB Liste", true},
		{"VAZ-LB Liste", false},
		{"Auszug VAZ-LB.", false},
		{"Katasterplan 1:500", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsScreenshot(c.text); got != c.want {
			t.Errorf("IsScreenshot(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
