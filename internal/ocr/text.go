package ocr

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// parcelRE extracts parcel identifiers such as "HG3099" or "EN123" from
// OCRed plaintext. Bare GEOS Pro numbers like "27123" are not matched,
// they also occur in unrelated contexts on the plans.
var parcelRE = regexp.MustCompile(
	`\s((AA|AF|AL|AR|AU|EN|FL|HG|HI|HO|LE|OB|OE|RI|SE|SW|UN|WD|WI|WO|WP)\d{1,4})\s`)

// planScaleRE extracts the map scale, for example "1:500", restricted to
// the scales the city surveyors actually used.
var planScaleRE = regexp.MustCompile(`\b1\s*:\s*(100|200|250|500|1000|2000)\b`)

// screenshotMarkers are strings that only appear on pages that are
// screenshots of a Windows database tool, not scanned plans.
var screenshotMarkers = []string{"User:", " VAZ-LB "}

// ExtractParcels returns the parcel identifiers mentioned in OCRed page
// text, deduplicated and sorted.
func ExtractParcels(text string) []string {
	seen := make(map[string]bool)
	for _, m := range parcelRE.FindAllStringSubmatch(" "+text+" ", -1) {
		seen[m[1]] = true
	}
	parcels := make([]string, 0, len(seen))
	for id := range seen {
		parcels = append(parcels, id)
	}
	sort.Strings(parcels)
	return parcels
}

// ExtractScales returns the map scales mentioned in OCRed page text, in
// order of first occurrence.
func ExtractScales(text string) []int {
	var scales []int
	seen := make(map[int]bool)
	for _, m := range planScaleRE.FindAllStringSubmatch(text, -1) {
		s, err := strconv.Atoi(m[1])
		if err != nil || seen[s] {
			continue
		}
		seen[s] = true
		scales = append(scales, s)
	}
	return scales
}

// IsScreenshot reports whether OCRed page text comes from a screenshot
// of the survey database tool rather than from a scanned plan. Such
// pages look like geometry to the symbol detector but carry no usable
// map content.
func IsScreenshot(text string) bool {
	for _, marker := range screenshotMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
