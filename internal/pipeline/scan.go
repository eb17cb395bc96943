package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scanned mutation files carry their metadata in the filename, following
// the conventions of the city archive:
//
//	AF_Mut_20009_Kat_AF5146_AF5147_j2005.pdf
//	FL_Mut_1303_Kat_588_J1959_01-01.pdf
//	WD_FB_Mut_K-123_Kat_WD456_j1980.pdf
//
// The prefix names the neighborhoods the mutation touched, "Kat" lists
// the cadastral parcels involved, and the "j"/"J" suffix gives the year,
// optionally with month and day.

var (
	mutationNumRE  = regexp.MustCompile(`^([A-Z]{2})?(\d+)`)
	mutationKRE    = regexp.MustCompile(`^[kK][-_](\d+)`)
	mutationDateRE = regexp.MustCompile(`.+_[jJ](\d{4})([-_](\d{2})[-_](\d{2}))?.*$`)
	parcelNumRE    = regexp.MustCompile(`^([A-Z]{2})?(\d{1,4})$`)
)

// ExtractMutationID derives a mutation identifier from a scan filename.
// Mutation numbers of 20000 and above are citywide and returned bare;
// older numbers were assigned per neighborhood and get the neighborhood
// prefix, as in "FL1303". Returns false when the filename does not look
// like a mutation scan.
func ExtractMutationID(filename string) (string, bool) {
	base := strings.TrimSuffix(filename, ".pdf")
	split := strings.SplitN(base, "_Mut_", 2)
	if len(split) < 2 {
		return "", false
	}
	// "FB" means Flächenbereinigung (area correction), not a neighborhood.
	var neighborhood string
	for _, x := range strings.Split(split[0], "_") {
		if x = strings.TrimSpace(x); x != "" && x != "FB" {
			neighborhood = x
			break
		}
	}
	if m := mutationNumRE.FindStringSubmatch(split[1]); m != nil {
		num, err := strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
		if num >= 20000 {
			return strconv.Itoa(num), true
		}
		return fmt.Sprintf("%s%d", neighborhood, num), true
	}
	if m := mutationKRE.FindStringSubmatch(split[1]); m != nil {
		num, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%s-K%d", neighborhood, num), true
	}
	return "", false
}

// ExtractMutationDate derives a mutation date from a scan filename.
// Filenames that only give a year are dated January 1 of that year.
func ExtractMutationDate(filename string) (time.Time, bool) {
	base := strings.TrimSuffix(filename, ".pdf")
	m := mutationDateRE.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, day := 1, 1
	if m[3] != "" && m[4] != "" {
		mo, _ := strconv.Atoi(m[3])
		d, _ := strconv.Atoi(m[4])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			month, day = mo, d
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ExtractParcels derives the parcel identifiers declared in a scan
// filename, the tokens between "Kat" and the date suffix. Bare numbers
// are prefixed with the scan's neighborhood, matching the identifiers
// used in the parcel extent table.
func ExtractParcels(filename string) []string {
	base := strings.TrimSuffix(filename, ".pdf")
	idx := strings.Index(base, "_Kat_")
	if idx < 0 {
		return nil
	}
	var neighborhood string
	for _, x := range strings.Split(base[:idx], "_") {
		if x != "" && x != "FB" && !strings.Contains(x, "Mut") {
			neighborhood = x
			break
		}
	}
	var parcels []string
	for _, token := range strings.Split(base[idx+len("_Kat_"):], "_") {
		if len(token) > 1 && (token[0] == 'j' || token[0] == 'J') {
			if _, err := strconv.Atoi(token[1:5]); len(token) >= 5 && err == nil {
				break
			}
		}
		m := parcelNumRE.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		if m[1] == "" {
			parcels = append(parcels, neighborhood+m[2])
		} else {
			parcels = append(parcels, m[1]+m[2])
		}
	}
	return parcels
}
