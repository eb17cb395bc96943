package match

// Params controls the geometric correspondence search. The tolerances are
// ground distances in meters; the defaults were tuned on scanned Zurich
// mutation plans.
type Params struct {
	// ToleranceM is the maximum discrepancy between a pairwise distance
	// measured on the plan and the corresponding distance between survey
	// points for the pairing to be considered.
	ToleranceM float64

	// AcceptResidualM stops the search as soon as a transform scores
	// below it. Residuals this small only happen on correct matches.
	AcceptResidualM float64

	// PenaltyM is charged per detected symbol that has no same-kind
	// survey point anywhere near its mapped position.
	PenaltyM float64

	// Scales lists the map scales to try, most common first. The scale
	// read off the plan by OCR, if any, is tried before these.
	Scales []int
}

// DefaultParams returns the parameters used in production.
func DefaultParams() Params {
	return Params{
		ToleranceM:      1.0,
		AcceptResidualM: 0.4,
		PenaltyM:        10.0,
		Scales:          []int{500, 200, 1000, 250, 100, 2000},
	}
}
