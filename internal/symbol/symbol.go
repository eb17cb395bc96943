// Package symbol provides detection of cartographic point symbols on
// bilevel scans of cadastral plans. Swiss cadastral maps mark surveyed
// points with small circular symbols: an unfilled circle for border
// points secured with a bolt or stone, two concentric circles for fixed
// points of the geodetic network, and a filled dot for unsecured border
// points.
package symbol

import (
	"fmt"

	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Kind identifies the cartographic symbol vocabulary used on the plans.
type Kind int

const (
	// KindNone means a contour is not a map symbol.
	KindNone Kind = iota
	// KindWhiteCircle marks a border point secured with a bolt or stone.
	KindWhiteCircle
	// KindDoubleWhiteCircle marks a fixed point of the geodetic network.
	KindDoubleWhiteCircle
	// KindBlackDot marks an unsecured border point.
	KindBlackDot
)

func (k Kind) String() string {
	switch k {
	case KindWhiteCircle:
		return "white_circle"
	case KindDoubleWhiteCircle:
		return "double_white_circle"
	case KindBlackDot:
		return "black_dot"
	default:
		return "other"
	}
}

// ParseKind maps a symbol name, as stored in CSV artifacts, back to a Kind.
// Unknown names parse to KindNone.
func ParseKind(s string) Kind {
	switch s {
	case "white_circle":
		return KindWhiteCircle
	case "double_white_circle":
		return KindDoubleWhiteCircle
	case "black_dot":
		return KindBlackDot
	default:
		return KindNone
	}
}

// IsWhite reports whether the kind belongs to the white-circle family.
// White symbols are detected much more reliably than black dots, which
// get confused with text and dotted lines.
func (k Kind) IsWhite() bool {
	return k == KindWhiteCircle || k == KindDoubleWhiteCircle
}

// Symbol is a single detected map symbol in image pixel coordinates.
type Symbol struct {
	Position geometry.Point2D `json:"position"`
	Kind     Kind             `json:"kind"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s@(%.1f,%.1f)", s.Kind, s.Position.X, s.Position.Y)
}
