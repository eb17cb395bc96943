package pipeline

import (
	"testing"

	"github.com/brawer/cadaref-zurich/internal/symbol"
)

func kindPage(kinds ...symbol.Kind) []pageSymbol {
	det := make([]pageSymbol, len(kinds))
	for i, k := range kinds {
		det[i] = pageSymbol{Page: 1, Symbol: symbol.Symbol{Kind: k}}
	}
	return det
}

func TestPageStatusFlags(t *testing.T) {
	for _, tc := range []struct {
		name       string
		det        []pageSymbol
		text       string
		matchable  bool
		screenshot bool
	}{
		{
			// Black dots alone cannot anchor a match; the page counts
			// as having too few symbols, not as a failed match.
			name: "black dots only",
			det: kindPage(symbol.KindBlackDot, symbol.KindBlackDot,
				symbol.KindBlackDot, symbol.KindBlackDot),
		},
		{
			name: "enough white circles",
			det: kindPage(symbol.KindWhiteCircle, symbol.KindWhiteCircle,
				symbol.KindDoubleWhiteCircle, symbol.KindWhiteCircle),
			matchable: true,
		},
		{
			name: "three white circles",
			det: kindPage(symbol.KindWhiteCircle, symbol.KindWhiteCircle,
				symbol.KindWhiteCircle, symbol.KindBlackDot),
		},
		{
			name: "screenshot page",
			det: kindPage(symbol.KindWhiteCircle, symbol.KindWhiteCircle,
				symbol.KindDoubleWhiteCircle, symbol.KindWhiteCircle),
			text:       "Auszug VAZ-LB Liste",
			screenshot: true,
		},
		{
			name: "empty page",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			matchable, screenshot := pageStatusFlags(tc.det, tc.text)
			if matchable != tc.matchable || screenshot != tc.screenshot {
				t.Errorf("got (%v, %v), want (%v, %v)",
					matchable, screenshot, tc.matchable, tc.screenshot)
			}
		})
	}
}
