package layout

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Aligner renders text with a right-hand price column.
type Aligner struct {
	LineWidth  int
	PriceWidth int
}

// FormatPrice renders price with two decimals, left-padded to PriceWidth.
// Amounts longer than the column are returned unpadded.
func (a Aligner) FormatPrice(price decimal.Decimal) string {
	s := price.StringFixed(2)

	return spaces(a.PriceWidth-DisplayWidth(s)) + s
}

// WrapWithPrice wraps prefix+text so that the price appears flush right on
// the first line only. Continuation lines are padded to the full line width
// with the price column left blank. Every line is exactly LineWidth cells
// unless the price alone is wider than the line.
func (a Aligner) WrapWithPrice(text, prefix string, price decimal.Decimal) []string {
	p := a.FormatPrice(price)
	priceCol := DisplayWidth(p)

	textCol := max(a.LineWidth-priceCol, 0)
	prefixW := DisplayWidth(prefix)
	if prefixW > textCol {
		prefix = truncate(prefix, textCol)
		prefixW = DisplayWidth(prefix)
	}

	segments := wrapBudgets(text, textCol-prefixW, textCol)
	if len(segments) == 0 {
		segments = []string{""}
	}

	lines := make([]string, 0, len(segments))
	for i, seg := range segments {
		if i == 0 {
			lines = append(lines, pad(prefix+seg, textCol)+p)
			continue
		}
		lines = append(lines, pad(seg, textCol+priceCol))
	}

	return lines
}

// RightAlign renders label and price as one line flush against the right
// edge.
func (a Aligner) RightAlign(label string, price decimal.Decimal) string {
	s := label + strings.TrimLeft(a.FormatPrice(price), " ")

	return spaces(a.LineWidth-DisplayWidth(s)) + s
}

// Rule returns a separator line of the full width.
func (a Aligner) Rule(char string) string {
	if char == "" {
		char = "-"
	}
	n := a.LineWidth / max(DisplayWidth(char), 1)

	return strings.Repeat(char, n)
}
