package layout

import (
	"strings"
	"unicode"
)

// unit is the smallest piece of text the wrapper never splits: a latin word
// or a single CJK ideograph.
type unit struct {
	text        string
	spaceBefore bool
}

func tokenize(text string) []unit {
	var units []unit
	var word strings.Builder
	spaceBefore := false

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		units = append(units, unit{text: word.String(), spaceBefore: spaceBefore})
		word.Reset()
		spaceBefore = false
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flushWord()
			spaceBefore = true
		case IsCJK(r):
			flushWord()
			units = append(units, unit{text: string(r), spaceBefore: spaceBefore})
			spaceBefore = false
		default:
			word.WriteRune(r)
		}
	}
	flushWord()

	return units
}

// Wrap breaks text into lines of at most maxWidth cells. Runs of whitespace
// collapse to a single space and a word wider than a whole line is cut to fit.
func Wrap(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return nil
	}

	return wrapBudgets(text, maxWidth, maxWidth)
}

// WrapSpaced is Wrap with an empty entry between consecutive lines.
func WrapSpaced(text string, maxWidth int) []string {
	lines := Wrap(text, maxWidth)
	if len(lines) < 2 {
		return lines
	}

	spaced := make([]string, 0, len(lines)*2-1)
	for i, l := range lines {
		if i > 0 {
			spaced = append(spaced, "")
		}
		spaced = append(spaced, l)
	}

	return spaced
}

// wrapBudgets wraps text giving the first line first cells and every other
// line rest cells. A budget of zero or less yields empty segments.
func wrapBudgets(text string, first, rest int) []string {
	units := tokenize(text)
	if len(units) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curW := 0
	budget := max(first, 0)
	rest = max(rest, 0)

	newLine := func() bool {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
		budget = rest
		return budget > 0
	}

	for _, u := range units {
		uw := DisplayWidth(u.text)

		if cur.Len() > 0 {
			sep := 0
			if u.spaceBefore {
				sep = 1
			}
			if curW+sep+uw <= budget {
				if sep == 1 {
					cur.WriteByte(' ')
				}
				cur.WriteString(u.text)
				curW += sep + uw
				continue
			}
			if !newLine() {
				return lines
			}
		}

		// The first line may be narrower than the rest; move on instead of
		// cutting a word that would fit on the next line.
		if uw > budget && len(lines) == 0 && budget < rest && (uw <= rest || budget == 0) {
			if !newLine() {
				return lines
			}
		}

		if uw > budget {
			u.text = truncate(u.text, budget)
			uw = DisplayWidth(u.text)
			if uw == 0 {
				continue
			}
		}

		cur.WriteString(u.text)
		curW = uw
	}

	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}

	return lines
}
