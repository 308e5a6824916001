// Package layout lays out text on a fixed-pitch receipt line.
//
// Widths are measured in printer cells: CJK ideographs occupy two cells,
// everything else one.
package layout

import (
	"strings"
	"unicode"
)

const (
	cjkFirst rune = 0x4E00
	cjkLast  rune = 0x9FFF
)

// IsCJK reports whether r is a CJK unified ideograph.
func IsCJK(r rune) bool {
	return r >= cjkFirst && r <= cjkLast
}

// RuneWidth returns the number of cells r occupies.
func RuneWidth(r rune) int {
	if IsCJK(r) {
		return 2
	}

	return 1
}

// Printable replaces control characters with spaces so text can never carry
// device commands. The result has the same display width as s.
func Printable(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// DisplayWidth returns the number of cells s occupies.
func DisplayWidth(s string) int {
	w := 0
	for _, r := range s {
		w += RuneWidth(r)
	}

	return w
}

// truncate cuts s to at most maxWidth cells.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	w := 0
	for i, r := range s {
		rw := RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}

	return s
}

// pad appends spaces to s until it is width cells wide.
func pad(s string, width int) string {
	n := width - DisplayWidth(s)
	if n <= 0 {
		return s
	}

	return s + spaces(n)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}

	return string(b)
}
