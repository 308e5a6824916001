package layout

import "strings"

// Script is the coarse character class of a piece of text.
type Script string

const (
	ScriptLatin Script = "latin"
	ScriptCJK   Script = "cjk"
)

// Run is a maximal stretch of text of one script.
type Run struct {
	Script Script
	Text   string
}

// Classify returns ScriptCJK when text holds at least one CJK ideograph.
func Classify(text string) Script {
	for _, r := range text {
		if IsCJK(r) {
			return ScriptCJK
		}
	}

	return ScriptLatin
}

// Segments splits text into alternating CJK and non-CJK runs.
func Segments(text string) []Run {
	var runs []Run
	var cur strings.Builder
	curScript := Script("")

	for _, r := range text {
		s := ScriptLatin
		if IsCJK(r) {
			s = ScriptCJK
		}
		if s != curScript && cur.Len() > 0 {
			runs = append(runs, Run{Script: curScript, Text: cur.String()})
			cur.Reset()
		}
		curScript = s
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		runs = append(runs, Run{Script: curScript, Text: cur.String()})
	}

	return runs
}

// ExtractCJK concatenates the CJK runs of a bilingual label, dropping the
// latin annotations. Text without any CJK is returned unchanged.
func ExtractCJK(text string) string {
	var b strings.Builder
	for _, run := range Segments(text) {
		if run.Script == ScriptCJK {
			b.WriteString(run.Text)
		}
	}
	if b.Len() == 0 {
		return text
	}

	return b.String()
}
