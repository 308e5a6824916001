package document

import (
	"fmt"
	"slices"

	"github.com/Dongwon38/print-agent/internal/layout"
)

// Kind tells front-of-house and kitchen documents apart.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindKitchen  Kind = "kitchen"
)

// Op is the tag of a Directive.
type Op int

const (
	OpReset Op = iota
	OpText
	OpSetSize
	OpSetCodePage
	OpFeed
	OpCut
	OpAlign
)

func (op Op) String() string {
	switch op {
	case OpReset:
		return "reset"
	case OpText:
		return "text"
	case OpSetSize:
		return "size"
	case OpSetCodePage:
		return "codepage"
	case OpFeed:
		return "feed"
	case OpCut:
		return "cut"
	case OpAlign:
		return "align"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Directive is a single printer instruction. Only the fields relevant to
// Op are set.
type Directive struct {
	Op     Op
	Text   string
	Width  int
	Height int
	Script layout.Script
	Lines  int
	Align  Alignment
}

func Reset() Directive { return Directive{Op: OpReset} }
func Text(s string) Directive { return Directive{Op: OpText, Text: s} }
func SetSize(w, h int) Directive { return Directive{Op: OpSetSize, Width: w, Height: h} }
func SetCodePage(s layout.Script) Directive { return Directive{Op: OpSetCodePage, Script: s} }
func Feed(lines int) Directive { return Directive{Op: OpFeed, Lines: lines} }
func Cut() Directive { return Directive{Op: OpCut} }
func Align(a Alignment) Directive { return Directive{Op: OpAlign, Align: a} }

func (d Directive) String() string {
	switch d.Op {
	case OpText:
		return fmt.Sprintf("text(%q)", d.Text)
	case OpSetSize:
		return fmt.Sprintf("size(%d,%d)", d.Width, d.Height)
	case OpSetCodePage:
		return fmt.Sprintf("codepage(%s)", d.Script)
	case OpFeed:
		return fmt.Sprintf("feed(%d)", d.Lines)
	case OpAlign:
		return fmt.Sprintf("align(%s)", d.Align)
	default:
		return d.Op.String()
	}
}

// Document is an immutable sequence of directives.
type Document struct {
	Kind       Kind
	Label      string
	directives []Directive
}

func New(kind Kind, label string, directives []Directive) Document {
	return Document{Kind: kind, Label: label, directives: slices.Clone(directives)}
}

// Directives returns a copy of the document's directives.
func (d Document) Directives() []Directive {
	return slices.Clone(d.directives)
}

// Len returns the number of directives.
func (d Document) Len() int {
	return len(d.directives)
}

// Lines returns the text of every Text directive in order.
func (d Document) Lines() []string {
	var lines []string
	for _, dir := range d.directives {
		if dir.Op == OpText {
			lines = append(lines, dir.Text)
		}
	}

	return lines
}
