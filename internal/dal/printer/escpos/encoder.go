package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Dongwon38/print-agent/internal/layout"
	"github.com/Dongwon38/print-agent/internal/service/models/document"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// ESC/POS control bytes.
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	NL  byte = 0x0A
)

const maxScale = 8

// CodePages maps scripts to the printer's ESC t table ids.
type CodePages struct {
	Latin byte
	CJK   byte
}

// Encoder turns directives into ESC/POS bytes, tracking the active
// character table.
type Encoder struct {
	pages  CodePages
	latin  *encoding.Encoder
	cjk    *encoding.Encoder
	active *encoding.Encoder
}

// NewEncoder creates an encoder. cjkEncoding is "gb18030" or "big5".
func NewEncoder(pages CodePages, cjkEncoding string) (*Encoder, error) {
	var cjk encoding.Encoding
	switch strings.ToLower(cjkEncoding) {
	case "", "gb18030":
		cjk = simplifiedchinese.GB18030
	case "big5":
		cjk = traditionalchinese.Big5
	default:
		return nil, fmt.Errorf("unsupported cjk encoding %q", cjkEncoding)
	}

	e := &Encoder{
		pages: pages,
		latin: encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder()),
		cjk:   encoding.ReplaceUnsupported(cjk.NewEncoder()),
	}
	e.active = e.latin

	return e, nil
}

// Encode appends the bytes for d to buf.
func (e *Encoder) Encode(buf *bytes.Buffer, d document.Directive) error {
	switch d.Op {
	case document.OpReset:
		buf.Write([]byte{ESC, '@'})
		e.active = e.latin
	case document.OpText:
		b, err := e.active.Bytes([]byte(layout.Printable(d.Text)))
		if err != nil {
			return fmt.Errorf("failed to encode text %q: %w", d.Text, err)
		}
		buf.Write(b)
		buf.WriteByte(NL)
	case document.OpSetSize:
		w := byte(clamp(d.Width, 1, maxScale) - 1)
		h := byte(clamp(d.Height, 1, maxScale) - 1)
		buf.Write([]byte{GS, '!', w<<4 | h})
	case document.OpSetCodePage:
		page := e.pages.Latin
		e.active = e.latin
		if d.Script == layout.ScriptCJK {
			page = e.pages.CJK
			e.active = e.cjk
		}
		buf.Write([]byte{ESC, 't', page})
	case document.OpFeed:
		buf.Write([]byte{ESC, 'd', byte(clamp(d.Lines, 0, 255))})
	case document.OpCut:
		buf.Write([]byte{GS, 'V', 66, 0})
	case document.OpAlign:
		var a byte
		switch d.Align {
		case document.AlignCenter:
			a = 1
		case document.AlignRight:
			a = 2
		}
		buf.Write([]byte{ESC, 'a', a})
	default:
		return fmt.Errorf("unknown directive %s", d.Op)
	}

	return nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
