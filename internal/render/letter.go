package render

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// ContentType is the MIME type of a .docx package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	defaultFont = "Noto Sans Devanagari"

	// A4, in twentieths of a point.
	pageWidthTwips  uint64 = 11906
	pageHeightTwips uint64 = 16838
	marginTwips            = 1000
	headerTwips            = 720
)

// style formats one single-run paragraph. size is in points, spacing in twips.
type style struct {
	align  stypes.Justification
	bold   bool
	italic bool
	size   uint64
	before uint64
	after  uint64
}

// letter is an A4 godocx document whose runs all use one Devanagari font.
type letter struct {
	doc  *docx.RootDoc
	font string
}

func newLetter(font string) (*letter, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}
	if font == "" {
		font = defaultFont
	}
	l := &letter{doc: doc, font: font}
	l.pageSetup()
	return l, nil
}

func (l *letter) pageSetup() {
	body := l.doc.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	width, height := pageWidthTwips, pageHeightTwips
	margin, edge := marginTwips, headerTwips
	body.SectPr.PageSize = &ctypes.PageSize{Width: &width, Height: &height}
	body.SectPr.PageMargin = &ctypes.PageMargin{
		Top: &margin, Right: &margin, Bottom: &margin, Left: &margin,
		Header: &edge, Footer: &edge,
	}
}

func (l *letter) add(text string, s style) {
	p := l.doc.AddEmptyParagraph()
	if s.align != "" {
		p.Justification(s.align)
	}
	run := p.AddText(text)
	if s.bold {
		run.Bold(true)
	}
	if s.italic {
		run.Italic(true)
	}
	if s.size > 0 {
		run.Size(s.size)
	}

	ct := p.GetCT()
	if s.before > 0 || s.after > 0 {
		if ct.Property == nil {
			ct.Property = ctypes.DefaultParaProperty()
		}
		before, after := s.before, s.after
		ct.Property.Spacing = &ctypes.Spacing{Before: &before, After: &after}
	}
	for _, child := range ct.Children {
		if child.Run != nil {
			l.complexScript(child.Run, s)
		}
	}
}

// complexScript mirrors the run formatting onto the complex-script
// properties; Word formats Devanagari with w:bCs, w:iCs and w:szCs and
// ignores the Latin ones the Run setters write.
func (l *letter) complexScript(run *ctypes.Run, s style) {
	if run.Property == nil {
		run.Property = &ctypes.RunProperty{}
	}
	rp := run.Property
	rp.Fonts = &ctypes.RunFonts{Ascii: l.font, HAnsi: l.font, CS: l.font}
	if s.bold {
		rp.BoldCS = ctypes.OnOffFromBool(true)
	}
	if s.italic {
		rp.ItalicCS = ctypes.OnOffFromBool(true)
	}
	if s.size > 0 {
		rp.SizeCs = ctypes.NewFontSizeCS(s.size * 2)
	}
}

func (l *letter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.doc.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
