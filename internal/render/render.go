package render

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gomutex/godocx/wml/stypes"

	"github.com/lekhapadi/lekhapadi-backend/internal/enhance"
	"github.com/lekhapadi/lekhapadi-backend/internal/templates"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

var defaultLetterhead = []string{
	"गृह मन्त्रालय",
	"जिल्ला प्रशासन कार्यालय",
	"गाउँ विकास समिति",
	"वडा कार्यालय",
}

const divider = "══════════════════════════════════════════"

// Result is a rendered letter.
type Result struct {
	DocumentType string
	Title        string
	Reference    string
	Body         string
	ContentType  string
	Bytes        []byte
}

// Renderer turns a validated template submission into a .docx letter.
type Renderer struct {
	enhancer   enhance.Enhancer
	now        func() time.Time
	intn       func(int) int
	font       string
	letterhead []string
}

type Option func(*Renderer)

// WithEnhancer sets the formal-rewrite step. It is always wrapped with a fallback.
func WithEnhancer(e enhance.Enhancer, logg *logger.Logger) Option {
	return func(r *Renderer) {
		r.enhancer = enhance.WithFallback(e, logg, enhance.DefaultMaxWords)
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithRand replaces the reference-number source; intn(n) must return [0,n).
func WithRand(intn func(int) int) Option {
	return func(r *Renderer) { r.intn = intn }
}

func WithFont(font string) Option {
	return func(r *Renderer) { r.font = font }
}

// WithLetterhead replaces the office lines printed under "नेपाल सरकार".
func WithLetterhead(lines ...string) Option {
	return func(r *Renderer) {
		if len(lines) > 0 {
			r.letterhead = lines
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		enhancer:   enhance.WithFallback(enhance.Noop{}, nil, enhance.DefaultMaxWords),
		now:        time.Now,
		intn:       rand.Intn,
		letterhead: defaultLetterhead,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render validates the submission, builds the letter and serializes it.
// Validation failures carry every missing field; enhancement failures never
// abort rendering.
func (r *Renderer) Render(ctx context.Context, documentType string, raw map[string]any, title string) (*Result, error) {
	values, err := templates.Validate(documentType, raw)
	if err != nil {
		return nil, err
	}
	tmpl := templates.Resolve(documentType)

	body := Body(tmpl, values)
	enhanced, _ := r.enhancer.Enhance(ctx, enhance.Request{
		DocumentType: tmpl.ID,
		Text:         body,
		Fields:       values,
		Emphasis:     tmpl.Emphasis,
	})
	if strings.TrimSpace(enhanced) == "" {
		enhanced = body
	}

	now := r.now()
	reference := fmt.Sprintf("%d-%d/%d", r.intn(1000), now.Year(), int(now.Month()))
	date := fmt.Sprintf("%d-%d-%d", now.Year(), int(now.Month()), now.Day())

	data, err := r.layout(tmpl, values, reference, date, enhanced)
	if err != nil {
		return nil, fmt.Errorf("serialize letter: %w", err)
	}

	return &Result{
		DocumentType: documentTypeLabel(documentType, tmpl),
		Title:        resolveTitle(title, values, documentType, tmpl),
		Reference:    reference,
		Body:         enhanced,
		ContentType:  ContentType,
		Bytes:        data,
	}, nil
}

func (r *Renderer) layout(tmpl templates.Template, v templates.Values, reference, date, body string) ([]byte, error) {
	doc, err := newLetter(r.font)
	if err != nil {
		return nil, err
	}

	heading := style{align: stypes.JustificationCenter, bold: true, size: 14}
	text := style{align: stypes.JustificationLeft, size: 12}
	right := style{align: stypes.JustificationRight, size: 12}

	doc.add("नेपाल सरकार", style{align: stypes.JustificationCenter, bold: true, size: 16})
	for _, line := range r.letterhead {
		doc.add(line, heading)
	}
	doc.add("वडा नं. "+v.Get(templates.FieldWardNo), heading)
	doc.add(divider, style{align: stypes.JustificationCenter, bold: true})

	doc.add("पत्र संख्या: "+reference, style{align: stypes.JustificationRight})
	doc.add("मिति: "+date, style{align: stypes.JustificationRight})
	doc.add(tmpl.Subject, style{align: stypes.JustificationCenter, bold: true, size: 14, before: 400, after: 400})

	for i, line := range tmpl.Addressee {
		s := text
		if i == len(tmpl.Addressee)-1 {
			s.after = 400
		}
		doc.add(line, s)
	}

	doc.add("महोदय,", text)
	doc.add(body, style{align: stypes.JustificationBoth, size: 12, before: 200, after: 200})

	if extra := v.Get(templates.FieldAdditionalDetails); extra != "" {
		doc.add("अतिरिक्त जानकारी: "+extra, style{align: stypes.JustificationLeft, size: 12, before: 200, after: 400})
	}

	signature := right
	signature.before = 800
	doc.add("........................", signature)
	doc.add("वडा अध्यक्ष", right)
	doc.add("(कार्यालयको छाप)", style{align: stypes.JustificationCenter, italic: true, size: 10, before: 400})
	return doc.bytes()
}

func documentTypeLabel(requested string, tmpl templates.Template) string {
	if tmpl.ID != templates.TypeGeneral {
		return tmpl.ID
	}
	if n := templates.Normalize(requested); n != "" {
		return n
	}
	return templates.TypeGeneral
}

func resolveTitle(title string, v templates.Values, requested string, tmpl templates.Template) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if t := v.Get("documentName"); t != "" {
		return t
	}
	return documentTypeLabel(requested, tmpl) + " Document"
}
