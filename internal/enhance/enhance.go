package enhance

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

// DefaultMaxWords keeps an enhanced body short enough for a one-page letter.
const DefaultMaxWords = 500

// Request is one paragraph to rewrite in a formal register.
type Request struct {
	DocumentType string
	Text         string
	Fields       map[string]string
	Emphasis     []string
}

// Enhancer rewrites letter text. Implementations may fail freely; callers
// wrap them with WithFallback.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) (string, error)
}

// Noop returns the input unchanged.
type Noop struct{}

func (Noop) Enhance(_ context.Context, req Request) (string, error) {
	return req.Text, nil
}

var (
	errEmptyOutput = errors.New("enhancer returned empty text")
	errTooLong     = errors.New("enhancer output exceeds word budget")
)

type fallback struct {
	next     Enhancer
	logg     *logger.Logger
	maxWords int
}

// WithFallback wraps next so Enhance never fails: any error, empty output or
// output longer than maxWords yields the original text.
func WithFallback(next Enhancer, logg *logger.Logger, maxWords int) Enhancer {
	if next == nil {
		next = Noop{}
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &fallback{next: next, logg: logg, maxWords: maxWords}
}

func (f *fallback) Enhance(ctx context.Context, req Request) (string, error) {
	out, err := f.next.Enhance(ctx, req)
	if err == nil {
		out = strings.TrimSpace(out)
		switch {
		case out == "":
			err = errEmptyOutput
		case WordCount(out) > f.maxWords:
			err = errTooLong
		}
	}
	if err != nil {
		if f.logg != nil {
			logCtx := f.logg.WithFields(ctx, map[string]any{
				"document_type": req.DocumentType,
				"step":          "enhance",
				"reason":        err.Error(),
			})
			f.logg.Warn(logCtx, "enhance.fallback")
		}
		return req.Text, nil
	}
	return out, nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}
