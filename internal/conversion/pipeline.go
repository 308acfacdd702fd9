package conversion

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/metrics"
)

const (
	DefaultTimeout = 45 * time.Second
	pdfMagic       = "%PDF-"
)

func init() {
	api.DisableConfigDir()
}

// Layout positions the stamped signature on page one.
type Layout struct {
	DefaultWidth  float64
	DefaultHeight float64
	RightMargin   float64
	BottomOffset  float64
}

func LayoutFromConfig(cfg config.SignatureConfig) Layout {
	return Layout{
		DefaultWidth:  cfg.DefaultWidth,
		DefaultHeight: cfg.DefaultHeight,
		RightMargin:   cfg.RightMargin,
		BottomOffset:  cfg.BottomOffset,
	}
}

func (l Layout) withDefaults() Layout {
	if l.DefaultWidth <= 0 {
		l.DefaultWidth = 200
	}
	if l.DefaultHeight <= 0 {
		l.DefaultHeight = 100
	}
	if l.RightMargin <= 0 {
		l.RightMargin = 20
	}
	if l.BottomOffset <= 0 {
		l.BottomOffset = 250
	}
	return l
}

// Pipeline converts rendered letters and stamps drawn signatures onto them.
type Pipeline struct {
	engine  Engine
	timeout time.Duration
	layout  Layout
	metrics *metrics.PipelineMetrics
	logg    *logger.Logger
}

func NewPipeline(engine Engine, timeout time.Duration, layout Layout, m *metrics.PipelineMetrics, logg *logger.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		engine:  engine,
		timeout: timeout,
		layout:  layout.withDefaults(),
		metrics: m,
		logg:    logg,
	}
}

// Convert runs the engine under the pipeline timeout.
func (p *Pipeline) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	if p.engine == nil {
		return nil, conversionError(errors.New("no conversion engine configured"), "document conversion unavailable")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	pdf, err := p.engine.Convert(ctx, docx)
	p.metrics.ObserveConversion(p.engine.Name(), time.Since(start))
	if err == nil && !isPDF(pdf) {
		err = errors.New("engine returned no pdf output")
	}
	if err != nil {
		p.metrics.IncConversionFailure(p.engine.Name(), stageConvert)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, conversionError(err, fmt.Sprintf("conversion timed out after %s", p.timeout))
		}
		return nil, conversionError(err, "document conversion failed")
	}
	return pdf, nil
}

// ConvertAndSign converts the letter and stamps the drawn signature on page
// one, anchored bottom-right. Zero width or height fall back to the layout
// defaults.
func (p *Pipeline) ConvertAndSign(ctx context.Context, docx []byte, signatureDataURL string, width, height float64) ([]byte, error) {
	signature, err := DecodeSignature(signatureDataURL)
	if err != nil {
		return nil, err
	}
	pdf, err := p.Convert(ctx, docx)
	if err != nil {
		return nil, err
	}
	signed, err := p.Stamp(pdf, signature, width, height)
	if err != nil {
		p.metrics.IncConversionFailure(p.engine.Name(), stageStamp)
		return nil, err
	}
	return signed, nil
}

// SignPDF stamps the drawn signature onto an existing PDF.
func (p *Pipeline) SignPDF(_ context.Context, pdf []byte, signatureDataURL string, width, height float64) ([]byte, error) {
	signature, err := DecodeSignature(signatureDataURL)
	if err != nil {
		return nil, err
	}
	if !isPDF(pdf) {
		return nil, signatureEmbedError(errors.New("missing pdf header"), "document is not a PDF")
	}
	signed, err := p.Stamp(pdf, signature, width, height)
	if err != nil {
		p.metrics.IncConversionFailure("pdf", stageStamp)
		return nil, err
	}
	return signed, nil
}

// Stamp places a PNG on page one. The image keeps its aspect ratio and is
// fitted inside width x height points, its right edge RightMargin points from
// the page edge and its bottom edge BottomOffset points up.
func (p *Pipeline) Stamp(pdf, signature []byte, width, height float64) ([]byte, error) {
	if width <= 0 {
		width = p.layout.DefaultWidth
	}
	if height <= 0 {
		height = p.layout.DefaultHeight
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		return nil, signatureEmbedError(err, "signature is not a valid PNG image")
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, signatureEmbedError(errors.New("empty image"), "signature image is empty")
	}
	scale := width / float64(cfg.Width)
	if s := height / float64(cfg.Height); s < scale {
		scale = s
	}

	desc := fmt.Sprintf("pos:br, off:-%.2f %.2f, scale:%.4f abs, rot:0, op:1", p.layout.RightMargin, p.layout.BottomOffset, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(signature), desc, true, false, types.POINTS)
	if err != nil {
		return nil, signatureEmbedError(err, "signature could not be prepared")
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, []string{"1"}, wm, pdfConfig()); err != nil {
		return nil, signatureEmbedError(err, "signature could not be embedded")
	}
	return out.Bytes(), nil
}

// DecodeSignature extracts PNG bytes from a data URL. A bare base64 payload
// is also accepted.
func DecodeSignature(dataURL string) ([]byte, error) {
	raw := strings.TrimSpace(dataURL)
	if raw == "" {
		return nil, signatureEmbedError(errors.New("empty data url"), "signature data is required")
	}
	if header, payload, ok := strings.Cut(raw, ","); ok {
		header = strings.ToLower(header)
		if !strings.HasPrefix(header, "data:image/png") || !strings.HasSuffix(header, ";base64") {
			return nil, signatureEmbedError(fmt.Errorf("unsupported data url header %q", header), "signature must be a base64 PNG data URL")
		}
		raw = payload
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, signatureEmbedError(err, "signature data is not valid base64")
	}
	if _, err := png.DecodeConfig(bytes.NewReader(decoded)); err != nil {
		return nil, signatureEmbedError(err, "signature is not a valid PNG image")
	}
	return decoded, nil
}

// ComposeSignedUpload accepts a signer-supplied PDF as-is after a header check.
func ComposeSignedUpload(pdf []byte) ([]byte, error) {
	if !isPDF(pdf) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signed document must be a PDF")
	}
	return pdf, nil
}

// PageCount reports the number of pages in a PDF.
func PageCount(pdf []byte) (int, error) {
	if !isPDF(pdf) {
		return 0, errors.New("not a pdf")
	}
	return api.PageCount(bytes.NewReader(pdf), pdfConfig())
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte(pdfMagic))
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
