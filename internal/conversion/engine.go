package conversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

// Engine turns a .docx into a PDF.
type Engine interface {
	Name() string
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// NewEngine selects the configured engine.
func NewEngine(cfg config.ConversionConfig) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case config.ConversionEngineGotenberg:
		return NewGotenbergEngine(cfg.GotenbergURL, nil), nil
	case config.ConversionEngineSoffice:
		return NewSofficeEngine(cfg.SofficePath), nil
	default:
		return nil, fmt.Errorf("unknown conversion engine %q", cfg.Engine)
	}
}

const (
	gotenbergRoute   = "/forms/libreoffice/convert"
	maxPDFBytes      = 64 << 20
	inputDocxName    = "document.docx"
	convertedPDFName = "document.pdf"
)

// GotenbergEngine posts the document to a Gotenberg LibreOffice route.
type GotenbergEngine struct {
	baseURL    string
	httpClient *http.Client
}

func NewGotenbergEngine(baseURL string, httpClient *http.Client) *GotenbergEngine {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GotenbergEngine{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

func (g *GotenbergEngine) Name() string { return config.ConversionEngineGotenberg }

func (g *GotenbergEngine) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	if g.baseURL == "" {
		return nil, errors.New("gotenberg url is not configured")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("files", inputDocxName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(docx); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+gotenbergRoute, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("read gotenberg response: %w", err)
	}
	return pdf, nil
}

// SofficeEngine shells out to a local LibreOffice binary.
type SofficeEngine struct {
	binary string
}

func NewSofficeEngine(binary string) *SofficeEngine {
	if strings.TrimSpace(binary) == "" {
		binary = "soffice"
	}
	return &SofficeEngine{binary: binary}
}

func (s *SofficeEngine) Name() string { return config.ConversionEngineSoffice }

func (s *SofficeEngine) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lekhapadi-convert-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, inputDocxName)
	if err := os.WriteFile(input, docx, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	// Per-run profile; LibreOffice locks the shared one.
	cmd := exec.CommandContext(ctx, s.binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(dir, "profile")),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", dir,
		input,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, convertedPDFName))
	if err != nil {
		return nil, fmt.Errorf("read converted pdf: %w", err)
	}
	return pdf, nil
}
