package enhance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

const (
	defaultGeminiTimeout = 15 * time.Second
	maxOutputTokens      = 2048
)

// GeminiClient rewrites letter text with a Gemini model.
type GeminiClient struct {
	models   *genai.Models
	model    string
	maxWords int
}

func NewGemini(ctx context.Context, cfg config.EnhancerConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{models: client.Models, model: cfg.Model, maxWords: DefaultMaxWords}, nil
}

func (c *GeminiClient) Enhance(ctx context.Context, req Request) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model,
		genai.Text(buildPrompt(req, c.maxWords)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.3),
			MaxOutputTokens: maxOutputTokens,
		})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gemini returned %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message)
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return strings.TrimSpace(resp.Text()), nil
}

func buildPrompt(req Request, maxWords int) string {
	var b strings.Builder
	b.WriteString("You are an expert in Nepali official documents and legal writing.\n")
	b.WriteString("Rewrite the following recommendation letter paragraph in formal Nepali suitable for a ward office, ")
	b.WriteString("keeping the original meaning, names, dates and numbers exactly.\n")
	fmt.Fprintf(&b, "The result must be a single paragraph of at most %d words so the letter fits on one printed page.\n", maxWords)
	b.WriteString("Return ONLY the rewritten paragraph in Nepali, without explanations or notes.\n\n")
	fmt.Fprintf(&b, "Document type: %s\n", req.DocumentType)
	fmt.Fprintf(&b, "Original paragraph: %q\n", req.Text)

	if len(req.Fields) > 0 {
		keys := make([]string, 0, len(req.Fields))
		for k := range req.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Form data:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Fields[k])
		}
	}
	if len(req.Emphasis) > 0 {
		b.WriteString("Emphasise:\n")
		for _, e := range req.Emphasis {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}
