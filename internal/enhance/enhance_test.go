package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

type stubEnhancer struct {
	out string
	err error
}

func (s stubEnhancer) Enhance(context.Context, Request) (string, error) {
	return s.out, s.err
}

func TestWithFallbackReturnsOriginalOnFailure(t *testing.T) {
	req := Request{DocumentType: "birth", Text: "मूल अनुच्छेद"}
	cases := map[string]Enhancer{
		"error":    stubEnhancer{err: errors.New("quota")},
		"empty":    stubEnhancer{out: "   "},
		"too long": stubEnhancer{out: strings.Repeat("शब्द ", 11)},
	}
	for name, inner := range cases {
		got, err := WithFallback(inner, nil, 10).Enhance(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: fallback must not fail, got %v", name, err)
		}
		if got != req.Text {
			t.Fatalf("%s: expected original text, got %q", name, got)
		}
	}
}

func TestWithFallbackPassesGoodOutput(t *testing.T) {
	got, err := WithFallback(stubEnhancer{out: "  औपचारिक अनुच्छेद  "}, nil, 0).Enhance(context.Background(), Request{Text: "x"})
	if err != nil || got != "औपचारिक अनुच्छेद" {
		t.Fatalf("unexpected %q %v", got, err)
	}
}

func TestWithFallbackNilUsesNoop(t *testing.T) {
	got, _ := WithFallback(nil, nil, 0).Enhance(context.Background(), Request{Text: "same"})
	if got != "same" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if WordCount("एक  दुई\nतीन\tचार") != 4 {
		t.Fatal("unexpected word count")
	}
}

type capturedGeneration struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func TestGeminiClientEnhance(t *testing.T) {
	var captured capturedGeneration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"औपचारिक "},{"text":"पाठ"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGemini(context.Background(), config.EnhancerConfig{APIKey: "key", Model: "gemini-test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	out, err := client.Enhance(context.Background(), Request{
		DocumentType: "citizenship",
		Text:         "मूल",
		Fields:       map[string]string{"fullName": "राम"},
		Emphasis:     []string{"The legal basis for citizenship"},
	})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if out != "औपचारिक पाठ" {
		t.Fatalf("unexpected output %q", out)
	}
	if captured.Contents[0].Role != "user" || captured.GenerationConfig.MaxOutputTokens != maxOutputTokens {
		t.Fatalf("unexpected request shape %+v", captured)
	}
	prompt := captured.Contents[0].Parts[0].Text
	for _, want := range []string{"citizenship", "fullName: राम", "The legal basis for citizenship", "at most 500 words"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGeminiClientErrors(t *testing.T) {
	if _, err := NewGemini(context.Background(), config.EnhancerConfig{}); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := NewGemini(context.Background(), config.EnhancerConfig{APIKey: "key"}); err == nil {
		t.Fatal("expected missing model error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "empty") {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	for _, model := range []string{"limited", "empty"} {
		client, err := NewGemini(context.Background(), config.EnhancerConfig{APIKey: "key", Model: model, BaseURL: srv.URL})
		if err != nil {
			t.Fatalf("%s: new gemini: %v", model, err)
		}
		_, err = client.Enhance(context.Background(), Request{Text: "x"})
		if err == nil {
			t.Fatalf("%s: expected error", model)
		}
		if model == "limited" && !strings.Contains(err.Error(), "429") {
			t.Fatalf("expected api status in error, got %v", err)
		}
	}
}
