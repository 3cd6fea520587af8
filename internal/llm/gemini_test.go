package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/josinaldojr/medical-rag/internal/rag"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient(context.Background(), "g-key", srv.URL, "text-embedding-004", "gemini-2.5-flash", 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGeminiClient_Complete(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("missing api key header")
		}

		var body struct {
			Contents          []geminiContent `json:"contents"`
			SystemInstruction geminiContent   `json:"systemInstruction"`
			GenerationConfig  struct {
				Temperature     float64 `json:"temperature"`
				MaxOutputTokens int     `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}

		if len(body.SystemInstruction.Parts) != 1 || body.SystemInstruction.Parts[0].Text != "sys one\n\nsys two" {
			t.Errorf("unexpected system instruction: %+v", body.SystemInstruction)
		}
		if len(body.Contents) != 1 || body.Contents[0].Role != "user" || body.Contents[0].Parts[0].Text != "Q" {
			t.Errorf("unexpected contents: %+v", body.Contents)
		}
		if body.GenerationConfig.Temperature < 0.39 || body.GenerationConfig.Temperature > 0.41 {
			t.Errorf("unexpected temperature: %v", body.GenerationConfig.Temperature)
		}
		if body.GenerationConfig.MaxOutputTokens != 500 {
			t.Errorf("unexpected max output tokens: %d", body.GenerationConfig.MaxOutputTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" Rest and fluids. "}]},"finishReason":"STOP"}]}`))
	})

	ans, err := c.Complete(context.Background(), []rag.Message{
		{Role: rag.RoleSystem, Content: "sys one"},
		{Role: rag.RoleSystem, Content: "sys two"},
		{Role: rag.RoleUser, Content: "Q"},
	}, rag.GenerationParams{Temperature: 0.4, MaxTokens: 500})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if ans.Text != "Rest and fluids." {
		t.Fatalf("unexpected answer: %q", ans.Text)
	}
}

func TestGeminiClient_CompleteEmpty(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"   "}]}}]}`))
	})

	_, err := c.Complete(context.Background(), []rag.Message{{Role: rag.RoleUser, Content: "Q"}}, rag.GenerationParams{MaxTokens: 1})
	if !errors.Is(err, rag.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestGeminiClient_CompleteError(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	})

	if _, err := c.Complete(context.Background(), []rag.Message{{Role: rag.RoleUser, Content: "Q"}}, rag.GenerationParams{MaxTokens: 1}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestGeminiClient_Embed(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/text-embedding-004:batchEmbedContents") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body struct {
			Requests []struct {
				Content geminiContent `json:"content"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.Requests) != 1 || body.Requests[0].Content.Parts[0].Text != "what is aspirin?" {
			t.Errorf("unexpected requests: %+v", body.Requests)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings":[{"values":[0.5,0.25,1]}]}`))
	})

	vec, err := c.Embed(context.Background(), " what is\n aspirin? ")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[2] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestGeminiClient_EmbedEmpty(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings":[]}`))
	})

	if _, err := c.Embed(context.Background(), "x"); !errors.Is(err, rag.ErrNoEmbedding) {
		t.Fatalf("expected ErrNoEmbedding, got %v", err)
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), "", "", "m", "m", 0); err == nil {
		t.Fatal("expected error without api key")
	}
}
