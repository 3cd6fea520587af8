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

func TestOpenAIClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "text-embedding-3-small" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		if body["input"] != "what is aspirin?" {
			t.Errorf("unexpected input: %v", body["input"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,1]}],
			"usage":{"prompt_tokens":4,"total_tokens":4}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("test-key", srv.URL+"/v1/", "text-embedding-3-small", "gpt-4o-mini", "dall-e-3", 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	vec, err := c.Embed(context.Background(), "what  is\naspirin?")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != 0.25 || vec[2] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestOpenAIClient_EmbedEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("k", srv.URL+"/v1/", "m", "m", "m", time.Second)
	_, err := c.Embed(context.Background(), "x")
	if !errors.Is(err, rag.ErrNoEmbedding) {
		t.Fatalf("expected ErrNoEmbedding, got %v", err)
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body struct {
			Model       string        `json:"model"`
			Temperature float64       `json:"temperature"`
			MaxTokens   int           `json:"max_tokens"`
			Messages    []rag.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != "gpt-4o-mini" || body.MaxTokens != 500 {
			t.Errorf("unexpected request: %+v", body)
		}
		if body.Temperature < 0.39 || body.Temperature > 0.41 {
			t.Errorf("unexpected temperature: %v", body.Temperature)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != rag.RoleSystem || body.Messages[1].Content != "Q" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Take it with water. "}}]}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("k", srv.URL+"/v1/", "text-embedding-3-small", "gpt-4o-mini", "dall-e-3", 5*time.Second)
	ans, err := c.Complete(context.Background(), []rag.Message{
		{Role: rag.RoleSystem, Content: "sys"},
		{Role: rag.RoleUser, Content: "Q"},
	}, rag.GenerationParams{Temperature: 0.4, MaxTokens: 500})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if ans.Text != "Take it with water." {
		t.Fatalf("unexpected answer: %q", ans.Text)
	}
}

func TestOpenAIClient_CompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("k", srv.URL+"/v1/", "m", "m", "m", time.Second)
	_, err := c.Complete(context.Background(), []rag.Message{{Role: rag.RoleUser, Content: "Q"}}, rag.GenerationParams{MaxTokens: 1})
	if err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "", "m", "m", "m", 0); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestOpenAIClient_GenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := map[string]any{
			"prompt":          "a blister pack",
			"model":           "dall-e-3",
			"n":               float64(1),
			"size":            "1024x1024",
			"quality":         "standard",
			"response_format": "url",
		}
		for k, v := range want {
			if body[k] != v {
				t.Errorf("%s: expected %v, got %v", k, v, body[k])
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/blister.png","revised_prompt":"x"}]}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("k", srv.URL+"/v1/", "text-embedding-3-small", "gpt-4o-mini", "dall-e-3", 5*time.Second)
	url, err := c.GenerateImage(context.Background(), "a blister pack")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if url != "https://img.example/blister.png" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestOpenAIClient_GenerateImageEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("k", srv.URL+"/v1/", "m", "m", "m", time.Second)
	_, err := c.GenerateImage(context.Background(), "x")
	if !errors.Is(err, rag.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}
