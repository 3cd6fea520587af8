package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/josinaldojr/medical-rag/internal/rag"
	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client         *api.Client
	embeddingModel string
	chatModel      string
}

func NewOllamaClient(host, embeddingModel, chatModel string, timeout time.Duration) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	if embeddingModel == "" {
		embeddingModel = "nomic-embed-text"
	}
	if chatModel == "" {
		chatModel = "llama3.2"
	}

	return &OllamaClient{
		client:         api.NewClient(base, &http.Client{Timeout: timeout}),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.embeddingModel,
		Input: normalizeWhitespace(text),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed error: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: %w", rag.ErrNoEmbedding)
	}

	return resp.Embeddings[0], nil
}

func (o *OllamaClient) Complete(ctx context.Context, messages []rag.Message, params rag.GenerationParams) (rag.Answer, error) {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    o.chatModel,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}

	var out strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return rag.Answer{}, fmt.Errorf("ollama chat error: %w", err)
	}

	txt := strings.TrimSpace(out.String())
	if txt == "" {
		return rag.Answer{}, fmt.Errorf("ollama chat: %w", rag.ErrEmptyCompletion)
	}

	return rag.Answer{Text: txt}, nil
}

var _ rag.EmbeddingsClient = (*OllamaClient)(nil)
var _ rag.CompletionClient = (*OllamaClient)(nil)
