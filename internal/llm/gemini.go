package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josinaldojr/medical-rag/internal/rag"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
}

// NewGeminiClient talks to the Gemini API. An empty baseURL uses the public endpoint.
func NewGeminiClient(ctx context.Context, apiKey, baseURL, embeddingModel, chatModel string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	httpOpts := genai.HTTPOptions{BaseURL: baseURL}
	if timeout > 0 {
		httpOpts.Timeout = &timeout
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:         c,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(
		ctx,
		g.embeddingModel,
		genai.Text(normalizeWhitespace(text)),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed: %w", rag.ErrNoEmbedding)
	}

	return resp.Embeddings[0].Values, nil
}

func (g *GeminiClient) Complete(ctx context.Context, messages []rag.Message, params rag.GenerationParams) (rag.Answer, error) {
	system, contents := splitGeminiMessages(messages)

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, contents, cfg)
	if err != nil {
		return rag.Answer{}, fmt.Errorf("gemini generateContent error: %w", err)
	}

	if resp == nil {
		return rag.Answer{}, fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return rag.Answer{}, fmt.Errorf("gemini: %w", rag.ErrEmptyCompletion)
	}

	return rag.Answer{Text: txt}, nil
}

// splitGeminiMessages moves system messages into one instruction; Gemini has no system role in contents.
func splitGeminiMessages(messages []rag.Message) (string, []*genai.Content) {
	var sys []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case rag.RoleSystem:
			sys = append(sys, m.Content)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	return strings.Join(sys, "\n\n"), contents
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
var _ rag.CompletionClient = (*GeminiClient)(nil)
