package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josinaldojr/medical-rag/internal/rag"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient embeds with the embeddings API, answers with chat completions
// and draws with the images API.
type OpenAIClient struct {
	client         openai.Client
	embeddingModel string
	chatModel      string
	imageModel     string
}

func NewOpenAIClient(apiKey, baseURL, embeddingModel, chatModel, imageModel string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		imageModel:     imageModel,
	}, nil
}

func (o *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(normalizeWhitespace(text)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed error: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: %w", rag.ErrNoEmbedding)
	}

	return toFloat32(resp.Data[0].Embedding), nil
}

func (o *OpenAIClient) Complete(ctx context.Context, messages []rag.Message, params rag.GenerationParams) (rag.Answer, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.chatModel),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(float64(params.Temperature)),
		MaxTokens:   openai.Int(int64(params.MaxTokens)),
	})
	if err != nil {
		return rag.Answer{}, fmt.Errorf("openai chat error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return rag.Answer{}, fmt.Errorf("openai chat: no choices returned")
	}

	txt := strings.TrimSpace(resp.Choices[0].Message.Content)
	if txt == "" {
		return rag.Answer{}, fmt.Errorf("openai chat: %w", rag.ErrEmptyCompletion)
	}

	return rag.Answer{Text: txt}, nil
}

// GenerateImage asks for one 1024x1024 image and returns its hosted URL.
func (o *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(o.imageModel),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		Quality:        openai.ImageGenerateParamsQualityStandard,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("openai image error: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("openai image: %w", rag.ErrNoImage)
	}

	return resp.Data[0].URL, nil
}

func toOpenAIMessages(messages []rag.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case rag.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

var _ rag.EmbeddingsClient = (*OpenAIClient)(nil)
var _ rag.CompletionClient = (*OpenAIClient)(nil)
var _ rag.ImageClient = (*OpenAIClient)(nil)
