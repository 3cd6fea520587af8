package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, params GenerationParams) (Answer, error)
}

// VectorIndex is bound to one index/namespace at construction and never writes to it.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]RetrievedDocument, error)
}

// ImageClient turns a text prompt into the URL of a generated image.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
