package rag

import (
	"context"
	"log"
	"time"

	wl "github.com/abadojack/whatlanggo"
)

type Options struct {
	TopK            int
	Temperature     float32
	MaxTokens       int
	SystemTemplate  string
	UpstreamTimeout time.Duration
}

type Service struct {
	embeddings EmbeddingsClient
	index      VectorIndex
	llm        CompletionClient
	opts       Options
}

func NewService(embeddings EmbeddingsClient, index VectorIndex, llm CompletionClient, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SystemTemplate == "" {
		opts.SystemTemplate = DefaultSystemTemplate
	}
	return &Service{
		embeddings: embeddings,
		index:      index,
		llm:        llm,
		opts:       opts,
	}
}

// Answer runs embed -> search -> assemble -> complete, strictly in that order.
// Upstream failures come back as *UpstreamError; there is no retry and no partial answer.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	start := time.Now()

	var vec []float32
	err := s.call(ctx, OpEmbed, func(ctx context.Context) error {
		var err error
		vec, err = s.embeddings.Embed(ctx, question)
		return err
	})
	if err != nil {
		return Answer{}, err
	}
	embedDone := time.Now()

	var docs []RetrievedDocument
	err = s.call(ctx, OpSearch, func(ctx context.Context) error {
		var err error
		docs, err = s.index.SimilaritySearch(ctx, vec, s.opts.TopK)
		return err
	})
	if err != nil {
		return Answer{}, err
	}
	searchDone := time.Now()

	prompt := AssemblePrompt(s.opts.SystemTemplate, docs, question)

	var ans Answer
	err = s.call(ctx, OpComplete, func(ctx context.Context) error {
		var err error
		ans, err = s.llm.Complete(ctx, prompt.Messages(), GenerationParams{
			Temperature: s.opts.Temperature,
			MaxTokens:   s.opts.MaxTokens,
		})
		return err
	})
	if err != nil {
		return Answer{}, err
	}

	log.Printf("rag: answered lang=%s docs=%d embed=%s search=%s complete=%s",
		detectLang(question),
		len(docs),
		embedDone.Sub(start).Round(time.Millisecond),
		searchDone.Sub(embedDone).Round(time.Millisecond),
		time.Since(searchDone).Round(time.Millisecond),
	)

	return ans, nil
}

// call bounds one external call by UpstreamTimeout and tags its failure.
func (s *Service) call(ctx context.Context, op Op, fn func(context.Context) error) error {
	if s.opts.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.UpstreamTimeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	return nil
}

func detectLang(s string) string {
	info := wl.Detect(s)
	if info.Confidence < 0.5 {
		return "und"
	}
	return wl.LangToString(info.Lang)
}
