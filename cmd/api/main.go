package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josinaldojr/medical-rag/internal/config"
	"github.com/josinaldojr/medical-rag/internal/db"
	apphttp "github.com/josinaldojr/medical-rag/internal/http"
	"github.com/josinaldojr/medical-rag/internal/llm"
	"github.com/josinaldojr/medical-rag/internal/rag"
	"github.com/josinaldojr/medical-rag/internal/vectordb"
	"golang.org/x/sync/errgroup"
)

type provider interface {
	rag.EmbeddingsClient
	rag.CompletionClient
}

// openIndex is swapped in tests.
var openIndex = newIndex

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		stop()
		log.Fatalf("invalid configuration: %v", err)
	}

	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}

// run serves until ctx is done or the listener fails. The index is closed on every path.
func run(ctx context.Context, cfg *config.Config) error {
	client, err := newProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init %s client: %w", cfg.LLMProvider, err)
	}

	index, closeIndex, err := openIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init %s index: %w", cfg.VectorStore, err)
	}
	defer closeIndex()

	ragService := rag.NewService(client, index, client, rag.Options{
		TopK:            cfg.TopK,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		UpstreamTimeout: cfg.UpstreamTimeout,
	})

	var imageService *rag.ImageService
	if images, ok := client.(rag.ImageClient); ok {
		imageService = rag.NewImageService(images, cfg.UpstreamTimeout)
	}

	h := apphttp.NewHandler(ragService, imageService, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apphttp.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("API listening on %s (provider=%s store=%s index=%s namespace=%s k=%d images=%t)",
			srv.Addr, cfg.LLMProvider, cfg.VectorStore, cfg.IndexName, cfg.Namespace, cfg.TopK, imageService != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newProvider(ctx context.Context, cfg *config.Config) (provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIEmbeddingModel, cfg.OpenAIChatModel, cfg.OpenAIImageModel, cfg.UpstreamTimeout)
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiEmbeddingModel, cfg.GeminiChatModel, cfg.UpstreamTimeout)
	case config.ProviderOllama:
		return llm.NewOllamaClient(cfg.OllamaHost, cfg.OllamaEmbeddingModel, cfg.OllamaChatModel, cfg.UpstreamTimeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.LLMProvider)
	}
}

func newIndex(ctx context.Context, cfg *config.Config) (rag.VectorIndex, func(), error) {
	switch cfg.VectorStore {
	case config.StorePinecone:
		p, err := vectordb.NewPinecone(ctx, cfg.PineconeAPIKey, cfg.IndexName, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return p, closer(p), nil

	case config.StorePgvector:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo, err := rag.NewPgRepository(pool, cfg.IndexName, cfg.Namespace)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.StoreQdrant:
		q, err := vectordb.NewQdrant(cfg.QdrantAddr, cfg.IndexName, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return q, closer(q), nil

	default:
		return nil, nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("close index: %v", err)
		}
	}
}
