package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	StorePinecone = "pinecone"
	StorePgvector = "pgvector"
	StoreQdrant   = "qdrant"

	// MaxTopK is the largest k any supported index accepts (Pinecone's topK cap).
	MaxTopK = 10000
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Port string

	LLMProvider string

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string
	OpenAIChatModel      string
	OpenAIImageModel     string

	GeminiAPIKey         string
	GeminiBaseURL        string
	GeminiEmbeddingModel string
	GeminiChatModel      string

	OllamaHost           string
	OllamaEmbeddingModel string
	OllamaChatModel      string

	VectorStore    string
	PineconeAPIKey string
	DatabaseURL    string
	QdrantAddr     string
	IndexName      string
	Namespace      string

	TopK        int
	Temperature float32
	MaxTokens   int

	UpstreamTimeout time.Duration
	RequestTimeout  time.Duration
}

// Error reports a missing or invalid setting. The process must not start with one.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup func and validates it.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Port:        get("PORT", "8000"),
		LLMProvider: strings.ToLower(get("LLM_PROVIDER", ProviderOpenAI)),

		OpenAIAPIKey:         get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        get("OPENAI_BASE_URL", ""),
		OpenAIEmbeddingModel: get("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIChatModel:      get("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIImageModel:     get("OPENAI_IMAGE_MODEL", "dall-e-3"),

		GeminiAPIKey:         get("GOOGLE_API_KEY", get("GEMINI_API_KEY", "")),
		GeminiBaseURL:        get("GEMINI_BASE_URL", ""),
		GeminiEmbeddingModel: get("GEMINI_EMBEDDING_MODEL", "models/text-embedding-004"),
		GeminiChatModel:      get("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),

		OllamaHost:           get("OLLAMA_HOST", "http://localhost:11434"),
		OllamaEmbeddingModel: get("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		OllamaChatModel:      get("OLLAMA_CHAT_MODEL", "llama3.2"),

		VectorStore:    strings.ToLower(get("VECTOR_STORE", StorePinecone)),
		PineconeAPIKey: get("PINECONE_API_KEY", ""),
		DatabaseURL:    get("DATABASE_URL", ""),
		QdrantAddr:     get("QDRANT_ADDR", "localhost:6334"),
		IndexName:      get("INDEX_NAME", "medicalbot"),
		Namespace:      get("INDEX_NAMESPACE", "medical-ns"),
	}

	var err error
	if cfg.TopK, err = intVar("RETRIEVAL_K", get("RETRIEVAL_K", "3")); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = intVar("MAX_TOKENS", get("MAX_TOKENS", "500")); err != nil {
		return nil, err
	}
	temp, err := strconv.ParseFloat(get("TEMPERATURE", "0.4"), 32)
	if err != nil {
		return nil, &Error{Key: "TEMPERATURE", Reason: "not a number"}
	}
	cfg.Temperature = float32(temp)
	if cfg.UpstreamTimeout, err = durationVar("UPSTREAM_TIMEOUT", get("UPSTREAM_TIMEOUT", "30s")); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationVar("REQUEST_TIMEOUT", get("REQUEST_TIMEOUT", "90s")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider and store have what they need.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &Error{Key: "OPENAI_API_KEY", Reason: "required for provider openai"}
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &Error{Key: "GOOGLE_API_KEY", Reason: "required for provider gemini (or GEMINI_API_KEY)"}
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return &Error{Key: "OLLAMA_HOST", Reason: "required for provider ollama"}
		}
	default:
		return &Error{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.LLMProvider)}
	}

	switch c.VectorStore {
	case StorePinecone:
		if c.PineconeAPIKey == "" {
			return &Error{Key: "PINECONE_API_KEY", Reason: "required for store pinecone"}
		}
	case StorePgvector:
		if c.DatabaseURL == "" {
			return &Error{Key: "DATABASE_URL", Reason: "required for store pgvector"}
		}
	case StoreQdrant:
		if c.QdrantAddr == "" {
			return &Error{Key: "QDRANT_ADDR", Reason: "required for store qdrant"}
		}
	default:
		return &Error{Key: "VECTOR_STORE", Reason: fmt.Sprintf("unknown store %q", c.VectorStore)}
	}

	if c.IndexName == "" {
		return &Error{Key: "INDEX_NAME", Reason: "must not be empty"}
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		return &Error{Key: "RETRIEVAL_K", Reason: fmt.Sprintf("must be within [1, %d]", MaxTopK)}
	}
	if math.IsNaN(float64(c.Temperature)) || c.Temperature < 0 || c.Temperature > 2 {
		return &Error{Key: "TEMPERATURE", Reason: "must be within [0, 2]"}
	}
	if c.MaxTokens < 1 {
		return &Error{Key: "MAX_TOKENS", Reason: "must be at least 1"}
	}
	if c.UpstreamTimeout <= 0 {
		return &Error{Key: "UPSTREAM_TIMEOUT", Reason: "must be positive"}
	}
	if c.RequestTimeout <= 0 {
		return &Error{Key: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

func intVar(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer"}
	}
	return n, nil
}

func durationVar(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not a duration (ex: 30s)"}
	}
	return d, nil
}
