// Package llm provides embedding generation using langchaingo providers.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/metrics"
)

// Dtype is the numeric precision of the embedding model.
type Dtype string

const (
	DtypeF32 Dtype = "f32"
	DtypeQ8  Dtype = "q8"
	DtypeQ4  Dtype = "q4"
)

// Text prefixes for asymmetric embedding models (nomic-style). Documents and
// queries are embedded with different prefixes; the document form is also the
// canonical text the content hash is computed over.
const (
	DocumentPrefix = "search_document: "
	QueryPrefix    = "search_query: "
)

// ollamaTag maps a dtype to the quantized Ollama model tag.
func (d Dtype) ollamaTag(model string) string {
	switch d {
	case DtypeQ8:
		return model + ":q8_0"
	case DtypeQ4:
		return model + ":q4_0"
	default:
		return model
	}
}

// Embedder wraps a langchaingo embedder with dimension validation and
// dtype bookkeeping.
type Embedder struct {
	model     embeddings.Embedder
	dimension int
	modelName string
	dtype     Dtype
	collector *metrics.Collector
}

// NewEmbedder creates an embedder based on configuration. The configured
// dtype preference list is tried in order; the first precision whose provider
// loads wins, so a missing quantized model falls back to the next entry.
func NewEmbedder(cfg config.Config, collector *metrics.Collector) (*Embedder, error) {
	prefs := cfg.DtypePreference
	if len(prefs) == 0 {
		prefs = []string{string(DtypeF32)}
	}

	var lastErr error
	for _, p := range prefs {
		dtype := Dtype(p)
		model, name, err := buildProvider(cfg, dtype)
		if err != nil {
			slog.Warn("embedding provider failed to load, trying next dtype", "dtype", dtype, "error", err)
			lastErr = err
			continue
		}
		slog.Debug("embedding provider ready", "provider", cfg.EmbedProvider, "model", name, "dtype", dtype)
		return &Embedder{
			model:     model,
			dimension: cfg.EmbedDimension,
			modelName: name,
			dtype:     dtype,
			collector: collector,
		}, nil
	}
	return nil, fmt.Errorf("no embedding provider loaded for dtypes %v: %w", prefs, lastErr)
}

func buildProvider(cfg config.Config, dtype Dtype) (embeddings.Embedder, string, error) {
	switch cfg.EmbedProvider {
	case "ollama", "":
		name := dtype.ollamaTag(cfg.EmbedModel)
		llm, err := ollama.New(
			ollama.WithModel(name),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, "", fmt.Errorf("create ollama client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, "", fmt.Errorf("create ollama embedder: %w", err)
		}
		return model, name, nil

	case "openai":
		// The OpenAI API only serves full-precision vectors.
		if dtype != DtypeF32 {
			return nil, "", fmt.Errorf("openai embeddings only support f32")
		}
		if cfg.OpenAIAPIKey == "" {
			return nil, "", fmt.Errorf("OpenAI API key required")
		}
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if err != nil {
			return nil, "", fmt.Errorf("create openai client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, "", fmt.Errorf("create openai embedder: %w", err)
		}
		return model, cfg.EmbedModel, nil

	default:
		return nil, "", fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
}

// Embed generates an embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vectors, err := e.model.EmbedDocuments(ctx, []string{text})
	duration := time.Since(start)

	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpEmbedding, duration)
	}
	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "text_len", len(text), "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := vectors[0]
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d", len(embedding), e.dimension)
	}
	return embedding, nil
}

// EmbedDocument embeds text with the document prefix (for indexing).
func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.Embed(ctx, DocumentPrefix+text)
}

// EmbedQuery embeds text with the query prefix (for search).
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.Embed(ctx, QueryPrefix+text)
}

// Model returns the embedding model name (including any quantization tag).
func (e *Embedder) Model() string {
	return e.modelName
}

// Dimension returns the expected embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Dtype returns the precision the provider loaded with.
func (e *Embedder) Dtype() string {
	return string(e.dtype)
}
