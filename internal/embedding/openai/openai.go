package openai

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config configures the OpenAI embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int
}

// Client produces embeddings through the OpenAI API. The requested
// dimension is sent with every call, so the fixed-dimension contract holds
// regardless of the model's native width, and every returned vector is
// L2-normalized before it reaches the index.
type Client struct {
	api   openai.Client
	model string
	dim   int
}

// NewClient creates an embeddings client from config and environment.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
		dim:   cfg.Dimension,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced vectors.
func (c *Client) Dimension() int { return c.dim }

// Embed returns one vector per input text, same order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dim)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(texts))
	for _, item := range resp.Data {
		i := int(item.Index)
		if i < 0 || i >= len(out) {
			return nil, fmt.Errorf("openai embeddings returned out-of-range index %d", i)
		}
		if len(item.Embedding) != c.dim {
			return nil, fmt.Errorf("openai embeddings returned dimension %d, want %d", len(item.Embedding), c.dim)
		}
		out[i] = normalize(item.Embedding)
	}
	return out, nil
}

func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
