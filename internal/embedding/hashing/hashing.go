package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Embedder maps token counts into a fixed-dimension vector by feature
// hashing, then L2-normalizes. It is deterministic and fully offline, which
// makes it the default for local runs and the stub for tests. Unlike a
// corpus-fitted scheme, the dimension is fixed up front, matching the
// index's fixed-dimension contract.
type Embedder struct {
	dim int
}

// New creates a hashing embedder with the given fixed dimension.
func New(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension %d must be positive", dim)
	}
	return &Embedder{dim: dim}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced vectors.
func (e *Embedder) Dimension() int { return e.dim }

// Embed returns one vector per input text, same order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *Embedder) embedOne(text string) []float64 {
	vec := make([]float64, e.dim)
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		// Low bits pick the bucket, the top bit picks the sign, which keeps
		// hash collisions from only ever accumulating.
		bucket := int(sum % uint32(e.dim))
		if sum&(1<<31) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
