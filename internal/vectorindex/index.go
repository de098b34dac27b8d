package vectorindex

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"documind/internal/domain"
)

var (
	// ErrDimensionMismatch reports a vector whose length disagrees with the
	// index's fixed dimension. Vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrLengthMismatch reports an Add call with unequal-length embedding and
	// metadata sequences.
	ErrLengthMismatch = errors.New("embeddings and metadata length mismatch")
)

// row keeps a vector and its citation metadata in one record, so the two
// can never drift out of alignment.
type row struct {
	vector []float64
	meta   domain.ChunkMeta
}

// Flat is an exact brute-force vector index over squared Euclidean distance.
// Rows are append-only; neither deletion nor reordering is supported, so the
// row at position i always corresponds to the i-th metadata ever added.
//
// Ranking assumes unit-normalized vectors, under which squared-L2 ordering
// agrees with cosine ordering. The embedding layer normalizes before insert.
type Flat struct {
	mu   sync.RWMutex
	dim  int
	rows []row
}

// NewFlat creates an empty index with the given fixed dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension %d must be positive", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the fixed vector dimension of the index.
func (x *Flat) Dimension() int { return x.dim }

// Len returns the number of rows currently in the index.
func (x *Flat) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.rows)
}

// Add appends each embedding and its paired metadata, in order. The call is
// atomic: every vector is validated before anything is appended, so a failed
// Add leaves the index untouched.
func (x *Flat) Add(embeddings [][]float64, metas []domain.ChunkMeta) error {
	if len(embeddings) != len(metas) {
		return fmt.Errorf("%w: %d embeddings, %d metadata entries", ErrLengthMismatch, len(embeddings), len(metas))
	}
	for i, v := range embeddings {
		if len(v) != x.dim {
			return fmt.Errorf("%w: embedding %d has dimension %d, index has %d", ErrDimensionMismatch, i, len(v), x.dim)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for i, v := range embeddings {
		vec := make([]float64, x.dim)
		copy(vec, v)
		x.rows = append(x.rows, row{vector: vec, meta: metas[i]})
	}
	return nil
}

// Query returns up to min(topK, Len()) rows ordered by ascending squared-L2
// distance to the query vector, ties broken by lowest row index. Querying an
// empty index returns an empty result, not an error.
func (x *Flat) Query(vector []float64, topK int) ([]domain.SearchResult, error) {
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", ErrDimensionMismatch, len(vector), x.dim)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top k %d must be positive", topK)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		idx  int
		dist float64
	}
	scores := make([]scored, len(x.rows))
	for i := range x.rows {
		scores[i] = scored{idx: i, dist: squaredL2(vector, x.rows[i].vector)}
	}
	sort.Slice(scores, func(a, b int) bool {
		if scores[a].dist != scores[b].dist {
			return scores[a].dist < scores[b].dist
		}
		return scores[a].idx < scores[b].idx
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, s := range scores[:topK] {
		results = append(results, domain.SearchResult{
			Meta:     x.rows[s.idx].meta,
			Distance: s.dist,
		})
	}
	return results, nil
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
