package domain

import (
	"context"
	"time"
)

// Page is one page of extracted document text, in document order.
type Page struct {
	Number int // 1-based
	Text   string
}

// Chunk is an immutable window of page text created at ingestion time.
// Start and End are byte offsets into the originating page's text.
type Chunk struct {
	ID         string
	DocumentID string
	Page       int
	Start      int
	End        int
	Text       string
}

// ChunkMeta is the per-row payload of the vector index: only what a
// citation needs, not the full chunk text.
type ChunkMeta struct {
	DocumentID string
	Filename   string
	ChunkID    string
	Page       int
	Preview    string
}

// Document records an uploaded file. Created once on upload; a re-upload
// mints a new document id instead of updating an existing one.
type Document struct {
	ID          string
	Filename    string
	StoragePath string
	ChunkCount  int
	Preview     string
	UploadedAt  time.Time
}

// SearchResult pairs index-row metadata with its squared-L2 distance to
// the query vector.
type SearchResult struct {
	Meta     ChunkMeta
	Distance float64
}

// Citation points an answer back at a ranked source chunk.
type Citation struct {
	Rank   int     `json:"rank"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}

// Outcome classifies what a query produced.
type Outcome string

const (
	// OutcomeAnswered means retrieval succeeded and synthesis produced prose.
	OutcomeAnswered Outcome = "answered"
	// OutcomeContextOnly means retrieval succeeded but synthesis failed;
	// the raw context stands in for the answer.
	OutcomeContextOnly Outcome = "context_only"
	// OutcomeNoContext means nothing relevant was retrieved; synthesis was
	// never attempted.
	OutcomeNoContext Outcome = "no_context"
)

// QueryResult is the full result of a question against the corpus.
type QueryResult struct {
	Outcome   Outcome    `json:"outcome"`
	Answer    string     `json:"answer,omitempty"`
	Context   string     `json:"context,omitempty"`
	Citations []Citation `json:"citations"`
}

// IngestReport is the per-file outcome of a batch ingestion. A failed file
// never aborts its siblings.
type IngestReport struct {
	Path     string
	Document Document
	Err      error
}

// PageReader extracts ordered page text from a document file.
// Page order is preserved and no page is silently dropped.
type PageReader interface {
	ExtractPages(path string) ([]Page, error)
}

// Chunker splits page text into addressable overlapping windows.
type Chunker interface {
	Chunk(documentID string, pages []Page) ([]Chunk, error)
}

// Embedder converts an ordered batch of texts into an equally ordered
// batch of fixed-dimension vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorIndex stores embeddings with citation metadata and answers exact
// nearest-neighbor queries. Rows are append-only; the row at position i
// always carries the metadata given at position i of the Add call.
type VectorIndex interface {
	Add(embeddings [][]float64, metas []ChunkMeta) error
	Query(vector []float64, topK int) ([]SearchResult, error)
	Len() int
}

// Registry resolves document ids to upload metadata. Consulted read-only
// at query time for citation labeling.
type Registry interface {
	Put(doc Document)
	Get(id string) (Document, bool)
	List() []Document
}

// Synthesizer turns a grounded prompt into free-form answer prose. It is
// a fallible remote call; callers degrade to raw context on failure.
type Synthesizer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief extractive preview of a document.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
