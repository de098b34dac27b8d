package chunker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"documind/internal/domain"
)

// Defaults used when the configuration leaves the window unspecified.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// ErrInvalidWindow marks an unusable chunkSize/overlap combination. It is a
// configuration-time error; a validated chunker never fails per request.
var ErrInvalidWindow = errors.New("invalid chunk window")

// WindowChunker splits page text into fixed-size overlapping byte windows.
// It is stateless apart from minting fresh chunk ids, so a single instance
// is safe for concurrent use.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window parameters up front. overlap must be
// strictly smaller than chunkSize so every iteration makes progress.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidWindow, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidWindow, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidWindow, overlap, chunkSize)
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk emits, for each page, windows [start, min(start+size, len)) advancing
// by size-overlap. Window starts are fixed by the step; a window reaching
// past the end of the page is clamped there, so windows near the page end
// may be shorter than the chunk size. An empty page contributes no chunks.
func (c *WindowChunker) Chunk(documentID string, pages []domain.Page) ([]domain.Chunk, error) {
	step := c.chunkSize - c.overlap
	var chunks []domain.Chunk
	for _, page := range pages {
		text := page.Text
		for start := 0; start < len(text); start += step {
			end := start + c.chunkSize
			if end > len(text) {
				end = len(text)
			}
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.NewString(),
				DocumentID: documentID,
				Page:       page.Number,
				Start:      start,
				End:        end,
				Text:       text[start:end],
			})
		}
	}
	return chunks, nil
}

// ChunkSize returns the configured window size in bytes.
func (c *WindowChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured window overlap in bytes.
func (c *WindowChunker) Overlap() int { return c.overlap }
