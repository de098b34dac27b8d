package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/domain"
)

func TestNewWindowChunker(t *testing.T) {
	t.Run("Valid parameters", func(t *testing.T) {
		c, err := NewWindowChunker(500, 50)
		require.NoError(t, err)
		assert.Equal(t, 500, c.ChunkSize())
		assert.Equal(t, 50, c.Overlap())
	})

	t.Run("Rejects zero chunk size", func(t *testing.T) {
		_, err := NewWindowChunker(0, 0)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("Rejects negative overlap", func(t *testing.T) {
		_, err := NewWindowChunker(100, -1)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("Rejects overlap equal to chunk size", func(t *testing.T) {
		_, err := NewWindowChunker(100, 100)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("Rejects overlap larger than chunk size", func(t *testing.T) {
		_, err := NewWindowChunker(100, 150)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestWindowChunker_Chunk(t *testing.T) {
	t.Run("Reference page of 1200 characters", func(t *testing.T) {
		c, err := NewWindowChunker(500, 50)
		require.NoError(t, err)

		pages := []domain.Page{{Number: 1, Text: strings.Repeat("A", 1200)}}
		chunks, err := c.Chunk("doc-1", pages)
		require.NoError(t, err)
		require.Len(t, chunks, 3)

		wantOffsets := [][2]int{{0, 500}, {450, 950}, {900, 1200}}
		for i, want := range wantOffsets {
			assert.Equal(t, want[0], chunks[i].Start, "chunk %d start", i)
			assert.Equal(t, want[1], chunks[i].End, "chunk %d end", i)
			assert.Equal(t, 1, chunks[i].Page)
			assert.Equal(t, "doc-1", chunks[i].DocumentID)
			assert.Len(t, chunks[i].Text, want[1]-want[0])
		}
	})

	t.Run("Windows cover the page with no gaps", func(t *testing.T) {
		const size, overlap = 64, 16
		c, err := NewWindowChunker(size, overlap)
		require.NoError(t, err)

		for _, length := range []int{1, 63, 64, 65, 200, 1000} {
			text := strings.Repeat("x", length)
			chunks, err := c.Chunk("doc", []domain.Page{{Number: 1, Text: text}})
			require.NoError(t, err)
			require.NotEmpty(t, chunks, "length %d", length)

			assert.Equal(t, 0, chunks[0].Start)
			assert.Equal(t, length, chunks[len(chunks)-1].End)
			for i, ch := range chunks {
				assert.Greater(t, ch.End, ch.Start, "chunk %d empty", i)
				assert.LessOrEqual(t, ch.End-ch.Start, size)
				assert.Equal(t, text[ch.Start:ch.End], ch.Text)
				if i < len(chunks)-1 {
					assert.Equal(t, ch.Start+(size-overlap), chunks[i+1].Start, "consecutive starts advance by the step")
					assert.Greater(t, ch.End, chunks[i+1].Start, "no gap between windows")
				}
			}
		}
	})

	t.Run("Clamped windows may appear before the last one", func(t *testing.T) {
		c, err := NewWindowChunker(64, 16)
		require.NoError(t, err)

		// The final start position can land within chunkSize of the end
		// more than once, so a window shorter than chunkSize is not
		// necessarily the last.
		chunks, err := c.Chunk("doc", []domain.Page{{Number: 1, Text: strings.Repeat("x", 200)}})
		require.NoError(t, err)
		require.Len(t, chunks, 5)
		assert.Equal(t, 144, chunks[3].Start)
		assert.Equal(t, 200, chunks[3].End)
		assert.Equal(t, 192, chunks[4].Start)
		assert.Equal(t, 200, chunks[4].End)

		chunks, err = c.Chunk("doc", []domain.Page{{Number: 1, Text: strings.Repeat("x", 63)}})
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 63, chunks[0].End, "first window clamps to the page end")
		assert.Equal(t, 48, chunks[1].Start)
		assert.Equal(t, 63, chunks[1].End)
	})

	t.Run("Empty page yields no chunks", func(t *testing.T) {
		c, err := NewWindowChunker(500, 50)
		require.NoError(t, err)

		chunks, err := c.Chunk("doc", []domain.Page{{Number: 1, Text: ""}})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Short page yields a single whole-page chunk", func(t *testing.T) {
		c, err := NewWindowChunker(500, 50)
		require.NoError(t, err)

		chunks, err := c.Chunk("doc", []domain.Page{{Number: 3, Text: "tiny page"}})
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, len("tiny page"), chunks[0].End)
		assert.Equal(t, "tiny page", chunks[0].Text)
		assert.Equal(t, 3, chunks[0].Page)
	})

	t.Run("Multiple pages keep their page numbers and restart offsets", func(t *testing.T) {
		c, err := NewWindowChunker(10, 2)
		require.NoError(t, err)

		pages := []domain.Page{
			{Number: 1, Text: strings.Repeat("a", 15)},
			{Number: 2, Text: ""},
			{Number: 3, Text: strings.Repeat("b", 5)},
		}
		chunks, err := c.Chunk("doc", pages)
		require.NoError(t, err)
		require.Len(t, chunks, 3)

		assert.Equal(t, 1, chunks[0].Page)
		assert.Equal(t, 1, chunks[1].Page)
		assert.Equal(t, 3, chunks[2].Page)
		assert.Equal(t, 0, chunks[2].Start, "offsets restart per page")
	})

	t.Run("Chunk ids are unique", func(t *testing.T) {
		c, err := NewWindowChunker(10, 2)
		require.NoError(t, err)

		chunks, err := c.Chunk("doc", []domain.Page{{Number: 1, Text: strings.Repeat("z", 100)}})
		require.NoError(t, err)

		seen := make(map[string]struct{}, len(chunks))
		for _, ch := range chunks {
			_, dup := seen[ch.ID]
			assert.False(t, dup, "duplicate chunk id %s", ch.ID)
			seen[ch.ID] = struct{}{}
		}
	})
}
