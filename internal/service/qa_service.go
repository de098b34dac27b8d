package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"documind/internal/assembler"
	"documind/internal/domain"
)

// Deps wires the QA service. Synthesizer and Summarizer are optional; a nil
// Synthesizer makes every successful query a context-only result.
type Deps struct {
	Reader      domain.PageReader
	Chunker     domain.Chunker
	Embedder    domain.Embedder
	Index       domain.VectorIndex
	Registry    domain.Registry
	Synthesizer domain.Synthesizer
	Summarizer  domain.Summarizer
	TopK        int
	Logger      *slog.Logger
}

// QAService runs the ingest pipeline and answers questions against the
// indexed corpus. Reading files and computing embeddings happen before any
// index mutation, so slow work never runs under the index lock.
type QAService struct {
	deps Deps
	log  *slog.Logger
}

// New creates the service. TopK defaults to 5 when unset.
func New(deps Deps) *QAService {
	if deps.TopK <= 0 {
		deps.TopK = 5
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &QAService{deps: deps, log: log}
}

// Ingest reads the file at path, chunks and embeds its pages, registers the
// document under filename, and appends the rows to the index. The returned
// document carries the freshly minted id.
func (s *QAService) Ingest(ctx context.Context, path, filename string) (domain.Document, error) {
	docID := uuid.NewString()

	pages, err := s.deps.Reader.ExtractPages(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract pages: %w", err)
	}
	chunks, err := s.deps.Chunker.Chunk(docID, pages)
	if err != nil {
		return domain.Document{}, fmt.Errorf("chunk pages: %w", err)
	}

	doc := domain.Document{
		ID:          docID,
		Filename:    filename,
		StoragePath: path,
		ChunkCount:  len(chunks),
		UploadedAt:  time.Now(),
	}
	if s.deps.Summarizer != nil {
		var full strings.Builder
		for _, p := range pages {
			full.WriteString(p.Text)
			full.WriteString("\n")
		}
		if preview, err := s.deps.Summarizer.Summarize(full.String(), 3); err == nil {
			doc.Preview = preview
		}
	}

	if len(chunks) == 0 {
		s.log.Warn("document produced no chunks", slog.String("document_id", docID), slog.String("filename", filename))
		s.deps.Registry.Put(doc)
		return doc, nil
	}

	texts := make([]string, len(chunks))
	metas := make([]domain.ChunkMeta, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		metas[i] = domain.ChunkMeta{
			DocumentID: docID,
			Filename:   filename,
			ChunkID:    ch.ID,
			Page:       ch.Page,
			Preview:    assembler.Truncate(ch.Text, assembler.PreviewLimit),
		}
	}

	embeddings, err := s.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	// Register before appending so citations resolve the moment rows become
	// queryable.
	s.deps.Registry.Put(doc)
	if err := s.deps.Index.Add(embeddings, metas); err != nil {
		return domain.Document{}, fmt.Errorf("index chunks: %w", err)
	}

	s.log.Info("ingested document",
		slog.String("document_id", docID),
		slog.String("filename", filename),
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(chunks)),
	)
	return doc, nil
}

// IngestFiles ingests each path independently: one file's failure is
// recorded in its report and never aborts the remaining files.
func (s *QAService) IngestFiles(ctx context.Context, paths []string) []domain.IngestReport {
	reports := make([]domain.IngestReport, 0, len(paths))
	for _, path := range paths {
		doc, err := s.Ingest(ctx, path, filepath.Base(path))
		if err != nil {
			s.log.Error("ingest failed", slog.String("path", path), slog.Any("error", err))
		}
		reports = append(reports, domain.IngestReport{Path: path, Document: doc, Err: err})
	}
	return reports
}

// Query embeds the question, retrieves nearest chunks, and assembles a
// grounded result. Retrieval is best-effort: an empty corpus or a failed
// synthesis call degrades the outcome instead of failing the query. Only a
// malformed request (empty question) or an upstream integration bug
// (dimension mismatch) returns an error.
func (s *QAService) Query(ctx context.Context, question string, topK int) (domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.QueryResult{}, fmt.Errorf("question is empty")
	}
	if topK <= 0 {
		topK = s.deps.TopK
	}

	vectors, err := s.deps.Embedder.Embed(ctx, []string{question})
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.deps.Index.Query(vectors[0], topK)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("query index: %w", err)
	}

	asm := assembler.Assemble(hits, s.deps.Registry)
	if asm.Empty() {
		return domain.QueryResult{Outcome: domain.OutcomeNoContext, Citations: []domain.Citation{}}, nil
	}

	result := domain.QueryResult{
		Outcome:   domain.OutcomeContextOnly,
		Context:   asm.Context(),
		Citations: asm.Citations,
	}
	if s.deps.Synthesizer == nil {
		return result, nil
	}

	answer, err := s.deps.Synthesizer.Answer(ctx, assembler.BuildPrompt(asm, question))
	if err != nil {
		s.log.Warn("answer synthesis failed, returning raw context", slog.Any("error", err))
		return result, nil
	}
	result.Outcome = domain.OutcomeAnswered
	result.Answer = answer
	return result, nil
}
