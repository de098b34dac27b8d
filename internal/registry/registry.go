package registry

import (
	"sort"
	"sync"

	"documind/internal/domain"
)

// Store is an in-memory document registry. It replaces ambient process-wide
// state with an explicit object handed to the components that need it, so
// independent pipelines (and tests) can hold independent registries.
type Store struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// New creates an empty registry.
func New() *Store {
	return &Store{docs: make(map[string]domain.Document)}
}

// Put records an uploaded document. Documents are written once at upload
// time; a re-upload arrives under a fresh id.
func (s *Store) Put(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// Get resolves a document id to its upload metadata.
func (s *Store) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// List returns all documents ordered by upload time, oldest first.
func (s *Store) List() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
