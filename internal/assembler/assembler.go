package assembler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"documind/internal/domain"
)

// PreviewLimit bounds the text carried into context entries and citations,
// which in turn bounds prompt size and response payload size.
const PreviewLimit = 250

// Assembly is the ranked, de-duplicated, citable form of raw index hits.
type Assembly struct {
	Entries   []string
	Citations []domain.Citation
}

// Empty reports whether nothing relevant survived assembly. Callers use it
// to short-circuit before invoking answer synthesis.
func (a Assembly) Empty() bool { return len(a.Citations) == 0 }

// Context renders the numbered context block fed to synthesis.
func (a Assembly) Context() string { return strings.Join(a.Entries, "\n") }

// Assemble converts distance-ascending hits into numbered context entries
// and citations. A chunk id seen earlier in the hit list is skipped on any
// later occurrence, so ranks are 1-based and contiguous over the
// de-duplicated sequence. A document id missing from the registry labels
// the citation "Unknown File" rather than failing the query.
func Assemble(hits []domain.SearchResult, reg domain.Registry) Assembly {
	var out Assembly
	seen := make(map[string]struct{}, len(hits))

	for _, hit := range hits {
		if _, dup := seen[hit.Meta.ChunkID]; dup {
			continue
		}
		seen[hit.Meta.ChunkID] = struct{}{}

		filename := "Unknown File"
		if doc, ok := reg.Get(hit.Meta.DocumentID); ok {
			filename = doc.Filename
		}

		rank := len(out.Citations) + 1
		preview := Truncate(hit.Meta.Preview, PreviewLimit)
		out.Entries = append(out.Entries, fmt.Sprintf("[%d] %s", rank, preview))
		out.Citations = append(out.Citations, domain.Citation{
			Rank:   rank,
			Source: fmt.Sprintf("%s (ID: %s)", filename, hit.Meta.DocumentID),
			Page:   hit.Meta.Page,
			Score:  hit.Distance,
		})
	}
	return out
}

// BuildPrompt renders the synthesis prompt holding the numbered context
// snippets and the question.
func BuildPrompt(a Assembly, question string) string {
	var b strings.Builder
	b.WriteString("You are DocuMind, an assistant that answers questions based on document content.\n")
	b.WriteString("Use the provided CONTEXT to answer concisely (3-5 lines max).\n")
	b.WriteString("When referencing a source, include only the page number in parentheses (e.g., [Page 8]).\n")
	b.WriteString("Do not include file IDs or long UUIDs in the answer.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(a.Context())
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer clearly and factually.")
	return b.String()
}

// Truncate cuts s to at most limit bytes without splitting a rune.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
