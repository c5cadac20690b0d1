package retrieve

import (
	"context"
	"log"
	"strings"
)

// Document is one retrieved legal passage, post-processed for generation.
type Document struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"` // act / law name
	Section   string  `json:"section"`
	Chapter   string  `json:"chapter"`
	Content   string  `json:"content"`
	SourceURL string  `json:"source_url"`
	Domain    string  `json:"domain"`
	Score     float64 `json:"relevance_score"`
	Citation  string  `json:"citation"`
}

// Searcher is the similarity-search collaborator. The index implementation
// is opaque to the pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, k int, domainFilter string, scoreThreshold float64) ([]Document, error)
}

const fingerprintLength = 200

// Retriever queries the search collaborator and post-processes results.
type Retriever struct {
	searcher       Searcher
	k              int
	scoreThreshold float64
	logger         *log.Logger
}

func NewRetriever(searcher Searcher, k int, scoreThreshold float64, logger *log.Logger) *Retriever {
	if k <= 0 {
		k = 5
	}
	return &Retriever{
		searcher:       searcher,
		k:              k,
		scoreThreshold: scoreThreshold,
		logger:         logger,
	}
}

// Retrieve builds the enhanced query and fetches matching documents.
// Collaborator failures degrade to an empty result set, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query, domain, subDomain string) []Document {
	enhanced := buildQuery(query, domain, subDomain)

	domainFilter := domain
	if domainFilter == "Unknown" {
		domainFilter = ""
	}

	docs, err := r.searcher.Search(ctx, enhanced, r.k, domainFilter, r.scoreThreshold)
	if err != nil {
		r.logger.Printf("[ERROR] Retrieval failed: %v", err)
		return nil
	}

	docs = dedupe(docs)
	for i := range docs {
		docs[i].Content = cleanContent(docs[i].Content)
		docs[i].Citation = formatCitation(docs[i])
	}

	r.logger.Printf("[RETRIEVE] %d documents for query: %s", len(docs), truncate(enhanced, 50))
	return docs
}

// buildQuery concatenates the raw text with classification terms and fixed
// procedure-oriented keywords.
func buildQuery(base, domain, subDomain string) string {
	parts := []string{base}
	if domain != "" && domain != "Unknown" {
		parts = append(parts, domain)
	}
	if subDomain != "" && subDomain != "Unknown" {
		parts = append(parts, subDomain)
	}
	parts = append(parts, "procedure", "process", "India")
	return strings.Join(parts, " ")
}

// dedupe removes documents whose content shares a fingerprint, keeping the
// first (highest ranked) occurrence.
func dedupe(docs []Document) []Document {
	seen := make(map[string]bool, len(docs))
	out := docs[:0]
	for _, doc := range docs {
		fp := fingerprint(doc.Content)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, doc)
	}
	return out
}

func fingerprint(content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	if len(normalized) > fingerprintLength {
		normalized = normalized[:fingerprintLength]
	}
	return normalized
}

// cleanContent strips residual page-number and whitespace artifacts left by
// document ingestion.
func cleanContent(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isPageArtifact(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func isPageArtifact(line string) bool {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "page ") && len(line) < 12 {
		return true
	}
	// bare page numbers
	if len(line) <= 4 {
		for _, ch := range line {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		return true
	}
	return false
}

// formatCitation builds a best-effort citation string from the document's
// act, section, and chapter.
func formatCitation(doc Document) string {
	title := doc.Title
	if title == "" {
		title = "Legal Document"
	}

	var b strings.Builder
	b.WriteString(title)
	if doc.Section != "" {
		b.WriteString(", Section ")
		b.WriteString(doc.Section)
	}
	if doc.Chapter != "" {
		b.WriteString(", Chapter ")
		b.WriteString(doc.Chapter)
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
