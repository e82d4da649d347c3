// Package enrich provides the best-effort enrichment collaborators:
// image sourcing and SEO metadata generation. Failures here degrade the
// task (the field stays empty) but never abort the pipeline.
package enrich

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// SEOBuilder produces search metadata for finished content. Returns nil
// on failure; it never raises into the pipeline.
type SEOBuilder interface {
	Build(title, content string) *models.SEOMetadata
}

// MarkdownSEOBuilder derives metadata from the content's markdown
// structure: the description comes from the first paragraph of prose,
// keywords from term frequency.
type MarkdownSEOBuilder struct {
	md goldmark.Markdown
}

// NewMarkdownSEOBuilder creates a MarkdownSEOBuilder.
func NewMarkdownSEOBuilder() *MarkdownSEOBuilder {
	return &MarkdownSEOBuilder{md: goldmark.New()}
}

// maxDescriptionLen bounds the meta description, per common SERP limits.
const maxDescriptionLen = 160

// Build implements SEOBuilder.
func (b *MarkdownSEOBuilder) Build(title, content string) *models.SEOMetadata {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	firstPara, plain := b.extract(content)
	if plain == "" {
		return nil
	}

	description := firstPara
	if description == "" {
		description = plain
	}
	if len(description) > maxDescriptionLen {
		cut := description[:maxDescriptionLen]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		description = cut + "…"
	}

	return &models.SEOMetadata{
		Title:       title,
		Description: description,
		Keywords:    ExtractKeywords(plain, 8),
	}
}

// extract parses the markdown and returns the first paragraph's plain
// text plus the full plain text.
func (b *MarkdownSEOBuilder) extract(content string) (string, string) {
	source := []byte(content)
	doc := b.md.Parser().Parse(text.NewReader(source))

	var firstPara string
	var full strings.Builder

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if para, ok := n.(*ast.Paragraph); ok {
			var sb strings.Builder
			for c := para.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(source))
					sb.WriteByte(' ')
				}
			}
			paraText := strings.TrimSpace(sb.String())
			if paraText != "" {
				if firstPara == "" {
					firstPara = paraText
				}
				full.WriteString(paraText)
				full.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return firstPara, strings.TrimSpace(full.String())
}

// stopwords are excluded from keyword extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "are": true, "was": true, "have": true, "has": true,
	"from": true, "they": true, "their": true, "will": true, "would": true,
	"can": true, "could": true, "should": true, "about": true, "into": true,
	"when": true, "where": true, "which": true, "also": true, "more": true,
	"been": true, "were": true, "than": true, "its": true, "your": true,
	"you": true, "our": true, "not": true, "but": true, "all": true,
}

// ExtractKeywords returns up to limit keywords by descending frequency.
// Ties break alphabetically so the output is deterministic.
func ExtractKeywords(plain string, limit int) []string {
	freq := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(plain)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) < 4 || stopwords[w] {
			continue
		}
		freq[w]++
	}

	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(freq))
	for w, c := range freq {
		entries = append(entries, entry{w, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	keywords := make([]string, len(entries))
	for i, e := range entries {
		keywords[i] = e.word
	}
	return keywords
}
