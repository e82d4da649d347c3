package enrich

import (
	"net/url"
	"strings"
)

// ImageFinder sources a representative image for the content. An empty
// string means no image was found; implementations never fail the
// pipeline.
type ImageFinder interface {
	FindImage(topic string, keywords []string) string
}

// StockImageFinder builds a search reference against a stock-photo
// provider from the topic and keywords. It does no network I/O; the
// returned reference is resolved at render time.
type StockImageFinder struct {
	// BaseURL is the provider search endpoint.
	BaseURL string
}

// NewStockImageFinder creates a StockImageFinder with the default
// provider.
func NewStockImageFinder() *StockImageFinder {
	return &StockImageFinder{BaseURL: "https://images.example.com/search"}
}

// FindImage implements ImageFinder.
func (f *StockImageFinder) FindImage(topic string, keywords []string) string {
	terms := strings.Fields(strings.ToLower(topic))
	if len(keywords) > 0 {
		terms = append(terms, keywords[0])
	}
	if len(terms) == 0 {
		return ""
	}

	q := url.Values{}
	q.Set("query", strings.Join(terms, ","))
	return f.BaseURL + "?" + q.Encode()
}
