package scraper

import (
	"context"

	"launchkit/internal/domain"
)

// Scraper defines the interface for extracting marketing content from a URL.
type Scraper interface {
	// Extract fetches the page at url and returns its content snapshot:
	// title, description, and readable body text. Every call re-fetches;
	// there is no caching. A failed extraction must leave any previously
	// held snapshot untouched at the caller.
	Extract(ctx context.Context, url string) (*domain.ExtractedPage, error)
}
