package domain

import "time"

// ExtractedPage is a snapshot of a website's marketing content, produced by
// one extraction call. It is immutable once created; a new extraction
// replaces the snapshot wholesale rather than mutating it.
type ExtractedPage struct {
	// URL the page was fetched from.
	URL string `json:"url"`

	// Title extracted from the page, or the literal "Untitled" when the
	// page carries none.
	Title string `json:"title"`

	// Description from the meta description (or Open Graph) tag; empty
	// when absent.
	Description string `json:"description"`

	// ContentMarkdown is the readable page content used as prompt material.
	ContentMarkdown string `json:"content_markdown"`

	// RawMetadata holds any additional extracted metadata keyed by name.
	RawMetadata map[string]string `json:"raw_metadata,omitempty"`

	// FetchedAt indicates when the extraction ran.
	FetchedAt time.Time `json:"fetched_at"`
}

// Project groups one extracted page with the platforms selected for it, the
// posts generated from it, and its chat history. Posts and messages are
// stored separately, keyed by the project ID.
type Project struct {
	// ID is a ULID; it sorts lexicographically by creation time.
	ID string `json:"id"`

	// UserID is the Telegram user the project belongs to.
	UserID int64 `json:"user_id"`

	// Name is a short human label, defaulted from the page title.
	Name string `json:"name"`

	// Page is the current extraction snapshot; nil before the first
	// successful extraction.
	Page *ExtractedPage `json:"page,omitempty"`

	// SelectedPlatformIDs in insertion order. Order determines generation
	// order, so it must stay stable.
	SelectedPlatformIDs []string `json:"selected_platform_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPlatform reports whether the platform is currently selected.
func (p *Project) HasPlatform(platformID string) bool {
	for _, id := range p.SelectedPlatformIDs {
		if id == platformID {
			return true
		}
	}
	return false
}

// TogglePlatform adds the platform to the selection, or removes it if
// already present. Insertion order of the remaining entries is preserved.
func (p *Project) TogglePlatform(platformID string) {
	for i, id := range p.SelectedPlatformIDs {
		if id == platformID {
			p.SelectedPlatformIDs = append(p.SelectedPlatformIDs[:i], p.SelectedPlatformIDs[i+1:]...)
			return
		}
	}
	p.SelectedPlatformIDs = append(p.SelectedPlatformIDs, platformID)
}
