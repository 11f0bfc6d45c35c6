package platform

import "launchkit/internal/domain"

// The canonical platform table. Fixed at build time; declaration order is
// the order All returns, which keeps listings deterministic.
var registry = []domain.Platform{
	{ID: "producthunt", DisplayName: "Product Hunt", CharacterLimit: 260},
	{ID: "twitter", DisplayName: "Twitter", CharacterLimit: 280},
	{ID: "linkedin", DisplayName: "LinkedIn", CharacterLimit: 3000},
	{ID: "reddit", DisplayName: "Reddit", CharacterLimit: 40000},
}

// Lookup returns the platform for the given id, if known.
func Lookup(id string) (domain.Platform, bool) {
	for _, p := range registry {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Platform{}, false
}

// All returns the canonical platforms in declaration order. The returned
// slice is a copy; callers may reorder it freely.
func All() []domain.Platform {
	out := make([]domain.Platform, len(registry))
	copy(out, registry)
	return out
}
