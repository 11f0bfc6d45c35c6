package domain

import (
	"time"
	"unicode/utf8"
)

// Platform is a target publishing destination with a maximum post length.
// The set of platforms is static and defined at build time.
type Platform struct {
	// ID uniquely identifies the platform, e.g. "twitter".
	ID string `json:"id"`

	// DisplayName is the human-readable name used in prompts and listings.
	DisplayName string `json:"display_name"`

	// CharacterLimit is the platform's maximum post length. It is advisory
	// for generation: overlength posts are flagged, never truncated.
	CharacterLimit int `json:"character_limit"`
}

// GeneratedPost is one AI-drafted launch post for a single platform.
type GeneratedPost struct {
	// ProjectID of the owning project.
	ProjectID string `json:"project_id"`

	// PlatformID references a known Platform.
	PlatformID string `json:"platform_id"`

	// Content is the post text as drafted.
	Content string `json:"content"`

	// Reasoning is the model's explanation of its drafting choices.
	Reasoning string `json:"reasoning"`

	// CharacterCount is always recomputed from Content as a rune count;
	// it is never trusted from upstream.
	CharacterCount int `json:"character_count"`

	CreatedAt time.Time `json:"created_at"`
}

// NewGeneratedPost builds a post with its character count computed from the
// content. Counting runes rather than bytes keeps multi-byte content honest.
func NewGeneratedPost(projectID, platformID, content, reasoning string) GeneratedPost {
	return GeneratedPost{
		ProjectID:      projectID,
		PlatformID:     platformID,
		Content:        content,
		Reasoning:      reasoning,
		CharacterCount: utf8.RuneCountInString(content),
		CreatedAt:      time.Now(),
	}
}

// OverLimit reports whether the post exceeds the platform's character limit.
func (p GeneratedPost) OverLimit(platform Platform) bool {
	return p.CharacterCount > platform.CharacterLimit
}
