package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGeneratedPost_CharacterCount(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"ascii", "Launching Acme!", 15},
		{"empty", "", 0},
		{"emoji and accents", "🚀 déjà vu", 9},
		{"cjk", "日本語のポスト", 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := NewGeneratedPost("p1", "twitter", tc.content, "r")
			assert.Equal(t, tc.want, post.CharacterCount)
		})
	}
}

func TestGeneratedPost_OverLimit(t *testing.T) {
	plat := Platform{ID: "twitter", DisplayName: "Twitter", CharacterLimit: 5}

	assert.False(t, NewGeneratedPost("p1", "twitter", "12345", "r").OverLimit(plat))
	assert.True(t, NewGeneratedPost("p1", "twitter", "123456", "r").OverLimit(plat))
}

func TestProject_TogglePlatform(t *testing.T) {
	p := &Project{}

	p.TogglePlatform("twitter")
	p.TogglePlatform("linkedin")
	p.TogglePlatform("reddit")
	assert.Equal(t, []string{"twitter", "linkedin", "reddit"}, p.SelectedPlatformIDs)

	// Toggling off preserves the order of the rest.
	p.TogglePlatform("linkedin")
	assert.Equal(t, []string{"twitter", "reddit"}, p.SelectedPlatformIDs)

	// Toggling back on appends at the end.
	p.TogglePlatform("linkedin")
	assert.Equal(t, []string{"twitter", "reddit", "linkedin"}, p.SelectedPlatformIDs)
	assert.True(t, p.HasPlatform("linkedin"))
	assert.False(t, p.HasPlatform("producthunt"))
}
