package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/domain"
)

func TestChat_EmptyUserText(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Chat(context.Background(), "proj1", testPage(), nil, "   \n\t  ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gen.prompts, "precondition failure must not issue AI calls")
}

func TestChat_NilPage(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Chat(context.Background(), "proj1", nil, nil, "how do I improve the hook?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gen.prompts)
}

func TestChat_ReturnsAssistantMessage(t *testing.T) {
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return "Lead with the outcome, not the feature list.", nil
		},
	}
	p := NewPipeline(gen, testLogger())

	msg, err := p.Chat(context.Background(), "proj1", testPage(), nil, "how do I improve the hook?")

	require.NoError(t, err)
	assert.Equal(t, "proj1", msg.ProjectID)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Equal(t, "Lead with the outcome, not the feature list.", msg.Content)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestChat_PromptIncludesPageAndPosts(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	posts := []domain.GeneratedPost{
		domain.NewGeneratedPost("proj1", "twitter", "We launched!", "r1"),
		domain.NewGeneratedPost("proj1", "linkedin", "Proud to announce...", "r2"),
	}

	_, err := p.Chat(context.Background(), "proj1", testPage(), posts, "shorten the twitter one")

	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Acme")
	assert.Contains(t, prompt, "https://acme.io")
	assert.Contains(t, prompt, "twitter: We launched!")
	assert.Contains(t, prompt, "linkedin: Proud to announce...")
	assert.Contains(t, prompt, "shorten the twitter one")
	assert.Contains(t, prompt, "product-launch expert")
}

func TestChat_UpstreamFailure(t *testing.T) {
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	p := NewPipeline(gen, testLogger())

	_, err := p.Chat(context.Background(), "proj1", testPage(), nil, "any tips?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChat)
}
