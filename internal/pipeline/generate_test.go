package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/domain"
)

// stubGenerator records prompts and answers from a scripted function.
type stubGenerator struct {
	prompts []string
	reply   func(prompt string) (string, error)
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.reply != nil {
		return s.reply(prompt)
	}
	return `{"content":"stub post","reasoning":"stub reasoning"}`, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testPage() *domain.ExtractedPage {
	return &domain.ExtractedPage{
		URL:             "https://acme.io",
		Title:           "Acme",
		Description:     "Widgets",
		ContentMarkdown: "Acme makes the best widgets on the market.",
	}
}

func TestGenerate_NilPage(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Generate(context.Background(), "proj1", nil, []string{"twitter"}, GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gen.prompts, "precondition failure must not issue AI calls")
}

func TestGenerate_EmptyPlatformSet(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Generate(context.Background(), "proj1", testPage(), nil, GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gen.prompts, "precondition failure must not issue AI calls")
}

func TestGenerate_OutputOrderMatchesInputOrder(t *testing.T) {
	gen := &stubGenerator{
		reply: func(prompt string) (string, error) {
			// Vary content per platform so order is observable.
			if strings.Contains(prompt, "Platform: Twitter") {
				return `{"content":"tweet","reasoning":"r1"}`, nil
			}
			return `{"content":"linkedin post","reasoning":"r2"}`, nil
		},
	}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter", "linkedin"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "twitter", posts[0].PlatformID)
	assert.Equal(t, "linkedin", posts[1].PlatformID)
	assert.Equal(t, "tweet", posts[0].Content)
	assert.Equal(t, "linkedin post", posts[1].Content)
}

func TestGenerate_ProductHuntScenario(t *testing.T) {
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return `{"content":"Launching Acme!","reasoning":"Short punchy hook"}`, nil
		},
	}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"producthunt"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "producthunt", posts[0].PlatformID)
	assert.Equal(t, "Launching Acme!", posts[0].Content)
	assert.Equal(t, "Short punchy hook", posts[0].Reasoning)
	assert.Equal(t, 15, posts[0].CharacterCount)
}

func TestGenerate_PlainTextReplyFallsBack(t *testing.T) {
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return "Just buy our widgets", nil
		},
	}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Just buy our widgets", posts[0].Content)
	assert.Equal(t, DefaultReasoning, posts[0].Reasoning)
}

func TestGenerate_CharacterCountIsRuneAccurate(t *testing.T) {
	content := "🚀 Łaunch dçjà vu 日本語"
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return fmt.Sprintf(`{"content":%q,"reasoning":"unicode"}`, content), nil
		},
	}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, utf8.RuneCountInString(content), posts[0].CharacterCount)
	assert.NotEqual(t, len(content), posts[0].CharacterCount, "byte length would over-count this content")
}

func TestGenerate_PromptEmbedsPlatformAndPage(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Generate(context.Background(), "proj1", testPage(), []string{"linkedin"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Platform: LinkedIn")
	assert.Contains(t, prompt, "Character limit: 3000")
	assert.Contains(t, prompt, "Acme")
	assert.Contains(t, prompt, "Widgets")
	assert.Contains(t, prompt, "https://acme.io")
}

func TestGenerate_ContentTruncatedToPromptBudget(t *testing.T) {
	page := testPage()
	page.ContentMarkdown = strings.Repeat("é", 3000)
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	_, err := p.Generate(context.Background(), "proj1", page, []string{"twitter"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], strings.Repeat("é", contentPromptBudget))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("é", contentPromptBudget+1))
}

func TestGenerate_FailedPlatformIsSkipped(t *testing.T) {
	gen := &stubGenerator{
		reply: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Platform: Twitter") {
				return "", errors.New("upstream exploded")
			}
			return `{"content":"still here","reasoning":"r"}`, nil
		},
	}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter", "linkedin"}, GenerateOptions{})

	require.NoError(t, err, "one failed platform must not fail the batch")
	require.Len(t, posts, 1)
	assert.Equal(t, "linkedin", posts[0].PlatformID)
}

func TestGenerate_AllPlatformsFailed(t *testing.T) {
	gen := &stubGenerator{
		reply: func(string) (string, error) {
			return "", errors.New("upstream exploded")
		},
	}
	p := NewPipeline(gen, testLogger())

	_, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter", "linkedin"}, GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestGenerate_UnknownPlatformSkippedWithoutCall(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"myspace", "twitter"}, GenerateOptions{})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "twitter", posts[0].PlatformID)
	assert.Len(t, gen.prompts, 1, "unknown platform must not issue an AI call")
}

func TestGenerate_ProgressReportedPerPlatform(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	var reports [][2]int
	opts := GenerateOptions{
		Progress: func(completed, total int) {
			reports = append(reports, [2]int{completed, total})
		},
	}

	_, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter", "linkedin", "reddit"}, opts)

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, reports)
}

func TestGenerate_SinkFailureDoesNotInterrupt(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, testLogger())

	var sunk []string
	opts := GenerateOptions{
		Sink: func(post domain.GeneratedPost) error {
			sunk = append(sunk, post.PlatformID)
			return errors.New("store is down")
		},
	}

	posts, err := p.Generate(context.Background(), "proj1", testPage(), []string{"twitter", "linkedin"}, opts)

	require.NoError(t, err, "sink failures are logged, never propagated")
	assert.Len(t, posts, 2)
	assert.Equal(t, []string{"twitter", "linkedin"}, sunk)
}
