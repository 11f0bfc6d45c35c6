package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"launchkit/internal/ai"
	"launchkit/internal/domain"
	"launchkit/internal/platform"
)

// contentPromptBudget is how much page content goes into a generation
// prompt. The remainder is discarded, not summarized; this is a token budget
// control, not a data-integrity concern.
const contentPromptBudget = 2000

// Pipeline turns one extracted page into platform-tailored launch posts and
// answers follow-up questions about them. It is pure transformation:
// persistence happens through the optional sink hook, never inside.
type Pipeline struct {
	gen ai.Generator
	log logrus.FieldLogger
}

// NewPipeline creates a pipeline backed by the given AI generator.
func NewPipeline(gen ai.Generator, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		gen: gen,
		log: logger.WithField("component", "pipeline"),
	}
}

// GenerateOptions carries the optional hooks for a generation run.
type GenerateOptions struct {
	// Progress is invoked after each platform completes with the counts
	// (completed, total). Observability aid only.
	Progress func(completed, total int)

	// Sink receives each post as it is emitted. A sink failure is logged
	// and never interrupts generation of the remaining platforms.
	Sink func(post domain.GeneratedPost) error
}

// Generate drafts one post per platform id, in the given order. Platform ids
// that do not resolve are skipped with a warning; a failed AI call skips
// that platform and continues with its siblings. The returned sequence
// preserves the input order.
func (p *Pipeline) Generate(ctx context.Context, projectID string, page *domain.ExtractedPage, platformIDs []string, opts GenerateOptions) ([]domain.GeneratedPost, error) {
	if page == nil {
		return nil, fmt.Errorf("%w: no extracted page to generate from", domain.ErrInvalidInput)
	}
	if len(platformIDs) == 0 {
		return nil, fmt.Errorf("%w: no platforms selected", domain.ErrInvalidInput)
	}

	log := p.log.WithFields(logrus.Fields{
		"project_id": projectID,
		"url":        page.URL,
	})
	log.WithField("platform_count", len(platformIDs)).Info("Starting post generation")

	total := len(platformIDs)
	posts := make([]domain.GeneratedPost, 0, total)
	var lastErr error

	for i, id := range platformIDs {
		plat, ok := platform.Lookup(id)
		if !ok {
			log.WithField("platform_id", id).Warn("Unknown platform id, skipping")
			reportProgress(opts.Progress, i+1, total)
			continue
		}

		raw, err := p.gen.GenerateText(ctx, buildGenerationPrompt(plat, page))
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: %v", domain.ErrGeneration, id, err)
			log.WithError(err).WithField("platform_id", id).Error("Generation call failed, skipping platform")
			reportProgress(opts.Progress, i+1, total)
			continue
		}

		reply := Normalize(raw)
		post := domain.NewGeneratedPost(projectID, id, reply.Content, reply.Reasoning)
		posts = append(posts, post)

		if opts.Sink != nil {
			if err := opts.Sink(post); err != nil {
				log.WithError(err).WithField("platform_id", id).Error("Post sink failed, continuing")
			}
		}
		reportProgress(opts.Progress, i+1, total)
	}

	if len(posts) == 0 && lastErr != nil {
		return nil, lastErr
	}

	log.WithField("post_count", len(posts)).Info("Post generation completed")
	return posts, nil
}

func reportProgress(progress func(completed, total int), completed, total int) {
	if progress != nil {
		progress(completed, total)
	}
}

// buildGenerationPrompt embeds the platform constraints and the page
// snapshot into one instruction requesting a JSON-shaped answer.
func buildGenerationPrompt(plat domain.Platform, page *domain.ExtractedPage) string {
	var b strings.Builder
	b.WriteString("You are an expert launch copywriter. Draft a launch announcement post for the platform below.\n\n")
	fmt.Fprintf(&b, "Platform: %s\n", plat.DisplayName)
	fmt.Fprintf(&b, "Character limit: %d\n\n", plat.CharacterLimit)
	fmt.Fprintf(&b, "Product title: %s\n", page.Title)
	fmt.Fprintf(&b, "Product description: %s\n", page.Description)
	fmt.Fprintf(&b, "Product URL: %s\n\n", page.URL)
	fmt.Fprintf(&b, "Page content:\n%s\n\n", truncateRunes(page.ContentMarkdown, contentPromptBudget))
	b.WriteString("Match the platform's tone and stay within the character limit. ")
	b.WriteString(`Respond with a JSON object of the form {"content": "...", "reasoning": "..."} `)
	b.WriteString("where content is the post text and reasoning briefly explains your drafting choices.")
	return b.String()
}

// truncateRunes cuts s to at most n runes. Cutting on runes rather than
// bytes keeps multi-byte content from being split mid-character.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
