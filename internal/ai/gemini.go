package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiGenerator implements Generator using the Google GenAI API. A primary
// model is tried first; on rate-limit or not-found errors it falls back to
// the lighter models in order.
type GeminiGenerator struct {
	client *genai.Client
	models []string
	log    logrus.FieldLogger
}

// NewGeminiGenerator creates a Generator backed by the Gemini API. The model
// argument becomes the primary; well-known lighter models serve as fallback.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, logger logrus.FieldLogger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	models := []string{model}
	if model != "gemini-2.5-flash-lite" {
		models = append(models, "gemini-2.5-flash-lite")
	}

	return &GeminiGenerator{
		client: client,
		models: models,
		log:    logger.WithField("component", "ai"),
	}, nil
}

// GenerateText sends the prompt to the first available model and returns the
// text of the first candidate.
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for _, model := range g.models {
		result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			if isRetryableModelError(err) {
				g.log.WithError(err).WithField("model", model).Warn("Model unavailable, trying fallback")
				lastErr = err
				continue
			}
			return "", err
		}

		if result != nil && len(result.Candidates) > 0 &&
			result.Candidates[0].Content != nil && len(result.Candidates[0].Content.Parts) > 0 {
			return result.Candidates[0].Content.Parts[0].Text, nil
		}
		lastErr = fmt.Errorf("model %s returned no candidates", model)
	}

	return "", fmt.Errorf("all models failed: %w", lastErr)
}

// isRetryableModelError reports whether the error is worth retrying on a
// fallback model rather than surfacing immediately.
func isRetryableModelError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "exhausted") ||
		strings.Contains(s, "404") ||
		strings.Contains(s, "not found")
}
