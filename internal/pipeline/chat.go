package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"launchkit/internal/domain"
)

// chatPersona is the fixed instruction prefixing every chat turn.
const chatPersona = "You are a product-launch expert helping refine launch announcement posts. " +
	"Give direct, practical advice grounded in the project context below."

// Chat answers one freeform question about the project. It issues a single
// completion call grounded in the extracted page and the current posts, and
// returns exactly one assistant message. A failed call aborts only this
// turn; the transcript is left for the caller to manage.
func (p *Pipeline) Chat(ctx context.Context, projectID string, page *domain.ExtractedPage, posts []domain.GeneratedPost, userText string) (domain.ChatMessage, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}
	if page == nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: no extracted page to ground the conversation", domain.ErrInvalidInput)
	}

	log := p.log.WithField("project_id", projectID)
	log.Info("Starting chat turn")

	raw, err := p.gen.GenerateText(ctx, buildChatPrompt(page, posts, userText))
	if err != nil {
		log.WithError(err).Error("Chat call failed")
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", domain.ErrChat, err)
	}

	log.Info("Chat turn completed")
	return domain.ChatMessage{
		ProjectID: projectID,
		Role:      domain.RoleAssistant,
		Content:   strings.TrimSpace(raw),
		Timestamp: time.Now(),
	}, nil
}

// buildChatPrompt concatenates the page summary and every post into one
// context block ahead of the user's question.
func buildChatPrompt(page *domain.ExtractedPage, posts []domain.GeneratedPost, userText string) string {
	var blocks []string
	blocks = append(blocks, fmt.Sprintf("Project: %s\nURL: %s", page.Title, page.URL))
	for _, post := range posts {
		blocks = append(blocks, fmt.Sprintf("%s: %s", post.PlatformID, post.Content))
	}

	var b strings.Builder
	b.WriteString(chatPersona)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(userText)
	return b.String()
}
