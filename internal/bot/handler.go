package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"launchkit/internal/config"
	"launchkit/internal/domain"
	"launchkit/internal/pipeline"
	"launchkit/internal/platform"
	"launchkit/internal/scraper"
	"launchkit/internal/storage"
)

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot      *tgbot.Bot
	cfg      config.Config
	repo     storage.Repository
	scraper  scraper.Scraper
	pipeline *pipeline.Pipeline
	log      logrus.FieldLogger
	sessions *sessionRegistry
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, repo storage.Repository, scr scraper.Scraper, pipe *pipeline.Pipeline, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	b, err := tgbot.New(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:      b,
		cfg:      cfg,
		repo:     repo,
		scraper:  scr,
		pipeline: pipe,
		log:      log,
		sessions: newSessionRegistry(),
	}

	h.registerHandlers()

	// Any non-command text is a chat turn against the current project.
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypeContains, h.chatTurnHandler)

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/extract", tgbot.MatchTypePrefix, h.extractHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/platforms", tgbot.MatchTypePrefix, h.platformsHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/generate", tgbot.MatchTypeExact, h.generateHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/posts", tgbot.MatchTypeExact, h.postsHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/projects", tgbot.MatchTypeExact, h.projectsHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/open", tgbot.MatchTypePrefix, h.openHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/delete", tgbot.MatchTypeExact, h.deleteHandler)
	h.log.Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

// startHandler handles the /start command.
func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.log.WithFields(logrus.Fields{
		"user_id": update.Message.From.ID,
		"command": "/start",
	}).Info("Received /start command")

	h.reply(ctx, update, "Welcome to LaunchKit!\n\n"+
		"/extract <url> — pull marketing content from your landing page\n"+
		"/platforms — show or toggle target platforms\n"+
		"/generate — draft launch posts for the selected platforms\n"+
		"/posts — show the current drafts\n"+
		"/projects — list your projects, /open <n> to switch\n"+
		"/delete — delete the current project\n\n"+
		"Anything else you type is a question for the launch assistant.")
}

// extractHandler handles /extract <url>: it fetches the page and stores the
// snapshot on the current project, creating one if needed.
func (h *Handler) extractHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "command": "/extract"})

	url := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/extract"))
	if url == "" {
		h.reply(ctx, update, "Usage: /extract <url>")
		return
	}

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	h.reply(ctx, update, "Extracting content, this can take a few seconds...")

	page, err := h.scraper.Extract(ctx, url)
	if err != nil {
		log.WithError(err).Error("Extraction failed")
		h.reply(ctx, update, h.notice(err, "Could not extract that page."))
		return
	}

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil {
		// No current project: first extraction creates one implicitly.
		project = domain.Project{
			ID:        ulid.Make().String(),
			UserID:    userID,
			CreatedAt: time.Now(),
		}
		for _, p := range platform.All() {
			project.SelectedPlatformIDs = append(project.SelectedPlatformIDs, p.ID)
		}
	}

	project.Page = page
	project.Name = page.Title
	project.UpdatedAt = time.Now()

	if err := h.repo.SaveProject(ctx, project); err != nil {
		// Persistence is best-effort: the in-memory flow continues.
		log.WithError(err).Error("Failed to persist project after extraction")
	}
	sess.projectID = project.ID

	h.reply(ctx, update, fmt.Sprintf("Extracted %q\n%s\n\nSelected platforms: %s\nRun /generate when ready.",
		page.Title, page.URL, strings.Join(project.SelectedPlatformIDs, ", ")))
}

// platformsHandler shows the selection, or toggles one platform when called
// as /platforms <id>.
func (h *Handler) platformsHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "command": "/platforms"})

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil {
		h.reply(ctx, update, "No active project yet. Start with /extract <url>.")
		return
	}

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/platforms"))
	if arg != "" {
		if _, known := platform.Lookup(arg); !known {
			h.reply(ctx, update, fmt.Sprintf("Unknown platform %q.", arg))
			return
		}
		project.TogglePlatform(arg)
		project.UpdatedAt = time.Now()
		if err := h.repo.SaveProject(ctx, project); err != nil {
			log.WithError(err).Error("Failed to persist platform toggle")
		}
	}

	var lines []string
	for _, p := range platform.All() {
		mark := "○"
		if project.HasPlatform(p.ID) {
			mark = "●"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s, limit %d)", mark, p.DisplayName, p.ID, p.CharacterLimit))
	}
	h.reply(ctx, update, "Platforms:\n"+strings.Join(lines, "\n")+"\n\nToggle with /platforms <id>.")
}

// generateHandler runs the post generation pipeline for the current project.
func (h *Handler) generateHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "command": "/generate"})

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil || project.Page == nil {
		h.reply(ctx, update, "Nothing to generate from yet. Start with /extract <url>.")
		return
	}
	if len(project.SelectedPlatformIDs) == 0 {
		h.reply(ctx, update, "No platforms selected. Pick some with /platforms <id>.")
		return
	}

	progressMsg, _ := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("Generating posts... (0/%d)", len(project.SelectedPlatformIDs)),
	})

	opts := pipeline.GenerateOptions{
		Progress: func(completed, total int) {
			if progressMsg == nil {
				return
			}
			_, err := b.EditMessageText(ctx, &tgbot.EditMessageTextParams{
				ChatID:    chatID,
				MessageID: progressMsg.ID,
				Text:      fmt.Sprintf("Generating posts... (%d/%d)", completed, total),
			})
			if err != nil {
				log.WithError(err).Debug("Failed to update progress message")
			}
		},
		Sink: func(post domain.GeneratedPost) error {
			// Store failures must not interrupt the remaining platforms.
			return h.repo.SavePost(ctx, post)
		},
	}

	posts, err := h.pipeline.Generate(ctx, project.ID, project.Page, project.SelectedPlatformIDs, opts)
	if err != nil {
		log.WithError(err).Error("Generation failed")
		h.reply(ctx, update, h.notice(err, "Could not generate posts."))
		return
	}

	project.UpdatedAt = time.Now()
	if err := h.repo.SaveProject(ctx, project); err != nil {
		log.WithError(err).Error("Failed to persist project after generation")
	}

	h.reply(ctx, update, h.renderPosts(posts))
}

// postsHandler shows the stored drafts for the current project.
func (h *Handler) postsHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil {
		h.reply(ctx, update, "No active project yet. Start with /extract <url>.")
		return
	}

	posts, err := h.repo.GetPostsByProject(ctx, project.ID)
	if err != nil {
		h.log.WithError(err).Error("Failed to load posts")
		h.reply(ctx, update, "Could not load your posts.")
		return
	}
	if len(posts) == 0 {
		h.reply(ctx, update, "No posts yet. Run /generate first.")
		return
	}

	h.reply(ctx, update, h.renderPosts(posts))
}

// projectsHandler lists the user's projects, newest update first.
func (h *Handler) projectsHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID

	projects, err := h.repo.ListProjectsByUser(ctx, userID)
	if err != nil {
		h.log.WithError(err).Error("Failed to list projects")
		h.reply(ctx, update, "Could not load your projects.")
		return
	}
	if len(projects) == 0 {
		h.reply(ctx, update, "No projects yet. Start with /extract <url>.")
		return
	}

	var lines []string
	for i, p := range projects {
		name := p.Name
		if name == "" {
			name = "(unnamed)"
		}
		lines = append(lines, fmt.Sprintf("%d. %s — updated %s", i+1, name, p.UpdatedAt.Format("Jan 2 15:04")))
	}
	h.reply(ctx, update, "Your projects:\n"+strings.Join(lines, "\n")+"\n\nSwitch with /open <number>.")
}

// openHandler switches the current project: /open <number from /projects>.
func (h *Handler) openHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/open"))
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 {
		h.reply(ctx, update, "Usage: /open <number> (see /projects)")
		return
	}

	projects, err := h.repo.ListProjectsByUser(ctx, userID)
	if err != nil || n > len(projects) {
		h.reply(ctx, update, "No such project. See /projects.")
		return
	}

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	sess.projectID = projects[n-1].ID
	h.reply(ctx, update, fmt.Sprintf("Switched to %q.", projects[n-1].Name))
}

// deleteHandler deletes the current project and everything under it.
func (h *Handler) deleteHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "command": "/delete"})

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil {
		h.reply(ctx, update, "No active project to delete.")
		return
	}

	if err := h.repo.DeleteProject(ctx, userID, project.ID); err != nil {
		log.WithError(err).Error("Failed to delete project")
		h.reply(ctx, update, "Could not delete the project.")
		return
	}
	sess.projectID = ""
	h.reply(ctx, update, fmt.Sprintf("Deleted %q along with its posts and chat history.", project.Name))
}

// chatTurnHandler treats any non-command text as a question for the launch
// assistant, grounded in the current project's page and posts.
func (h *Handler) chatTurnHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := update.Message.Text
	if strings.HasPrefix(text, "/") {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "kind": "chat"})

	sess, ok := h.sessions.acquire(chatID)
	if !ok {
		h.reply(ctx, update, "Still working on your previous request, one moment.")
		return
	}
	defer h.sessions.release(sess)

	project, err := h.currentProject(ctx, userID, sess)
	if err != nil || project.Page == nil {
		h.reply(ctx, update, "I need a project to talk about. Start with /extract <url>.")
		return
	}

	posts, err := h.repo.GetPostsByProject(ctx, project.ID)
	if err != nil {
		log.WithError(err).Error("Failed to load posts for chat context")
		posts = nil
	}

	reply, err := h.pipeline.Chat(ctx, project.ID, project.Page, posts, text)
	if err != nil {
		log.WithError(err).Error("Chat turn failed")
		// The failed turn leaves the transcript untouched.
		h.reply(ctx, update, h.notice(err, "I couldn't answer that just now, please try again."))
		return
	}

	// Persist the turn only after the assistant reply exists, user message
	// first so the stored order stays causal.
	userMsg := domain.ChatMessage{
		ProjectID: project.ID,
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: reply.Timestamp.Add(-time.Millisecond),
	}
	if err := h.repo.AppendMessage(ctx, userMsg); err != nil {
		log.WithError(err).Error("Failed to persist user message")
	}
	if err := h.repo.AppendMessage(ctx, reply); err != nil {
		log.WithError(err).Error("Failed to persist assistant message")
	}

	h.reply(ctx, update, reply.Content)
}

// currentProject loads the session's project, falling back to the user's
// most recently updated one.
func (h *Handler) currentProject(ctx context.Context, userID int64, sess *session) (domain.Project, error) {
	if sess.projectID != "" {
		project, err := h.repo.GetProject(ctx, userID, sess.projectID)
		if err == nil {
			return project, nil
		}
	}
	projects, err := h.repo.ListProjectsByUser(ctx, userID)
	if err != nil || len(projects) == 0 {
		return domain.Project{}, storage.ErrNotFound
	}
	sess.projectID = projects[0].ID
	return projects[0], nil
}

// renderPosts formats drafts for display, flagging overlength content. The
// limit is advisory: content is flagged, never truncated.
func (h *Handler) renderPosts(posts []domain.GeneratedPost) string {
	var b strings.Builder
	for i, post := range posts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		plat, ok := platform.Lookup(post.PlatformID)
		name := post.PlatformID
		if ok {
			name = plat.DisplayName
		}
		fmt.Fprintf(&b, "— %s (%d chars", name, post.CharacterCount)
		if ok && post.OverLimit(plat) {
			fmt.Fprintf(&b, ", over the %d limit!", plat.CharacterLimit)
		}
		b.WriteString(") —\n")
		b.WriteString(post.Content)
		if post.Reasoning != "" {
			fmt.Fprintf(&b, "\n\nWhy: %s", post.Reasoning)
		}
	}
	return b.String()
}

// notice maps an internal error to a short human-readable message. Internal
// identifiers and stack traces never reach the user.
func (h *Handler) notice(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "That request was missing something. Check the input and try again."
	case errors.Is(err, domain.ErrExtraction):
		return "I couldn't read that page. Check the URL and try again."
	case errors.Is(err, domain.ErrGeneration):
		return "Post generation failed. Please try again in a moment."
	case errors.Is(err, domain.ErrChat):
		return "I couldn't answer that just now, please try again."
	default:
		return fallback
	}
}

// reply sends a plain text message back to the chat the update came from.
func (h *Handler) reply(ctx context.Context, update *models.Update, text string) {
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to send message")
	}
}
