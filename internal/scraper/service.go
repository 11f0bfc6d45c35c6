package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"launchkit/internal/domain"
)

// RodScraper implements the Scraper interface using the rod library.
type RodScraper struct {
	log logrus.FieldLogger
}

// NewRodScraper creates a new scraper service instance.
func NewRodScraper(logger logrus.FieldLogger) *RodScraper {
	return &RodScraper{
		log: logger.WithField("component", "scraper"),
	}
}

// Extract fetches the page at url and builds an ExtractedPage snapshot.
func (s *RodScraper) Extract(ctx context.Context, url string) (page *domain.ExtractedPage, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url must not be empty", domain.ErrInvalidInput)
	}

	log := s.log.WithField("url", url)
	log.Info("Attempting to extract page content")

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return nil, fmt.Errorf("%w: rod browser dependency not found", domain.ErrExtraction)
	}
	u := launcher.New().Bin(path).MustLaunch()
	browser := rod.New().ControlURL(u)
	if cerr := browser.Connect(); cerr != nil {
		log.WithError(cerr).Error("Failed to connect to rod browser")
		return nil, fmt.Errorf("%w: failed to connect to browser: %v", domain.ErrExtraction, cerr)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
			if err == nil {
				err = fmt.Errorf("%w: error closing browser: %v", domain.ErrExtraction, closeErr)
				page = nil
			}
		}
	}()

	var p *rod.Page
	p, err = browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return nil, fmt.Errorf("%w: failed to create page: %v", domain.ErrExtraction, err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod page")
		}
	}()

	// Bound the whole page load and scrape to one timeout.
	pageCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	p = p.Context(pageCtx)

	if err = p.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Extraction timed out")
			return nil, fmt.Errorf("%w: extraction timed out for %s", domain.ErrExtraction, url)
		}
		log.WithError(err).Error("Failed to wait for page load")
		return nil, fmt.Errorf("%w: failed waiting for page load: %v", domain.ErrExtraction, err)
	}

	title := s.extractTitle(p, log)
	description, meta := s.extractMetadata(p, log)
	content := s.extractContent(p, log)

	log.WithField("title", title).Info("Page extraction completed successfully")
	return &domain.ExtractedPage{
		URL:             url,
		Title:           title,
		Description:     description,
		ContentMarkdown: content,
		RawMetadata:     meta,
		FetchedAt:       time.Now(),
	}, nil
}

// extractTitle reads the title element, falling back to "Untitled" when the
// page carries none.
func (s *RodScraper) extractTitle(p *rod.Page, log logrus.FieldLogger) string {
	titleElement, err := p.Element("title")
	if err != nil {
		log.WithError(err).Warn("Could not find title element")
		return "Untitled"
	}
	title, err := titleElement.Text()
	if err != nil {
		log.WithError(err).Warn("Failed to get text from title element")
		return "Untitled"
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled"
	}
	log.WithField("title", title).Debug("Extracted title")
	return title
}

// extractMetadata collects the meta description plus any other interesting
// meta tags. The description falls back through common selectors and ends
// up empty when none match.
func (s *RodScraper) extractMetadata(p *rod.Page, log logrus.FieldLogger) (string, map[string]string) {
	meta := make(map[string]string)

	selectors := map[string]string{
		"description":    `meta[name="description"]`,
		"og:description": `meta[property="og:description"]`,
		"og:title":       `meta[property="og:title"]`,
		"og:image":       `meta[property="og:image"]`,
		"og:site_name":   `meta[property="og:site_name"]`,
	}
	for name, selector := range selectors {
		el, err := p.Element(selector)
		if err != nil {
			continue
		}
		content, err := el.Attribute("content")
		if err != nil || content == nil {
			continue
		}
		if v := strings.TrimSpace(*content); v != "" {
			meta[name] = v
		}
	}

	description := meta["description"]
	if description == "" {
		description = meta["og:description"]
	}
	if description == "" {
		log.Warn("Could not find description meta tag")
	} else {
		log.WithField("description", description).Debug("Extracted description")
	}
	return description, meta
}

// extractContent pulls the readable body text. Rendered innerText is close
// enough to markdown for prompt material; the pipeline truncates it anyway.
func (s *RodScraper) extractContent(p *rod.Page, log logrus.FieldLogger) string {
	body, err := p.Element("body")
	if err != nil {
		log.WithError(err).Warn("Could not find body element")
		return ""
	}
	text, err := body.Text()
	if err != nil {
		log.WithError(err).Warn("Failed to get text from body element")
		return ""
	}
	return strings.TrimSpace(text)
}
