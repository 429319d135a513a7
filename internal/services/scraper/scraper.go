package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/interfaces"
	"github.com/dealscope/dealscope/internal/models"
)

// maxContainers bounds how many matched page sections feed the extractor.
const maxContainers = 10

var (
	priceClassRe = regexp.MustCompile(`(?i)price|pricing|cost|msrp|sale|offer|payment`)
	infoClassRe  = regexp.MustCompile(`(?i)vehicle|details|specs|info|vin`)
)

// FetchError reports an unreachable or non-2xx detail page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to scrape VDP %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Scraper fetches vehicle detail pages, reduces them to the sections that
// carry pricing and vehicle data, and delegates extraction to the AI
// boundary. Implements interfaces.RecordExtractor.
type Scraper struct {
	client      *http.Client
	extractor   interfaces.VehicleExtractor
	archive     interfaces.PageArchive
	config      common.ScraperConfig
	mdConverter *md.Converter
	logger      arbor.ILogger
}

// NewScraper creates a scraper. archive may be nil to disable page
// archiving.
func NewScraper(client *http.Client, extractor interfaces.VehicleExtractor, archive interfaces.PageArchive, config common.ScraperConfig, logger arbor.ILogger) *Scraper {
	return &Scraper{
		client:      client,
		extractor:   extractor,
		archive:     archive,
		config:      config,
		mdConverter: md.NewConverter("", true, nil),
		logger:      logger,
	}
}

// Extract fetches one detail page and classifies the extraction outcome.
// Fetch and extraction failures are converted to failed outcomes; they never
// propagate as errors because a failed item must not halt the competitor's
// run.
func (s *Scraper) Extract(ctx context.Context, pageURL, competitor string) models.Outcome {
	page, err := s.fetchPage(ctx, pageURL, competitor)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("VDP fetch failed")
		return models.NewFailedOutcome(fmt.Sprintf("Error processing %s: %v", pageURL, err))
	}

	s.archivePage(ctx, page)

	outcome := s.extractor.ExtractVehicle(ctx, *page)

	s.logger.Debug().
		Str("url", pageURL).
		Str("competitor", competitor).
		Str("outcome", string(outcome.Status)).
		Msg("VDP processed")

	return outcome
}

// fetchPage retrieves the page and reduces it to extraction input.
func (s *Scraper) fetchPage(ctx context.Context, pageURL, competitor string) (*models.PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, int64(s.config.MaxBodySize)))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	reduced := s.reduceContent(doc)

	markdown, err := s.mdConverter.ConvertString(reduced)
	if err != nil {
		// Fall back to the raw reduced HTML; the extractor copes with either.
		markdown = reduced
	}

	return &models.PageContent{
		URL:        pageURL,
		Competitor: competitor,
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		Markdown:   markdown,
	}, nil
}

// reduceContent keeps the sections that typically carry vehicle info and
// pricing. When no matching containers exist, the body is used, capped at
// the configured content length.
func (s *Scraper) reduceContent(doc *goquery.Document) string {
	var parts []string

	collect := func(selection *goquery.Selection, classRe *regexp.Regexp) {
		selection.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			class, _ := sel.Attr("class")
			if !classRe.MatchString(class) {
				return true
			}
			if html, err := goquery.OuterHtml(sel); err == nil {
				parts = append(parts, html)
			}
			return len(parts) < maxContainers
		})
	}

	collect(doc.Find("div,section,span"), priceClassRe)
	if len(parts) < maxContainers {
		collect(doc.Find("div,section,table"), infoClassRe)
	}

	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	body, err := doc.Find("body").Html()
	if err != nil || body == "" {
		body, _ = doc.Html()
	}
	if len(body) > s.config.MaxContentLen {
		body = body[:s.config.MaxContentLen]
	}
	return body
}

// archivePage stores the page snapshot best-effort; archive failures never
// affect the extraction outcome.
func (s *Scraper) archivePage(ctx context.Context, page *models.PageContent) {
	if s.archive == nil {
		return
	}

	err := s.archive.SavePage(ctx, &models.ArchivedPage{
		ID:         common.NewPageID(),
		JobID:      common.JobIDFromContext(ctx),
		Competitor: page.Competitor,
		URL:        page.URL,
		Title:      page.Title,
		Markdown:   page.Markdown,
		FetchedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("url", page.URL).Msg("Failed to archive page")
	}
}
