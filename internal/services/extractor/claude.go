package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/models"
)

const maxRetries = 2

// Service extracts structured vehicle records from reduced page content via
// the Anthropic API. Implements interfaces.VehicleExtractor.
type Service struct {
	client  anthropic.Client
	config  common.ClaudeConfig
	limiter *rate.Limiter
	timeout time.Duration
	logger  arbor.ILogger
	now     func() time.Time
}

// NewService creates the extraction service. The API key must be set.
func NewService(config common.ClaudeConfig, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("claude API key is required (set ANTHROPIC_API_KEY)")
	}

	interval := time.Second
	if config.RateLimit != "" {
		parsed, err := time.ParseDuration(config.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid claude rate_limit %q: %w", config.RateLimit, err)
		}
		interval = parsed
	}

	timeout := 2 * time.Minute
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid claude timeout %q: %w", config.Timeout, err)
		}
		timeout = parsed
	}

	return &Service{
		client:  anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		config:  config,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// ExtractVehicle sends the page content to Claude and classifies the reply.
// API and parse failures are converted to outcomes; extraction never halts a
// competitor's run.
func (s *Service) ExtractVehicle(ctx context.Context, page models.PageContent) models.Outcome {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.NewFailedOutcome(fmt.Sprintf("Error processing %s: %v", page.URL, err))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generate(callCtx, buildPrompt(page))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", page.URL).Msg("Claude extraction failed")
		return models.NewFailedOutcome(fmt.Sprintf("Error processing %s: extraction failed: %v", page.URL, err))
	}

	outcome := s.parseReply(text, page)

	s.logger.Debug().
		Str("url", page.URL).
		Str("outcome", string(outcome.Status)).
		Msg("Extraction reply classified")

	return outcome
}

// generate makes the API call with retry on transient failures.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You are a data extraction expert. Always respond with valid JSON only."},
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, apiErr = s.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second

		s.logger.Warn().
			Int("attempt", attempt+1).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("claude API call failed after %d retries: %w", maxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

// buildPrompt renders the extraction instruction for one page.
func buildPrompt(page models.PageContent) string {
	var b strings.Builder

	b.WriteString("Extract vehicle listing data from this dealership detail page.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", page.URL)
	fmt.Fprintf(&b, "Page Title: %s\n\n", page.Title)
	b.WriteString(`Required fields:
1. VIN (Vehicle Identification Number - exactly 17 characters)
2. Year (4-digit year, e.g., 2024, 2025)
3. Make (should be "Nissan")
4. Model (e.g., Altima, Rogue, Sentra, Pathfinder, Murano, etc.)
5. Trim (e.g., SV, SL, Platinum, SR, etc.)
6. MSRP (Manufacturer's Suggested Retail Price - the original sticker price)
7. Sale Price (The final customer price after all discounts, incentives, and dealer adjustments)

IMPORTANT PRICING NOTES:
- Different dealerships use different labels for the final price: "Sale Price", "Our Price", "Your Price", "One Simple Price", "Dealer Price", "Internet Price", etc.
- The MSRP is typically labeled as "MSRP", "Sticker Price", or "Retail Price"
- The Sale Price is the LOWEST price shown that represents what the customer actually pays
- Ignore monthly payment amounts - we need the total vehicle price
- Return prices as numbers only (no dollar signs, commas, or "Price Available on Request")
- If a price is not found, return ""
- If the page is not a single vehicle listing (parts, service, search results), set "no_vehicle" to true

Return ONLY a valid JSON object with these exact keys (no markdown, no code blocks, no explanations):
{"no_vehicle": false, "vin": "", "year": "", "make": "", "model": "", "trim": "", "msrp": "", "sale_price": ""}

Page Content:
`)
	b.WriteString(page.Markdown)

	return b.String()
}
