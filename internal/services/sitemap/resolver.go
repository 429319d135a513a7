package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/services/sources"
)

// Error reports a sitemap that could not be retrieved or parsed. The whole
// competitor is recorded as failed when this occurs.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to parse sitemap %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// urlSet mirrors the standard sitemap schema. encoding/xml matches by local
// name, which covers both namespaced and namespace-free documents.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Locs    []string `xml:"url>loc"`
}

// Resolver fetches competitor sitemaps and yields candidate detail page
// URLs.
type Resolver struct {
	client *http.Client
	config common.ScraperConfig
	logger arbor.ILogger
}

// NewResolver creates a sitemap resolver using the given HTTP client.
func NewResolver(client *http.Client, config common.ScraperConfig, logger arbor.ILogger) *Resolver {
	return &Resolver{
		client: client,
		config: config,
		logger: logger,
	}
}

// Resolve fetches and parses one sitemap, returning a single-use sequence of
// candidate URLs in document order, filtered to new-vehicle detail pages.
// Duplicate URLs in the sitemap pass through; the caller bounds consumption.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) (iter.Seq[string], error) {
	locs, err := r.fetchLocs(ctx, sitemapURL)
	if err != nil {
		return nil, &Error{URL: sitemapURL, Err: err}
	}

	r.logger.Debug().
		Str("sitemap", sitemapURL).
		Int("urls", len(locs)).
		Msg("Sitemap parsed")

	consumed := false
	return func(yield func(string) bool) {
		// Single-use sequence: a fresh Resolve call is required to iterate again.
		if consumed {
			return
		}
		consumed = true

		for _, loc := range locs {
			if loc == "" || !sources.IsNewVehicleVDP(loc) {
				continue
			}
			if !yield(loc) {
				return
			}
		}
	}, nil
}

func (r *Resolver) fetchLocs(ctx context.Context, sitemapURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid sitemap URL: %w", err)
	}
	req.Header.Set("User-Agent", r.config.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sitemap fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sitemap fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(r.config.MaxBodySize)))
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap body: %w", err)
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("malformed sitemap XML: %w", err)
	}

	return set.Locs, nil
}
