package interfaces

import (
	"context"
	"iter"

	"github.com/dealscope/dealscope/internal/models"
)

// SitemapResolver turns one competitor sitemap into a sequence of candidate
// detail page URLs.
type SitemapResolver interface {
	// Resolve fetches and parses the sitemap, returning a single-use,
	// finite sequence of candidate URLs in document order, filtered to
	// new-vehicle detail pages. Each call re-fetches the sitemap. The
	// caller is responsible for bounding consumption.
	Resolve(ctx context.Context, sitemapURL string) (iter.Seq[string], error)
}

// RecordExtractor fetches one detail page and classifies the extraction
// outcome.
type RecordExtractor interface {
	Extract(ctx context.Context, pageURL, competitor string) models.Outcome
}

// VehicleExtractor is the AI service boundary: given reduced page content,
// return a structured vehicle record, a skip, or a failure. Implementations
// may be slow and rate-limited; callers treat it as an opaque capability.
type VehicleExtractor interface {
	ExtractVehicle(ctx context.Context, page models.PageContent) models.Outcome
}
