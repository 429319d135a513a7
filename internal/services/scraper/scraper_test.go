package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/interfaces"
	"github.com/dealscope/dealscope/internal/models"
)

type stubExtractor struct {
	lastPage models.PageContent
	outcome  models.Outcome
}

func (s *stubExtractor) ExtractVehicle(_ context.Context, page models.PageContent) models.Outcome {
	s.lastPage = page
	return s.outcome
}

type memArchive struct {
	pages []*models.ArchivedPage
}

func (m *memArchive) SavePage(_ context.Context, page *models.ArchivedPage) error {
	m.pages = append(m.pages, page)
	return nil
}

func (m *memArchive) GetPage(_ context.Context, _ string) (*models.ArchivedPage, error) {
	return nil, nil
}

func (m *memArchive) ListPagesByJob(_ context.Context, _ string) ([]*models.ArchivedPage, error) {
	return m.pages, nil
}

func (m *memArchive) CountPages(_ context.Context) (int, error) {
	return len(m.pages), nil
}

func testConfig() common.ScraperConfig {
	cfg := common.NewDefaultConfig()
	return cfg.Scraper
}

// archive is interface-typed so tests without one pass a true nil.
func newTestScraper(extractor *stubExtractor, archive interfaces.PageArchive) *Scraper {
	return NewScraper(http.DefaultClient, extractor, archive, testConfig(), arbor.NewLogger())
}

func TestExtractReducesToPriceContainers(t *testing.T) {
	page := `<html><head><title>2025 Nissan Altima</title></head><body>
		<nav class="site-nav">lots of chrome</nav>
		<div class="vehicle-pricing"><span class="msrp">MSRP $28,500</span></div>
		<div class="vehicle-info">VIN: 1N4BL4BV8RC123456</div>
		<footer class="footer">unrelated</footer>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	record := &models.VehicleRecord{VIN: "1N4BL4BV8RC123456", Make: "Nissan"}
	extractor := &stubExtractor{outcome: models.NewRecordOutcome(record)}
	scraper := newTestScraper(extractor, nil)

	outcome := scraper.Extract(context.Background(), server.URL, "Gunn Nissan")

	require.Equal(t, models.OutcomeRecord, outcome.Status)
	assert.Equal(t, "2025 Nissan Altima", extractor.lastPage.Title)
	assert.Equal(t, "Gunn Nissan", extractor.lastPage.Competitor)
	assert.Contains(t, extractor.lastPage.Markdown, "28,500")
	assert.Contains(t, extractor.lastPage.Markdown, "1N4BL4BV8RC123456")
	assert.NotContains(t, extractor.lastPage.Markdown, "lots of chrome")
}

func TestExtractFallsBackToBody(t *testing.T) {
	page := `<html><body><p>Plain page with no matching containers</p></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	extractor := &stubExtractor{outcome: models.NewSkippedOutcome("no vehicle data")}
	scraper := newTestScraper(extractor, nil)

	outcome := scraper.Extract(context.Background(), server.URL, "Boerne")

	assert.Equal(t, models.OutcomeSkipped, outcome.Status)
	assert.Contains(t, extractor.lastPage.Markdown, "no matching containers")
}

func TestExtractHTTPErrorIsFailedOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := &stubExtractor{}
	scraper := newTestScraper(extractor, nil)

	outcome := scraper.Extract(context.Background(), server.URL, "Gunn Nissan")

	require.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "HTTP 503")
	assert.Contains(t, outcome.Reason, server.URL)
}

func TestExtractUnreachableHostIsFailedOutcome(t *testing.T) {
	extractor := &stubExtractor{}
	scraper := newTestScraper(extractor, nil)

	outcome := scraper.Extract(context.Background(), "http://127.0.0.1:1/vehicle", "Gunn Nissan")

	assert.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.True(t, strings.HasPrefix(outcome.Reason, "Error processing"))
}

func TestExtractArchivesPageWithJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="price">$1</div></body></html>`))
	}))
	defer server.Close()

	archive := &memArchive{}
	extractor := &stubExtractor{outcome: models.NewSkippedOutcome("parts page")}
	scraper := newTestScraper(extractor, archive)

	ctx := common.WithJobID(context.Background(), "job_test")
	scraper.Extract(ctx, server.URL, "Gunn Nissan")

	require.Len(t, archive.pages, 1)
	assert.Equal(t, "job_test", archive.pages[0].JobID)
	assert.Equal(t, server.URL, archive.pages[0].URL)
	assert.False(t, archive.pages[0].FetchedAt.IsZero())
}
