package handlers

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/models"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/jobs"
	"github.com/dealscope/dealscope/internal/services/report"
	"github.com/dealscope/dealscope/internal/services/sources"
)

// staticResolver yields the same candidate URLs for every sitemap.
type staticResolver struct {
	urls []string
}

func (f *staticResolver) Resolve(_ context.Context, _ string) (iter.Seq[string], error) {
	return func(yield func(string) bool) {
		for _, u := range f.urls {
			if !yield(u) {
				return
			}
		}
	}, nil
}

// staticExtractor returns a valid record for every page.
type staticExtractor struct{}

func (staticExtractor) Extract(_ context.Context, pageURL, competitor string) models.Outcome {
	return models.NewRecordOutcome(&models.VehicleRecord{
		Competitor:  competitor,
		URL:         pageURL,
		VIN:         "1N4BL4BV8RC123456",
		Year:        "2025",
		Make:        "Nissan",
		Model:       "Altima",
		DateScraped: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
	})
}

type testEnv struct {
	registry *jobs.Registry
	service  *analysis.Service
	analysis *AnalysisHandler
	job      *JobHandler
}

func newTestEnv(t *testing.T, candidateURLs []string) *testEnv {
	t.Helper()
	logger := arbor.NewLogger()
	registry := jobs.NewRegistry(logger)

	sourceService, err := sources.NewService("", logger)
	require.NoError(t, err)

	service := analysis.NewService(
		registry,
		&staticResolver{urls: candidateURLs},
		staticExtractor{},
		sourceService,
		common.AnalysisConfig{VDPLimit: 3, ItemDelay: "0"},
		logger,
	)

	return &testEnv{
		registry: registry,
		service:  service,
		analysis: NewAnalysisHandler(service, logger),
		job:      NewJobHandler(service, report.NewAssembler(logger), logger),
	}
}

func (e *testEnv) waitForCompletion(t *testing.T, jobID string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not complete in time")
		default:
		}
		job, err := e.service.Job(jobID)
		require.NoError(t, err)
		if job.Completed {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStartAnalysisHandlerAcceptsCompetitorList(t *testing.T) {
	env := newTestEnv(t, []string{"https://www.gunnnissan.com/vdp-1"})

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(
		`{"competitors": [{"name": "gunn_nissan", "sitemap_url": "https://www.gunnnissan.com/sitemap.xml"}]}`,
	))
	rec := httptest.NewRecorder()

	env.analysis.StartAnalysisHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeJSON(t, rec)
	assert.True(t, strings.HasPrefix(body["job_id"].(string), "job_"))
	assert.Equal(t, "pending", body["status"])
}

func TestStartAnalysisHandlerAcceptsFlatFields(t *testing.T) {
	env := newTestEnv(t, []string{"https://www.gunnnissan.com/vdp-1"})

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(
		`{"gunn_nissan_url": "https://www.gunnnissan.com/sitemap.xml", "boerne_url": "https://www.nissanofboerne.com/sitemap.xml"}`,
	))
	rec := httptest.NewRecorder()

	env.analysis.StartAnalysisHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decodeJSON(t, rec)["job_id"].(string)

	job, err := env.service.Job(jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, job.Progress.TotalCompetitors)
}

func TestStartAnalysisHandlerRejectsEmptyRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	env.analysis.StartAnalysisHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON(t, rec)["error"], "At least one competitor")
}

func TestStartAnalysisHandlerRejectsInvalidJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	env.analysis.StartAnalysisHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartAnalysisHandlerRejectsGET(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()

	env.analysis.StartAnalysisHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
