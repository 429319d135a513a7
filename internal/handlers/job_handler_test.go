package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscope/dealscope/internal/models"
)

func startJob(t *testing.T, env *testEnv) string {
	t.Helper()
	job, err := env.service.StartAnalysis([]models.CompetitorSpec{
		{Name: "gunn_nissan", SitemapURL: "https://www.gunnnissan.com/sitemap.xml"},
	})
	require.NoError(t, err)
	return job.ID
}

func TestGetJobHandlerReturnsStatus(t *testing.T) {
	env := newTestEnv(t, []string{"https://www.gunnnissan.com/vdp-1", "https://www.gunnnissan.com/vdp-2"})
	jobID := startJob(t, env)
	env.waitForCompletion(t, jobID)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil)
	rec := httptest.NewRecorder()
	env.job.GetJobHandler(rec, req, jobID)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, jobID, body["job_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, float64(2), body["total_results"])
	assert.Equal(t, float64(0), body["total_errors"])
}

func TestGetJobHandlerUnknownJob(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.job.GetJobHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_missing", nil), "job_missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJobHandlerTruncatesErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	jobID := startJob(t, env)
	env.waitForCompletion(t, jobID)

	require.NoError(t, env.registry.Update(jobID, func(job *models.AnalysisJob) {
		for i := 0; i < 12; i++ {
			job.Errors = append(job.Errors, fmt.Sprintf("Error processing page %d", i))
		}
	}))

	rec := httptest.NewRecorder()
	env.job.GetJobHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil), jobID)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, float64(12), body["total_errors"])

	recent := body["errors"].([]interface{})
	require.Len(t, recent, 10)
	assert.Equal(t, "Error processing page 2", recent[0])
	assert.Equal(t, "Error processing page 11", recent[9])
}

func TestGetReportHandlerStreamsCSV(t *testing.T) {
	env := newTestEnv(t, []string{"https://www.gunnnissan.com/vdp-1"})
	jobID := startJob(t, env)
	env.waitForCompletion(t, jobID)

	rec := httptest.NewRecorder()
	env.job.GetReportHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/report", nil), jobID)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "nissan_pricing_analysis_")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "competitor", rows[0][0])
	assert.Equal(t, "1N4BL4BV8RC123456", rows[1][2])
}

func TestGetReportHandlerRejectsIncompleteJob(t *testing.T) {
	env := newTestEnv(t, nil)

	// Register a job directly so no background run completes it.
	job, err := env.registry.Create([]models.CompetitorSpec{
		{Name: "gunn_nissan", SitemapURL: "https://www.gunnnissan.com/sitemap.xml"},
	}, 3)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.job.GetReportHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/report", nil), job.ID)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON(t, rec)["error"], "not completed")
}

func TestGetReportHandlerUnknownJob(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.job.GetReportHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_missing/report", nil), "job_missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsHandler(t *testing.T) {
	env := newTestEnv(t, []string{"https://www.gunnnissan.com/vdp-1"})
	first := startJob(t, env)
	second := startJob(t, env)
	env.waitForCompletion(t, first)
	env.waitForCompletion(t, second)

	rec := httptest.NewRecorder()
	env.job.ListJobsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["total_count"])
	assert.Len(t, body["jobs"].([]interface{}), 2)
}
