package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/models"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/jobs"
	"github.com/dealscope/dealscope/internal/services/report"
)

// maxStatusErrors bounds how many recent errors a status response carries.
const maxStatusErrors = 10

// JobHandler handles job status, listing, and report downloads
type JobHandler struct {
	analysisService *analysis.Service
	assembler       *report.Assembler
	logger          arbor.ILogger
}

func NewJobHandler(analysisService *analysis.Service, assembler *report.Assembler, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		analysisService: analysisService,
		assembler:       assembler,
		logger:          logger,
	}
}

// GetJobHandler returns the live status of one job
// GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.analysisService.Job(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		WriteError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	recent := job.Errors
	if len(recent) > maxStatusErrors {
		recent = recent[len(recent)-maxStatusErrors:]
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":        job.ID,
		"status":        string(job.Status),
		"progress":      job.Progress,
		"completed":     job.Completed,
		"total_results": len(job.Results),
		"total_errors":  len(job.Errors),
		"errors":        recent,
	})
}

// GetReportHandler streams the CSV report for a completed job
// GET /api/jobs/{id}/report
func (h *JobHandler) GetReportHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.analysisService.Job(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		WriteError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	data, err := h.assembler.Assemble(job)
	if err != nil {
		if errors.Is(err, report.ErrJobNotCompleted) {
			WriteError(w, http.StatusBadRequest, "Job not completed")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to assemble report")
		WriteError(w, http.StatusInternalServerError, "Failed to assemble report")
		return
	}

	filename := fmt.Sprintf("nissan_pricing_analysis_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListJobsHandler returns summaries of all jobs, newest first
// GET /api/jobs
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	list := h.analysisService.Jobs()

	summaries := make([]map[string]interface{}, 0, len(list))
	for _, job := range list {
		summaries = append(summaries, jobSummary(job))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":        summaries,
		"total_count": len(summaries),
	})
}

func jobSummary(job *models.AnalysisJob) map[string]interface{} {
	return map[string]interface{}{
		"job_id":        job.ID,
		"status":        string(job.Status),
		"completed":     job.Completed,
		"competitors":   job.Progress.TotalCompetitors,
		"total_results": len(job.Results),
		"total_errors":  len(job.Errors),
		"created_at":    job.CreatedAt,
	}
}
