package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/interfaces"
	"github.com/dealscope/dealscope/internal/models"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/sources"
)

// StatusHandler reports application status
type StatusHandler struct {
	analysisService *analysis.Service
	sourceService   *sources.Service
	archive         interfaces.PageArchive
	startedAt       time.Time
	logger          arbor.ILogger
}

func NewStatusHandler(analysisService *analysis.Service, sourceService *sources.Service, archive interfaces.PageArchive, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		analysisService: analysisService,
		sourceService:   sourceService,
		archive:         archive,
		startedAt:       time.Now(),
		logger:          logger,
	}
}

// GetStatusHandler returns application status
// GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	running := 0
	completed := 0
	for _, job := range h.analysisService.Jobs() {
		switch job.Status {
		case models.JobStatusRunning:
			running++
		case models.JobStatusCompleted:
			completed++
		}
	}

	archivedPages := 0
	if h.archive != nil {
		if count, err := h.archive.CountPages(r.Context()); err == nil {
			archivedPages = count
		} else {
			h.logger.Warn().Err(err).Msg("Failed to count archived pages")
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime":         time.Since(h.startedAt).Round(time.Second).String(),
		"jobs_running":   running,
		"jobs_completed": completed,
		"archived_pages": archivedPages,
		"sources":        h.sourceService.Keys(),
	})
}
