package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/models"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/jobs"
)

// AnalysisHandler handles analysis job creation
type AnalysisHandler struct {
	analysisService *analysis.Service
	logger          arbor.ILogger
}

func NewAnalysisHandler(analysisService *analysis.Service, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger,
	}
}

// analysisRequest accepts either an explicit competitor list or the legacy
// flat per-source sitemap fields.
type analysisRequest struct {
	Competitors []models.CompetitorSpec `json:"competitors"`

	GunnNissanURL string `json:"gunn_nissan_url"`
	IngramParkURL string `json:"ingram_park_url"`
	BoerneURL     string `json:"boerne_url"`
	ChampionNBURL string `json:"champion_nb_url"`
}

// competitors merges the explicit list with any flat fields.
func (r *analysisRequest) competitors() []models.CompetitorSpec {
	specs := r.Competitors

	flat := []struct {
		key string
		url string
	}{
		{"gunn_nissan", r.GunnNissanURL},
		{"ingram_park", r.IngramParkURL},
		{"boerne", r.BoerneURL},
		{"champion_nb", r.ChampionNBURL},
	}
	for _, f := range flat {
		if url := strings.TrimSpace(f.url); url != "" {
			specs = append(specs, models.CompetitorSpec{Name: f.key, SitemapURL: url})
		}
	}
	return specs
}

// StartAnalysisHandler starts a new analysis job
// POST /api/analysis
func (h *AnalysisHandler) StartAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	job, err := h.analysisService.StartAnalysis(req.competitors())
	if err != nil {
		if errors.Is(err, jobs.ErrNoCompetitors) {
			WriteError(w, http.StatusBadRequest, "At least one competitor sitemap URL is required")
			return
		}
		h.logger.Warn().Err(err).Msg("Analysis request rejected")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"status":  string(job.Status),
		"message": "Analysis started successfully",
	})
}
