package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
)

// APIHandler handles system-level API endpoints
type APIHandler struct {
	config *common.Config
	logger arbor.ILogger
}

func NewAPIHandler(config *common.Config, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		config: config,
		logger: logger,
	}
}

// HealthHandler returns service health
// GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"vdp_limit": h.config.Analysis.VDPLimit,
	})
}

// VersionHandler returns build version information
// GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

// NotFoundHandler handles unmatched API routes
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}
