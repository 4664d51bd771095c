package handler

import (
	"net/http"
	"time"

	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type IntelHandler struct {
	intelService service.IntelService
	logger       zerolog.Logger
}

func NewIntelHandler(intelService service.IntelService, logger zerolog.Logger) *IntelHandler {
	return &IntelHandler{intelService: intelService, logger: logger}
}

// RegisterRoutes mounts v1 targeting intelligence routes
func (h *IntelHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/targeting/audience-insights", authMw(http.HandlerFunc(h.audienceInsights)))
	mux.Handle("/targeting/competitive-analysis", authMw(http.HandlerFunc(h.competitiveAnalysis)))
	mux.Handle("/targeting/recommendations", authMw(http.HandlerFunc(h.recommendations)))
	mux.Handle("/targeting/health", http.HandlerFunc(h.health))
}

func (h *IntelHandler) audienceInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	insights, err := h.intelService.AudienceInsights(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build audience insights")
		writeError(w, http.StatusInternalServerError, "Failed to build audience insights")
		return
	}

	resp := map[string]any{"success": true, "data": insights}
	if insights.IsDefaultData {
		resp["message"] = "No competitors found. Using default insights."
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *IntelHandler) competitiveAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	analysis, err := h.intelService.CompetitiveAnalysis(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build competitive analysis")
		writeError(w, http.StatusInternalServerError, "Failed to build competitive analysis")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"data":        analysis,
		"time_period": "30 days",
	})
}

func (h *IntelHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	recs, err := h.intelService.Recommendations(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build recommendations")
		writeError(w, http.StatusInternalServerError, "Failed to build recommendations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": recs})
}

func (h *IntelHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "targeting_intel",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
