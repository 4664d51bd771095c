package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type CompetitorHandler struct {
	competitorService service.CompetitorService
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewCompetitorHandler(competitorService service.CompetitorService, v *validator.Validate, logger zerolog.Logger) *CompetitorHandler {
	return &CompetitorHandler{competitorService: competitorService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 competitor routes
func (h *CompetitorHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/competitors", authMw(http.HandlerFunc(h.handleCompetitors)))
	mux.Handle("/competitors/", authMw(http.HandlerFunc(h.handleCompetitor)))
	mux.Handle("/competitors/stats", authMw(http.HandlerFunc(h.stats)))
	mux.Handle("/competitors/platforms", authMw(http.HandlerFunc(h.platforms)))
	mux.Handle("/competitors/health", http.HandlerFunc(h.health))
}

func (h *CompetitorHandler) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CompetitorHandler) handleCompetitor(w http.ResponseWriter, r *http.Request) {
	competitorID := strings.TrimPrefix(r.URL.Path, "/competitors/")
	if competitorID == "" || strings.Contains(competitorID, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.update(w, r, competitorID)
	case http.MethodDelete:
		h.delete(w, r, competitorID)
	default:
		http.NotFound(w, r)
	}
}

func (h *CompetitorHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	competitors, err := h.competitorService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list competitors")
		writeError(w, http.StatusInternalServerError, "Failed to fetch competitors")
		return
	}

	data := make([]dto.CompetitorResponseDTO, 0, len(competitors))
	for i := range competitors {
		data = append(data, competitorResponse(&competitors[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func (h *CompetitorHandler) add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req dto.CompetitorCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Competitor name is required")
		return
	}

	competitor, err := h.competitorService.Add(r.Context(), userID, req.Name, req.Domain, req.Industry, req.EstimatedMonthlySpend)
	if err != nil {
		if errors.Is(err, service.ErrCompetitorExists) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"success":       false,
				"error":         "Competitor \"" + req.Name + "\" already exists",
				"competitor_id": competitor.ID,
			})
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to add competitor")
		writeError(w, http.StatusInternalServerError, "Failed to add competitor")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Competitor added successfully",
		"data":    competitorResponse(competitor),
	})
}

func (h *CompetitorHandler) update(w http.ResponseWriter, r *http.Request, competitorID string) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req dto.CompetitorUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	update := model.CompetitorUpdate{
		Name:                  req.Name,
		Domain:                req.Domain,
		Industry:              req.Industry,
		EstimatedMonthlySpend: req.EstimatedMonthlySpend,
	}
	competitor, err := h.competitorService.Update(r.Context(), userID, competitorID, update)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFieldsToUpdate):
			writeError(w, http.StatusBadRequest, "No valid fields to update")
		case errors.Is(err, service.ErrCompetitorNotFound):
			writeError(w, http.StatusNotFound, "Competitor not found or unauthorized")
		default:
			h.logger.Error().Err(err).Str("competitor_id", competitorID).Msg("failed to update competitor")
			writeError(w, http.StatusInternalServerError, "Failed to update competitor")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Competitor updated successfully",
		"data":    competitorResponse(competitor),
	})
}

func (h *CompetitorHandler) delete(w http.ResponseWriter, r *http.Request, competitorID string) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	name, err := h.competitorService.Delete(r.Context(), userID, competitorID)
	if err != nil {
		if errors.Is(err, service.ErrCompetitorNotFound) {
			writeError(w, http.StatusNotFound, "Competitor not found or unauthorized")
			return
		}
		h.logger.Error().Err(err).Str("competitor_id", competitorID).Msg("failed to delete competitor")
		writeError(w, http.StatusInternalServerError, "Failed to delete competitor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Competitor \"" + name + "\" deleted successfully",
	})
}

func (h *CompetitorHandler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	stats, err := h.competitorService.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to compute competitor stats")
		writeError(w, http.StatusInternalServerError, "Failed to compute competitor stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (h *CompetitorHandler) platforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	breakdown, err := h.competitorService.Platforms(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to compute platform breakdown")
		writeError(w, http.StatusInternalServerError, "Failed to compute platform breakdown")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": breakdown})
}

func (h *CompetitorHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "competitors",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func competitorResponse(c *model.Competitor) dto.CompetitorResponseDTO {
	return dto.CompetitorResponseDTO{
		ID:                    c.ID,
		UserID:                c.UserID,
		Name:                  c.Name,
		Domain:                c.Domain,
		Industry:              c.Industry,
		Platform:              c.Platform,
		EstimatedMonthlySpend: c.EstimatedMonthlySpend,
		AdsCount:              c.AdsCount,
		LastFetchStatus:       c.LastFetchStatus,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}
