package handler

import (
	"encoding/json"
	"errors"
	"io"
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

type AdsHandler struct {
	refreshService service.RefreshService
	fetcher        service.AdsFetcher
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewAdsHandler(refreshService service.RefreshService, fetcher service.AdsFetcher, v *validator.Validate, logger zerolog.Logger) *AdsHandler {
	return &AdsHandler{refreshService: refreshService, fetcher: fetcher, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 ads routes
func (h *AdsHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/ads/refresh", authMw(http.HandlerFunc(h.refresh)))
	mux.Handle("/ads/user-jobs", authMw(http.HandlerFunc(h.userJobs)))
	mux.Handle("/ads/status/", authMw(http.HandlerFunc(h.jobStatus)))
	mux.Handle("/ads/estimate-time", authMw(http.HandlerFunc(h.estimateTime)))
	mux.Handle("/ads/cancel-job/", authMw(http.HandlerFunc(h.cancelJob)))
	mux.Handle("/ads/config", http.HandlerFunc(h.config))
	mux.Handle("/ads/stats", http.HandlerFunc(h.stats))
	mux.Handle("/ads/health", http.HandlerFunc(h.health))
}

// refresh accepts the dashboard's refresh click: 202 with a job id on
// success, 409 when a job is already running, 503 when the scraper
// environment is broken.
func (h *AdsHandler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	// An empty body means default platform, no force.
	var req dto.RefreshDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if req.Platform == "" {
		req.Platform = model.PlatformAll
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	result, err := h.refreshService.Start(r.Context(), userID, req.Platform, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFetcherUnavailable):
			writeErrorCode(w, http.StatusServiceUnavailable, "Ads fetching is currently disabled", "FETCHER_NOT_AVAILABLE")
		case errors.Is(err, service.ErrJobAlreadyRunning):
			writeErrorCode(w, http.StatusConflict, "You already have an ads fetch in progress", "JOB_ALREADY_RUNNING")
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to start ads fetch")
			writeError(w, http.StatusInternalServerError, "Failed to start ads fetch")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

func (h *AdsHandler) userJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	jobs, hasActive, err := h.refreshService.UserJobs(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user jobs")
		writeError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	fetcherOK, _ := h.fetcher.VerifyEnvironment()
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":              jobs,
		"count":             len(jobs),
		"has_active_jobs":   hasActive,
		"fetcher_available": fetcherOK,
	})
}

func (h *AdsHandler) jobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/ads/status/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}

	display, err := h.refreshService.JobStatus(r.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to read job status")
		writeError(w, http.StatusInternalServerError, "Failed to read job status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": display})
}

func (h *AdsHandler) estimateTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req dto.EstimateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if req.Platform == "" {
		req.Platform = model.PlatformAll
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	estimate, err := h.refreshService.EstimateTime(r.Context(), userID, req.Platform)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to estimate fetch time")
		writeError(w, http.StatusInternalServerError, "Failed to estimate fetch time")
		return
	}

	fetcherOK, _ := h.fetcher.VerifyEnvironment()
	writeJSON(w, http.StatusOK, map[string]any{
		"estimated_seconds": estimate.EstimatedSeconds,
		"estimated_minutes": estimate.EstimatedMinutes,
		"competitors_count": estimate.CompetitorsCount,
		"platform":          estimate.Platform,
		"platforms_count":   estimate.PlatformsCount,
		"fetcher_available": fetcherOK,
	})
}

func (h *AdsHandler) cancelJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/ads/cancel-job/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}

	if err := h.refreshService.Cancel(r.Context(), userID, jobID); err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "Job not found")
		case errors.Is(err, service.ErrJobForbidden):
			writeError(w, http.StatusForbidden, "Unauthorized to cancel this job")
		case errors.Is(err, service.ErrJobNotCancellable):
			writeError(w, http.StatusBadRequest, "Job cannot be cancelled")
		default:
			h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to cancel job")
			writeError(w, http.StatusInternalServerError, "Failed to cancel job")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Job cancelled successfully",
		"job_id":  jobID,
	})
}

func (h *AdsHandler) config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info := h.fetcher.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"fetcher_available":   info.EnvironmentOK,
		"environment_ok":      info.EnvironmentOK,
		"node_version":        info.NodeVersion,
		"npm_version":         info.NPMVersion,
		"supported_platforms": model.SupportedPlatforms,
	})
}

func (h *AdsHandler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.refreshService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read fetch stats")
		writeError(w, http.StatusInternalServerError, "Failed to read fetch stats")
		return
	}
	fetcherOK, _ := h.fetcher.VerifyEnvironment()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_jobs":        stats.TotalJobs,
		"completed_jobs":    stats.CompletedJobs,
		"success_rate":      stats.SuccessRate,
		"total_ads_fetched": stats.TotalAdsFetched,
		"fetcher_available": fetcherOK,
	})
}

func (h *AdsHandler) health(w http.ResponseWriter, r *http.Request) {
	fetcherOK, _ := h.fetcher.VerifyEnvironment()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"service":           "ads_refresh",
		"fetcher_available": fetcherOK,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
