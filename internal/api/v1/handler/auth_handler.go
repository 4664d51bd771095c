package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, v *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 auth routes. Signup, login, verify and logout are
// public; the rest require a bearer token.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/auth/signup", http.HandlerFunc(h.signup))
	mux.Handle("/auth/login", http.HandlerFunc(h.login))
	mux.Handle("/auth/verify", http.HandlerFunc(h.verify))
	mux.Handle("/auth/logout", http.HandlerFunc(h.logout))
	mux.Handle("/auth/health", http.HandlerFunc(h.health))
	mux.Handle("/auth/complete-onboarding", authMw(http.HandlerFunc(h.completeOnboarding)))
	mux.Handle("/auth/profile", authMw(http.HandlerFunc(h.profile)))
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req dto.SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		h.logger.Error().Err(err).Msg("signup failed")
		writeError(w, http.StatusInternalServerError, "An internal server error occurred")
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthResponseDTO{
		Success: true,
		Message: "Account Created Successfully",
		Token:   token,
		User:    userResponse(user, false),
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req dto.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrAccountDeactivated):
			writeError(w, http.StatusForbidden, "Account has been deactivated")
		default:
			h.logger.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "An internal server error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthResponseDTO{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    userResponse(user, false),
	})
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req dto.VerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	user, err := h.authService.Verify(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "Token has expired")
		case errors.Is(err, util.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("token verification failed")
			writeError(w, http.StatusInternalServerError, "Token verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userResponse(user, false),
	})
}

// logout is a client-side token discard; nothing to do server-side.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *AuthHandler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req dto.OnboardingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All onboarding questions must be answered")
		return
	}

	user, err := h.authService.CompleteOnboarding(r.Context(), userID, req.BusinessType, req.Industry, req.Goals)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Msg("onboarding failed")
		writeError(w, http.StatusInternalServerError, "An internal server error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Onboarding completed successfully",
		"user":    userResponse(user, true),
	})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	user, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Msg("profile lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userResponse(user, true),
	})
}

func (h *AuthHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "auth",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// userResponse maps the domain model to the response DTO. full includes the
// onboarding answers and account creation time.
func userResponse(user *model.User, full bool) dto.UserResponseDTO {
	resp := dto.UserResponseDTO{
		UserID:              user.UserID,
		Name:                user.Name,
		Email:               user.Email,
		OnboardingCompleted: user.OnboardingCompleted,
	}
	if full {
		resp.BusinessType = user.BusinessType
		resp.Industry = user.Industry
		resp.Goals = user.Goals
		createdAt := user.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}
