package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"signals-api/internal/service"
	"signals-api/internal/util"
)

// AuthHandler handles HTTP requests for registration, login and the OTP
// password-reset flow.
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the public auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/password-reset/request", h.RequestReset)
	r.Post("/password-reset/confirm", h.ConfirmReset)
}

// Register handles account creation
// @Summary Register a new account
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 409 {object} Response
// @Failure 422 {object} Response
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.authService.Register(ctx, &req)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to register user")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(result, "User registered successfully"))
	h.logger.Info("User registered via HTTP",
		util.String("user_id", result.User.ID),
		util.Duration("duration", time.Since(startTime)),
	)
}

// Login handles credential verification
// @Summary Log in with email and password
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.authService.Login(ctx, &req)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to log in")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(result, "Logged in successfully"))
	h.logger.Info("User logged in via HTTP",
		util.String("user_id", result.User.ID),
		util.Duration("duration", time.Since(startTime)),
	)
}

type requestResetBody struct {
	Number string `json:"number"`
}

// RequestReset issues a reset code and dispatches it over SMS
// @Summary Request a password-reset code
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /password-reset/request [post]
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body requestResetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := h.authService.RequestReset(ctx, body.Number); err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to send reset code")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, "OTP sent successfully"))
}

// ConfirmReset redeems a reset code for a new password
// @Summary Confirm a password reset
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /password-reset/confirm [post]
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.ConfirmResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := h.authService.ConfirmReset(ctx, &req); err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to reset password")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, "Password updated successfully"))
}
