package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"signals-api/internal/service"
	"signals-api/internal/util"
)

// SignalHandler handles HTTP requests for trading signals. Every route is
// behind AuthMiddleware.
type SignalHandler struct {
	signalService *service.SignalService
	logger        *zap.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signalService *service.SignalService, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		signalService: signalService,
		logger:        logger,
	}
}

// RegisterRoutes registers the protected signal routes
func (h *SignalHandler) RegisterRoutes(r chi.Router) {
	r.Post("/data/create", h.Create)
	r.Get("/data/history", h.History)
	r.Put("/data/update/{signalID}", h.Update)
	r.Get("/data/search", h.Search)
}

// Create publishes a new signal (admin only)
// @Summary Publish a trading signal
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 403 {object} Response
// @Failure 422 {object} Response
// @Router /api/data/create [post]
func (h *SignalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, errors.New("missing authentication"), "Authentication required")
		return
	}

	var req service.SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	signal, err := h.signalService.Create(ctx, userID, &req)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to create signal")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(signal, "Signal created successfully"))
	h.logger.Info("Signal created via HTTP", util.String("signal_id", signal.ID))
}

// History returns every stored signal
// @Summary List all signals
// @Produce json
// @Success 200 {object} Response
// @Router /api/data/history [get]
func (h *SignalHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, errors.New("missing authentication"), "Authentication required")
		return
	}

	signals, err := h.signalService.History(ctx, userID)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to list signals")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(signals, "Signals retrieved successfully"))
}

// Update replaces an existing signal's fields (admin only)
// @Summary Update a trading signal
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Router /api/data/update/{signalID} [put]
func (h *SignalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, errors.New("missing authentication"), "Authentication required")
		return
	}

	signalID := chi.URLParam(r, "signalID")

	var req service.SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	signal, err := h.signalService.Update(ctx, userID, signalID, &req)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to update signal")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(signal, "Signal updated successfully"))
}

// Search runs a full-text query over signals
// @Summary Search signals
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} Response
// @Router /api/data/search [get]
func (h *SignalHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, errors.New("missing authentication"), "Authentication required")
		return
	}

	query := r.URL.Query().Get("q")
	signals, err := h.signalService.Search(ctx, userID, query)
	if err != nil {
		respondWithError(w, h.logger, getStatusCode(err), err, "Failed to search signals")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(signals, "Search completed successfully"))
}
