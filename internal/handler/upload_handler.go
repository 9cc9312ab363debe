package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"signals-api/internal/service"
	"signals-api/internal/util"
)

// UploadHandler accepts multipart file uploads and stores them on disk.
type UploadHandler struct {
	uploadService *service.UploadService
	logger        *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *service.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// RegisterRoutes registers the protected upload routes
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/files/upload", h.Upload)
}

// Upload stores the "image" part of a multipart form
// @Summary Upload a file
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Router /api/files/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserIDFromContext(r.Context()); !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, errors.New("missing authentication"), "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.uploadService.MaxSize()); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Missing image field")
		return
	}
	defer file.Close()

	name, err := h.uploadService.Save(header.Filename, file)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, err, "Failed to store file")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(map[string]string{
		"filename": name,
		"url":      "/uploads/" + name,
	}, "File uploaded successfully"))
	h.logger.Info("File uploaded via HTTP", util.String("file", name))
}

// ServeUploads mounts a static file server over the upload directory.
func ServeUploads(r chi.Router, dir string) {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
