package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/atinyakov/DocPortal/internal/middleware"
	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/atinyakov/DocPortal/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "document"

// DocumentService is the document functionality used by DocumentHandler.
type DocumentService interface {
	Upload(ctx context.Context, c models.Category, userID string, f service.FileUpload) (*models.DocumentInfo, error)
	Retrieve(ctx context.Context, id int64, userID string) (*service.FileStream, error)
	ListDocuments(ctx context.Context, c models.Category, userID string) ([]models.DocumentInfo, error)
	ListAll(ctx context.Context, userID string) (map[models.Category][]models.DocumentInfo, error)
}

// DocumentHandler serves the category pages, uploads and downloads.
// All its routes expect an identity in the request context.
type DocumentHandler struct {
	DocumentService DocumentService
	// MaxUploadBytes caps the request body of an upload; zero disables the cap.
	MaxUploadBytes int64
	Log            *zap.Logger
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message  string               `json:"message"`
	Document *models.DocumentInfo `json:"document"`
}

// CategoryResponse lists one category's documents.
type CategoryResponse struct {
	Category  models.Category       `json:"category"`
	Documents []models.DocumentInfo `json:"documents"`
}

// category resolves the {category} path segment. Unknown names are 404s
// since the segment is part of the route, not of a form.
func category(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	c, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return c, true
}

// Upload accepts a multipart file in the "document" field and stores it in
// the category named by the path.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	c, ok := category(w, r)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	file, header, err := r.FormFile(uploadField)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, h.Log, models.ErrNoFileSelected)
		default:
			http.Error(w, "invalid request", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	info, err := h.DocumentService.Upload(r.Context(), c, userID, service.FileUpload{
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Message: "File uploaded successfully!", Document: info})
}

// List returns the caller's documents in the category named by the path.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := category(w, r)
	if !ok {
		return
	}
	docs, err := h.DocumentService.ListDocuments(r.Context(), c, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryResponse{Category: c, Documents: docs})
}

// ListAll returns the caller's documents grouped by category.
func (h *DocumentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.DocumentService.ListAll(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// Serve sends a document as an attachment. A document that does not exist
// or belongs to someone else sends the client to the login page, the same
// as an anonymous request would.
func (h *DocumentHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	doc, err := h.DocumentService.Retrieve(r.Context(), id, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
			return
		}
		writeError(w, h.Log, err)
		return
	}
	defer doc.Content.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	http.ServeContent(w, r, doc.Filename, doc.ModTime, doc.Content)
}
