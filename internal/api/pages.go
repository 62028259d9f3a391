package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// handleListPages returns all pages.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.pages.ListPages(r.Context())
	if err != nil {
		s.logger.Error("failed to list pages", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if pages == nil {
		pages = []storage.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// handleGetPage returns a single page by ID.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := s.pages.GetPage(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		s.logger.Error("failed to load page", slog.String("page_id", id), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to load page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type createPageRequest struct {
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
}

// handleCreatePage creates a new page in the content tree.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if req.ParentID != "" {
		if _, err := s.pages.GetPage(r.Context(), req.ParentID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "parent page not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load parent page")
			return
		}
	}

	page := storage.Page{
		ID:        uuid.NewString(),
		ParentID:  req.ParentID,
		Title:     req.Title,
		Slug:      req.Slug,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.pages.CreatePage(r.Context(), page); err != nil {
		s.logger.Error("failed to create page", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create page")
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// handleListRevisions returns a page's revisions, newest first.
func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.pages.GetPage(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load page")
		return
	}

	revisions, err := s.revisions.ListRevisionsForPage(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list revisions", slog.String("page_id", id), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list revisions")
		return
	}
	if revisions == nil {
		revisions = []storage.Revision{}
	}
	writeJSON(w, http.StatusOK, revisions)
}
