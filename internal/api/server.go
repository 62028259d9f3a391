// Package api implements the REST handlers for pages, revisions, the
// moderation workflow, and the notification log.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/pagedesk/internal/permission"
	"github.com/shaharia-lab/pagedesk/internal/service"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	pages      storage.PageStore
	users      storage.UserStore
	revisions  storage.RevisionStore
	notifLog   storage.NotificationStore
	workflow   service.WorkflowService
	dispatcher service.Notifier
	checker    *permission.Checker
	logger     *slog.Logger
}

// New creates a new API Server backed by the provided stores and services.
func New(
	pages storage.PageStore,
	users storage.UserStore,
	revisions storage.RevisionStore,
	notifLog storage.NotificationStore,
	workflow service.WorkflowService,
	dispatcher service.Notifier,
	checker *permission.Checker,
	logger *slog.Logger,
) *Server {
	return &Server{
		pages:      pages,
		users:      users,
		revisions:  revisions,
		notifLog:   notifLog,
		workflow:   workflow,
		dispatcher: dispatcher,
		checker:    checker,
		logger:     logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Use(s.identify)

	// Content tree
	r.Get("/pages", s.handleListPages)
	r.Get("/pages/{id}", s.handleGetPage)
	r.Get("/pages/{id}/revisions", s.handleListRevisions)
	r.With(s.checker.RequireAny("add", "edit")).Post("/pages", s.handleCreatePage)

	// Moderation workflow
	r.Post("/pages/{id}/revisions", s.handleSubmitRevision)
	r.Group(func(r chi.Router) {
		r.Use(s.checker.Require("publish"))
		r.Post("/revisions/{id}/approve", s.handleApprove)
		r.Post("/revisions/{id}/reject", s.handleReject)
		r.Get("/notifications/log", s.handleListNotificationLog)
		r.Post("/notifications/dispatch", s.handleDispatchNotification)
	})
}

// identify resolves the acting user from the X-User-ID header and stores it
// in the request context. Authentication itself is out of scope: the header
// is trusted, the service is expected to sit behind an authenticating proxy.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.logger.Error("failed to load user", slog.String("user_id", userID), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		next.ServeHTTP(w, r.WithContext(permission.WithUser(r.Context(), user)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
