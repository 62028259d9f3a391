package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/pagedesk/internal/permission"
)

type submitRevisionRequest struct {
	Content string `json:"content"`
}

// handleSubmitRevision snapshots page content as a new revision in
// moderation. The acting user becomes the submitter.
func (s *Server) handleSubmitRevision(w http.ResponseWriter, r *http.Request) {
	user, ok := permission.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req submitRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	rev, err := s.workflow.SubmitForModeration(r.Context(), chi.URLParam(r, "id"), user.ID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

// handleApprove approves a revision in moderation.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, s.workflow.Approve)
}

// handleReject rejects a revision in moderation.
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, s.workflow.Reject)
}

func (s *Server) moderate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, revisionID, actorID string) error) {
	user, _ := permission.UserFromContext(r.Context())

	if err := fn(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
