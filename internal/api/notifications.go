package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

const defaultLogLimit = 50

func (s *Server) handleListNotificationLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.notifLog.ListNotifications(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing notification log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notification log")
		return
	}
	if entries == nil {
		entries = []storage.NotificationLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type dispatchRequest struct {
	RevisionID     string `json:"revision_id"`
	Kind           string `json:"kind"`
	ExcludedUserID string `json:"excluded_user_id"`
}

// handleDispatchNotification re-runs notification delivery for a revision,
// for operators recovering from an outage of the mail provider.
func (s *Server) handleDispatchNotification(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.RevisionID == "" {
		writeError(w, http.StatusBadRequest, "revision_id is required")
		return
	}
	if !notification.Kind(req.Kind).Valid() {
		writeError(w, http.StatusBadRequest, "kind must be submitted, approved or rejected")
		return
	}

	allSent, err := s.dispatcher.Dispatch(r.Context(), req.RevisionID, notification.Kind(req.Kind), req.ExcludedUserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "revision not found")
			return
		}
		s.logger.Error("dispatching notification", "revision_id", req.RevisionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to dispatch notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"all_sent": allSent})
}
