package api

import (
	"net/http"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	notifications, err := s.notifications.List(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	count, err := s.notifications.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	if err := s.notifications.MarkRead(r.Context(), id, identity.UserID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
