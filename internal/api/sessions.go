package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/factory-telemetry/internal/session"
)

// handleListSessions returns journalled runs, most recent first.
//
// Query parameters:
//   - factory_id: filter by factory
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeUnavailable(w, "session journal not configured")
		return
	}

	q := r.URL.Query()
	filter := session.Filter{FactoryID: q.Get("factory_id")}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.sessions.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeInternalError(w, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCurrentSession returns the session journalled by this process.
func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	if s.sessionID == "" {
		writeNotFound(w, "no session is being journalled")
		return
	}
	s.writeSession(w, r, s.sessionID)
}

// handleGetSession returns one journalled run.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, id string) {
	if s.sessions == nil {
		writeUnavailable(w, "session journal not configured")
		return
	}

	sess, err := s.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeNotFound(w, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get session", "session_id", id, "error", err)
		writeInternalError(w, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleListFailures returns the failed sends of one run.
func (s *Server) handleListFailures(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeUnavailable(w, "session journal not configured")
		return
	}

	id := chi.URLParam(r, "id")
	failures, err := s.sessions.Failures(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeNotFound(w, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to list send failures", "session_id", id, "error", err)
		writeInternalError(w, "failed to list send failures")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"failures":   failures,
	})
}
