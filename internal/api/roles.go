package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
	"github.com/nerrad567/factory-telemetry/internal/roles"
)

// RoleResponse describes one subscriber profile.
type RoleResponse struct {
	Role     string   `json:"role"`
	ClientID string   `json:"client_id"`
	Filters  []string `json:"filters"`
	Readable []string `json:"readable"`
	QoS      byte     `json:"qos"`
}

// TopicResponse describes one telemetry topic and who receives it.
type TopicResponse struct {
	Topic       string   `json:"topic"`
	Category    string   `json:"category"`
	RequestedBy []string `json:"requested_by"`
	ReadableBy  []string `json:"readable_by"`
}

func roleResponse(p roles.Profile) RoleResponse {
	return RoleResponse{
		Role:     string(p.Role),
		ClientID: p.ClientID,
		Filters:  p.Filters,
		Readable: p.Readable,
		QoS:      p.QoS,
	}
}

// handleListRoles returns every role profile.
func (s *Server) handleListRoles(w http.ResponseWriter, _ *http.Request) {
	profiles := roles.All()
	resp := make([]RoleResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, roleResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": resp})
}

// handleGetRole returns one role profile.
func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	p, err := roles.Lookup(chi.URLParam(r, "role"))
	if errors.Is(err, roles.ErrUnknownRole) {
		writeNotFound(w, "unknown role")
		return
	}
	if err != nil {
		writeInternalError(w, "failed to look up role")
		return
	}
	writeJSON(w, http.StatusOK, roleResponse(p))
}

// handleTopics lists the telemetry topics in publish order with the roles
// that request and may read each one.
func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	profiles := roles.All()
	topics := mqtt.TelemetryTopics()

	resp := make([]TopicResponse, 0, len(topics))
	for _, topic := range topics {
		tr := TopicResponse{
			Topic:       topic,
			Category:    string(roles.CategoryOf(topic)),
			RequestedBy: []string{},
			ReadableBy:  []string{},
		}
		for _, p := range profiles {
			if p.Requests(topic) {
				tr.RequestedBy = append(tr.RequestedBy, string(p.Role))
			}
			if p.CanRead(topic) {
				tr.ReadableBy = append(tr.ReadableBy, string(p.Role))
			}
		}
		resp = append(resp, tr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": resp})
}
