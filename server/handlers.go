package server

import (
	"encoding/json"
	"net/http"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/auth"
)

const contentTypeJSON = "application/json; charset=utf-8"

// sessionResponse never carries the upstream access token
type sessionResponse struct {
	Username            string `json:"username"`
	SessionID           string `json:"sessionId"`
	IsConcurrentSession bool   `json:"isConcurrentSession"`
	RoleID              string `json:"roleId,omitempty"`
	OrgCode             string `json:"orgCode,omitempty"`
}

// SessionHandler describes the session attached by RequireSession.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.AuthContextFrom(r.Context())
		if !ok {
			writeSessionInvalid(w)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Username:            ac.Username,
			SessionID:           ac.SessionID,
			IsConcurrentSession: ac.IsConcurrentSession,
			RoleID:              ac.RoleID,
			OrgCode:             ac.OrgCode,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
