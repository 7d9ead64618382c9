package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/auth"
)

// Headers set by the authenticating proxy in front of this service
const (
	HeaderUsername  = "X-Auth-Username"
	HeaderSessionID = "X-Auth-Session-Id"
)

const sessionInvalidMessage = "Session expired or invalid. Please log in again."

// TrustedHeaderIdentity copies the caller identity from proxy headers into the request
// context unless an identity is already present.
func TrustedHeaderIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); !ok {
			username := r.Header.Get(HeaderUsername)
			sessionID := r.Header.Get(HeaderSessionID)
			if username != "" || sessionID != "" {
				r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{Username: username, SessionID: sessionID}))
			}
		}
		next(w, r)
	}
}

// RequireSession arbitrates the caller's session and attaches the resulting
// auth.AuthContext. Any failure is answered with the same 401 body.
// Routes that should not count as user activity pass disableLastActivityUpdate.
func (s *Server) RequireSession(disableLastActivityUpdate bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				log.Debug().Str("path", r.URL.Path).Msg("no trusted identity on request")
				writeSessionInvalid(w)
				return
			}

			ac, err := s.authorizer.Authorize(r.Context(), identity, disableLastActivityUpdate)
			if err != nil {
				writeSessionInvalid(w)
				return
			}

			next(w, r.WithContext(auth.WithAuthContext(r.Context(), ac)))
		}
	}
}

func writeSessionInvalid(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"message":      sessionInvalidMessage,
		"restartLogin": true,
	})
}
