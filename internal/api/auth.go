package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iotnatural/poolwatch-core/internal/session"
)

// tokenLogPrefix is how much of a token may appear in logs.
const tokenLogPrefix = 8

// validateSessionResponse is the response body for POST /validate-session.
type validateSessionResponse struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email"`
	UserID any    `json:"user_id"`
}

// logoutResponse is the response body for POST /logout.
type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleValidateSession reports the identity behind a token.
func (s *Server) handleValidateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, validateSessionResponse{
		Valid:  true,
		Email:  sess.Email,
		UserID: sess.UserID,
	})
}

// handleLogout invalidates a token. It succeeds whether or not the token exists.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeJSON(w, http.StatusOK, logoutResponse{Success: true, Message: msgNoActiveSession})
		return
	}

	token := bearerToken(header)
	if s.sessions.Invalidate(token) {
		s.logger.Info("user session closed", "token", tokenPrefix(token))
	}

	writeJSON(w, http.StatusOK, logoutResponse{Success: true, Message: msgLoggedOut})
}

// requireSession resolves the request's session or writes a 401 response.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeUnauthorized(w, msgMissingToken)
		return nil, false
	}

	sess, err := s.sessions.Validate(bearerToken(header))
	switch {
	case errors.Is(err, session.ErrExpired):
		writeUnauthorized(w, msgExpiredSession)
		return nil, false
	case err != nil:
		writeUnauthorized(w, msgInvalidSession)
		return nil, false
	}
	return sess, true
}

// bearerToken extracts the token from an Authorization header value.
// Both "Bearer <token>" and a bare token are accepted.
func bearerToken(header string) string {
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return header
}

// tokenPrefix returns the loggable part of a token.
func tokenPrefix(token string) string {
	if len(token) <= tokenLogPrefix {
		return "***"
	}
	return token[:tokenLogPrefix] + "..."
}
