package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"rollcall/pkg/types"
)

// Messages surfaced by the HTTP auth boundary.
const (
	MsgUnauthorized    = "Unauthorized, token missing or invalid"
	MsgTeacherRequired = "Forbidden, teacher access required"
	MsgStudentRequired = "Forbidden, student access required"
)

// identityHandler is an HTTP handler that additionally receives the
// verified principal.
type identityHandler func(w http.ResponseWriter, r *http.Request, identity types.Identity)

// requireRole verifies the bearer token and admits only the given role.
func (s *Server) requireRole(role string, next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.sendError(w, http.StatusUnauthorized, MsgUnauthorized)
			return
		}
		identity, err := s.authService.Tokens().Verify(token)
		if err != nil {
			s.sendError(w, http.StatusUnauthorized, MsgUnauthorized)
			return
		}
		if identity.Role != role {
			if role == types.RoleTeacher {
				s.sendError(w, http.StatusForbidden, MsgTeacherRequired)
			} else {
				s.sendError(w, http.StatusForbidden, MsgStudentRequired)
			}
			return
		}
		next(w, r, identity)
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer x"
// header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// sendData writes the success envelope.
func (s *Server) sendData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// sendError writes the failure envelope.
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// internalError logs the cause and hides it from the client.
func (s *Server) internalError(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	s.sendError(w, http.StatusInternalServerError, "Something went wrong! Please try again.")
}
