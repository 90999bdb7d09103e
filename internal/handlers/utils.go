package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/lobby"
	"github.com/quizparty/lobbyd/internal/store"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// identify authenticates the request's auth_token cookie. On failure it
// writes 401 and returns ok=false.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	ident, err := auth.Authenticate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	return ident, true
}

// lobbyRef parses the {ref} path segment. On a malformed reference it
// writes 400 and returns ok=false.
func lobbyRef(w http.ResponseWriter, r *http.Request) (store.LobbyRef, bool) {
	ref, ok := store.ParseRef(chi.URLParam(r, "ref"))
	if !ok {
		http.Error(w, lobby.ErrInvalidInput.Error(), http.StatusBadRequest)
		return store.LobbyRef{}, false
	}
	return ref, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine failure classes to status codes. Unclassified
// errors are logged and surface as a generic 500 so store internals never
// leak into a domain response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, lobby.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lobby.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, lobby.ErrInvalidTarget):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, lobby.ErrNotReady), errors.Is(err, lobby.ErrGameInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, lobby.ErrCodeExhausted), errors.Is(err, lobby.ErrCreateFailed):
		s.Logger.Errorf("lobby creation failed: %v", err)
		http.Error(w, "could not create lobby", http.StatusInternalServerError)
	default:
		s.Logger.Errorf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
