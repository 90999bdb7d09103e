// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type createLobbyRequest struct {
	DeckID *int64 `json:"deck_id"`
}

type startGameRequest struct {
	ForceStart bool `json:"force_start"`
}

type targetPlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

// CreateLobby makes a new waiting lobby with the caller as host.
func (s *Server) CreateLobby(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}

	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	res, err := s.Service.CreateLobby(r.Context(), ident, req.DeckID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListLobbies returns all lobbies still waiting for players.
func (s *Server) ListLobbies(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.identify(w, r); !ok {
		return
	}

	res, err := s.Service.ListLobbies(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetLobby returns the full lobby view for hosts and members.
func (s *Server) GetLobby(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	res, err := s.Service.GetLobby(r.Context(), ident, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Join adds the caller to a waiting lobby.
func (s *Server) Join(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	res, err := s.Service.Join(r.Context(), ident, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ToggleReady flips the caller's readiness.
func (s *Server) ToggleReady(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	res, err := s.Service.ToggleReady(r.Context(), ident, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Leave removes the caller from the lobby.
func (s *Server) Leave(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	if err := s.Service.Leave(r.Context(), ident, ref); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// Kick removes another player; host only.
func (s *Server) Kick(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	var req targetPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == 0 {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}

	if err := s.Service.Kick(r.Context(), ident, ref, req.PlayerID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// Promote hands the host role to another player; host only.
func (s *Server) Promote(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	var req targetPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == 0 {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}

	res, err := s.Service.Promote(r.Context(), ident, ref, req.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StartGame moves the lobby into a running game; host only.
func (s *Server) StartGame(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	ref, ok := lobbyRef(w, r)
	if !ok {
		return
	}

	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad start request payload", http.StatusBadRequest)
		return
	}

	res, err := s.Service.StartGame(r.Context(), ident, ref, req.ForceStart)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
