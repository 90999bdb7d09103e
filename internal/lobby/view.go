// internal/lobby/view.go
//
// Client-facing projections of lobby state.
package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

// PlayerView is one roster entry with flags derived for the viewer.
type PlayerView struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Nickname      string    `json:"nickname"`
	Status        string    `json:"status"`
	Score         int       `json:"score"`
	IsHost        bool      `json:"is_host"`
	IsReady       bool      `json:"is_ready"`
	IsCurrentUser bool      `json:"is_current_user"`
}

// View is the full lobby projection returned to members.
type View struct {
	ID         int64        `json:"id"`
	Code       string       `json:"code"`
	HostUserID uuid.UUID    `json:"host_user_id"`
	Status     string       `json:"status"`
	DeckID     *int64       `json:"deck_id,omitempty"`
	AllReady   bool         `json:"all_ready"`
	Players    []PlayerView `json:"players"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Summary is the roster-free listing entry.
type Summary struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	DeckID      *int64    `json:"deck_id,omitempty"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetLobby projects a lobby for the given viewer. Only the host and
// current members may see the roster; everyone else is refused without
// learning whether the lobby exists in a joinable state.
func (s *Service) GetLobby(ctx context.Context, ident auth.Identity, ref store.LobbyRef) (*View, error) {
	l, players, err := s.store.ViewLobby(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if l.HostUserID != ident.UserID && findByUser(players, ident.UserID) == nil {
		return nil, ErrForbidden
	}
	return project(l, players, ident.UserID), nil
}

// ListLobbies returns every lobby still in the waiting room. Open to any
// authenticated caller; rosters are not included.
func (s *Service) ListLobbies(ctx context.Context) ([]Summary, error) {
	rows, err := s.store.ListLobbies(ctx, models.LobbyStatusWaiting)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{
			ID:          r.Lobby.ID,
			Code:        r.Lobby.Code,
			Status:      r.Lobby.Status,
			DeckID:      r.Lobby.DeckID,
			PlayerCount: r.PlayerCount,
			CreatedAt:   r.Lobby.CreatedAt,
		})
	}
	return out, nil
}

// project derives the per-player flags for one viewer.
func project(l *models.Lobby, players []models.Player, viewerID uuid.UUID) *View {
	v := &View{
		ID:         l.ID,
		Code:       l.Code,
		HostUserID: l.HostUserID,
		Status:     l.Status,
		DeckID:     l.DeckID,
		AllReady:   isReady(l, players),
		Players:    make([]PlayerView, 0, len(players)),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	for _, p := range players {
		v.Players = append(v.Players, PlayerView{
			ID:            p.ID,
			UserID:        p.UserID,
			Nickname:      p.Nickname,
			Status:        p.Status,
			Score:         p.Score,
			IsHost:        p.UserID == l.HostUserID,
			IsReady:       p.Status == models.PlayerStatusReady,
			IsCurrentUser: p.UserID == viewerID,
		})
	}
	return v
}
