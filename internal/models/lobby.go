// internal/models/lobby.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Lobby statuses. A lobby's join code only has to be unique among lobbies
// that are still 'waiting'; once a lobby leaves that status its code may
// be reused by a newer lobby.
const (
	LobbyStatusWaiting    = "waiting"
	LobbyStatusInProgress = "in_progress"
	LobbyStatusFinished   = "finished"
)

// Lobby represents a row in the lobbies table: a waiting room keyed by a
// short join code and owned by a single host.
type Lobby struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	HostUserID uuid.UUID `json:"host_user_id"`
	Status     string    `json:"status"`

	// DeckID references the quiz deck the lobby will play. Immutable after
	// creation; the deck catalog itself lives in another service.
	DeckID *int64 `json:"deck_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
