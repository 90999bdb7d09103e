package models

import "github.com/google/uuid"

// Player statuses.
const (
	PlayerStatusJoined  = "joined"
	PlayerStatusReady   = "ready"
	PlayerStatusPlaying = "playing"
)

// Player represents a row in the players table: one user's membership in
// one lobby. A user holds at most one Player row per lobby.
type Player struct {
	ID       int64     `json:"id"`
	LobbyID  int64     `json:"lobby_id"`
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Status   string    `json:"status"`

	// Score is mutated by gameplay, not by lobby coordination.
	Score int `json:"score"`
}
