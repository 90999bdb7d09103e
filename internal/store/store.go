// Package store defines the persistence contract the lobby engine runs
// against. internal/database implements it on Postgres; Memory implements
// it in-process for tests and single-node dev runs.
package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/quizparty/lobbyd/internal/code"
	"github.com/quizparty/lobbyd/internal/models"
)

var (
	// ErrNotFound classifies every miss: absent row, or a lobby that is no
	// longer in the status the caller filtered on.
	ErrNotFound = errors.New("store: not found")

	// ErrCodeTaken is returned by CreateLobby when another waiting lobby
	// already holds the generated join code.
	ErrCodeTaken = errors.New("store: join code already in use")
)

// LobbyRef identifies a lobby either by its numeric id or by its join
// code. An all-digit path segment is a legal join code too (the alphabet
// includes 2-9), so both fields may be set; lookups prefer the code match.
type LobbyRef struct {
	ID   int64
	Code string
}

func RefByID(id int64) LobbyRef { return LobbyRef{ID: id} }

func RefByCode(c string) LobbyRef { return LobbyRef{Code: code.Normalize(c)} }

// ParseRef interprets an id-or-code path segment. Both forms resolve
// through the same store lookups. A six-digit segment could be either a
// join code or an id, so both candidates are kept.
func ParseRef(s string) (LobbyRef, bool) {
	c := code.Normalize(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		if code.Valid(c) {
			return LobbyRef{ID: id, Code: c}, true
		}
		return RefByID(id), true
	}
	if !code.Valid(c) {
		return LobbyRef{}, false
	}
	return RefByCode(c), true
}

// LobbySummary is a roster-free row used by the lobby listing.
type LobbySummary struct {
	Lobby       models.Lobby
	PlayerCount int
}

// Store is the persistence surface of the lobby engine.
type Store interface {
	// CreateLobby inserts the lobby and its host player as one atomic unit
	// and fills in generated ids and timestamps. Returns ErrCodeTaken when
	// another waiting lobby holds lobby.Code.
	CreateLobby(ctx context.Context, lobby *models.Lobby, host *models.Player) error

	// FindLobbyByCode looks a lobby up by join code. A non-empty status
	// restricts the match; a lobby in any other status is ErrNotFound.
	FindLobbyByCode(ctx context.Context, c string, status string) (*models.Lobby, error)

	// ViewLobby returns the lobby and its full roster from a single
	// point-in-time snapshot, players ordered by join order.
	ViewLobby(ctx context.Context, ref LobbyRef) (*models.Lobby, []models.Player, error)

	// ListLobbies returns all lobbies in the given status with their
	// player counts, newest first.
	ListLobbies(ctx context.Context, status string) ([]LobbySummary, error)

	// UpdateLobby runs fn with the lobby row locked: the row and its
	// roster cannot change underneath fn, and every mutation fn makes
	// commits atomically with the rest, or not at all if fn errors.
	UpdateLobby(ctx context.Context, ref LobbyRef, fn func(LobbyTx) error) error
}

// LobbyTx is the handle fn receives inside UpdateLobby. Mutations refresh
// the lobby's UpdatedAt.
type LobbyTx interface {
	// Lobby returns the locked row. Mutating methods below keep it current.
	Lobby() *models.Lobby

	// Players returns the roster in join order.
	Players(ctx context.Context) ([]models.Player, error)

	InsertPlayer(ctx context.Context, p *models.Player) error
	DeletePlayer(ctx context.Context, playerID int64) error
	SetPlayerStatus(ctx context.Context, playerID int64, status string) error

	// SetAllPlayers moves every player in the lobby to status.
	SetAllPlayers(ctx context.Context, status string) error

	SetHost(ctx context.Context, userID uuid.UUID) error
	SetStatus(ctx context.Context, status string) error
}
