// internal/database/lobby.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on waiting-lobby codes.
const uniqueViolation = "23505"

const lobbyColumns = "id, code, host_user_id, status, deck_id, created_at, updated_at"

const playerColumns = "id, lobby_id, user_id, nickname, status, score"

// CreateLobby inserts the lobby and its host player in one transaction, so
// a lobby can never exist without its host row.
func (p *Postgres) CreateLobby(ctx context.Context, lobby *models.Lobby, host *models.Player) error {
	return pgx.BeginTxFunc(ctx, p.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO lobbies (code, host_user_id, status, deck_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, q, lobby.Code, lobby.HostUserID, lobby.Status, lobby.DeckID).
			Scan(&lobby.ID, &lobby.CreatedAt, &lobby.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return store.ErrCodeTaken
			}
			return fmt.Errorf("failed to insert lobby: %w", err)
		}

		host.LobbyID = lobby.ID
		qp := `
		INSERT INTO players (lobby_id, user_id, nickname, status, score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
		`
		if err := tx.QueryRow(ctx, qp, host.LobbyID, host.UserID, host.Nickname, host.Status, host.Score).Scan(&host.ID); err != nil {
			return fmt.Errorf("failed to insert host player: %w", err)
		}
		return nil
	})
}

// FindLobbyByCode fetches a lobby by join code, optionally restricted to a
// status. When the filter is empty and the code has been reused, the most
// recent lobby wins.
func (p *Postgres) FindLobbyByCode(ctx context.Context, c string, status string) (*models.Lobby, error) {
	q := `SELECT ` + lobbyColumns + ` FROM lobbies WHERE code = $1`
	args := []any{c}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY id DESC LIMIT 1`

	var l models.Lobby
	err := p.Pool.QueryRow(ctx, q, args...).Scan(
		&l.ID, &l.Code, &l.HostUserID, &l.Status, &l.DeckID, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ViewLobby reads a lobby and its roster inside one transaction so the
// caller sees a single point-in-time snapshot.
func (p *Postgres) ViewLobby(ctx context.Context, ref store.LobbyRef) (*models.Lobby, []models.Player, error) {
	var lobby *models.Lobby
	var players []models.Player
	err := pgx.BeginTxFunc(ctx, p.Pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		l, err := fetchLobby(ctx, tx, ref, false)
		if err != nil {
			return err
		}
		ps, err := fetchPlayers(ctx, tx, l.ID)
		if err != nil {
			return err
		}
		lobby, players = l, ps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return lobby, players, nil
}

// ListLobbies returns lobbies in the given status with player counts,
// newest first.
func (p *Postgres) ListLobbies(ctx context.Context, status string) ([]store.LobbySummary, error) {
	q := `
	SELECT l.id, l.code, l.host_user_id, l.status, l.deck_id, l.created_at, l.updated_at,
	       count(pl.id)
	FROM lobbies l
	LEFT JOIN players pl ON pl.lobby_id = l.id
	WHERE l.status = $1
	GROUP BY l.id
	ORDER BY l.created_at DESC, l.id DESC
	`
	rows, err := p.Pool.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.LobbySummary
	for rows.Next() {
		var s store.LobbySummary
		l := &s.Lobby
		if err := rows.Scan(&l.ID, &l.Code, &l.HostUserID, &l.Status, &l.DeckID, &l.CreatedAt, &l.UpdatedAt, &s.PlayerCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateLobby locks the lobby row FOR UPDATE and runs fn inside the same
// transaction. Concurrent updates to the same lobby serialize on the row
// lock, so fn always decides against a stable roster.
func (p *Postgres) UpdateLobby(ctx context.Context, ref store.LobbyRef, fn func(store.LobbyTx) error) error {
	return pgx.BeginTxFunc(ctx, p.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		l, err := fetchLobby(ctx, tx, ref, true)
		if err != nil {
			return err
		}
		return fn(&pgLobbyTx{tx: tx, lobby: l})
	})
}

// fetchLobby resolves a LobbyRef within tx, optionally taking the row lock.
func fetchLobby(ctx context.Context, tx pgx.Tx, ref store.LobbyRef, forUpdate bool) (*models.Lobby, error) {
	var q string
	var args []any
	switch {
	case ref.Code != "" && ref.ID != 0:
		// All-digit segment: could be a join code or an id. The code match
		// wins so a typed code never lands on an unrelated lobby.
		q = `SELECT ` + lobbyColumns + ` FROM lobbies WHERE code = $1 OR id = $2
		     ORDER BY (code = $1) DESC, (status = 'waiting') DESC, id DESC LIMIT 1`
		args = []any{ref.Code, ref.ID}
	case ref.ID != 0:
		q = `SELECT ` + lobbyColumns + ` FROM lobbies WHERE id = $1`
		args = []any{ref.ID}
	default:
		// Reused codes resolve to the joinable lobby first, then the most
		// recent one.
		q = `SELECT ` + lobbyColumns + ` FROM lobbies WHERE code = $1
		     ORDER BY (status = 'waiting') DESC, id DESC LIMIT 1`
		args = []any{ref.Code}
	}
	if forUpdate {
		q += ` FOR UPDATE`
	}

	var l models.Lobby
	err := tx.QueryRow(ctx, q, args...).Scan(
		&l.ID, &l.Code, &l.HostUserID, &l.Status, &l.DeckID, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func fetchPlayers(ctx context.Context, tx pgx.Tx, lobbyID int64) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE lobby_id = $1 ORDER BY id`
	rows, err := tx.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.LobbyID, &p.UserID, &p.Nickname, &p.Status, &p.Score); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// pgLobbyTx implements store.LobbyTx over the open transaction.
type pgLobbyTx struct {
	tx    pgx.Tx
	lobby *models.Lobby
}

func (t *pgLobbyTx) Lobby() *models.Lobby { return t.lobby }

func (t *pgLobbyTx) Players(ctx context.Context) ([]models.Player, error) {
	return fetchPlayers(ctx, t.tx, t.lobby.ID)
}

func (t *pgLobbyTx) InsertPlayer(ctx context.Context, p *models.Player) error {
	p.LobbyID = t.lobby.ID
	q := `
	INSERT INTO players (lobby_id, user_id, nickname, status, score)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`
	if err := t.tx.QueryRow(ctx, q, p.LobbyID, p.UserID, p.Nickname, p.Status, p.Score).Scan(&p.ID); err != nil {
		return err
	}
	return t.touch(ctx)
}

func (t *pgLobbyTx) DeletePlayer(ctx context.Context, playerID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM players WHERE id = $1 AND lobby_id = $2`, playerID, t.lobby.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return t.touch(ctx)
}

func (t *pgLobbyTx) SetPlayerStatus(ctx context.Context, playerID int64, status string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE players SET status = $1 WHERE id = $2 AND lobby_id = $3`,
		status, playerID, t.lobby.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return t.touch(ctx)
}

func (t *pgLobbyTx) SetAllPlayers(ctx context.Context, status string) error {
	if _, err := t.tx.Exec(ctx, `UPDATE players SET status = $1 WHERE lobby_id = $2`, status, t.lobby.ID); err != nil {
		return err
	}
	return t.touch(ctx)
}

func (t *pgLobbyTx) SetHost(ctx context.Context, userID uuid.UUID) error {
	q := `UPDATE lobbies SET host_user_id = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`
	if err := t.tx.QueryRow(ctx, q, userID, t.lobby.ID).Scan(&t.lobby.UpdatedAt); err != nil {
		return err
	}
	t.lobby.HostUserID = userID
	return nil
}

func (t *pgLobbyTx) SetStatus(ctx context.Context, status string) error {
	q := `UPDATE lobbies SET status = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`
	if err := t.tx.QueryRow(ctx, q, status, t.lobby.ID).Scan(&t.lobby.UpdatedAt); err != nil {
		return err
	}
	t.lobby.Status = status
	return nil
}

// touch refreshes the lobby's updated_at after a roster mutation.
func (t *pgLobbyTx) touch(ctx context.Context) error {
	q := `UPDATE lobbies SET updated_at = now() WHERE id = $1 RETURNING updated_at`
	return t.tx.QueryRow(ctx, q, t.lobby.ID).Scan(&t.lobby.UpdatedAt)
}
