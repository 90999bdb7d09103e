package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizparty/lobbyd/internal/models"
)

// Memory is an in-process Store. A single mutex serializes every
// operation, which trivially satisfies the snapshot guarantees of
// ViewLobby and UpdateLobby. Used by unit tests and dev runs without a
// database.
type Memory struct {
	mu           sync.Mutex
	nextLobbyID  int64
	nextPlayerID int64
	lobbies      map[int64]*models.Lobby
	players      map[int64]*models.Player
}

func NewMemory() *Memory {
	return &Memory{
		lobbies: make(map[int64]*models.Lobby),
		players: make(map[int64]*models.Player),
	}
}

func (m *Memory) CreateLobby(ctx context.Context, lobby *models.Lobby, host *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.lobbies {
		if l.Status == models.LobbyStatusWaiting && l.Code == lobby.Code {
			return ErrCodeTaken
		}
	}

	now := time.Now().UTC()
	m.nextLobbyID++
	lobby.ID = m.nextLobbyID
	lobby.CreatedAt = now
	lobby.UpdatedAt = now

	m.nextPlayerID++
	host.ID = m.nextPlayerID
	host.LobbyID = lobby.ID

	lcopy := *lobby
	pcopy := *host
	m.lobbies[lobby.ID] = &lcopy
	m.players[host.ID] = &pcopy
	return nil
}

func (m *Memory) FindLobbyByCode(ctx context.Context, c string, status string) (*models.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.lobbies {
		if l.Code != c {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		out := *l
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) ViewLobby(ctx context.Context, ref LobbyRef) (*models.Lobby, []models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.resolve(ref)
	if l == nil {
		return nil, nil, ErrNotFound
	}
	out := *l
	return &out, m.roster(l.ID), nil
}

func (m *Memory) ListLobbies(ctx context.Context, status string) ([]LobbySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []LobbySummary
	for _, l := range m.lobbies {
		if l.Status != status {
			continue
		}
		out = append(out, LobbySummary{Lobby: *l, PlayerCount: len(m.roster(l.ID))})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Lobby, out[j].Lobby
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (m *Memory) UpdateLobby(ctx context.Context, ref LobbyRef, fn func(LobbyTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.resolve(ref)
	if l == nil {
		return ErrNotFound
	}

	// Run fn against copies and swap them in only on success, so a failed
	// fn leaves the store untouched like a rolled-back transaction.
	tx := &memTx{
		store:   m,
		lobby:   copyLobby(l),
		players: copyPlayers(m.roster(l.ID)),
	}
	if err := fn(tx); err != nil {
		return err
	}

	tx.lobby.UpdatedAt = time.Now().UTC()
	m.lobbies[tx.lobby.ID] = tx.lobby
	for id, p := range m.players {
		if p.LobbyID == tx.lobby.ID {
			delete(m.players, id)
		}
	}
	for _, p := range tx.players {
		m.players[p.ID] = p
	}
	return nil
}

// resolve finds a lobby by ref. A code match wins over an id match, so an
// all-digit join code never falls through to an unrelated lobby id.
// Caller holds mu.
func (m *Memory) resolve(ref LobbyRef) *models.Lobby {
	if ref.Code != "" {
		var match *models.Lobby
		for _, l := range m.lobbies {
			if l.Code != ref.Code {
				continue
			}
			// Prefer the waiting lobby: finished lobbies may share the code.
			if l.Status == models.LobbyStatusWaiting {
				return l
			}
			if match == nil || l.ID > match.ID {
				match = l
			}
		}
		if match != nil {
			return match
		}
	}
	if ref.ID != 0 {
		return m.lobbies[ref.ID]
	}
	return nil
}

// roster returns copies of a lobby's players in join order. Caller holds mu.
func (m *Memory) roster(lobbyID int64) []models.Player {
	var out []models.Player
	for _, p := range m.players {
		if p.LobbyID == lobbyID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyLobby(l *models.Lobby) *models.Lobby {
	out := *l
	return &out
}

func copyPlayers(ps []models.Player) []*models.Player {
	out := make([]*models.Player, 0, len(ps))
	for i := range ps {
		p := ps[i]
		out = append(out, &p)
	}
	return out
}

// memTx implements LobbyTx over the copies held by UpdateLobby.
type memTx struct {
	store   *Memory
	lobby   *models.Lobby
	players []*models.Player
}

func (t *memTx) Lobby() *models.Lobby { return t.lobby }

func (t *memTx) Players(ctx context.Context) ([]models.Player, error) {
	out := make([]models.Player, 0, len(t.players))
	for _, p := range t.players {
		out = append(out, *p)
	}
	return out, nil
}

func (t *memTx) InsertPlayer(ctx context.Context, p *models.Player) error {
	t.store.nextPlayerID++
	p.ID = t.store.nextPlayerID
	p.LobbyID = t.lobby.ID
	cp := *p
	t.players = append(t.players, &cp)
	return nil
}

func (t *memTx) DeletePlayer(ctx context.Context, playerID int64) error {
	for i, p := range t.players {
		if p.ID == playerID {
			t.players = append(t.players[:i], t.players[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) SetPlayerStatus(ctx context.Context, playerID int64, status string) error {
	for _, p := range t.players {
		if p.ID == playerID {
			p.Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) SetAllPlayers(ctx context.Context, status string) error {
	for _, p := range t.players {
		p.Status = status
	}
	return nil
}

func (t *memTx) SetHost(ctx context.Context, userID uuid.UUID) error {
	t.lobby.HostUserID = userID
	return nil
}

func (t *memTx) SetStatus(ctx context.Context, status string) error {
	t.lobby.Status = status
	return nil
}
