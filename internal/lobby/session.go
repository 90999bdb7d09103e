// internal/lobby/session.go
//
// Lobby lifecycle: creation with join-code allocation, and the
// waiting -> in_progress transition.
package lobby

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/cache"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

// maxCodeAttempts bounds the join-code collision retry loop.
const maxCodeAttempts = 5

// CreateResult is returned to the host after a successful creation.
type CreateResult struct {
	LobbyID      int64     `json:"lobby_id"`
	Code         string    `json:"code"`
	HostUserID   uuid.UUID `json:"host_user_id"`
	HostPlayerID int64     `json:"host_player_id"`
}

// StartResult is returned after a successful game start.
type StartResult struct {
	LobbyID int64  `json:"lobby_id"`
	Code    string `json:"code"`
}

// CreateLobby allocates a join code and inserts the lobby together with
// the caller's host player row. The store's uniqueness constraint on
// waiting-lobby codes makes the probe-and-insert atomic; on a collision
// we regenerate and try again, up to maxCodeAttempts.
func (s *Service) CreateLobby(ctx context.Context, ident auth.Identity, deckID *int64) (*CreateResult, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		c := s.genCode()
		l := &models.Lobby{
			Code:       c,
			HostUserID: ident.UserID,
			Status:     models.LobbyStatusWaiting,
			DeckID:     deckID,
		}
		host := &models.Player{
			UserID:   ident.UserID,
			Nickname: defaultNickname(ident, 0),
			Status:   models.PlayerStatusJoined,
		}

		err := s.store.CreateLobby(ctx, l, host)
		if errors.Is(err, store.ErrCodeTaken) {
			s.log.WithFields(logrus.Fields{
				"code":    c,
				"attempt": attempt,
			}).Debug("join code collision, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}

		s.log.WithFields(logrus.Fields{
			"lobby_id": l.ID,
			"code":     l.Code,
			"host":     ident.UserID,
		}).Info("lobby created")
		s.publish(ctx, cache.LobbyEventRecord{
			LobbyID:     l.ID,
			Code:        l.Code,
			ActorUserID: ident.UserID,
			EventType:   cache.EventLobbyCreated,
		})

		return &CreateResult{
			LobbyID:      l.ID,
			Code:         l.Code,
			HostUserID:   l.HostUserID,
			HostPlayerID: host.ID,
		}, nil
	}
	return nil, ErrCodeExhausted
}

// StartGame moves a waiting lobby into the running game. Preconditions in
// order: the lobby exists, the caller is its host, and every non-host
// player is ready unless force is set. The lobby status flip and the
// roster-wide move to 'playing' commit as one unit.
func (s *Service) StartGame(ctx context.Context, ident auth.Identity, ref store.LobbyRef, force bool) (*StartResult, error) {
	var res *StartResult
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		l := tx.Lobby()
		if l.HostUserID != ident.UserID {
			return ErrForbidden
		}
		if l.Status != models.LobbyStatusWaiting {
			return ErrGameInProgress
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		if !force && !isReady(l, players) {
			return ErrNotReady
		}

		if err := tx.SetAllPlayers(ctx, models.PlayerStatusPlaying); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, models.LobbyStatusInProgress); err != nil {
			return err
		}
		res = &StartResult{LobbyID: l.ID, Code: l.Code}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"lobby_id": res.LobbyID,
		"forced":   force,
	}).Info("game started")
	s.publish(ctx, cache.LobbyEventRecord{
		LobbyID:     res.LobbyID,
		Code:        res.Code,
		ActorUserID: ident.UserID,
		EventType:   cache.EventGameStarted,
		Payload:     map[string]interface{}{"forced": force},
	})
	return res, nil
}
