// internal/lobby/membership.go
//
// Membership: join, leave, ready toggling, kicks and host transfer. All
// decisions run inside UpdateLobby so they act on a roster that cannot
// change underneath them.
package lobby

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/cache"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

// JoinResult acknowledges a (possibly pre-existing) membership.
type JoinResult struct {
	Code       string    `json:"code"`
	HostUserID uuid.UUID `json:"host_user_id"`
	PlayerID   int64     `json:"player_id"`
}

// ReadyResult reports the caller's status after a toggle.
type ReadyResult struct {
	Status string `json:"status"`
}

// PromoteResult reports the new host after a transfer.
type PromoteResult struct {
	NewHostID uuid.UUID `json:"new_host_id"`
}

// Join adds the caller to a waiting lobby. A lobby that has already
// started is reported as not found, indistinguishable from an absent one.
// Joining a lobby the caller is already in returns the existing
// membership unchanged.
func (s *Service) Join(ctx context.Context, ident auth.Identity, ref store.LobbyRef) (*JoinResult, error) {
	var res *JoinResult
	var rejoined bool
	var lobbyID int64
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		l := tx.Lobby()
		lobbyID = l.ID
		if l.Status != models.LobbyStatusWaiting {
			return store.ErrNotFound
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			if p.UserID == ident.UserID {
				rejoined = true
				res = &JoinResult{Code: l.Code, HostUserID: l.HostUserID, PlayerID: p.ID}
				return nil
			}
		}

		p := &models.Player{
			UserID:   ident.UserID,
			Nickname: defaultNickname(ident, len(players)),
			Status:   models.PlayerStatusJoined,
		}
		if err := tx.InsertPlayer(ctx, p); err != nil {
			return err
		}
		res = &JoinResult{Code: l.Code, HostUserID: l.HostUserID, PlayerID: p.ID}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !rejoined {
		s.log.WithFields(logrus.Fields{
			"code": res.Code,
			"user": ident.UserID,
		}).Info("player joined lobby")
		s.publish(ctx, cache.LobbyEventRecord{
			LobbyID:     lobbyID,
			Code:        res.Code,
			ActorUserID: ident.UserID,
			EventType:   cache.EventPlayerJoined,
		})
	}
	return res, nil
}

// ToggleReady flips the caller between joined and ready. Only current
// members may toggle; a player already in a running game cannot.
func (s *Service) ToggleReady(ctx context.Context, ident auth.Identity, ref store.LobbyRef) (*ReadyResult, error) {
	var res *ReadyResult
	var lobbyID int64
	var lobbyCode string
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		lobbyID, lobbyCode = tx.Lobby().ID, tx.Lobby().Code
		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		me := findByUser(players, ident.UserID)
		if me == nil {
			return ErrForbidden
		}

		var next string
		switch me.Status {
		case models.PlayerStatusJoined:
			next = models.PlayerStatusReady
		case models.PlayerStatusReady:
			next = models.PlayerStatusJoined
		default:
			return ErrGameInProgress
		}
		if err := tx.SetPlayerStatus(ctx, me.ID, next); err != nil {
			return err
		}
		res = &ReadyResult{Status: next}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, cache.LobbyEventRecord{
		LobbyID:     lobbyID,
		Code:        lobbyCode,
		ActorUserID: ident.UserID,
		EventType:   cache.EventReadyToggled,
		Payload:     map[string]interface{}{"status": res.Status},
	})
	return res, nil
}

// Kick removes a player from the lobby. Host-only; the host cannot kick
// itself, and the target must actually be in the lobby.
func (s *Service) Kick(ctx context.Context, ident auth.Identity, ref store.LobbyRef, targetPlayerID int64) error {
	var kicked uuid.UUID
	var lobbyID int64
	var lobbyCode string
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		l := tx.Lobby()
		lobbyID, lobbyCode = l.ID, l.Code
		if l.HostUserID != ident.UserID {
			return ErrForbidden
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		target := findByID(players, targetPlayerID)
		if target == nil || target.UserID == l.HostUserID {
			return ErrInvalidTarget
		}

		kicked = target.UserID
		return tx.DeletePlayer(ctx, target.ID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"host":   ident.UserID,
		"kicked": kicked,
	}).Info("player kicked")
	s.publish(ctx, cache.LobbyEventRecord{
		LobbyID:     lobbyID,
		Code:        lobbyCode,
		ActorUserID: ident.UserID,
		EventType:   cache.EventPlayerKicked,
		Payload:     map[string]interface{}{"kicked_user_id": kicked.String()},
	})
	return nil
}

// Promote transfers the host role to another player in the lobby. The
// outgoing host keeps its player row and readiness status; only the
// lobby's host pointer moves.
func (s *Service) Promote(ctx context.Context, ident auth.Identity, ref store.LobbyRef, targetPlayerID int64) (*PromoteResult, error) {
	var res *PromoteResult
	var lobbyID int64
	var lobbyCode string
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		l := tx.Lobby()
		lobbyID, lobbyCode = l.ID, l.Code
		if l.HostUserID != ident.UserID {
			return ErrForbidden
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		target := findByID(players, targetPlayerID)
		if target == nil {
			return ErrNotFound
		}

		if err := tx.SetHost(ctx, target.UserID); err != nil {
			return err
		}
		res = &PromoteResult{NewHostID: target.UserID}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"old_host": ident.UserID,
		"new_host": res.NewHostID,
	}).Info("host promoted")
	s.publish(ctx, cache.LobbyEventRecord{
		LobbyID:     lobbyID,
		Code:        lobbyCode,
		ActorUserID: ident.UserID,
		EventType:   cache.EventHostPromoted,
		Payload:     map[string]interface{}{"new_host_id": res.NewHostID.String()},
	})
	return res, nil
}

// Leave removes the caller from a waiting lobby. A departing host hands
// the role to the longest-joined remaining player; when the last player
// leaves, the lobby is finished and its code freed for reuse.
func (s *Service) Leave(ctx context.Context, ident auth.Identity, ref store.LobbyRef) error {
	var lobbyID int64
	var lobbyCode string
	err := s.store.UpdateLobby(ctx, ref, func(tx store.LobbyTx) error {
		l := tx.Lobby()
		lobbyID, lobbyCode = l.ID, l.Code
		if l.Status != models.LobbyStatusWaiting {
			return ErrGameInProgress
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		me := findByUser(players, ident.UserID)
		if me == nil {
			return ErrForbidden
		}

		if err := tx.DeletePlayer(ctx, me.ID); err != nil {
			return err
		}

		var remaining []models.Player
		for _, p := range players {
			if p.ID != me.ID {
				remaining = append(remaining, p)
			}
		}
		if len(remaining) == 0 {
			return tx.SetStatus(ctx, models.LobbyStatusFinished)
		}
		if l.HostUserID == ident.UserID {
			// players are in join order, so the oldest member inherits
			return tx.SetHost(ctx, remaining[0].UserID)
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.publish(ctx, cache.LobbyEventRecord{
		LobbyID:     lobbyID,
		Code:        lobbyCode,
		ActorUserID: ident.UserID,
		EventType:   cache.EventPlayerLeft,
	})
	return nil
}

func findByUser(players []models.Player, userID uuid.UUID) *models.Player {
	for i := range players {
		if players[i].UserID == userID {
			return &players[i]
		}
	}
	return nil
}

func findByID(players []models.Player, playerID int64) *models.Player {
	for i := range players {
		if players[i].ID == playerID {
			return &players[i]
		}
	}
	return nil
}
