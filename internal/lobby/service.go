// Package lobby implements the multiplayer waiting-room engine: lobby
// creation with join-code allocation, membership and readiness tracking,
// host authority, and the gated transition into a running game.
package lobby

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/cache"
	"github.com/quizparty/lobbyd/internal/code"
	"github.com/quizparty/lobbyd/internal/store"
)

// Service coordinates all lobby operations against a store.Store. It holds
// no lobby state itself; every request is decided against the store, so
// any number of service instances can run side by side.
type Service struct {
	store store.Store
	log   *logrus.Logger

	// genCode is swapped out by tests to force collisions.
	genCode func() string
}

func NewService(st store.Store, log *logrus.Logger) *Service {
	return &Service{
		store:   st,
		log:     log,
		genCode: code.Generate,
	}
}

// publish pushes a lobby event to the redis queue. Event delivery is
// best-effort and never fails the triggering operation.
func (s *Service) publish(ctx context.Context, rec cache.LobbyEventRecord) {
	if err := cache.PublishLobbyEvent(ctx, rec); err != nil {
		s.log.WithFields(logrus.Fields{
			"lobby_id": rec.LobbyID,
			"event":    rec.EventType,
		}).Warnf("failed to publish lobby event: %v", err)
	}
}

// defaultNickname derives a display name from the identity's email
// local-part, falling back to a positional name for the given roster size.
func defaultNickname(ident auth.Identity, rosterSize int) string {
	if at := strings.IndexByte(ident.Email, '@'); at > 0 {
		return ident.Email[:at]
	}
	return fmt.Sprintf("Player %d", rosterSize+1)
}
