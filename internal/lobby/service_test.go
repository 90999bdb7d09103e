package lobby

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

func testService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	mem := store.NewMemory()
	return NewService(mem, logger), mem
}

func testIdent(email string) auth.Identity {
	return auth.Identity{UserID: uuid.New(), Email: email}
}

// codeSequence makes genCode hand out fixed codes in order, repeating the
// last one once exhausted.
func codeSequence(codes ...string) func() string {
	i := 0
	return func() string {
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c
	}
}

// makeLobby creates a lobby with the given host and joins each guest.
func makeLobby(t *testing.T, svc *Service, host auth.Identity, guests ...auth.Identity) *CreateResult {
	t.Helper()
	ctx := context.Background()

	created, err := svc.CreateLobby(ctx, host, nil)
	require.NoError(t, err)

	for _, g := range guests {
		_, err := svc.Join(ctx, g, store.RefByCode(created.Code))
		require.NoError(t, err)
	}
	return created
}

func roster(t *testing.T, mem *store.Memory, lobbyID int64) (*models.Lobby, []models.Player) {
	t.Helper()
	l, players, err := mem.ViewLobby(context.Background(), store.RefByID(lobbyID))
	require.NoError(t, err)
	return l, players
}
