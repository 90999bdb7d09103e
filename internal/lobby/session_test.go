package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizparty/lobbyd/internal/code"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

func TestCreateLobby(t *testing.T) {
	svc, mem := testService(t)
	ctx := context.Background()
	host := testIdent("alice@example.com")

	res, err := svc.CreateLobby(ctx, host, nil)
	require.NoError(t, err)
	assert.True(t, code.Valid(res.Code), "code %q has the wrong shape", res.Code)
	assert.Equal(t, host.UserID, res.HostUserID)
	assert.NotZero(t, res.LobbyID)
	assert.NotZero(t, res.HostPlayerID)

	l, players := roster(t, mem, res.LobbyID)
	assert.Equal(t, models.LobbyStatusWaiting, l.Status)
	require.Len(t, players, 1)
	assert.Equal(t, host.UserID, players[0].UserID)
	assert.Equal(t, models.PlayerStatusJoined, players[0].Status)
	assert.Equal(t, "alice", players[0].Nickname)
	assert.Equal(t, 0, players[0].Score)
}

func TestCreateLobbyWithDeck(t *testing.T) {
	svc, mem := testService(t)
	deckID := int64(42)

	res, err := svc.CreateLobby(context.Background(), testIdent("a@b.c"), &deckID)
	require.NoError(t, err)

	l, _ := roster(t, mem, res.LobbyID)
	require.NotNil(t, l.DeckID)
	assert.Equal(t, deckID, *l.DeckID)
}

// Two creators independently drawing the same code must still end up with
// two lobbies under distinct codes.
func TestCreateLobbyCodeCollision(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	svc.genCode = codeSequence("AB23CD", "AB23CD", "XY45ZW")

	first, err := svc.CreateLobby(ctx, testIdent("first@example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, "AB23CD", first.Code)

	second, err := svc.CreateLobby(ctx, testIdent("second@example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, "XY45ZW", second.Code)
	assert.NotEqual(t, first.Code, second.Code)
}

func TestCreateLobbyCodeExhaustion(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	svc.genCode = codeSequence("AB23CD")

	_, err := svc.CreateLobby(ctx, testIdent("first@example.com"), nil)
	require.NoError(t, err)

	_, err = svc.CreateLobby(ctx, testIdent("second@example.com"), nil)
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

// A finished lobby frees its code for reuse.
func TestCreateLobbyReusesFinishedCode(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")

	svc.genCode = codeSequence("AB23CD")
	created, err := svc.CreateLobby(ctx, host, nil)
	require.NoError(t, err)

	// last player leaving finishes the lobby
	require.NoError(t, svc.Leave(ctx, host, store.RefByID(created.LobbyID)))

	again, err := svc.CreateLobby(ctx, testIdent("other@example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, "AB23CD", again.Code)
}

func TestStartGameRequiresHost(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")
	guest := testIdent("guest@example.com")
	created := makeLobby(t, svc, host, guest)

	_, err := svc.StartGame(ctx, guest, store.RefByID(created.LobbyID), false)
	assert.ErrorIs(t, err, ErrForbidden)

	// force never bypasses the host check
	_, err = svc.StartGame(ctx, guest, store.RefByID(created.LobbyID), true)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStartGameNotFound(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.StartGame(context.Background(), testIdent("h@x.co"), store.RefByID(999), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartGameGatedOnReadiness(t *testing.T) {
	svc, mem := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")
	guest := testIdent("guest@example.com")
	created := makeLobby(t, svc, host, guest)
	ref := store.RefByID(created.LobbyID)

	_, err := svc.StartGame(ctx, host, ref, false)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = svc.ToggleReady(ctx, guest, ref)
	require.NoError(t, err)

	// host never has to ready up
	res, err := svc.StartGame(ctx, host, ref, false)
	require.NoError(t, err)
	assert.Equal(t, created.Code, res.Code)

	l, players := roster(t, mem, created.LobbyID)
	assert.Equal(t, models.LobbyStatusInProgress, l.Status)
	for _, p := range players {
		assert.Equal(t, models.PlayerStatusPlaying, p.Status, "player %s left behind", p.Nickname)
	}
}

func TestStartGameForceBypassesGate(t *testing.T) {
	svc, mem := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")
	created := makeLobby(t, svc, host, testIdent("idle@example.com"))
	ref := store.RefByID(created.LobbyID)

	_, err := svc.StartGame(ctx, host, ref, false)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = svc.StartGame(ctx, host, ref, true)
	require.NoError(t, err)

	l, _ := roster(t, mem, created.LobbyID)
	assert.Equal(t, models.LobbyStatusInProgress, l.Status)
}

func TestStartGameHostOnlyLobby(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	host := testIdent("solo@example.com")
	created := makeLobby(t, svc, host)

	// an empty non-host roster is trivially ready
	_, err := svc.StartGame(ctx, host, store.RefByID(created.LobbyID), false)
	require.NoError(t, err)
}

// Concurrent start attempts serialize on the store's lobby lock: exactly
// one caller observes the waiting status and transitions, the rest see a
// game already underway.
func TestStartGameConcurrent(t *testing.T) {
	svc, mem := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")
	created := makeLobby(t, svc, host)
	ref := store.RefByID(created.LobbyID)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.StartGame(ctx, host, ref, true)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var started, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrGameInProgress):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, started, "exactly one start may win")
	assert.Equal(t, n-1, conflicts)

	l, players := roster(t, mem, created.LobbyID)
	assert.Equal(t, models.LobbyStatusInProgress, l.Status)
	for _, p := range players {
		assert.Equal(t, models.PlayerStatusPlaying, p.Status)
	}
}

func TestStartGameTwice(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	host := testIdent("host@example.com")
	created := makeLobby(t, svc, host)
	ref := store.RefByID(created.LobbyID)

	_, err := svc.StartGame(ctx, host, ref, false)
	require.NoError(t, err)

	_, err = svc.StartGame(ctx, host, ref, false)
	assert.ErrorIs(t, err, ErrGameInProgress)
}
