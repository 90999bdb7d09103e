// internal/handlers/lobby_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/lobby"
	"github.com/quizparty/lobbyd/internal/models"
	"github.com/quizparty/lobbyd/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	auth.Init() // ephemeral keys, no DB needed

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := lobby.NewService(store.NewMemory(), logger)
	return NewServer(svc, logger).Routes()
}

func mintToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.CreateJWT(auth.Identity{UserID: uuid.New(), Email: email})
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestLobbyFlow drives the whole waiting-room lifecycle over HTTP: create,
// join by code, ready up, start, poll the view.
func TestLobbyFlow(t *testing.T) {
	h := newTestHandler(t)
	hostToken := mintToken(t, "alice@example.com")
	guestToken := mintToken(t, "bob@example.com")

	w := doJSON(t, h, "POST", "/lobby/create", hostToken, `{}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d: %s", w.Code, w.Body.String())
	}
	var created lobby.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create result: %v", err)
	}
	if created.Code == "" {
		t.Fatalf("lobby has no join code")
	}

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/join", guestToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// start must be gated while the guest is unready
	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/start", hostToken, `{}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("ungated start: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/ready", guestToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/start", hostToken, `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "GET", "/lobby/"+created.Code, guestToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view lobby.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode lobby view: %v", err)
	}
	if view.Status != models.LobbyStatusInProgress {
		t.Fatalf("expected lobby %s, got %s", models.LobbyStatusInProgress, view.Status)
	}
	for _, p := range view.Players {
		if p.Status != models.PlayerStatusPlaying {
			t.Fatalf("player %s not moved to playing: %s", p.Nickname, p.Status)
		}
	}
}

func TestForceStart(t *testing.T) {
	h := newTestHandler(t)
	hostToken := mintToken(t, "alice@example.com")
	guestToken := mintToken(t, "bob@example.com")

	w := doJSON(t, h, "POST", "/lobby/create", hostToken, `{}`)
	var created lobby.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create result: %v", err)
	}
	doJSON(t, h, "POST", "/lobby/"+created.Code+"/join", guestToken, "")

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/start", hostToken, `{"force_start":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("forced start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// Create and start accept an absent body; the EOF from the decoder must
// not surface as a 400.
func TestEmptyBodyTolerated(t *testing.T) {
	h := newTestHandler(t)
	hostToken := mintToken(t, "alice@example.com")

	w := doJSON(t, h, "POST", "/lobby/create", hostToken, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("empty-body create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created lobby.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create result: %v", err)
	}

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/start", hostToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("empty-body start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// a genuinely malformed body is still rejected
	w = doJSON(t, h, "POST", "/lobby/create", hostToken, `{"deck_id":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("truncated body: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMissingAuth(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, "POST", "/lobby/create", "", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = doJSON(t, h, "GET", "/lobby/list", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMalformedRef(t *testing.T) {
	h := newTestHandler(t)
	token := mintToken(t, "alice@example.com")

	// wrong length and excluded characters are rejected before any lookup
	w := doJSON(t, h, "POST", "/lobby/AB10/join", token, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJoinUnknownCode(t *testing.T) {
	h := newTestHandler(t)
	token := mintToken(t, "alice@example.com")

	w := doJSON(t, h, "POST", "/lobby/ZZ9999/join", token, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetLobbyHiddenFromStrangers(t *testing.T) {
	h := newTestHandler(t)
	hostToken := mintToken(t, "alice@example.com")
	strangerToken := mintToken(t, "eve@example.com")

	w := doJSON(t, h, "POST", "/lobby/create", hostToken, `{}`)
	var created lobby.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create result: %v", err)
	}

	w = doJSON(t, h, "GET", "/lobby/"+created.Code, strangerToken, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestKickOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	hostToken := mintToken(t, "alice@example.com")
	guestToken := mintToken(t, "bob@example.com")

	w := doJSON(t, h, "POST", "/lobby/create", hostToken, `{}`)
	var created lobby.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create result: %v", err)
	}

	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/join", guestToken, "")
	var joined lobby.JoinResult
	if err := json.Unmarshal(w.Body.Bytes(), &joined); err != nil {
		t.Fatalf("failed to decode join result: %v", err)
	}

	// guest cannot kick
	body, _ := json.Marshal(map[string]int64{"player_id": created.HostPlayerID})
	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/kick", guestToken, string(body))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	// host cannot kick itself
	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/kick", hostToken, string(body))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	// host kicks the guest
	body, _ = json.Marshal(map[string]int64{"player_id": joined.PlayerID})
	w = doJSON(t, h, "POST", "/lobby/"+created.Code+"/kick", hostToken, string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
