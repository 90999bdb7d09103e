package lobby

import "github.com/quizparty/lobbyd/internal/models"

// isReady reports whether the lobby may leave the waiting room: every
// player has declared ready, except the host, who is exempt. A host-only
// roster is trivially ready.
func isReady(l *models.Lobby, players []models.Player) bool {
	for _, p := range players {
		if p.UserID == l.HostUserID {
			continue
		}
		if p.Status != models.PlayerStatusReady {
			return false
		}
	}
	return true
}
