package lobby

import "errors"

// Failure classes of the lobby engine. The transport layer maps these to
// status codes; anything else it sees is an internal error.
var (
	// ErrInvalidInput means the lobby reference or join code is malformed.
	ErrInvalidInput = errors.New("invalid lobby reference")

	// ErrNotFound covers a truly absent lobby and a lobby that has already
	// left the waiting room. Conflating the two keeps non-members from
	// probing whether a game is underway.
	ErrNotFound = errors.New("lobby not found")

	// ErrForbidden means the caller lacks the required authority: not the
	// host for host-only operations, not a member for member operations.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTarget means the operation's target player is ineligible,
	// e.g. kicking the host or kicking a player who is not in the lobby.
	ErrInvalidTarget = errors.New("invalid target player")

	// ErrNotReady means a non-forced start found unready players.
	ErrNotReady = errors.New("not all players are ready")

	// ErrGameInProgress rejects waiting-room operations on a lobby whose
	// game has already started.
	ErrGameInProgress = errors.New("game already in progress")

	// ErrCodeExhausted means repeated join-code collisions prevented lobby
	// creation.
	ErrCodeExhausted = errors.New("could not allocate a unique join code")

	// ErrCreateFailed wraps any other failure during lobby creation.
	ErrCreateFailed = errors.New("lobby creation failed")
)
