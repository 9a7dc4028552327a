package domino

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks bad caller input. Nothing is mutated.
	ErrInvalid = errors.New("invalid input")

	// ErrConflict marks an operation the game's current state does not allow.
	ErrConflict = errors.New("not allowed in current state")

	ErrNameTaken   = errors.New("player name already taken")
	ErrPlayerInUse = errors.New("player is seated in a game")
)
