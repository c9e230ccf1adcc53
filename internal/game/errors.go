package game

import "errors"

// Request-local failures. Every one of these rejects the offending action
// and leaves the game untouched; none is fatal to the game or the process.
var (
	ErrGameNotFound        = errors.New("game not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameAlreadyFinished = errors.New("game already finished")
	ErrGameNotStarted      = errors.New("game not started")
	ErrGameFull            = errors.New("game is full")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrNoRollsLeft         = errors.New("no rolls left")
	ErrMustRollFirst       = errors.New("must roll first")
	ErrInvalidHoldMask     = errors.New("invalid hold mask")
	ErrColumnNotFound      = errors.New("score column not found")
	ErrCategoryNotFound    = errors.New("score category not found")
	ErrCellAlreadyScored   = errors.New("cell already scored")
)
