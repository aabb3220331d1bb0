package battleship

import "errors"

// Validation errors. The caller can correct its input and retry; the game
// is never mutated when one of these is returned.
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyProbed    = errors.New("cell already attacked")
	ErrInvalidPlacement = errors.New("invalid ship placement")
	ErrRoomFull         = errors.New("game is full")
	ErrSelfJoin         = errors.New("cannot join your own game")
	ErrInvalidState     = errors.New("game is not in a valid state for this action")
	ErrOutOfBounds      = errors.New("coordinates out of bounds")
	ErrNotParticipant   = errors.New("you are not in this game")
)

// Internal errors signal a broken invariant rather than bad input.
var (
	ErrNoMovesLeft        = errors.New("no unprobed cells left")
	ErrPlacementExhausted = errors.New("fleet placement retry limit exceeded")
)

var validationErrors = []error{
	ErrNotYourTurn,
	ErrAlreadyProbed,
	ErrInvalidPlacement,
	ErrRoomFull,
	ErrSelfJoin,
	ErrInvalidState,
	ErrOutOfBounds,
	ErrNotParticipant,
}

// IsValidation reports whether err is a user-correctable rejection.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
