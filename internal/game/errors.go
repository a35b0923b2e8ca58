package game

import (
	"errors"
	"fmt"
)

// Input errors. Each rejects one operation and leaves the session unchanged.
var (
	ErrInvalidLength  = errors.New("guess must be exactly 5 letters")
	ErrNotAWord       = errors.New("not in word list")
	ErrAlreadyGuessed = errors.New("that word has already been guessed")
	ErrGameNotActive  = errors.New("game is not in progress")
	ErrAlreadyActive  = errors.New("a game is already in progress")
)

// ErrInvalidSession is wrapped by Session.Validate.
var ErrInvalidSession = errors.New("invalid session")

// HardModeViolation is returned when a hard-mode guess ignores a revealed hint.
// Position is 1-based and zero for a missing-letter violation.
type HardModeViolation struct {
	Position int
	Letter   string
	Reason   string
}

func (v *HardModeViolation) Error() string {
	return fmt.Sprintf("hard mode: %s", v.Reason)
}
