// internal/game/types.go
//
// Core type definitions for the game-session engine.
// Defines:
//   - LetterStatus: per-letter result of a guess (correct/present/absent).
//   - GuessResult:  the five positional results of one guess.
//   - Difficulty:   easy/medium/hard with their fixed attributes.
//   - Status:       lifecycle of a session (in_progress → won/lost/quit).
//   - Key:          (scope, player) identity of a session.
//   - Session:      state for a single in-progress or finished game.

package game

import (
	"fmt"
	"strings"
	"time"
)

// WordLength is the number of letters in every guess and solution.
const WordLength = 5

// LetterStatus represents the evaluation result for a single letter in a guess.
//   - "correct": letter is in the solution at this position (green).
//   - "present": letter is in the solution at another, unclaimed position (yellow).
//   - "absent":  no unclaimed occurrence of the letter remains (grey).
type LetterStatus string

const (
	Correct LetterStatus = "correct"
	Present LetterStatus = "present"
	Absent  LetterStatus = "absent"
)

// rank orders statuses for keyboard aggregation: Correct > Present > Absent.
func (s LetterStatus) rank() int {
	switch s {
	case Correct:
		return 3
	case Present:
		return 2
	case Absent:
		return 1
	}
	return 0
}

// LetterResult is one tile of a GuessResult.
type LetterResult struct {
	Letter string       `json:"letter"`
	Status LetterStatus `json:"status"`
}

// GuessResult is the positional feedback for one guess.
type GuessResult [WordLength]LetterResult

// AllCorrect reports whether every tile is Correct.
func (r GuessResult) AllCorrect() bool {
	for _, lr := range r {
		if lr.Status != Correct {
			return false
		}
	}
	return true
}

// Difficulty selects guess limit, base points, and hard-mode enforcement.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps user input to a Difficulty.
// Empty input defaults to Medium; "normal" is accepted as Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "", "medium", "normal":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// MaxGuesses is the number of guesses allowed before the game is lost.
func (d Difficulty) MaxGuesses() int {
	if d == Easy {
		return 8
	}
	return 6
}

// BasePoints is awarded on a win, plus one point per unused guess.
func (d Difficulty) BasePoints() int {
	switch d {
	case Easy:
		return 5
	case Hard:
		return 15
	}
	return 10
}

// HardMode reports whether revealed hints must be reused in later guesses.
func (d Difficulty) HardMode() bool { return d == Hard }

// Points is the score for a win using guessesUsed guesses.
func (d Difficulty) Points(guessesUsed int) int {
	return d.BasePoints() + (d.MaxGuesses() - guessesUsed)
}

// Status is the lifecycle state of a session.
type Status string

const (
	InProgress Status = "in_progress"
	Won        Status = "won"
	Lost       Status = "lost"
	Quit       Status = "quit"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool { return s != InProgress }

// Key identifies a session: a scope (guild or channel) plus a player.
type Key struct {
	Scope  string `json:"scope"`
	Player string `json:"player"`
}

func (k Key) String() string { return k.Scope + "/" + k.Player }

// Guess is one accepted guess with its feedback.
type Guess struct {
	Word   string      `json:"word"`
	Result GuessResult `json:"result"`
}

// Session holds the state of one player's game.
type Session struct {
	ID         string     `json:"id"`
	Key        Key        `json:"-"`
	Solution   string     `json:"solution"` // uppercase A–Z, immutable
	Difficulty Difficulty `json:"difficulty"`
	Guesses    []Guess    `json:"guesses"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Remaining is the number of guesses left.
func (s *Session) Remaining() int {
	return s.Difficulty.MaxGuesses() - len(s.Guesses)
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Guesses = append([]Guess(nil), s.Guesses...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
