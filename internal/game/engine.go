// internal/game/engine.go
//
// State machine for a single game session.
// Responsibilities:
//   - Create sessions with a solution from the Dictionary.
//   - Validate guesses (activity, length, vocabulary, repeats, hard mode).
//   - Score guesses with Evaluate and track in_progress → won/lost/quit.
//   - Produce read-only snapshots with the aggregated keyboard.
//
// A rejected guess never appends to Guesses or changes Status.
package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Dictionary answers vocabulary queries. Words are compared case-insensitively.
type Dictionary interface {
	IsValidGuess(word string) bool
	IsValidSolution(word string) bool
	RandomSolution() string
}

// New constructs an in-progress session for key.
// If solution is empty, a random one is drawn from dict.
func New(key Key, difficulty Difficulty, solution string, dict Dictionary, now time.Time) (*Session, error) {
	if solution == "" {
		solution = dict.RandomSolution()
	}
	solution = Canonical(solution)
	if len(solution) != WordLength || !isUpperAlpha(solution) || !dict.IsValidSolution(solution) {
		return nil, fmt.Errorf("invalid solution %q", solution)
	}
	return &Session{
		ID:         uuid.NewString(),
		Key:        key,
		Solution:   solution,
		Difficulty: difficulty,
		Guesses:    []Guess{},
		Status:     InProgress,
		CreatedAt:  now.UTC(),
	}, nil
}

// Outcome is what the caller learns from an accepted guess.
type Outcome struct {
	Result    GuessResult `json:"result"`
	Status    Status      `json:"status"`
	Remaining int         `json:"remaining"`
	Points    int         `json:"points,omitempty"` // set only on the winning guess
}

// SubmitGuess validates and applies a guess, mutating the session.
//
// Validation order:
//   - session must be in progress         → ErrGameNotActive
//   - exactly five characters             → ErrInvalidLength
//   - A–Z only and an allowed guess        → ErrNotAWord
//   - not already guessed in this session → ErrAlreadyGuessed
//   - hard-mode hints honored             → *HardModeViolation
//
// Transitions: all Correct → Won; guesses exhausted → Lost.
func (s *Session) SubmitGuess(word string, dict Dictionary, now time.Time) (Outcome, error) {
	if s.Status != InProgress {
		return Outcome{}, ErrGameNotActive
	}
	word = Canonical(word)
	if utf8.RuneCountInString(word) != WordLength {
		return Outcome{}, ErrInvalidLength
	}
	if !isUpperAlpha(word) || !dict.IsValidGuess(word) {
		return Outcome{}, ErrNotAWord
	}
	for _, g := range s.Guesses {
		if g.Word == word {
			return Outcome{}, ErrAlreadyGuessed
		}
	}
	if s.Difficulty.HardMode() {
		if err := DeriveConstraints(s.Guesses).Validate(word); err != nil {
			return Outcome{}, err
		}
	}

	res := Evaluate(word, s.Solution)
	s.Guesses = append(s.Guesses, Guess{Word: word, Result: res})

	out := Outcome{Result: res}
	switch {
	case res.AllCorrect():
		s.finish(Won, now)
		out.Points = s.Difficulty.Points(len(s.Guesses))
	case len(s.Guesses) >= s.Difficulty.MaxGuesses():
		s.finish(Lost, now)
	}
	out.Status = s.Status
	out.Remaining = s.Remaining()
	return out, nil
}

// Quit abandons an in-progress game. No points are awarded.
func (s *Session) Quit(now time.Time) error {
	if s.Status != InProgress {
		return ErrGameNotActive
	}
	s.finish(Quit, now)
	return nil
}

func (s *Session) finish(st Status, now time.Time) {
	s.Status = st
	t := now.UTC()
	s.FinishedAt = &t
}

// Validate checks a session restored from storage before it is played.
func (s *Session) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSession, fmt.Sprintf(format, args...))
	}
	if len(s.Solution) != WordLength || !isUpperAlpha(s.Solution) {
		return bad("solution %q is not %d letters A-Z", s.Solution, WordLength)
	}
	switch s.Difficulty {
	case Easy, Medium, Hard:
	default:
		return bad("unknown difficulty %q", s.Difficulty)
	}
	switch s.Status {
	case InProgress, Won, Lost, Quit:
	default:
		return bad("unknown status %q", s.Status)
	}
	limit := s.Difficulty.MaxGuesses()
	if len(s.Guesses) > limit {
		return bad("%d guesses exceed the limit of %d", len(s.Guesses), limit)
	}
	if s.Status == InProgress && len(s.Guesses) == limit {
		return bad("in progress with no guesses left")
	}
	for n, g := range s.Guesses {
		if len(g.Word) != WordLength || !isUpperAlpha(g.Word) {
			return bad("guess %d: word %q is not %d letters A-Z", n+1, g.Word, WordLength)
		}
		for i, lr := range g.Result {
			if len(lr.Letter) != 1 || !isUpperAlpha(lr.Letter) {
				return bad("guess %d: letter %d is %q", n+1, i+1, lr.Letter)
			}
			if lr.Status.rank() == 0 {
				return bad("guess %d: letter %d has status %q", n+1, i+1, lr.Status)
			}
		}
	}
	if s.Status == Won && (len(s.Guesses) == 0 || !s.Guesses[len(s.Guesses)-1].Result.AllCorrect()) {
		return bad("won without a correct final guess")
	}
	return nil
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID         string                  `json:"id"`
	Scope      string                  `json:"scope"`
	Player     string                  `json:"player"`
	Difficulty Difficulty              `json:"difficulty"`
	Status     Status                  `json:"status"`
	Guesses    []Guess                 `json:"guesses"`
	Keyboard   map[string]LetterStatus `json:"keyboard"`
	Remaining  int                     `json:"remaining"`
	Solution   string                  `json:"solution,omitempty"` // revealed once finished
	CreatedAt  time.Time               `json:"createdAt"`
}

// Snapshot builds the read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		Scope:      s.Key.Scope,
		Player:     s.Key.Player,
		Difficulty: s.Difficulty,
		Status:     s.Status,
		Guesses:    append([]Guess{}, s.Guesses...),
		Keyboard:   Keyboard(s.Guesses),
		Remaining:  s.Remaining(),
		CreatedAt:  s.CreatedAt,
	}
	if s.Status.Terminal() {
		snap.Solution = s.Solution
	}
	return snap
}

// Keyboard aggregates the best-known status of every guessed letter.
// A letter only ever upgrades: Absent → Present → Correct.
func Keyboard(guesses []Guess) map[string]LetterStatus {
	kb := make(map[string]LetterStatus)
	for _, g := range guesses {
		for _, lr := range g.Result {
			if lr.Status.rank() > kb[lr.Letter].rank() {
				kb[lr.Letter] = lr.Status
			}
		}
	}
	return kb
}

// Canonical trims and uppercases a word.
func Canonical(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// isUpperAlpha reports whether s consists only of A–Z.
func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
