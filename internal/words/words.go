// internal/words/words.go
//
// Dictionary provider for the game engine.
//
// Responsibilities:
//   - Load solution and guess lists from configured files or the embedded defaults.
//   - Maintain sets for quick lookups (solutions only, solutions ∪ guesses).
//   - Answer IsValidGuess, IsValidSolution, RandomSolution.
//
// Loading (Load):
//   1. answersPath and allowedPath both set: solutions from the first,
//      extra guesses from the second.
//   2. only allowedPath set: that file serves as both lists.
//   3. neither set: embedded assets/answers.txt and assets/allowed.txt.
//
// Constraints:
//   • Words must be 5 letters A–Z; anything else in a list is dropped.
//   • Lists are normalized to uppercase.
//   • Every solution is also a valid guess.

package words

import (
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/assets"
	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
)

// List is an immutable dictionary. Safe for concurrent use.
type List struct {
	solutions   []string
	solutionSet map[string]struct{}
	allowedSet  map[string]struct{} // solutions ∪ guesses
}

var _ game.Dictionary = (*List)(nil)

// Load builds a List from the given files or the embedded defaults.
// Returns an error if the solution list ends up empty.
func Load(answersPath, allowedPath string) (*List, error) {
	var ansList, allowList []string
	var err error

	switch {
	case answersPath != "" && allowedPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, err
		}
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}
	case allowedPath != "":
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}
		ansList = allowList
	default:
		if ansList, err = assets.AnswersList(); err != nil {
			return nil, err
		}
		if allowList, err = assets.AllowedList(); err != nil {
			return nil, err
		}
	}

	l := New(ansList, allowList)
	if len(l.solutions) == 0 {
		return nil, errors.New("words: solution list is empty")
	}
	log.Debug().Int("solutions", len(l.solutions)).Int("allowed", len(l.allowedSet)).Msg("word lists loaded")
	return l, nil
}

// New builds a List from in-memory slices, keeping only valid 5-letter words.
func New(solutions, guesses []string) *List {
	l := &List{
		solutionSet: make(map[string]struct{}),
		allowedSet:  make(map[string]struct{}),
	}
	for _, w := range normalize(solutions) {
		if _, dup := l.solutionSet[w]; dup {
			continue
		}
		l.solutions = append(l.solutions, w)
		l.solutionSet[w] = struct{}{}
		l.allowedSet[w] = struct{}{}
	}
	for _, w := range normalize(guesses) {
		l.allowedSet[w] = struct{}{}
	}
	return l
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ReadWords(f)
}

// normalize uppercases and drops anything that is not 5 letters A–Z.
func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = game.Canonical(w)
		if len(w) == game.WordLength && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RandomSolution returns a cryptographically random solution word.
func (l *List) RandomSolution() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.solutions))))
	if err != nil {
		log.Warn().Err(err).Msg("random solution: falling back to first word")
		return l.solutions[0]
	}
	return l.solutions[n.Int64()]
}

// IsValidGuess reports whether w is an accepted guess (solutions ∪ guesses).
func (l *List) IsValidGuess(w string) bool {
	_, ok := l.allowedSet[strings.ToUpper(w)]
	return ok
}

// IsValidSolution reports whether w is a solution word.
func (l *List) IsValidSolution(w string) bool {
	_, ok := l.solutionSet[strings.ToUpper(w)]
	return ok
}

// Solutions returns the ordered solution list. Callers must not modify it.
func (l *List) Solutions() []string { return l.solutions }

// Stats returns counts of loaded words: (solutions, allowed guesses).
func (l *List) Stats() (solutions int, allowed int) {
	return len(l.solutions), len(l.allowedSet)
}
