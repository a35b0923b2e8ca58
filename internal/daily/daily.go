// Package daily provides a Dictionary whose solution is the word of the day:
// every game started on the same UTC date gets the same solution.
package daily

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex returns a deterministic index for a date using a keyed
// BLAKE2b-256 of YYYY-MM-DD, reduced modulo n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	// blake2b keys are limited to 64 bytes; longer salts are hashed down first.
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return 0
	}
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// SolutionLister is a Dictionary that can enumerate its solutions.
type SolutionLister interface {
	game.Dictionary
	Solutions() []string
}

// Source wraps a dictionary and replaces RandomSolution with the word of the day.
type Source struct {
	SolutionLister
	salt string
	now  func() time.Time
}

// NewSource returns a daily Source. now defaults to time.Now.
func NewSource(dict SolutionLister, salt string, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{SolutionLister: dict, salt: salt, now: now}
}

// RandomSolution returns today's solution.
func (s *Source) RandomSolution() string {
	sols := s.Solutions()
	if len(sols) == 0 {
		return s.SolutionLister.RandomSolution()
	}
	return sols[WordIndex(s.now(), s.salt, len(sols))]
}
