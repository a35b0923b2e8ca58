// internal/scores/ledger.go
//
// Score ledger: cumulative per-player results within a scope.
//
// Rules:
//   - A win adds its points, bumps gamesWon and gamesPlayed, and adds the
//     guesses used to totalGuesses (firstAttemptWins when that was 1).
//   - A loss or a quit only bumps gamesPlayed.
//   - totalPoints never decreases.
//
// Leaderboards sort by totalPoints desc, gamesWon desc, then player asc, so
// ties always come out in the same order.

package scores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
)

// Record is the document name scores are persisted under.
const Record = "scores"

// Score is one player's cumulative record.
type Score struct {
	TotalPoints      int `json:"totalPoints"`
	GamesWon         int `json:"gamesWon"`
	GamesPlayed      int `json:"gamesPlayed"`
	TotalGuesses     int `json:"totalGuesses"`
	FirstAttemptWins int `json:"firstAttemptWins"`
}

// AverageGuesses is guesses per won game, 0 with no wins.
func (s Score) AverageGuesses() float64 {
	if s.GamesWon == 0 {
		return 0
	}
	return float64(s.TotalGuesses) / float64(s.GamesWon)
}

func (s *Score) add(o Score) {
	s.TotalPoints += o.TotalPoints
	s.GamesWon += o.GamesWon
	s.GamesPlayed += o.GamesPlayed
	s.TotalGuesses += o.TotalGuesses
	s.FirstAttemptWins += o.FirstAttemptWins
}

// Entry is a Score labelled with its player, as returned by queries.
type Entry struct {
	Player string `json:"player"`
	Score
	AverageGuesses float64 `json:"averageGuesses"`
}

func entry(player string, s Score) Entry {
	return Entry{Player: player, Score: s, AverageGuesses: s.AverageGuesses()}
}

type document map[string]map[string]*Score

// Ledger records results. Safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex // guards scores
	scores  document
	persist *docstore.Persister // nil: memory only
}

// NewMemory returns a ledger that is never persisted.
func NewMemory() *Ledger {
	return &Ledger{scores: make(document)}
}

// Open loads the scores document through p. A malformed document is logged
// and the ledger starts empty.
func Open(ctx context.Context, p *docstore.Persister) (*Ledger, error) {
	l := NewMemory()
	l.persist = p

	doc := make(document)
	if err := p.Load(ctx, &doc); err != nil {
		if !errors.Is(err, docstore.ErrMalformed) {
			return nil, err
		}
		log.Error().Err(err).Str("record", p.Record()).Msg("discarding unreadable scores")
		doc = make(document)
	}
	for _, players := range doc {
		for player, s := range players {
			if s == nil {
				delete(players, player)
			}
		}
	}
	l.scores = doc
	return l, nil
}

// RecordWin credits a win worth points that took guessesUsed guesses.
func (l *Ledger) RecordWin(ctx context.Context, scope, player string, points, guessesUsed int) error {
	if points < 0 {
		return fmt.Errorf("scores: negative points %d", points)
	}
	first := 0
	if guessesUsed == 1 {
		first = 1
	}
	return l.apply(ctx, scope, player, Score{
		TotalPoints:      points,
		GamesWon:         1,
		GamesPlayed:      1,
		TotalGuesses:     guessesUsed,
		FirstAttemptWins: first,
	})
}

// RecordLoss counts a lost game.
func (l *Ledger) RecordLoss(ctx context.Context, scope, player string) error {
	return l.apply(ctx, scope, player, Score{GamesPlayed: 1})
}

// RecordQuit counts an abandoned game.
func (l *Ledger) RecordQuit(ctx context.Context, scope, player string) error {
	return l.apply(ctx, scope, player, Score{GamesPlayed: 1})
}

func (l *Ledger) apply(ctx context.Context, scope, player string, delta Score) error {
	l.mu.Lock()
	players := l.scores[scope]
	if players == nil {
		players = make(map[string]*Score)
		l.scores[scope] = players
	}
	s := players[player]
	if s == nil {
		s = &Score{}
		players[player] = s
	}
	s.add(delta)
	l.mu.Unlock()

	if l.persist == nil {
		return nil
	}
	return l.persist.Save(ctx, l.snapshot)
}

// Get returns the player's record in scope; zero if they have none.
func (l *Ledger) Get(scope, player string) Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s := l.scores[scope][player]; s != nil {
		return entry(player, *s)
	}
	return entry(player, Score{})
}

// TopN returns up to n leaders within scope.
func (l *Ledger) TopN(scope string, n int) []Entry {
	l.mu.RLock()
	out := make([]Entry, 0, len(l.scores[scope]))
	for player, s := range l.scores[scope] {
		out = append(out, entry(player, *s))
	}
	l.mu.RUnlock()
	return top(out, n)
}

// GlobalTopN sums each player's records across every scope and returns up
// to n leaders.
func (l *Ledger) GlobalTopN(n int) []Entry {
	totals := make(map[string]Score)
	l.mu.RLock()
	for _, players := range l.scores {
		for player, s := range players {
			t := totals[player]
			t.add(*s)
			totals[player] = t
		}
	}
	l.mu.RUnlock()

	out := make([]Entry, 0, len(totals))
	for player, s := range totals {
		out = append(out, entry(player, s))
	}
	return top(out, n)
}

// Healthy reports whether persistence is keeping up.
func (l *Ledger) Healthy() bool {
	return l.persist == nil || l.persist.Healthy()
}

func top(es []Entry, n int) []Entry {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.GamesWon != b.GamesWon {
			return a.GamesWon > b.GamesWon
		}
		return a.Player < b.Player
	})
	if n >= 0 && len(es) > n {
		es = es[:n]
	}
	return es
}

func (l *Ledger) snapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc := make(document, len(l.scores))
	for scope, players := range l.scores {
		cp := make(map[string]*Score, len(players))
		for player, s := range players {
			v := *s
			cp[player] = &v
		}
		doc[scope] = cp
	}
	return doc
}
