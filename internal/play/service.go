// internal/play/service.go
//
// Play service: the command layer a chat front end drives.
//
// Flow:
//   start → store (per-key lock) → game.New with a dictionary solution
//   guess → store.Update → Session.SubmitGuess → ledger on won/lost
//   quit  → store.Update → Session.Quit → ledger.RecordQuit
//
// Validation errors come back as the game/store sentinel values and leave
// all state untouched. A failed flush does not undo an applied change; it
// is reported in the result's Warning instead.

package play

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
	"github.com/robalobadob/wordle/apps/corner-server/internal/metrics"
	"github.com/robalobadob/wordle/apps/corner-server/internal/scores"
	"github.com/robalobadob/wordle/apps/corner-server/internal/store"
)

// Service wires sessions, scores, and the dictionary together.
type Service struct {
	store   *store.Store
	ledger  *scores.Ledger
	dict    game.Dictionary
	metrics *metrics.Metrics // nil-safe
	now     func() time.Time
}

// New returns a Service using the wall clock.
func New(st *store.Store, ledger *scores.Ledger, dict game.Dictionary) *Service {
	return &Service{store: st, ledger: ledger, dict: dict, now: time.Now}
}

// WithMetrics makes the service count games and guesses in m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// GameView is a session snapshot plus any persistence warning.
type GameView struct {
	game.Snapshot
	Warning string `json:"warning,omitempty"`
}

// GuessView is the outcome of an accepted guess.
type GuessView struct {
	game.Outcome
	Game    game.Snapshot `json:"game"`
	Warning string        `json:"warning,omitempty"`
}

// Ack answers commands with no other payload.
type Ack struct {
	OK      bool   `json:"ok"`
	Warning string `json:"warning,omitempty"`
}

// Start begins a new game for key. A finished session is replaced; an
// in-progress one yields game.ErrAlreadyActive.
func (s *Service) Start(ctx context.Context, key game.Key, difficulty game.Difficulty) (GameView, error) {
	var snap game.Snapshot
	err := s.store.Update(ctx, key, func(cur *game.Session) (*game.Session, error) {
		if cur != nil && cur.Status == game.InProgress {
			return nil, game.ErrAlreadyActive
		}
		sess, err := game.New(key, difficulty, "", s.dict, s.now())
		if err != nil {
			return nil, err
		}
		snap = sess.Snapshot()
		return sess, nil
	})
	warn, err := splitWarning(err)
	if err != nil {
		logRejected(key, "start", err)
		return GameView{}, err
	}
	s.metrics.GameStarted(string(difficulty))
	log.Info().Str("scope", key.Scope).Str("player", key.Player).Str("gameId", snap.ID).
		Str("difficulty", string(difficulty)).Msg("game started")
	return GameView{Snapshot: snap, Warning: warn}, nil
}

// Guess submits word for key's session. A key with no session is treated
// as not active.
func (s *Service) Guess(ctx context.Context, key game.Key, word string) (GuessView, error) {
	var (
		out  game.Outcome
		snap game.Snapshot
	)
	err := s.store.Update(ctx, key, func(cur *game.Session) (*game.Session, error) {
		if cur == nil {
			return nil, game.ErrGameNotActive
		}
		o, err := cur.SubmitGuess(word, s.dict, s.now())
		if err != nil {
			return nil, err
		}
		out, snap = o, cur.Snapshot()
		return cur, nil
	})
	warn, err := splitWarning(err)
	if err != nil {
		s.metrics.Guess(rejectReason(err))
		logRejected(key, "guess", err)
		return GuessView{}, err
	}
	s.metrics.Guess("accepted")

	var lerr error
	switch out.Status {
	case game.Won:
		lerr = s.ledger.RecordWin(ctx, key.Scope, key.Player, out.Points, len(snap.Guesses))
	case game.Lost:
		lerr = s.ledger.RecordLoss(ctx, key.Scope, key.Player)
	}
	lwarn, lerr := splitWarning(lerr)
	if lerr != nil {
		log.Error().Err(lerr).Str("scope", key.Scope).Str("player", key.Player).Msg("record result")
	}
	if out.Status.Terminal() {
		s.metrics.GameFinished(string(snap.Difficulty), string(out.Status))
		log.Info().Str("scope", key.Scope).Str("player", key.Player).Str("gameId", snap.ID).
			Str("status", string(out.Status)).Int("guesses", len(snap.Guesses)).Int("points", out.Points).
			Msg("game finished")
	}
	return GuessView{Outcome: out, Game: snap, Warning: joinWarnings(warn, lwarn)}, nil
}

// Quit abandons key's in-progress game.
func (s *Service) Quit(ctx context.Context, key game.Key) (GameView, error) {
	var snap game.Snapshot
	err := s.store.Update(ctx, key, func(cur *game.Session) (*game.Session, error) {
		if cur == nil {
			return nil, game.ErrGameNotActive
		}
		if err := cur.Quit(s.now()); err != nil {
			return nil, err
		}
		snap = cur.Snapshot()
		return cur, nil
	})
	warn, err := splitWarning(err)
	if err != nil {
		logRejected(key, "quit", err)
		return GameView{}, err
	}

	lwarn, lerr := splitWarning(s.ledger.RecordQuit(ctx, key.Scope, key.Player))
	if lerr != nil {
		log.Error().Err(lerr).Str("scope", key.Scope).Str("player", key.Player).Msg("record quit")
	}
	s.metrics.GameFinished(string(snap.Difficulty), string(game.Quit))
	log.Info().Str("scope", key.Scope).Str("player", key.Player).Str("gameId", snap.ID).Msg("game quit")
	return GameView{Snapshot: snap, Warning: joinWarnings(warn, lwarn)}, nil
}

// Status returns key's current or most recent game.
func (s *Service) Status(key game.Key) (game.Snapshot, error) {
	sess, err := s.store.Get(key)
	if err != nil {
		return game.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Clear removes key's finished game. An in-progress game must be quit
// first and yields game.ErrAlreadyActive.
func (s *Service) Clear(ctx context.Context, key game.Key) (Ack, error) {
	err := s.store.RemoveIf(ctx, key, func(cur *game.Session) error {
		if cur.Status == game.InProgress {
			return game.ErrAlreadyActive
		}
		return nil
	})
	warn, err := splitWarning(err)
	if err != nil {
		logRejected(key, "clear", err)
		return Ack{}, err
	}
	return Ack{OK: true, Warning: warn}, nil
}

// ListActive returns the in-progress games in scope.
func (s *Service) ListActive(scope string) []game.Snapshot {
	sessions := s.store.ListActive(scope)
	out := make([]game.Snapshot, len(sessions))
	for i, sess := range sessions {
		out[i] = sess.Snapshot()
	}
	return out
}

// Score returns the player's record in scope.
func (s *Service) Score(key game.Key) scores.Entry {
	return s.ledger.Get(key.Scope, key.Player)
}

// Leaderboard returns up to n leaders in scope.
func (s *Service) Leaderboard(scope string, n int) []scores.Entry {
	return s.ledger.TopN(scope, n)
}

// GlobalLeaderboard returns up to n leaders across all scopes.
func (s *Service) GlobalLeaderboard(n int) []scores.Entry {
	return s.ledger.GlobalTopN(n)
}

// Healthy reports whether both stores are persisting.
func (s *Service) Healthy() bool {
	return s.store.Healthy() && s.ledger.Healthy()
}

// splitWarning separates a persistence failure, which accompanies an
// applied change, from a real error.
func splitWarning(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	var perr *docstore.PersistenceError
	if errors.As(err, &perr) {
		return perr.Error(), nil
	}
	return "", err
}

func joinWarnings(ws ...string) string {
	var parts []string
	for _, w := range ws {
		if w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, "; ")
}

// rejectReason labels a rejected guess for metrics.
func rejectReason(err error) string {
	var hm *game.HardModeViolation
	switch {
	case errors.As(err, &hm):
		return "hard_mode"
	case errors.Is(err, game.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, game.ErrNotAWord):
		return "not_a_word"
	case errors.Is(err, game.ErrAlreadyGuessed):
		return "already_guessed"
	case errors.Is(err, game.ErrGameNotActive):
		return "game_not_active"
	}
	return "error"
}

func logRejected(key game.Key, op string, err error) {
	log.Debug().Err(err).Str("scope", key.Scope).Str("player", key.Player).Str("op", op).Msg("command rejected")
}
