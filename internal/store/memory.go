// internal/store/memory.go
//
// Session store: at most one session per (scope, player).
//
// Characteristics:
//   - Sessions live in a scope → player map guarded by an RWMutex.
//   - Every operation on a key runs under that key's lock, so two requests
//     for the same player never interleave; different keys run in parallel.
//   - Callers always get deep copies. Update hands fn a copy and stores the
//     result only when fn succeeds, so a rejected change leaves state as is.
//   - With a Persister attached, every change is flushed as the whole
//     "sessions" document. A failed flush is reported after the in-memory
//     change has been applied.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
)

// Record is the document name sessions are persisted under.
const Record = "sessions"

// ErrNotFound is returned when a key has no session.
var ErrNotFound = errors.New("session not found")

type document map[string]map[string]*game.Session

// Store holds game sessions keyed by scope and player.
type Store struct {
	mu       sync.RWMutex // guards sessions
	sessions document
	locks    *keyLocks
	persist  *docstore.Persister // nil: memory only
}

// NewMemory returns a store that is never persisted.
func NewMemory() *Store {
	return &Store{sessions: make(document), locks: newKeyLocks()}
}

// Open loads the sessions document through p and returns a store that
// flushes through p on every change. A malformed document is logged and
// the store starts empty; sessions that fail Validate are dropped. A
// backend error is returned.
func Open(ctx context.Context, p *docstore.Persister) (*Store, error) {
	s := NewMemory()
	s.persist = p

	doc := make(document)
	if err := p.Load(ctx, &doc); err != nil {
		if !errors.Is(err, docstore.ErrMalformed) {
			return nil, err
		}
		log.Error().Err(err).Str("record", p.Record()).Msg("discarding unreadable sessions")
		doc = make(document)
	}

	loaded := 0
	for scope, players := range doc {
		for player, sess := range players {
			if sess == nil {
				delete(players, player)
				continue
			}
			if err := sess.Validate(); err != nil {
				log.Error().Err(err).Str("scope", scope).Str("player", player).Msg("dropping invalid session")
				delete(players, player)
				continue
			}
			sess.Key = game.Key{Scope: scope, Player: player}
			loaded++
		}
		if len(players) == 0 {
			delete(doc, scope)
		}
	}
	s.sessions = doc
	log.Info().Int("sessions", loaded).Str("record", p.Record()).Msg("sessions loaded")
	return s, nil
}

// Get returns a copy of the session for key.
func (s *Store) Get(key game.Key) (*game.Session, error) {
	unlock := s.locks.lock(key.String())
	defer unlock()

	if sess := s.lookup(key); sess != nil {
		return sess.Clone(), nil
	}
	return nil, ErrNotFound
}

// Put stores a copy of sess under sess.Key, replacing any existing session.
func (s *Store) Put(ctx context.Context, sess *game.Session) error {
	unlock := s.locks.lock(sess.Key.String())
	defer unlock()

	s.set(sess.Key, sess.Clone())
	return s.flush(ctx)
}

// Remove deletes the session for key.
func (s *Store) Remove(ctx context.Context, key game.Key) error {
	return s.RemoveIf(ctx, key, nil)
}

// RemoveIf deletes the session for key unless check, given a copy of it,
// returns an error.
func (s *Store) RemoveIf(ctx context.Context, key game.Key, check func(cur *game.Session) error) error {
	unlock := s.locks.lock(key.String())
	defer unlock()

	cur := s.lookup(key)
	if cur == nil {
		return ErrNotFound
	}
	if check != nil {
		if err := check(cur.Clone()); err != nil {
			return err
		}
	}
	s.set(key, nil)
	return s.flush(ctx)
}

// Update runs fn with exclusive access to key. fn receives a copy of the
// current session (nil if none). If fn returns an error nothing changes and
// that error is returned. Otherwise the returned session (nil to leave the
// slot untouched) is stored and flushed.
func (s *Store) Update(ctx context.Context, key game.Key, fn func(cur *game.Session) (*game.Session, error)) error {
	unlock := s.locks.lock(key.String())
	defer unlock()

	next, err := fn(s.lookup(key).Clone())
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	next = next.Clone()
	next.Key = key
	s.set(key, next)
	return s.flush(ctx)
}

// ListActive returns copies of the in-progress sessions in scope, ordered
// by player.
func (s *Store) ListActive(scope string) []*game.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*game.Session
	for _, sess := range s.sessions[scope] {
		if sess.Status == game.InProgress {
			out = append(out, sess.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Player < out[j].Key.Player })
	return out
}

// Healthy reports whether persistence is keeping up. Memory-only stores
// are always healthy.
func (s *Store) Healthy() bool {
	return s.persist == nil || s.persist.Healthy()
}

func (s *Store) lookup(key game.Key) *game.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[key.Scope][key.Player]
}

// set stores sess (already a private copy) or deletes the slot when nil.
func (s *Store) set(key game.Key, sess *game.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := s.sessions[key.Scope]
	if sess == nil {
		delete(players, key.Player)
		if len(players) == 0 {
			delete(s.sessions, key.Scope)
		}
		return
	}
	if players == nil {
		players = make(map[string]*game.Session)
		s.sessions[key.Scope] = players
	}
	players[key.Player] = sess
}

func (s *Store) flush(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Save(ctx, s.snapshot)
}

// snapshot deep-copies the whole collection for encoding.
func (s *Store) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := make(document, len(s.sessions))
	for scope, players := range s.sessions {
		cp := make(map[string]*game.Session, len(players))
		for player, sess := range players {
			cp[player] = sess.Clone()
		}
		doc[scope] = cp
	}
	return doc
}
