package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
)

// startReq is the payload for POST .../game.
type startReq struct {
	Difficulty string `json:"difficulty"` // easy | medium (normal) | hard; default medium
}

// guessReq is the payload for POST .../game/guess.
type guessReq struct {
	Word string `json:"word"`
}

func keyFrom(r *http.Request) game.Key {
	return game.Key{Scope: chi.URLParam(r, "scope"), Player: chi.URLParam(r, "player")}
}

// decodeBody decodes an optional JSON body; an empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	diff, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	view, err := s.svc.Start(r.Context(), keyFrom(r), diff)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Status(keyFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	out, err := s.svc.Guess(r.Context(), keyFrom(r), req.Word)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Quit(r.Context(), keyFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	key := keyFrom(r)
	ack, err := s.svc.Clear(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Info().Str("caller", caller(r)).Str("scope", key.Scope).Str("player", key.Player).Msg("session cleared")
	writeJSON(w, http.StatusOK, ack)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Score(keyFrom(r)))
}

func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListActive(chi.URLParam(r, "scope")))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(w, r, 5)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Leaderboard(chi.URLParam(r, "scope"), n))
}

func (s *Server) handleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(w, r, 10)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GlobalLeaderboard(n))
}

// limitParam reads ?n= (1..100), writing a 400 and returning false when invalid.
func limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		writeError(w, http.StatusBadRequest, "bad_request", "n must be between 1 and 100")
		return 0, false
	}
	return n, true
}
