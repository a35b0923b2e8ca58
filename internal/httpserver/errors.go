package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
	"github.com/robalobadob/wordle/apps/corner-server/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Position int    `json:"position,omitempty"`
	Letter   string `json:"letter,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// writeServiceError maps play/game/store errors to a status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	var hm *game.HardModeViolation
	switch {
	case errors.As(err, &hm):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: "hard_mode", Message: hm.Error(), Position: hm.Position, Letter: hm.Letter,
		})
	case errors.Is(err, game.ErrInvalidLength):
		writeError(w, http.StatusBadRequest, "invalid_length", err.Error())
	case errors.Is(err, game.ErrNotAWord):
		writeError(w, http.StatusBadRequest, "not_a_word", err.Error())
	case errors.Is(err, game.ErrAlreadyGuessed):
		writeError(w, http.StatusBadRequest, "already_guessed", err.Error())
	case errors.Is(err, game.ErrGameNotActive):
		writeError(w, http.StatusConflict, "game_not_active", err.Error())
	case errors.Is(err, game.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "already_active", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
