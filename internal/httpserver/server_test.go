package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
	"github.com/robalobadob/wordle/apps/corner-server/internal/metrics"
	"github.com/robalobadob/wordle/apps/corner-server/internal/play"
	"github.com/robalobadob/wordle/apps/corner-server/internal/scores"
	"github.com/robalobadob/wordle/apps/corner-server/internal/store"
	"github.com/robalobadob/wordle/apps/corner-server/internal/words"
)

const secret = "test-secret-0123456789"

// Every game's solution is CRANE.
var dict = words.New([]string{"CRANE"}, []string{"SLATE", "ROUND", "GHOST", "TRACE", "BLAST", "PLANT", "STORM"})

func newTestServer(t *testing.T, jwtSecret string) *Server {
	t.Helper()
	svc := play.New(store.NewMemory(), scores.NewMemory(), dict)
	return New(svc, Options{JWTSecret: jwtSecret, Words: dict})
}

func do(t *testing.T, s *Server, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const gamePath = "/scopes/guild/players/ann/game"

func TestServer_GameFlow(t *testing.T) {
	s := newTestServer(t, "")

	rec, body := do(t, s, http.MethodPost, gamePath, map[string]string{"difficulty": "medium"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "in_progress", body["status"])
	assert.Equal(t, "guild", body["scope"])
	assert.Equal(t, "ann", body["player"])
	assert.NotContains(t, body, "solution")
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec, body = do(t, s, http.MethodPost, gamePath, nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_active", body["error"])

	rec, body = do(t, s, http.MethodPost, gamePath+"/guess", map[string]string{"word": "slate"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", body["status"])
	assert.EqualValues(t, 5, body["remaining"])
	result := body["result"].([]any)
	require.Len(t, result, 5)
	assert.Equal(t, map[string]any{"letter": "S", "status": "absent"}, result[0])

	rec, body = do(t, s, http.MethodPost, gamePath+"/guess", map[string]string{"word": "crane"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "won", body["status"])
	assert.EqualValues(t, 14, body["points"])
	assert.Equal(t, "CRANE", body["game"].(map[string]any)["solution"])

	rec, body = do(t, s, http.MethodGet, gamePath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "won", body["status"])
	kb := body["keyboard"].(map[string]any)
	assert.Equal(t, "correct", kb["A"])
	assert.Equal(t, "absent", kb["S"])

	rec, body = do(t, s, http.MethodGet, "/scopes/guild/players/ann/score", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 14, body["totalPoints"])
	assert.EqualValues(t, 1, body["gamesWon"])
	assert.EqualValues(t, 2, body["averageGuesses"])

	rec, _ = do(t, s, http.MethodDelete, gamePath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(t, s, http.MethodGet, gamePath, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestServer_ErrorMapping(t *testing.T) {
	s := newTestServer(t, "")

	rec, body := do(t, s, http.MethodPost, gamePath+"/guess", map[string]string{"word": "slate"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "game_not_active", body["error"])

	rec, body = do(t, s, http.MethodPost, gamePath, map[string]string{"difficulty": "extreme"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["error"])

	rec, _ = do(t, s, http.MethodPost, gamePath, map[string]string{"difficulty": "hard"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		word   string
		status int
		code   string
	}{
		{"cra", http.StatusBadRequest, "invalid_length"},
		{"qqqqq", http.StatusBadRequest, "not_a_word"},
		{"trace", http.StatusOK, ""},
		{"trace", http.StatusBadRequest, "already_guessed"},
		// TRACE pins R at 2; SLATE breaks it.
		{"slate", http.StatusUnprocessableEntity, "hard_mode"},
	}
	for _, tt := range tests {
		rec, body := do(t, s, http.MethodPost, gamePath+"/guess", map[string]string{"word": tt.word}, "")
		assert.Equal(t, tt.status, rec.Code, tt.word)
		if tt.code != "" {
			assert.Equal(t, tt.code, body["error"], tt.word)
		}
		if tt.code == "hard_mode" {
			assert.EqualValues(t, 2, body["position"])
			assert.Equal(t, "R", body["letter"])
		}
	}

	rec, body = do(t, s, http.MethodPost, "/scopes/guild/players/ann/game/guess", "not an object", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["error"])

	rec, body = do(t, s, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestServer_QuitAndLists(t *testing.T) {
	s := newTestServer(t, "")
	for _, p := range []string{"ann", "bob"} {
		rec, _ := do(t, s, http.MethodPost, "/scopes/guild/players/"+p+"/game", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scopes/guild/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var active []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active))
	assert.Len(t, active, 2)

	rec, body := do(t, s, http.MethodPost, gamePath+"/quit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quit", body["status"])
	assert.Equal(t, "CRANE", body["solution"])

	_, _ = do(t, s, http.MethodPost, "/scopes/guild/players/bob/game/guess", map[string]string{"word": "crane"}, "")
	_, _ = do(t, s, http.MethodPost, "/scopes/other/players/bob/game", nil, "")
	_, _ = do(t, s, http.MethodPost, "/scopes/other/players/bob/game/guess", map[string]string{"word": "crane"}, "")

	var board []map[string]any
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scopes/guild/leaderboard?n=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "bob", board[0]["player"])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0]["player"])
	assert.EqualValues(t, 30, board[0]["totalPoints"])

	rec, body = do(t, s, http.MethodGet, "/leaderboard?n=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["error"])

	rec, body = do(t, s, http.MethodGet, "/debug/words", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["solutions"])
	assert.EqualValues(t, 8, body["allowed"])
}

func TestServer_Auth(t *testing.T) {
	s := newTestServer(t, secret)

	rec, body := do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	rec, body = do(t, s, http.MethodPost, gamePath, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", body["error"])

	bad, err := SignToken("some-other-secret-value", "bot", time.Hour)
	require.NoError(t, err)
	rec, body = do(t, s, http.MethodPost, gamePath, nil, bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["error"])

	forever, err := SignToken(secret, "bot", -time.Hour)
	require.NoError(t, err)
	rec, _ = do(t, s, http.MethodPost, gamePath, nil, forever)
	assert.Equal(t, http.StatusOK, rec.Code, "non-positive ttl means no expiry")

	noSub, err := SignToken(secret, "", time.Hour)
	require.NoError(t, err)
	rec, body = do(t, s, http.MethodGet, gamePath, nil, noSub)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["error"])

	good, err := SignToken(secret, "bot", time.Hour)
	require.NoError(t, err)
	rec, body = do(t, s, http.MethodGet, gamePath, nil, good)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", body["status"])
}

func TestRequireAuth_SetsCaller(t *testing.T) {
	s := newTestServer(t, secret)
	var seen string
	h := s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = caller(r)
	}))
	tok, err := SignToken(secret, "corner-bot", 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "corner-bot", seen)
}

// failingBackend rejects every save.
type failingBackend struct{}

func (failingBackend) Load(context.Context, string) ([]byte, error) { return nil, nil }
func (failingBackend) Save(context.Context, string, []byte) error   { return errors.New("disk gone") }
func (failingBackend) Close() error                                 { return nil }

func TestServer_PersistenceWarningAndHealth(t *testing.T) {
	ctx := context.Background()
	opts := docstore.Options{Attempts: 1, Interval: time.Millisecond, FatalAfter: 2}
	st, err := store.Open(ctx, docstore.NewPersister(failingBackend{}, store.Record, opts))
	require.NoError(t, err)
	s := New(play.New(st, scores.NewMemory(), dict), Options{})

	rec, body := do(t, s, http.MethodPost, gamePath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["warning"], "persist sessions")

	rec, _ = do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, http.MethodPost, gamePath+"/guess", map[string]string{"word": "slate"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	svc := play.New(store.NewMemory(), scores.NewMemory(), dict).WithMetrics(m)
	s := New(svc, Options{JWTSecret: secret, Metrics: m})

	tok, err := SignToken(secret, "bot", time.Hour)
	require.NoError(t, err)
	rec, _ := do(t, s, http.MethodPost, gamePath, map[string]string{"difficulty": "easy"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	// Public even with auth enabled.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wordle_corner_games_started_total{difficulty="easy"} 1`)
}
