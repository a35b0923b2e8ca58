// internal/httpserver/server.go
//
// HTTP command API for the Wordle Corner server.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs, request log).
//   - Public endpoints: "/", "/health", "/metrics" (when metrics are attached).
//   - Game commands per scope and player (start, status, guess, quit, clear).
//   - Score and leaderboard queries.
//
// Notes:
//   - When a JWT secret is configured every route except the public ones
//     requires an HS256 bearer token with a non-empty subject.
//   - Handlers carry no game rules; they translate JSON to play.Service calls
//     and map the returned errors to status codes (errors.go).

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/metrics"
	"github.com/robalobadob/wordle/apps/corner-server/internal/play"
)

// WordStats reports dictionary sizes for /debug/words.
type WordStats interface {
	Stats() (solutions int, allowed int)
}

// Options configures a Server.
type Options struct {
	JWTSecret      string           // empty disables auth
	RequestTimeout time.Duration    // default 10s
	Words          WordStats        // optional
	Metrics        *metrics.Metrics // optional; serves /metrics
}

// Server bundles the router and the play service.
type Server struct {
	r      *chi.Mux
	svc    *play.Service
	words  WordStats
	secret []byte
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *play.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), svc: svc, words: opts.Words, secret: []byte(opts.JWTSecret)}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                      // one debug line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordle-corner","endpoints":["/health","/scopes/{scope}/players/{player}/game","/leaderboard"]}`))
	})
	s.r.Get("/health", s.handleHealth)
	if opts.Metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// Commands and queries (auth when configured)
	s.r.Group(func(r chi.Router) {
		if len(s.secret) > 0 {
			r.Use(s.requireAuth)
		}
		r.Route("/scopes/{scope}", func(r chi.Router) {
			r.Route("/players/{player}", func(r chi.Router) {
				r.Post("/game", s.handleStart)
				r.Get("/game", s.handleStatus)
				r.Delete("/game", s.handleClear)
				r.Post("/game/guess", s.handleGuess)
				r.Post("/game/quit", s.handleQuit)
				r.Get("/score", s.handleScore)
			})
			r.Get("/games", s.handleListActive)
			r.Get("/leaderboard", s.handleLeaderboard)
		})
		r.Get("/leaderboard", s.handleGlobalLeaderboard)

		// Debug: word list counts
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			if s.words == nil {
				writeError(w, http.StatusNotFound, "not_found", "no dictionary attached")
				return
			}
			sol, allowed := s.words.Stats()
			writeJSON(w, http.StatusOK, map[string]int{"solutions": sol, "allowed": allowed})
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "persistence_failing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs method, path, status and latency at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}
