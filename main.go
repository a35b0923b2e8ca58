package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/corner-server/internal/config"
	"github.com/robalobadob/wordle/apps/corner-server/internal/daily"
	"github.com/robalobadob/wordle/apps/corner-server/internal/docstore"
	"github.com/robalobadob/wordle/apps/corner-server/internal/game"
	"github.com/robalobadob/wordle/apps/corner-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/corner-server/internal/metrics"
	"github.com/robalobadob/wordle/apps/corner-server/internal/play"
	"github.com/robalobadob/wordle/apps/corner-server/internal/scores"
	"github.com/robalobadob/wordle/apps/corner-server/internal/store"
	"github.com/robalobadob/wordle/apps/corner-server/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg.Log)

	// corner-server token <subject> [ttl]: mint a bearer token for a bot.
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := mintToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	list, err := words.Load(cfg.Words.AnswersFile, cfg.Words.AllowedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	var dict game.Dictionary = list
	if cfg.Words.SolutionMode == "daily" {
		dict = daily.NewSource(list, cfg.Words.DailySalt, time.Now)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open storage")
	}
	defer backend.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	opts := docstore.Options{
		Attempts:   cfg.Persist.RetryAttempts,
		Interval:   cfg.Persist.RetryInterval,
		FatalAfter: cfg.Persist.FatalAfter,
		OnFatal: func(record string, err error) {
			m.PersistFatal(record)
			log.Error().Err(err).Str("record", record).Msg("persistence is failing; state is no longer durable")
		},
		OnFailure: func(record string, _ error) { m.PersistFailed(record) },
	}
	sessions, err := store.Open(ctx, docstore.NewPersister(backend, store.Record, opts))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load sessions")
	}
	ledger, err := scores.Open(ctx, docstore.NewPersister(backend, scores.Record, opts))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scores")
	}

	svc := play.New(sessions, ledger, dict).WithMetrics(m)
	srv := httpserver.New(svc, httpserver.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		Words:          list,
		Metrics:        m,
	})
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("AUTH_JWT_SECRET not set; command API is unauthenticated")
	}

	httpSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).
		Str("solutions", cfg.Words.SolutionMode).Msg("starting corner-server")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(c config.LogConfig) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (docstore.Backend, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return docstore.NewSQLiteBackend(cfg.Storage.SQLitePath)
	case "redis":
		return docstore.NewRedisBackend(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	case "postgres":
		return docstore.NewPostgresBackend(ctx, cfg.Storage.DatabaseURL)
	default:
		return docstore.NewFileBackend(cfg.Storage.Dir)
	}
}

func mintToken(cfg *config.Config, args []string) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	if len(args) < 1 || args[0] == "" {
		return errors.New("usage: corner-server token <subject> [ttl]")
	}
	var ttl time.Duration
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("ttl: %w", err)
		}
		ttl = d
	}
	tok, err := httpserver.SignToken(cfg.Auth.JWTSecret, args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
