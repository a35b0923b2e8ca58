package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores documents in a documents table, one row per record.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and creates the documents table if missing.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS documents (
            name       TEXT PRIMARY KEY,
            body       TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, record string) ([]byte, error) {
	var body string
	err := b.pool.QueryRow(ctx, `SELECT body FROM documents WHERE name=$1`, record).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (b *PostgresBackend) Save(ctx context.Context, record string, data []byte) error {
	_, err := b.pool.Exec(ctx, `
        INSERT INTO documents (name, body, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (name) DO UPDATE SET body=EXCLUDED.body, updated_at=EXCLUDED.updated_at`,
		record, string(data), time.Now().UTC(),
	)
	return err
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
