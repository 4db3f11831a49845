// Package postgres stores price batches in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideprice/internal/fare"
	"rideprice/internal/store"
)

const backend = "postgres"

// Config holds the connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// URL renders the config as a postgres:// connection string.
func (c Config) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens a connection pool and pings the server.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("postgres: host and user are required")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store appends price records to the ride_prices table.
type Store struct {
	db DB
}

func New(db DB) *Store { return &Store{db: db} }

const schema = `
CREATE TABLE IF NOT EXISTS ride_prices (
	id              UUID PRIMARY KEY,
	batch_id        UUID NOT NULL,
	provider        TEXT NOT NULL,
	service_key     TEXT NOT NULL,
	category        TEXT,
	price           BIGINT,
	reference_price BIGINT,
	is_discounted   BOOLEAN NOT NULL DEFAULT FALSE,
	discount_text   TEXT NOT NULL DEFAULT '',
	fetched_at      TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ride_prices_provider_fetched_at_idx ON ride_prices (provider, fetched_at DESC);
CREATE INDEX IF NOT EXISTS ride_prices_batch_id_idx ON ride_prices (batch_id);
`

const insertSQL = `INSERT INTO ride_prices
	(id, batch_id, provider, service_key, category, price, reference_price, is_discounted, discount_text, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Migrate creates the table and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return &fare.StorageError{Backend: backend, Err: fmt.Errorf("migrate: %w", err)}
	}
	return nil
}

// Append inserts one row per record in a single round trip.
func (s *Store) Append(ctx context.Context, b store.Batch) error {
	if len(b.Records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.Records {
		batch.Queue(insertSQL,
			uuid.New(), b.ID, string(b.Provider), r.ServiceKey, r.Category,
			r.Price, r.ReferencePrice, r.IsDiscounted, r.DiscountText, b.FetchedAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	for i := range b.Records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return &fare.StorageError{Backend: backend, Err: fmt.Errorf("insert record %d of batch %s: %w", i, b.ID, err)}
		}
	}
	if err := results.Close(); err != nil {
		return &fare.StorageError{Backend: backend, Err: fmt.Errorf("close batch %s: %w", b.ID, err)}
	}
	return nil
}
