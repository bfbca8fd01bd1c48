package postgres

import (
	"context"
	"fmt"

	"shared-account-ledger/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Pool is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it too, which is what the repo unit tests rely on.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool creates a PostgreSQL connection pool using pgx.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", cfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id               BIGSERIAL PRIMARY KEY,
	balance          BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	next_withdraw_id BIGINT NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS account_owners (
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	identity   TEXT NOT NULL,
	position   INT NOT NULL,
	PRIMARY KEY (account_id, identity)
);
CREATE INDEX IF NOT EXISTS idx_account_owners_identity ON account_owners (identity, account_id);

CREATE TABLE IF NOT EXISTS withdrawal_requests (
	account_id  BIGINT NOT NULL REFERENCES accounts(id),
	withdraw_id BIGINT NOT NULL,
	requester   TEXT NOT NULL,
	amount      BIGINT NOT NULL CHECK (amount > 0),
	status      TEXT NOT NULL DEFAULT 'PENDING',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (account_id, withdraw_id)
);

CREATE TABLE IF NOT EXISTS withdrawal_approvals (
	seq         BIGSERIAL,
	account_id  BIGINT NOT NULL,
	withdraw_id BIGINT NOT NULL,
	approver    TEXT NOT NULL,
	PRIMARY KEY (account_id, withdraw_id, approver),
	FOREIGN KEY (account_id, withdraw_id) REFERENCES withdrawal_requests (account_id, withdraw_id)
);

CREATE TABLE IF NOT EXISTS facts (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID NOT NULL UNIQUE,
	account_id  BIGINT NOT NULL,
	kind        TEXT NOT NULL,
	payload     JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_facts_account ON facts (account_id, seq);
`

// Migrate applies the ledger schema. Idempotent; safe to run at startup.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
