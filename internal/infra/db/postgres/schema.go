package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema is applied idempotently at startup. One row per code; the primary
// key on code is the authoritative de-duplication mechanism for sync.
const schema = `
CREATE TABLE IF NOT EXISTS auth_codes (
    code                  VARCHAR(12) PRIMARY KEY,
    created_date          TIMESTAMPTZ NOT NULL,
    activated             BOOLEAN NOT NULL DEFAULT FALSE,
    activation_date       TIMESTAMPTZ,
    activation_ip         VARCHAR(45),
    activation_user_agent TEXT,
    query_count           BIGINT NOT NULL DEFAULT 0,
    last_query_date       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_auth_codes_activated ON auth_codes (activated);
CREATE INDEX IF NOT EXISTS idx_auth_codes_activation_date ON auth_codes (activation_date);
CREATE INDEX IF NOT EXISTS idx_auth_codes_last_query_date ON auth_codes (last_query_date);

CREATE TABLE IF NOT EXISTS query_logs (
    id         VARCHAR(26) PRIMARY KEY,
    code       VARCHAR(12) NOT NULL,
    client_ip  VARCHAR(45),
    user_agent TEXT,
    query_time TIMESTAMPTZ NOT NULL,
    result     VARCHAR(20) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_logs_code ON query_logs (code);
CREATE INDEX IF NOT EXISTS idx_query_logs_query_time ON query_logs (query_time);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
