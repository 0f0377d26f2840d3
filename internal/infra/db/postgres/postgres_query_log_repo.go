package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.QueryLogRepository = (*queryLogRepo)(nil)

type queryLogRepo struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepo(pool *pgxpool.Pool) repository.QueryLogRepository {
	return &queryLogRepo{pool: pool}
}

func (r *queryLogRepo) Append(ctx context.Context, tx repository.Tx, rec *model.QueryLog) error {
	const q = `
INSERT INTO query_logs (id, code, client_ip, user_agent, query_time, result)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.Code, rec.ClientIP, rec.UserAgent, rec.QueryTime, string(rec.Result),
	)
	return err
}

func (r *queryLogRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.QueryLog, error) {
	const q = `
SELECT id, code, client_ip, user_agent, query_time, result
  FROM query_logs
 WHERE code = $1
 ORDER BY query_time DESC
 LIMIT $2;
`
	rows, err := pickRows(ctx, r.pool, tx, q, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.QueryLog
	for rows.Next() {
		var rec model.QueryLog
		var result string
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.ClientIP, &rec.UserAgent, &rec.QueryTime, &result); err != nil {
			return nil, err
		}
		rec.Result = model.QueryResult(result)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *queryLogRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM query_logs WHERE query_time < $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
