package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeRepository = (*codeRepo)(nil)

type codeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) repository.CodeRepository {
	return &codeRepo{pool: pool}
}

const codeColumns = `code, created_date, activated, activation_date, activation_ip, activation_user_agent, query_count, last_query_date`

func scanCode(row pgx.Row) (*model.AuthCode, error) {
	var ac model.AuthCode
	err := row.Scan(
		&ac.Code, &ac.CreatedDate, &ac.Activated, &ac.ActivationDate,
		&ac.ActivationIP, &ac.ActivationUserAgent, &ac.QueryCount, &ac.LastQueryDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ac, nil
}

func (r *codeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AuthCode, error) {
	q := `SELECT ` + codeColumns + ` FROM auth_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

// InsertNew relies on the primary key for de-duplication: ON CONFLICT DO
// NOTHING makes replays and racing inserts of the same code a no-op merge.
func (r *codeRepo) InsertNew(ctx context.Context, tx repository.Tx, code string, createdDate time.Time) (bool, error) {
	const q = `
INSERT INTO auth_codes (code, created_date, activated, query_count)
VALUES ($1, $2, FALSE, 0)
ON CONFLICT (code) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q, code, createdDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ActivateIfFirst must run inside a transaction: the conditional activation
// and the counter bump are two statements that have to commit together.
//
// The activation itself is a single conditional update. Its affected-row
// count is what decides first_activation: the row lock serializes concurrent
// verifications of the same code, and the loser re-evaluates
// activated = FALSE against the committed winner, matching zero rows.
func (r *codeRepo) ActivateIfFirst(ctx context.Context, tx repository.Tx, code, ip, userAgent string, now time.Time) (*model.AuthCode, bool, error) {
	const qActivate = `
UPDATE auth_codes
   SET activated = TRUE,
       activation_date = $2,
       activation_ip = $3,
       activation_user_agent = $4
 WHERE code = $1 AND activated = FALSE;
`
	tag, err := execSQL(ctx, r.pool, tx, qActivate, code, now, ip, userAgent)
	if err != nil {
		return nil, false, err
	}
	first := tag.RowsAffected() == 1

	qTouch := `
UPDATE auth_codes
   SET query_count = query_count + 1,
       last_query_date = $2
 WHERE code = $1
RETURNING ` + codeColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, qTouch, code, now)
	if err != nil {
		return nil, false, err
	}
	ac, err := scanCode(row)
	if err != nil {
		return nil, false, err
	}
	return ac, first, nil
}

var sortColumns = map[repository.SortField]string{
	repository.SortByCode:           "code",
	repository.SortByCreatedDate:    "created_date",
	repository.SortByActivationDate: "activation_date",
	repository.SortByQueryCount:     "query_count",
}

func (r *codeRepo) List(ctx context.Context, tx repository.Tx, f repository.ListFilter) ([]*model.AuthCode, int64, int64, error) {
	where := ""
	args := []interface{}{}
	n := 0
	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	if f.Search != "" {
		n++
		and(fmt.Sprintf("code ILIKE '%%' || $%d || '%%'", n))
		args = append(args, f.Search)
	}
	switch f.Status {
	case repository.StatusActivated:
		and("activated = TRUE")
	case repository.StatusUnactivated:
		and("activated = FALSE")
	}

	// Sort input is whitelist-mapped; anything unknown lists newest first.
	col, ok := sortColumns[f.Sort]
	if !ok {
		col = "created_date"
	}
	dir := "DESC"
	if f.Order == repository.OrderAsc {
		dir = "ASC"
	}
	// NULLS LAST keeps never-activated rows at the tail when sorting by
	// activation_date ascending.
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, code ASC", col, dir)

	var total, activated int64
	countQ := `SELECT COUNT(*), COUNT(*) FILTER (WHERE activated) FROM auth_codes` + where + `;`
	row, err := pickRow(ctx, r.pool, tx, countQ, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := row.Scan(&total, &activated); err != nil {
		return nil, 0, 0, err
	}

	pageQ := fmt.Sprintf(
		`SELECT %s FROM auth_codes%s%s LIMIT $%d OFFSET $%d;`,
		codeColumns, where, order, n+1, n+2,
	)
	pageArgs := append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := pickRows(ctx, r.pool, tx, pageQ, pageArgs...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	items := make([]*model.AuthCode, 0, f.PerPage)
	for rows.Next() {
		ac, err := scanCode(rows)
		if err != nil {
			return nil, 0, 0, err
		}
		items = append(items, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}
	return items, total, activated, nil
}

func (r *codeRepo) ListForExport(ctx context.Context, tx repository.Tx, codes []string) ([]*model.AuthCode, error) {
	q := `SELECT ` + codeColumns + ` FROM auth_codes ORDER BY created_date DESC;`
	args := []interface{}{}
	if len(codes) > 0 {
		q = `SELECT ` + codeColumns + ` FROM auth_codes WHERE code = ANY($1) ORDER BY created_date DESC;`
		args = append(args, codes)
	}
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.AuthCode
	for rows.Next() {
		ac, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ac)
	}
	return items, rows.Err()
}

func (r *codeRepo) Delete(ctx context.Context, tx repository.Tx, codes []string) (int64, error) {
	const q = `DELETE FROM auth_codes WHERE code = ANY($1);`
	tag, err := execSQL(ctx, r.pool, tx, q, codes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *codeRepo) Aggregate(ctx context.Context, tx repository.Tx, dayStart time.Time) (*repository.Aggregate, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE activated),
       COUNT(*) FILTER (WHERE last_query_date >= $1)
  FROM auth_codes;
`
	row, err := pickRow(ctx, r.pool, tx, q, dayStart)
	if err != nil {
		return nil, err
	}
	var agg repository.Aggregate
	if err := row.Scan(&agg.TotalCodes, &agg.ActivatedCodes, &agg.TodayQueries); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *codeRepo) CountActivatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM auth_codes WHERE activated AND activation_date >= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, since)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *codeRepo) RecentActivations(ctx context.Context, tx repository.Tx, limit int) ([]model.RecentActivation, error) {
	const q = `
SELECT code, activation_date, query_count
  FROM auth_codes
 WHERE activated
 ORDER BY activation_date DESC
 LIMIT $1;
`
	rows, err := pickRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RecentActivation
	for rows.Next() {
		var ra model.RecentActivation
		if err := rows.Scan(&ra.Code, &ra.ActivationDate, &ra.QueryCount); err != nil {
			return nil, err
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}
