//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func cloneCode(ac *model.AuthCode) *model.AuthCode {
	cp := *ac
	return &cp
}

// ---- Mock CodeRepository ----

// MockCodeRepo is an in-memory code store. The mutex makes it safe for the
// concurrent verification tests; overridable Func fields allow error
// injection per method.
type MockCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.AuthCode

	FindByCodeFunc      func(ctx context.Context, tx repository.Tx, code string) (*model.AuthCode, error)
	InsertNewFunc       func(ctx context.Context, tx repository.Tx, code string, createdDate time.Time) (bool, error)
	ActivateIfFirstFunc func(ctx context.Context, tx repository.Tx, code, ip, userAgent string, now time.Time) (*model.AuthCode, bool, error)
}

var _ repository.CodeRepository = (*MockCodeRepo)(nil)

func NewMockCodeRepo() *MockCodeRepo {
	return &MockCodeRepo{codes: map[string]*model.AuthCode{}}
}

// Seed inserts a code directly, bypassing any Func override.
func (r *MockCodeRepo) Seed(ac *model.AuthCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[ac.Code] = cloneCode(ac)
}

func (r *MockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AuthCode, error) {
	if r.FindByCodeFunc != nil {
		return r.FindByCodeFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCode(ac), nil
}

func (r *MockCodeRepo) InsertNew(ctx context.Context, tx repository.Tx, code string, createdDate time.Time) (bool, error) {
	if r.InsertNewFunc != nil {
		return r.InsertNewFunc(ctx, tx, code, createdDate)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code]; ok {
		return false, nil
	}
	r.codes[code] = &model.AuthCode{Code: code, CreatedDate: createdDate}
	return true, nil
}

func (r *MockCodeRepo) ActivateIfFirst(ctx context.Context, tx repository.Tx, code, ip, userAgent string, now time.Time) (*model.AuthCode, bool, error) {
	if r.ActivateIfFirstFunc != nil {
		return r.ActivateIfFirstFunc(ctx, tx, code, ip, userAgent, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.codes[code]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	first := !ac.Activated
	if first {
		ac.Activated = true
		t := now
		ac.ActivationDate = &t
		ipCopy, uaCopy := ip, userAgent
		ac.ActivationIP = &ipCopy
		ac.ActivationUserAgent = &uaCopy
	}
	ac.QueryCount++
	lq := now
	ac.LastQueryDate = &lq
	return cloneCode(ac), first, nil
}

func (r *MockCodeRepo) List(ctx context.Context, tx repository.Tx, f repository.ListFilter) ([]*model.AuthCode, int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*model.AuthCode
	var activated int64
	for _, ac := range r.codes {
		if f.Search != "" && !strings.Contains(ac.Code, strings.ToUpper(f.Search)) {
			continue
		}
		switch f.Status {
		case repository.StatusActivated:
			if !ac.Activated {
				continue
			}
		case repository.StatusUnactivated:
			if ac.Activated {
				continue
			}
		}
		if ac.Activated {
			activated++
		}
		matched = append(matched, cloneCode(ac))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch f.Sort {
		case repository.SortByCode:
			less = a.Code < b.Code
		case repository.SortByQueryCount:
			less = a.QueryCount < b.QueryCount
		default:
			less = a.CreatedDate.Before(b.CreatedDate)
		}
		if f.Order == repository.OrderDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, activated, nil
}

func (r *MockCodeRepo) ListForExport(ctx context.Context, tx repository.Tx, codes []string) ([]*model.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuthCode
	if len(codes) == 0 {
		for _, ac := range r.codes {
			out = append(out, cloneCode(ac))
		}
	} else {
		for _, c := range codes {
			if ac, ok := r.codes[c]; ok {
				out = append(out, cloneCode(ac))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MockCodeRepo) Delete(ctx context.Context, tx repository.Tx, codes []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range codes {
		if _, ok := r.codes[c]; ok {
			delete(r.codes, c)
			n++
		}
	}
	return n, nil
}

func (r *MockCodeRepo) Aggregate(ctx context.Context, tx repository.Tx, dayStart time.Time) (*repository.Aggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg := &repository.Aggregate{}
	for _, ac := range r.codes {
		agg.TotalCodes++
		if ac.Activated {
			agg.ActivatedCodes++
		}
		if ac.LastQueryDate != nil && !ac.LastQueryDate.Before(dayStart) {
			agg.TodayQueries++
		}
	}
	return agg, nil
}

func (r *MockCodeRepo) CountActivatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, ac := range r.codes {
		if ac.Activated && ac.ActivationDate != nil && !ac.ActivationDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MockCodeRepo) RecentActivations(ctx context.Context, tx repository.Tx, limit int) ([]model.RecentActivation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RecentActivation
	for _, ac := range r.codes {
		if ac.Activated && ac.ActivationDate != nil {
			out = append(out, model.RecentActivation{
				Code:           ac.Code,
				ActivationDate: *ac.ActivationDate,
				QueryCount:     ac.QueryCount,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivationDate.After(out[j].ActivationDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Mock QueryLogRepository ----

type MockQueryLogRepo struct {
	mu      sync.Mutex
	records []*model.QueryLog

	AppendFunc func(ctx context.Context, tx repository.Tx, rec *model.QueryLog) error
}

var _ repository.QueryLogRepository = (*MockQueryLogRepo)(nil)

func NewMockQueryLogRepo() *MockQueryLogRepo {
	return &MockQueryLogRepo{}
}

func (r *MockQueryLogRepo) Append(ctx context.Context, tx repository.Tx, rec *model.QueryLog) error {
	if r.AppendFunc != nil {
		return r.AppendFunc(ctx, tx, rec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *MockQueryLogRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.QueryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.QueryLog
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].Code == code {
			cp := *r.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockQueryLogRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*model.QueryLog
	var n int64
	for _, rec := range r.records {
		if rec.QueryTime.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return n, nil
}

// Records returns a snapshot of everything appended so far.
func (r *MockQueryLogRepo) Records() []*model.QueryLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.QueryLog, len(r.records))
	copy(out, r.records)
	return out
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the callback directly with a nil tx. Assign WithTxFunc to
// control transaction behavior in a specific test.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
