//go:build !integration

package web

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Mock Repositories (Ports) ---

type mockCodeRepo struct {
	repository.CodeRepository // Embed interface for forward compatibility
	mu                        sync.Mutex
	codes                     map[string]*model.AuthCode
	InsertError               error // To simulate errors
	ListError                 error
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codes: map[string]*model.AuthCode{}}
}

func (m *mockCodeRepo) seed(ac *model.AuthCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ac
	m.codes[ac.Code] = &cp
}

func (m *mockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ac, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ac
	return &cp, nil
}

func (m *mockCodeRepo) InsertNew(ctx context.Context, tx repository.Tx, code string, createdDate time.Time) (bool, error) {
	if m.InsertError != nil {
		return false, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code]; ok {
		return false, nil
	}
	m.codes[code] = &model.AuthCode{Code: code, CreatedDate: createdDate}
	return true, nil
}

func (m *mockCodeRepo) List(ctx context.Context, tx repository.Tx, f repository.ListFilter) ([]*model.AuthCode, int64, int64, error) {
	if m.ListError != nil {
		return nil, 0, 0, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*model.AuthCode
	var activated int64
	for _, ac := range m.codes {
		if f.Search != "" && !strings.Contains(ac.Code, strings.ToUpper(f.Search)) {
			continue
		}
		if f.Status == repository.StatusActivated && !ac.Activated {
			continue
		}
		if f.Status == repository.StatusUnactivated && ac.Activated {
			continue
		}
		if ac.Activated {
			activated++
		}
		cp := *ac
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	total := int64(len(items))
	start := (f.Page - 1) * f.PerPage
	if start > len(items) {
		start = len(items)
	}
	end := start + f.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, activated, nil
}

func (m *mockCodeRepo) ListForExport(ctx context.Context, tx repository.Tx, codes []string) ([]*model.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AuthCode
	if len(codes) == 0 {
		for _, ac := range m.codes {
			cp := *ac
			out = append(out, &cp)
		}
	} else {
		for _, c := range codes {
			if ac, ok := m.codes[c]; ok {
				cp := *ac
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockCodeRepo) Delete(ctx context.Context, tx repository.Tx, codes []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range codes {
		if _, ok := m.codes[c]; ok {
			delete(m.codes, c)
			n++
		}
	}
	return n, nil
}

func (m *mockCodeRepo) Aggregate(ctx context.Context, tx repository.Tx, dayStart time.Time) (*repository.Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg := &repository.Aggregate{}
	for _, ac := range m.codes {
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

func (m *mockCodeRepo) CountActivatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, ac := range m.codes {
		if ac.Activated && ac.ActivationDate != nil && !ac.ActivationDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockCodeRepo) RecentActivations(ctx context.Context, tx repository.Tx, limit int) ([]model.RecentActivation, error) {
	return nil, nil
}

type mockQueryLogRepo struct {
	repository.QueryLogRepository // Embed interface
	mu                            sync.Mutex
	records                       []*model.QueryLog
}

func (m *mockQueryLogRepo) Append(ctx context.Context, tx repository.Tx, rec *model.QueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockQueryLogRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.QueryLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.QueryLog
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.records[i].Code == code {
			cp := *m.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}
