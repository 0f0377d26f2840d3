package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

// AdminUseCase backs the admin console: inventory listing, code detail with
// audit history, generation, import of single codes, deletion and export.
type AdminUseCase interface {
	List(ctx context.Context, f repository.ListFilter) (*CodePage, error)
	Get(ctx context.Context, code string) (*CodeDetail, error)
	Generate(ctx context.Context, count int) ([]string, error)
	Add(ctx context.Context, rawCode string, createdDate time.Time) (*model.AuthCode, error)
	Delete(ctx context.Context, codes []string) (int64, error)
	Export(ctx context.Context, codes []string) ([]*model.AuthCode, error)
}

// CodePage is one page of the admin listing plus the counts the console
// renders in its header.
type CodePage struct {
	Items     []*model.AuthCode
	Total     int64
	Activated int64
	Page      int
	PerPage   int
}

type CodeDetail struct {
	Code    *model.AuthCode
	History []*model.QueryLog
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxGenerate    = 1000
	detailHistory  = 20

	// attempts per code before giving up on the random generator producing
	// something not already taken
	generateRetries = 100
)

type adminUC struct {
	codes repository.CodeRepository
	logs  repository.QueryLogRepository
	now   func() time.Time

	log *zerolog.Logger
}

func NewAdminUseCase(codes repository.CodeRepository, logs repository.QueryLogRepository, logger *zerolog.Logger) *adminUC {
	return &adminUC{codes: codes, logs: logs, now: time.Now, log: logger}
}

func (uc *adminUC) List(ctx context.Context, f repository.ListFilter) (*CodePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
	if f.Status == "" {
		f.Status = repository.StatusAll
	}
	switch f.Status {
	case repository.StatusAll, repository.StatusActivated, repository.StatusUnactivated:
	default:
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidArgument, f.Status)
	}

	items, total, activated, err := uc.codes.List(ctx, repository.NoTX, f)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	return &CodePage{
		Items:     items,
		Total:     total,
		Activated: activated,
		Page:      f.Page,
		PerPage:   f.PerPage,
	}, nil
}

func (uc *adminUC) Get(ctx context.Context, rawCode string) (*CodeDetail, error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, domain.ErrInvalidCode
	}
	ac, err := uc.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, err
	}
	history, err := uc.logs.ListByCode(ctx, repository.NoTX, code, detailHistory)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	return &CodeDetail{Code: ac, History: history}, nil
}

// Generate creates count fresh codes. Collisions with existing codes are
// resolved by regenerating; the uniqueness constraint stays authoritative.
func (uc *adminUC) Generate(ctx context.Context, count int) ([]string, error) {
	if count < 1 || count > maxGenerate {
		return nil, fmt.Errorf("%w: count must be 1..%d", domain.ErrInvalidArgument, maxGenerate)
	}

	created := make([]string, 0, count)
	now := uc.now()
	for len(created) < count {
		var inserted bool
		for attempt := 0; attempt < generateRetries; attempt++ {
			code, err := generateCode()
			if err != nil {
				return created, err
			}
			ok, err := uc.codes.InsertNew(ctx, repository.NoTX, code, now)
			if err != nil {
				return created, domain.WrapStorage(err)
			}
			if ok {
				created = append(created, code)
				inserted = true
				break
			}
		}
		if !inserted {
			return created, fmt.Errorf("code space too crowded after %d attempts", generateRetries)
		}
	}

	uc.log.Info().Int("count", len(created)).Msg("codes generated")
	return created, nil
}

func (uc *adminUC) Add(ctx context.Context, rawCode string, createdDate time.Time) (*model.AuthCode, error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, domain.ErrInvalidCode
	}
	if createdDate.IsZero() {
		createdDate = uc.now()
	}
	inserted, err := uc.codes.InsertNew(ctx, repository.NoTX, code, createdDate)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	if !inserted {
		return nil, fmt.Errorf("%w: code %s", domain.ErrAlreadyExists, code)
	}
	return uc.codes.FindByCode(ctx, repository.NoTX, code)
}

func (uc *adminUC) Delete(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, domain.ErrInvalidArgument
	}
	normalized := make([]string, 0, len(codes))
	for _, raw := range codes {
		code, ok := NormalizeCode(raw)
		if !ok {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidCode, raw)
		}
		normalized = append(normalized, code)
	}
	n, err := uc.codes.Delete(ctx, repository.NoTX, normalized)
	if err != nil {
		return 0, domain.WrapStorage(err)
	}
	uc.log.Info().Int64("deleted", n).Msg("codes deleted")
	return n, nil
}

func (uc *adminUC) Export(ctx context.Context, codes []string) ([]*model.AuthCode, error) {
	normalized := make([]string, 0, len(codes))
	for _, raw := range codes {
		if code, ok := NormalizeCode(raw); ok {
			normalized = append(normalized, code)
		}
	}
	items, err := uc.codes.ListForExport(ctx, repository.NoTX, normalized)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	return items, nil
}
