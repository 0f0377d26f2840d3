package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Compile-time check
var _ SyncUseCase = (*syncUC)(nil)

// SyncUseCase merges a batch of externally generated codes into the store.
// The merge is a set union keyed by code: replaying an identical batch adds
// nothing and errors nothing.
type SyncUseCase interface {
	Sync(ctx context.Context, entries []model.SyncEntry) (*model.SyncReport, error)
}

type syncUC struct {
	codes repository.CodeRepository
	now   func() time.Time

	log *zerolog.Logger
}

func NewSyncUseCase(codes repository.CodeRepository, logger *zerolog.Logger) *syncUC {
	return &syncUC{codes: codes, now: time.Now, log: logger}
}

// Sync processes entries as independent per-code upserts. Malformed entries
// are rejected individually and reported apart from duplicates; they never
// abort the batch. Each upsert only ever creates rows in the unactivated
// state, so racing a concurrent verification reduces to "does the row exist".
func (uc *syncUC) Sync(ctx context.Context, entries []model.SyncEntry) (*model.SyncReport, error) {
	if len(entries) == 0 {
		return nil, domain.ErrInvalidArgument
	}

	rep := &model.SyncReport{Total: len(entries)}
	for _, e := range entries {
		code, ok := NormalizeCode(e.Code)
		if !ok {
			rep.Invalid++
			rep.InvalidCodes = append(rep.InvalidCodes, e.Code)
			continue
		}
		created := e.CreatedDate
		if created.IsZero() {
			created = uc.now()
		}
		inserted, err := uc.codes.InsertNew(ctx, repository.NoTX, code, created)
		if err != nil {
			return nil, domain.WrapStorage(err)
		}
		if inserted {
			rep.Added++
			rep.NewCodes = append(rep.NewCodes, code)
		} else {
			rep.Skipped++
			rep.ExistingCodes = append(rep.ExistingCodes, code)
		}
	}

	uc.log.Info().
		Int("added", rep.Added).
		Int("skipped", rep.Skipped).
		Int("invalid", rep.Invalid).
		Msg("code sync complete")
	return rep, nil
}
