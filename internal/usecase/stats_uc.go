package usecase

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase derives system-wide counters from the code store on demand.
// There is no in-memory tally to drift out of sync with durable state.
type StatsUseCase interface {
	Overview(ctx context.Context) (*model.StatsSnapshot, error)
}

const recentActivationsLimit = 5

type statsUC struct {
	codes repository.CodeRepository
	now   func() time.Time

	log *zerolog.Logger
}

func NewStatsUseCase(codes repository.CodeRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{codes: codes, now: time.Now, log: logger}
}

func (s *statsUC) Overview(ctx context.Context) (*model.StatsSnapshot, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	agg, err := s.codes.Aggregate(ctx, repository.NoTX, dayStart)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	week, err := s.codes.CountActivatedSince(ctx, repository.NoTX, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	recent, err := s.codes.RecentActivations(ctx, repository.NoTX, recentActivationsLimit)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}

	return &model.StatsSnapshot{
		TotalCodes:        agg.TotalCodes,
		ActivatedCodes:    agg.ActivatedCodes,
		ActivationRate:    activationRate(agg.ActivatedCodes, agg.TotalCodes),
		TodayQueries:      agg.TodayQueries,
		WeekActivations:   week,
		RecentActivations: recent,
	}, nil
}

// activationRate is a percentage rounded to two decimals; zero when the store
// is empty rather than a division fault.
func activationRate(activated, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(activated)/float64(total)*100*100) / 100
}
