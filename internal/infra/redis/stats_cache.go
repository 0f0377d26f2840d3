package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/usecase"
)

// Ensure the decorator stays a drop-in StatsUseCase.
var _ usecase.StatsUseCase = (*CachedStatsUseCase)(nil)

const statsKey = "stats:overview"

// CachedStatsUseCase decorates StatsUseCase with a short-TTL snapshot so the
// public status endpoint does not hammer the database. Stats are explicitly
// allowed to lag in-flight activations, so serving a slightly stale snapshot
// is within contract. Cache failures fall through to the database.
type CachedStatsUseCase struct {
	inner usecase.StatsUseCase
	cli   RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCachedStatsUseCase(inner usecase.StatsUseCase, cli RedisClient, ttl time.Duration, logger *zerolog.Logger) *CachedStatsUseCase {
	return &CachedStatsUseCase{inner: inner, cli: cli, ttl: ttl, log: logger}
}

func (c *CachedStatsUseCase) Overview(ctx context.Context) (*model.StatsSnapshot, error) {
	if raw, err := c.cli.Get(ctx, statsKey); err == nil {
		var snap model.StatsSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			return &snap, nil
		}
	} else if !IsNotFound(err) {
		c.log.Warn().Err(err).Msg("stats cache read failed")
	}

	snap, err := c.inner.Overview(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(snap); err == nil {
		if err := c.cli.Set(ctx, statsKey, b, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("stats cache write failed")
		}
	}
	return snap, nil
}
